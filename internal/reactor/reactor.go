// SPDX-License-Identifier: MPL-2.0

// Package reactor models the in-progress build set: sibling modules built in
// the same invocation whose outputs may not exist yet.
//
// A Session answers two questions for the resolver: is a coordinate one of the
// modules being built, and when will its output be ready. Readiness is
// delivered as a single Completion on a channel, so callers block without
// polling.
package reactor

import (
	"context"
	"fmt"
	"sync"

	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

const (
	// Ready means the module's output file exists.
	Ready State = iota + 1
	// Failed means the module's own build failed.
	Failed
	// Aborted means the build session stopped because of an earlier failure,
	// or the wait was cancelled.
	Aborted
)

type (
	// State is the outcome carried by a Completion.
	State int

	// Completion is the tagged result of waiting on a module.
	Completion struct {
		State State
		// File is the output path when State is Ready.
		File string
		// Err describes a failure or abort.
		Err error
	}

	// Module is one member of the in-progress build set.
	Module struct {
		Coordinate coord.Coordinate
		Descriptor *sdumod.Descriptor
		// OutputFile is where the module's build output will appear. Empty for
		// modules that produce no file.
		OutputFile string
	}

	// Session is the boundary to the build orchestrator.
	Session interface {
		// Lookup finds an in-progress module by group, artifact and version.
		Lookup(group, artifact, version string) (*Module, bool)
		// Await delivers exactly one Completion for m.
		Await(ctx context.Context, m *Module) <-chan Completion
	}

	// Memory is an in-process Session driven by explicit calls to Complete,
	// Fail and Abort. It is safe for concurrent use.
	Memory struct {
		mu      sync.Mutex
		modules []*Module
		results map[string]Completion
		waiters map[string][]chan Completion
		abort   error
	}
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// None is a Session with no in-progress modules.
var None Session = noneSession{}

type noneSession struct{}

func (noneSession) Lookup(string, string, string) (*Module, bool) { return nil, false }

func (noneSession) Await(context.Context, *Module) <-chan Completion {
	ch := make(chan Completion, 1)
	ch <- Completion{State: Aborted, Err: fmt.Errorf("no build session")}
	return ch
}

// NewMemory returns an empty in-process session.
func NewMemory() *Memory {
	return &Memory{
		results: make(map[string]Completion),
		waiters: make(map[string][]chan Completion),
	}
}

func gav(group, artifact, version string) string {
	return group + ":" + artifact + ":" + version
}

func moduleKey(m *Module) string {
	return gav(m.Coordinate.Group, m.Coordinate.Artifact, m.Coordinate.Version)
}

// Register adds a module to the build set.
func (s *Memory) Register(m *Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules = append(s.modules, m)
}

// Lookup implements Session.
func (s *Memory) Lookup(group, artifact, version string) (*Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.modules {
		if moduleKey(m) == gav(group, artifact, version) {
			return m, true
		}
	}
	return nil, false
}

// Await implements Session. Modules that already completed, and every module
// once the session is aborted, are answered immediately.
func (s *Memory) Await(_ context.Context, m *Module) <-chan Completion {
	ch := make(chan Completion, 1)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.abort != nil {
		ch <- Completion{State: Aborted, Err: s.abort}
		return ch
	}
	key := moduleKey(m)
	if c, ok := s.results[key]; ok {
		ch <- c
		return ch
	}
	s.waiters[key] = append(s.waiters[key], ch)
	return ch
}

// Complete marks m as built with output file.
func (s *Memory) Complete(m *Module, file string) {
	s.resolve(moduleKey(m), Completion{State: Ready, File: file})
}

// Fail marks m as failed.
func (s *Memory) Fail(m *Module, err error) {
	s.resolve(moduleKey(m), Completion{State: Failed, Err: err})
}

// Abort stops the session. Every pending and future wait completes as Aborted.
func (s *Memory) Abort(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.abort != nil {
		return
	}
	s.abort = err
	for key, chans := range s.waiters {
		for _, ch := range chans {
			ch <- Completion{State: Aborted, Err: err}
		}
		delete(s.waiters, key)
	}
}

func (s *Memory) resolve(key string, c Completion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.results[key]; done {
		return
	}
	s.results[key] = c
	for _, ch := range s.waiters[key] {
		ch <- c
	}
	delete(s.waiters, key)
}
