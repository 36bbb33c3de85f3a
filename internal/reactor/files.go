// SPDX-License-Identifier: MPL-2.0

package reactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

const (
	// SessionDir holds session-wide markers under the workspace root.
	SessionDir = ".sdukit"
	// AbortMarker is created inside SessionDir when the build session stops.
	AbortMarker = "abort"
	// FailedSuffix marks a module whose build failed: "<artifact>-<version>.failed"
	// next to where its output would be.
	FailedSuffix = ".failed"
	// DefaultOutputDir is the per-module build output directory.
	DefaultOutputDir = "target"
	// DefaultPollInterval bounds how long a missed file event can delay a wait.
	DefaultPollInterval = time.Second
)

type (
	// FilesConfig configures a Files session.
	FilesConfig struct {
		Workspace *sdumod.Workspace
		// OutputDir is the build output directory relative to each module.
		OutputDir string
		// PollInterval is the re-check period used alongside file events.
		PollInterval time.Duration
		Logger       *log.Logger
	}

	// Files is a Session over a workspace on disk. Sibling build processes
	// signal progress through files:
	//
	//	<module>/<output>/<artifact>-<version>.<ext|jar>   build output, ready
	//	<module>/<output>/<artifact>-<version>.failed      module failed
	//	<workspace>/.sdukit/abort                          session aborted
	Files struct {
		root      string
		ws        *sdumod.Workspace
		outputDir string
		poll      time.Duration
		logger    *log.Logger
		modules   []*Module
	}
)

// NewFiles returns a session over every module of cfg.Workspace.
func NewFiles(cfg FilesConfig) (*Files, error) {
	if cfg.Workspace == nil || cfg.Workspace.Root == nil {
		return nil, errors.New("reactor: workspace is required")
	}
	f := &Files{
		root:      cfg.Workspace.Root.Dir(),
		ws:        cfg.Workspace,
		outputDir: cfg.OutputDir,
		poll:      cfg.PollInterval,
		logger:    cfg.Logger,
	}
	if f.outputDir == "" {
		f.outputDir = DefaultOutputDir
	}
	if f.poll <= 0 {
		f.poll = DefaultPollInterval
	}
	if f.logger == nil {
		f.logger = log.New(io.Discard)
	}
	for _, d := range cfg.Workspace.Modules {
		f.modules = append(f.modules, f.module(d))
	}
	return f, nil
}

// Modules returns the build set in workspace order.
func (f *Files) Modules() []*Module {
	out := make([]*Module, len(f.modules))
	copy(out, f.modules)
	return out
}

// Lookup implements Session.
func (f *Files) Lookup(group, artifact, version string) (*Module, bool) {
	for _, m := range f.modules {
		c := m.Coordinate
		if c.Group == group && c.Artifact == artifact && c.Version == version {
			return m, true
		}
	}
	return nil, false
}

// Await implements Session. Already-settled modules are answered without
// starting a watcher.
func (f *Files) Await(ctx context.Context, m *Module) <-chan Completion {
	ch := make(chan Completion, 1)
	if c, ok := f.check(m); ok {
		ch <- c
		return ch
	}
	go func() { ch <- f.wait(ctx, m) }()
	return ch
}

// MarkFailed writes the failure marker of m with reason as its content.
func (f *Files) MarkFailed(m *Module, reason string) error {
	path := f.failureMarker(m)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("reactor: create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(reason), 0o644); err != nil {
		return fmt.Errorf("reactor: write failure marker: %w", err)
	}
	return nil
}

// Abort writes the session abort marker.
func (f *Files) Abort(reason string) error {
	dir := filepath.Join(f.root, SessionDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("reactor: create session dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, AbortMarker), []byte(reason), 0o644); err != nil {
		return fmt.Errorf("reactor: write abort marker: %w", err)
	}
	return nil
}

func (f *Files) module(d *sdumod.Descriptor) *Module {
	c := d.EffectiveCoordinate()
	m := &Module{Coordinate: c, Descriptor: d}
	if c.Packaging != coord.PackagingAggregate {
		m.OutputFile = filepath.Join(d.Dir(), f.outputDir, c.FileName())
	}
	return m
}

func (f *Files) failureMarker(m *Module) string {
	c := m.Coordinate
	return filepath.Join(m.Descriptor.Dir(), f.outputDir, c.Artifact+"-"+c.Version+FailedSuffix)
}

// candidates lists the files that count as the module's output, preferred first.
func (f *Files) candidates(m *Module) []string {
	if m.OutputFile == "" {
		return nil
	}
	jar := strings.TrimSuffix(m.OutputFile, "."+m.Coordinate.Packaging.Extension()) + "." + coord.PackagingJar.Extension()
	return []string{m.OutputFile, jar}
}

// check reports the settled state of m, if any. The session abort marker
// takes precedence over module state.
func (f *Files) check(m *Module) (Completion, bool) {
	if reason, ok := readMarker(filepath.Join(f.root, SessionDir, AbortMarker)); ok {
		return Completion{State: Aborted, Err: fmt.Errorf("build session aborted: %s", reason)}, true
	}
	if m.OutputFile == "" {
		// aggregates produce no output; their descriptor is all there is
		return Completion{State: Ready, File: m.Descriptor.Path}, true
	}
	if reason, ok := readMarker(f.failureMarker(m)); ok {
		return Completion{State: Failed, Err: fmt.Errorf("build of %s failed: %s", m.Coordinate, reason)}, true
	}
	for _, p := range f.candidates(m) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return Completion{State: Ready, File: p}, true
		}
	}
	return Completion{}, false
}

func (f *Files) wait(ctx context.Context, m *Module) Completion {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	fsw, err := f.watch(m)
	if err != nil {
		f.logger.Warn("file events unavailable, polling", "module", m.Coordinate.String(), "err", err)
	} else {
		defer fsw.Close()
		events, errs = fsw.Events, fsw.Errors
	}
	patterns := f.patterns(m)

	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	for {
		if c, ok := f.check(m); ok {
			return c
		}
	signal:
		for {
			select {
			case <-ctx.Done():
				return Completion{State: Aborted, Err: ctx.Err()}
			case <-ticker.C:
				break signal
			case evt, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if evt.Has(fsnotify.Create) {
					f.maybeAddDir(fsw, evt.Name)
				}
				if f.relevant(evt.Name, patterns) {
					break signal
				}
			case werr, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				if isFatalWatchError(werr) {
					f.logger.Warn("file watcher broken, polling", "err", werr)
					events, errs = nil, nil
				}
			}
		}
	}
}

// watch registers the directories whose changes can settle m: the workspace
// root, the session directory when present, the module directory and its
// output directory. Nothing is created on disk.
func (f *Files) watch(m *Module) (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := []string{f.root, filepath.Join(f.root, SessionDir), m.Descriptor.Dir(), filepath.Dir(m.OutputFile)}
	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		if seen[d] {
			continue
		}
		seen[d] = true
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			continue
		}
		if err := fsw.Add(d); err != nil {
			fsw.Close() //nolint:errcheck // best-effort cleanup
			return nil, err
		}
	}
	return fsw, nil
}

func (f *Files) maybeAddDir(fsw *fsnotify.Watcher, path string) {
	if fsw == nil {
		return
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if err := fsw.Add(path); err != nil {
			f.logger.Debug("watch new directory", "path", path, "err", err)
		}
	}
}

// patterns returns workspace-relative globs for the files that settle m.
func (f *Files) patterns(m *Module) []string {
	c := m.Coordinate
	out, err := filepath.Rel(f.root, filepath.Dir(m.OutputFile))
	if err != nil {
		out = filepath.Dir(m.OutputFile)
	}
	base := filepath.ToSlash(out) + "/" + c.Artifact + "-" + c.Version
	return []string{
		base + ".{" + c.Packaging.Extension() + "," + coord.PackagingJar.Extension() + "}",
		base + FailedSuffix,
		SessionDir,
		SessionDir + "/" + AbortMarker,
		// the output directory itself may be created after the wait starts
		filepath.ToSlash(out),
	}
}

func (f *Files) relevant(path string, patterns []string) bool {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func readMarker(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	reason := strings.TrimSpace(string(data))
	if reason == "" {
		reason = "no reason given"
	}
	return reason, true
}
