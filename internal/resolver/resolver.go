// SPDX-License-Identifier: MPL-2.0

// Package resolver turns coordinates into files on disk. Modules of the
// in-progress build set are preferred over the artifact store; waiting for a
// sibling module blocks until the build session reports an outcome.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/sdukit/sdukit/internal/reactor"
	"github.com/sdukit/sdukit/internal/store"
	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdumod"
	"github.com/sdukit/sdukit/pkg/semver"
)

// maxParentDepth bounds parent chains so a self-referencing parent cannot loop.
const maxParentDepth = 32

type (
	// Artifact is a resolved coordinate with a file that exists.
	Artifact struct {
		Coordinate coord.Coordinate
		File       string
		// FromBuild is set when the file came from the in-progress build set.
		FromBuild bool
	}

	// Options configures a Resolver. Session and Logger are optional.
	Options struct {
		Store   store.Store
		Session reactor.Session
		Logger  *log.Logger
	}

	// Resolver resolves coordinates for one run. Descriptors are memoized for
	// the lifetime of the Resolver; it is not safe for concurrent use.
	Resolver struct {
		store       store.Store
		session     reactor.Session
		logger      *log.Logger
		descriptors map[string]*sdumod.Descriptor
	}
)

// New returns a Resolver.
func New(opts Options) *Resolver {
	r := &Resolver{
		store:       opts.Store,
		session:     opts.Session,
		logger:      opts.Logger,
		descriptors: make(map[string]*sdumod.Descriptor),
	}
	if r.store == nil {
		r.store = store.Chain{}
	}
	if r.session == nil {
		r.session = reactor.None
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// ResolveVersion replaces a range version with the highest version the store
// offers inside the range. Concrete versions are returned unchanged.
func (r *Resolver) ResolveVersion(ctx context.Context, c coord.Coordinate) (coord.Coordinate, error) {
	if !c.IsRange() {
		return c, nil
	}
	rng, err := semver.ParseRange(c.Version)
	if err != nil {
		return c, &Error{Kind: ErrUnresolvableVersion, Coordinate: c, Err: err}
	}
	available, err := r.store.Versions(ctx, c)
	if err != nil {
		return c, &Error{Kind: ErrUnresolvableVersion, Coordinate: c, Err: err}
	}
	best, ok := rng.MaxSatisfying(available)
	if !ok {
		return c, &UnresolvableVersionError{Coordinate: c, Available: available}
	}
	r.logger.Debug("resolved version range", "coordinate", c.Key(), "range", c.Version, "version", best.String())
	return c.WithVersion(best.String()), nil
}

// Resolve produces the file of c: range versions are resolved first, then the
// in-progress build set is consulted by group, artifact and version, then the
// store. Waiting on a sibling module ends with its output, its failure, the
// session aborting, or ctx being cancelled.
func (r *Resolver) Resolve(ctx context.Context, c coord.Coordinate) (Artifact, error) {
	c, err := r.ResolveVersion(ctx, c)
	if err != nil {
		return Artifact{}, err
	}

	if m, ok := r.session.Lookup(c.Group, c.Artifact, c.Version); ok {
		file, err := r.await(ctx, c, m)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Coordinate: c, File: file, FromBuild: true}, nil
	}

	file, err := r.store.Fetch(ctx, c)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Artifact{}, &Error{Kind: ErrArtifactNotFound, Coordinate: c, Err: err}
		}
		return Artifact{}, fmt.Errorf("fetch %s: %w", c, err)
	}
	if err := mustExist(c, file); err != nil {
		return Artifact{}, err
	}
	return Artifact{Coordinate: c, File: file}, nil
}

// Descriptor returns the module descriptor of c with its parent chain linked.
// Build set modules answer from their own descriptor; everything else comes
// from the store.
func (r *Resolver) Descriptor(ctx context.Context, c coord.Coordinate) (*sdumod.Descriptor, error) {
	c, err := r.ResolveVersion(ctx, c)
	if err != nil {
		return nil, err
	}
	d, err := r.descriptor(ctx, c)
	if err != nil {
		return nil, err
	}
	r.linkParents(ctx, d)
	return d, nil
}

func (r *Resolver) descriptor(ctx context.Context, c coord.Coordinate) (*sdumod.Descriptor, error) {
	key := c.Group + ":" + c.Artifact + ":" + c.Version
	if d, ok := r.descriptors[key]; ok {
		return d, nil
	}

	var d *sdumod.Descriptor
	if m, ok := r.session.Lookup(c.Group, c.Artifact, c.Version); ok && m.Descriptor != nil {
		d = m.Descriptor
	} else {
		path, err := r.store.Fetch(ctx, c.WithPackaging(coord.PackagingAggregate))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &Error{Kind: ErrArtifactNotFound, Coordinate: c.WithPackaging(coord.PackagingAggregate), Err: err}
			}
			return nil, fmt.Errorf("fetch descriptor of %s: %w", c, err)
		}
		d, err = sdumod.ParseDescriptorFile(path)
		if err != nil {
			return nil, fmt.Errorf("descriptor of %s: %w", c, err)
		}
	}
	r.descriptors[key] = d
	return d, nil
}

// linkParents resolves unlinked parent references. A parent that cannot be
// found only costs inherited properties, so it is logged and skipped.
func (r *Resolver) linkParents(ctx context.Context, d *sdumod.Descriptor) {
	for depth := 0; d != nil && depth < maxParentDepth; depth++ {
		if !d.NeedsParent() {
			d = d.Linked()
			continue
		}
		pc, _ := d.ParentCoordinate()
		parent, err := r.descriptor(ctx, pc)
		if err != nil {
			r.logger.Warn("parent descriptor unavailable, inherited properties skipped",
				"coordinate", d.String(), "parent", pc.String(), "err", err)
			return
		}
		if parent == d {
			return
		}
		d.Link(parent)
		d = parent
	}
}

func (r *Resolver) await(ctx context.Context, c coord.Coordinate, m *reactor.Module) (string, error) {
	ch := r.session.Await(ctx, m)
	var done reactor.Completion
	select {
	case done = <-ch:
	default:
		r.logger.Info("waiting on in-progress module", "coordinate", c.String())
		select {
		case done = <-ch:
		case <-ctx.Done():
			return "", &Error{Kind: ErrAbortedUpstream, Coordinate: c, Err: ctx.Err()}
		}
	}

	switch done.State {
	case reactor.Ready:
		if err := mustExist(c, done.File); err != nil {
			return "", err
		}
		return done.File, nil
	case reactor.Failed:
		return "", &Error{Kind: ErrUpstreamBuildFailed, Coordinate: c, Err: done.Err}
	default:
		return "", &Error{Kind: ErrAbortedUpstream, Coordinate: c, Err: done.Err}
	}
}

func mustExist(c coord.Coordinate, file string) error {
	if file == "" {
		return &Error{Kind: ErrArtifactNotFound, Coordinate: c, Err: errors.New("no file produced")}
	}
	info, err := os.Stat(file)
	if err != nil {
		return &Error{Kind: ErrArtifactNotFound, Coordinate: c, Err: err}
	}
	if info.IsDir() {
		return &Error{Kind: ErrArtifactNotFound, Coordinate: c, Err: fmt.Errorf("%s is a directory", file)}
	}
	return nil
}
