// SPDX-License-Identifier: MPL-2.0

// Package depgraph walks module descriptors transitively, collects the
// packageable artifacts they depend on and builds the load-order tree.
//
// A node's parent in the tree is the profile it depends on: the profile must
// be loaded before the node. Nodes are unique by group, artifact, version and
// packaging, so diamond dependencies collapse to one node.
package depgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/sdukit/sdukit/internal/resolver"
	"github.com/sdukit/sdukit/internal/tree"
	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

type (
	// Tree is the load-order forest of module descriptors.
	Tree = tree.Tree[*sdumod.Descriptor]

	// Resolver is the part of resolver.Resolver the builder needs.
	Resolver interface {
		ResolveVersion(ctx context.Context, c coord.Coordinate) (coord.Coordinate, error)
		Resolve(ctx context.Context, c coord.Coordinate) (resolver.Artifact, error)
		Descriptor(ctx context.Context, c coord.Coordinate) (*sdumod.Descriptor, error)
	}

	// Options configures a Builder. Logger is optional.
	Options struct {
		Resolver Resolver
		Logger   *log.Logger
	}

	// Builder collects artifacts and builds load-order trees. Versions resolved
	// by Collect are remembered per group and artifact and reused by later
	// BuildTree calls for range and blank versions. A Builder serves one run
	// and is not safe for concurrent use.
	Builder struct {
		resolver Resolver
		logger   *log.Logger
		versions map[string]string
	}

	// Plan is the outcome of Collect.
	Plan struct {
		// Artifacts are the resolved packageable artifacts in discovery order.
		Artifacts []resolver.Artifact
		Tree      *Tree
	}

	// walk carries the state of one traversal.
	walk struct {
		b     *Builder
		extra []coord.Exclusion
		tree  *Tree
		stack []coord.Coordinate
	}
)

// New returns a Builder.
func New(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Builder{
		resolver: opts.Resolver,
		logger:   logger,
		versions: make(map[string]string),
	}
}

// NewTree returns an empty load-order tree indexed by module coordinate.
func NewTree() *Tree {
	return tree.New(sameModule, tree.WithIndex(moduleKey))
}

func sameModule(a, b *sdumod.Descriptor) bool {
	return a == b || a.EffectiveCoordinate().Same(b.EffectiveCoordinate())
}

func moduleKey(d *sdumod.Descriptor) string {
	return d.EffectiveCoordinate().String()
}

// Collect resolves every root and, transitively, every packageable
// dependency that survives the exclusion rules, then builds the load-order
// tree rooted at the collected artifacts. Aggregate roots contribute their
// dependencies but no artifact of their own.
func (b *Builder) Collect(ctx context.Context, roots []coord.Coordinate, extra []coord.Exclusion) (*Plan, error) {
	w := b.newWalk(extra)
	c := &collector{walk: w, seen: make(map[string]bool), visited: make(map[string]bool)}

	for _, root := range roots {
		d, err := b.resolver.Descriptor(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("descriptor of %s: %w", root, err)
		}
		if d.Packaging.IsPackageable() {
			if err := c.include(ctx, d.EffectiveCoordinate()); err != nil {
				return nil, err
			}
		}
		if err := c.collect(ctx, d, extra); err != nil {
			return nil, err
		}
	}

	coords := make([]coord.Coordinate, len(c.artifacts))
	for i, a := range c.artifacts {
		coords[i] = a.Coordinate
	}
	t, err := b.BuildTree(ctx, coords, extra)
	if err != nil {
		return nil, err
	}
	return &Plan{Artifacts: c.artifacts, Tree: t}, nil
}

// BuildTree builds the load-order tree for roots. Aggregate roots are
// replaced by their packageable dependencies; other non-packageable roots
// are ignored.
func (b *Builder) BuildTree(ctx context.Context, roots []coord.Coordinate, extra []coord.Exclusion) (*Tree, error) {
	w := b.newWalk(extra)
	for _, root := range roots {
		d, err := b.resolver.Descriptor(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("descriptor of %s: %w", root, err)
		}
		if err := w.addRoot(ctx, d); err != nil {
			return nil, err
		}
	}
	return w.tree, nil
}

func (b *Builder) newWalk(extra []coord.Exclusion) *walk {
	return &walk{b: b, extra: extra, tree: NewTree()}
}

func (w *walk) addRoot(ctx context.Context, d *sdumod.Descriptor) error {
	switch {
	case d.Packaging == coord.PackagingAggregate:
		props := d.EffectiveProperties()
		for _, dep := range d.Dependencies {
			if !dep.Packaging.IsPackageable() {
				continue
			}
			dd, _, err := w.dependency(ctx, d, dep, props, w.extra)
			if err != nil {
				return err
			}
			if dd == nil {
				continue
			}
			if _, err := w.add(ctx, dd, w.exclusionsBelow(dep)); err != nil {
				return err
			}
		}
		return nil
	case d.Packaging.IsPackageable():
		_, err := w.add(ctx, d, w.extra)
		return err
	default:
		w.b.logger.Debug("root is not packageable", "coordinate", d.String())
		return nil
	}
}

// add finds or inserts the node for d. Dependencies are placed first so that
// d can attach below its profile.
func (w *walk) add(ctx context.Context, d *sdumod.Descriptor, active []coord.Exclusion) (tree.NodeID, error) {
	if id, ok := w.tree.Find(d); ok {
		return id, nil
	}
	self := d.EffectiveCoordinate()
	if i := slices.IndexFunc(w.stack, self.Same); i >= 0 {
		path := append(slices.Clone(w.stack[i:]), self)
		return tree.None, &CycleError{Path: path}
	}
	w.stack = append(w.stack, self)
	defer func() { w.stack = w.stack[:len(w.stack)-1] }()

	props := d.EffectiveProperties()
	parent := tree.None
	var parentCoord coord.Coordinate
	for _, dep := range d.Dependencies {
		if !dep.Packaging.IsPackageable() {
			continue
		}
		dd, c, err := w.dependency(ctx, d, dep, props, active)
		if err != nil {
			return tree.None, err
		}
		if dd == nil {
			continue
		}
		id, err := w.add(ctx, dd, w.exclusionsBelow(dep))
		if err != nil {
			return tree.None, err
		}
		if !c.Packaging.IsProfile() {
			continue
		}
		if parent != tree.None {
			return tree.None, &MultipleParentsError{Module: self, First: parentCoord, Second: c}
		}
		parent, parentCoord = id, c
	}

	if parent == tree.None {
		return w.tree.AddRoot(d), nil
	}
	return w.tree.AddChild(parent, d), nil
}

// dependency resolves the coordinate and descriptor of one edge. A nil
// descriptor with a nil error means the edge is skipped.
func (w *walk) dependency(ctx context.Context, owner *sdumod.Descriptor, dep sdumod.Dependency,
	props map[string]string, active []coord.Exclusion,
) (*sdumod.Descriptor, coord.Coordinate, error) {
	c, err := w.coordinate(ctx, owner, dep, props)
	if err != nil {
		return nil, c, err
	}
	if w.excluded(owner, c, active) {
		return nil, c, nil
	}
	dd, err := w.b.resolver.Descriptor(ctx, c)
	if err != nil {
		if errors.Is(err, resolver.ErrArtifactNotFound) {
			w.b.logger.Error("descriptor not found, load order may be incomplete",
				"dependency", c.String(), "module", owner.String(), "err", err)
			return nil, c, nil
		}
		return nil, c, fmt.Errorf("descriptor of %s: %w", c, err)
	}
	return dd, c, nil
}

// coordinate interpolates the dependency version and pins range or blank
// versions, preferring the version collected earlier in the run.
func (w *walk) coordinate(ctx context.Context, owner *sdumod.Descriptor, dep sdumod.Dependency,
	props map[string]string,
) (coord.Coordinate, error) {
	c := dep.Coordinate()
	v, unresolved := Interpolate(props, c.Version)
	if len(unresolved) > 0 {
		w.b.logger.Warn("unresolved property in dependency version",
			"module", owner.String(), "dependency", c.Key(), "version", v, "keys", unresolved)
	}
	c.Version = v

	if c.Version != "" && !c.IsRange() {
		return c, nil
	}
	if known, ok := w.b.versions[c.Key()]; ok {
		return c.WithVersion(known), nil
	}
	if c.Version == "" {
		return c, fmt.Errorf("%w: %s in %s", ErrMissingVersion, c.Key(), owner)
	}
	return w.b.resolver.ResolveVersion(ctx, c)
}

// excluded checks c against the active rules. Profile edges only answer to
// the caller's extra rules so a parent profile keeps its full closure.
func (w *walk) excluded(owner *sdumod.Descriptor, c coord.Coordinate, active []coord.Exclusion) bool {
	rules := active
	if c.Packaging.IsProfile() {
		rules = w.extra
	}
	rule, ok := coord.MatchAny(rules, c)
	if ok {
		w.b.logger.Debug("dependency excluded", "dependency", c.String(), "module", owner.String(), "rule", rule.String())
	}
	return ok
}

// exclusionsBelow returns the rules active while walking the module an edge
// points at.
func (w *walk) exclusionsBelow(dep sdumod.Dependency) []coord.Exclusion {
	if dep.Packaging.IsProfile() || len(dep.Exclusions) == 0 {
		return w.extra
	}
	return slices.Concat(w.extra, dep.Exclusions)
}
