// SPDX-License-Identifier: MPL-2.0

package sdumod

import (
	"fmt"
	"path/filepath"

	"github.com/sdukit/sdukit/pkg/coord"
)

// Workspace is a tree of module directories rooted at one descriptor. An
// aggregate descriptor lists sub-module directories in its modules field.
type Workspace struct {
	Root *Descriptor
	// Modules holds every descriptor, Root first, in declaration order.
	Modules []*Descriptor
}

// LoadWorkspace loads dir/sdumod.cue and, recursively, every listed module.
// Parents referenced by GAV are linked when they are part of the workspace.
func LoadWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace dir: %w", err)
	}
	w := &Workspace{}
	if err := w.load(abs, make(map[string]bool)); err != nil {
		return nil, err
	}
	w.Root = w.Modules[0]

	for _, d := range w.Modules {
		if d.Parent == nil {
			continue
		}
		if p, ok := w.Lookup(d.Parent.Group, d.Parent.Artifact, d.Parent.Version); ok && p != d {
			d.Link(p)
		}
	}
	return w, nil
}

func (w *Workspace) load(dir string, visited map[string]bool) error {
	if visited[dir] {
		return nil
	}
	visited[dir] = true

	d, err := LoadDir(dir)
	if err != nil {
		return err
	}
	w.Modules = append(w.Modules, d)
	for _, m := range d.Modules {
		if err := w.load(filepath.Join(dir, filepath.FromSlash(m)), visited); err != nil {
			return fmt.Errorf("module %q of %s: %w", m, d.Artifact, err)
		}
	}
	return nil
}

// Lookup finds a workspace module by effective group, artifact and version.
func (w *Workspace) Lookup(group, artifact, version string) (*Descriptor, bool) {
	for _, d := range w.Modules {
		c := d.EffectiveCoordinate()
		if c.Group == group && c.Artifact == artifact && c.Version == version {
			return d, true
		}
	}
	return nil, false
}

// Roots returns the modules an assembly of this workspace starts from. A
// non-aggregate root stands alone. An aggregate root comes first, so its own
// dependencies are collected, followed by its packageable descendants:
// profiles always, features and extensions only when includeAll is set.
func (w *Workspace) Roots(includeAll bool) []*Descriptor {
	if w.Root.Packaging != coord.PackagingAggregate {
		return []*Descriptor{w.Root}
	}
	out := []*Descriptor{w.Root}
	for _, d := range w.Modules[1:] {
		switch {
		case d.Packaging.IsProfile():
			out = append(out, d)
		case includeAll && d.Packaging.IsPackageable():
			out = append(out, d)
		}
	}
	return out
}
