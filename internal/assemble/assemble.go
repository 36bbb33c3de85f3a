// SPDX-License-Identifier: MPL-2.0

// Package assemble writes an SDU from resolved artifacts and the load-order
// tree: a manifest with one slot per tree node, a version marker, and every
// artifact file stored at its member path.
package assemble

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/sdukit/sdukit/internal/depgraph"
	"github.com/sdukit/sdukit/internal/resolver"
	"github.com/sdukit/sdukit/internal/tree"
	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdu"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

type (
	// Request describes one assembly.
	Request struct {
		// Project names the SDU: manifest Name and Version, version marker and
		// default file name.
		Project   coord.Coordinate
		Artifacts []resolver.Artifact
		Tree      *depgraph.Tree
		// Output is the archive path. When empty the archive is written to
		// OutputDir as <artifact>-<version>.sdu.
		Output    string
		OutputDir string
		// Exclusions are reported when there is nothing to package.
		Exclusions []coord.Exclusion
	}

	// Options configures an Assembler. Logger is optional.
	Options struct {
		Logger *log.Logger
	}

	// Assembler writes SDU archives. It holds no per-run state.
	Assembler struct {
		logger *log.Logger
	}

	member struct {
		path string
		src  string
		c    coord.Coordinate
	}
)

// New returns an Assembler.
func New(opts Options) *Assembler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Assembler{logger: logger}
}

// OutputPath returns dir/<artifact>-<version>.sdu.
func OutputPath(dir string, project coord.Coordinate) string {
	return filepath.Join(dir, sdu.FileName(project))
}

// Assemble writes the archive. Nothing is written when the request fails
// validation; an I/O failure while writing leaves the partial file in place.
func (a *Assembler) Assemble(ctx context.Context, req Request) (*sdu.Handle, error) {
	if len(req.Artifacts) == 0 {
		return nil, &NothingToPackageError{Exclusions: req.Exclusions}
	}
	if missing := req.Project.Missing(); len(missing) > 0 {
		return nil, &IncompleteCoordinateError{Node: "project " + req.Project.String(), Missing: missing}
	}
	slots, err := Slots(req.Tree)
	if err != nil {
		return nil, err
	}
	members := a.members(req.Artifacts)

	out := req.Output
	if out == "" {
		out = OutputPath(req.OutputDir, req.Project)
	}
	m := sdu.NewManifest(req.Project, slots)

	w, err := sdu.Create(out)
	if err != nil {
		return nil, err
	}
	if err := write(ctx, w, m, sdu.VersionText(req.Project), members); err != nil {
		if cerr := w.Close(); cerr != nil {
			a.logger.Warn("closing partial archive", "path", out, "err", cerr)
		}
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	a.logger.Info("assembled SDU", "path", out, "members", len(members), "slots", len(slots))
	return &sdu.Handle{Path: out, Entries: w.Entries(), Manifest: m}, nil
}

func write(ctx context.Context, w *sdu.Writer, m *sdu.Manifest, version string, members []member) error {
	if err := w.WriteManifest(m); err != nil {
		return err
	}
	if err := w.WriteBytes(sdu.VersionMarkerPath, []byte(version)); err != nil {
		return err
	}
	for _, mem := range members {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteFile(mem.path, mem.src); err != nil {
			return fmt.Errorf("add %s: %w", mem.c, err)
		}
	}
	return nil
}

// members maps artifacts to archive entries sorted by path. Artifacts that
// are not packageable or have no file on disk are skipped.
func (a *Assembler) members(artifacts []resolver.Artifact) []member {
	var out []member
	seen := make(map[string]bool)
	for _, art := range artifacts {
		c := art.Coordinate
		if !c.Packaging.IsPackageable() {
			a.logger.Debug("not a packageable artifact", "coordinate", c.String())
			continue
		}
		if art.File == "" {
			a.logger.Info("no file found", "coordinate", c.String())
			continue
		}
		if info, err := os.Stat(art.File); err != nil || info.IsDir() {
			a.logger.Info("no file found", "coordinate", c.String(), "path", art.File)
			continue
		}
		p := sdu.MemberPath(c, sdu.MemberFileName(filepath.Base(art.File), c.Packaging))
		if seen[p] {
			a.logger.Debug("duplicate member", "coordinate", c.String(), "path", p)
			continue
		}
		seen[p] = true
		out = append(out, member{path: p, src: art.File, c: c})
	}
	slices.SortFunc(out, func(x, y member) int { return cmp.Compare(x.path, y.path) })
	return out
}

// Slots returns the load order of t: a pre-order walk, roots in insertion
// order, numbered from zero. A node's blank group or version falls back to
// its parent reference.
func Slots(t *depgraph.Tree) ([]sdu.Slot, error) {
	if t == nil {
		return nil, nil
	}
	var (
		slots []sdu.Slot
		err   error
	)
	t.WalkAll(func(_ tree.NodeID, d *sdumod.Descriptor, _ int) bool {
		if err != nil {
			return false
		}
		c := d.EffectiveCoordinate()
		if missing := c.Missing(); len(missing) > 0 {
			err = &IncompleteCoordinateError{Node: describe(d), Missing: missing}
			return false
		}
		slots = append(slots, sdu.Slot{Group: c.Group, Artifact: c.Artifact, Version: c.Version, Packaging: c.Packaging})
		return true
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func describe(d *sdumod.Descriptor) string {
	if d.Path != "" {
		return fmt.Sprintf("module %s (%s)", d.String(), d.Path)
	}
	return "module " + d.String()
}
