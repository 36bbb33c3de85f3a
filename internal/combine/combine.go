// SPDX-License-Identifier: MPL-2.0

// Package combine merges already built SDUs into one. Members are keyed by
// group and artifact; the highest version of each wins, and the merged
// manifest lists the surviving profiles in the order they were first seen.
package combine

import (
	"archive/zip"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdu"
	"github.com/sdukit/sdukit/pkg/semver"
)

// ErrEmptyMerge is returned when the inputs contained no members.
var ErrEmptyMerge = errors.New("empty merge")

type (
	// EmptyMergeError lists the inputs that were searched.
	EmptyMergeError struct {
		Inputs []string
	}

	// Request describes one combination.
	Request struct {
		// Project names the merged SDU.
		Project coord.Coordinate
		// Inputs are archive files, directories of archives, or glob patterns.
		Inputs []string
		// Output is the archive path. When empty the archive is written to
		// OutputDir as <artifact>-<version>.sdu.
		Output    string
		OutputDir string
		// FailOnEmpty makes an empty merge an error. Otherwise an empty merge
		// returns a nil handle and writes nothing.
		FailOnEmpty bool
	}

	// Options configures a Combiner. Logger is optional.
	Options struct {
		Logger *log.Logger
	}

	// Combiner merges archives. It holds no per-run state.
	Combiner struct {
		logger *log.Logger
	}

	// candidate is one member found in an input archive.
	candidate struct {
		coord  coord.Coordinate
		file   *zip.File
		source string
		// slot is the load-order position, or -1 for members without one.
		slot int
	}

	// merge is the state of one Combine call.
	merge struct {
		logger   *log.Logger
		members  map[string]*candidate
		manifest *sdu.Manifest
		nextSlot int
	}
)

// Error implements the error interface.
func (e *EmptyMergeError) Error() string {
	if len(e.Inputs) == 0 {
		return "no SDU files found to combine"
	}
	return fmt.Sprintf("no members found in %s", strings.Join(e.Inputs, ", "))
}

// Unwrap returns ErrEmptyMerge.
func (e *EmptyMergeError) Unwrap() error { return ErrEmptyMerge }

// New returns a Combiner.
func New(opts Options) *Combiner {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Combiner{logger: logger}
}

// Combine merges the input archives into one. Members are copied without
// recompression.
func (c *Combiner) Combine(ctx context.Context, req Request) (*sdu.Handle, error) {
	out := req.Output
	if out == "" {
		out = filepath.Join(req.OutputDir, sdu.FileName(req.Project))
	}
	paths, err := ExpandInputs(req.Inputs)
	if err != nil {
		return nil, err
	}
	paths = slices.DeleteFunc(paths, func(p string) bool {
		same := sameFile(p, out)
		if same {
			c.logger.Debug("skipping output file listed as input", "path", p)
		}
		return same
	})

	archives := make([]*sdu.Archive, 0, len(paths))
	defer func() {
		for _, a := range archives {
			if err := a.Close(); err != nil {
				c.logger.Debug("closing input", "path", a.Path(), "err", err)
			}
		}
	}()

	m := &merge{
		logger:   c.logger,
		members:  make(map[string]*candidate),
		manifest: sdu.NewManifest(req.Project, nil),
	}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := sdu.Open(p)
		if err != nil {
			return nil, err
		}
		archives = append(archives, a)
		c.logger.Info("processing SDU", "path", p)
		if err := m.addArchive(a); err != nil {
			return nil, err
		}
	}

	if len(m.members) == 0 {
		if req.FailOnEmpty {
			return nil, &EmptyMergeError{Inputs: paths}
		}
		c.logger.Warn("no SDU members found, skipping creation of combined SDU", "inputs", len(paths))
		return nil, nil
	}

	return c.write(ctx, out, req.Project, m)
}

func (c *Combiner) write(ctx context.Context, out string, project coord.Coordinate, m *merge) (*sdu.Handle, error) {
	members := make([]*candidate, 0, len(m.members))
	for _, cand := range m.members {
		members = append(members, cand)
	}
	slices.SortFunc(members, func(a, b *candidate) int { return cmp.Compare(a.file.Name, b.file.Name) })

	w, err := sdu.Create(out)
	if err != nil {
		return nil, err
	}
	err = func() error {
		if err := w.WriteManifest(m.manifest); err != nil {
			return err
		}
		if err := w.WriteBytes(sdu.VersionMarkerPath, []byte(sdu.VersionText(project))); err != nil {
			return err
		}
		for _, cand := range members {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.CopyRaw(cand.file); err != nil {
				return fmt.Errorf("copy %s from %s: %w", cand.file.Name, cand.source, err)
			}
		}
		return nil
	}()
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("combined SDU", "path", out, "members", len(members))
	return &sdu.Handle{Path: out, Entries: w.Entries(), Manifest: m.manifest}, nil
}

// addArchive offers every profile named in the archive's load order and
// every feature and extension entry to the merge.
func (m *merge) addArchive(a *sdu.Archive) error {
	mf, err := a.Manifest()
	if err != nil {
		if !errors.Is(err, sdu.ErrIO) {
			err = &sdu.IOError{Op: "read manifest", Path: a.Path(), Err: err}
		}
		return err
	}

	for _, s := range mf.Slots() {
		// features and extensions are picked up from their member paths below
		if s.Packaging != "" && !s.Packaging.IsProfile() {
			continue
		}
		name := sdu.ProfileMemberName(s.Artifact, s.Version)
		f, ok := a.Entry(name)
		if !ok {
			m.logger.Warn("profile listed in manifest is missing", "path", a.Path(), "entry", name)
			continue
		}
		m.add(&candidate{
			coord:  coord.New(s.Group, s.Artifact, s.Version, coord.PackagingProfile),
			file:   f,
			source: a.Path(),
			slot:   -1,
		})
	}

	for _, f := range a.Files() {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		c, ok := sdu.ParseMemberPath(f.Name)
		if !ok {
			continue
		}
		m.add(&candidate{coord: c, file: f, source: a.Path(), slot: -1})
	}
	return nil
}

// add keeps the highest version per group and artifact. A newer profile
// takes over the load-order slot of the one it replaces.
func (m *merge) add(cand *candidate) {
	key := cand.coord.Key()
	prev, ok := m.members[key]
	if !ok {
		m.members[key] = cand
		if cand.coord.Packaging.IsProfile() {
			m.assignSlot(cand, m.nextSlot)
			m.nextSlot++
		}
		return
	}

	order, parsed := semver.CompareStrings(cand.coord.Version, prev.coord.Version)
	if !parsed {
		m.logger.Warn("version is not semantic, compared lexically",
			"coordinate", key, "version", cand.coord.Version, "other", prev.coord.Version)
	}
	switch {
	case order > 0:
		m.logger.Info("overriding older version", "coordinate", key,
			"version", cand.coord.Version, "replaced", prev.coord.Version, "path", cand.source)
		m.members[key] = cand
		switch {
		case prev.slot >= 0:
			m.assignSlot(cand, prev.slot)
		case cand.coord.Packaging.IsProfile():
			m.assignSlot(cand, m.nextSlot)
			m.nextSlot++
		}
	case order < 0:
		m.logger.Info("ignoring older version", "coordinate", key,
			"version", cand.coord.Version, "kept", prev.coord.Version, "path", cand.source)
	default:
		m.logger.Debug("ignoring duplicate", "coordinate", key, "version", cand.coord.Version, "path", cand.source)
	}
}

func (m *merge) assignSlot(cand *candidate, n int) {
	cand.slot = n
	m.manifest.SetSlot(n, sdu.Slot{
		Group:     cand.coord.Group,
		Artifact:  cand.coord.Artifact,
		Version:   cand.coord.Version,
		Packaging: cand.coord.Packaging,
	})
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
