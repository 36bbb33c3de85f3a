// SPDX-License-Identifier: MPL-2.0

package sdumod

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/cueutil"
)

const (
	// DescriptorFile is the descriptor file name inside a module directory.
	DescriptorFile = "sdumod.cue"
	// RepositorySuffix is appended to "<artifact>-<version>" for descriptors
	// published to an artifact repository.
	RepositorySuffix = ".sdumod.cue"
)

var (
	//go:embed sdumod_schema.cue
	descriptorSchema []byte

	// ErrDescriptorNotFound is returned when a module directory has no sdumod.cue.
	ErrDescriptorNotFound = errors.New("sdumod.cue not found")
	// ErrInvalidDescriptor is returned when a descriptor fails schema validation.
	ErrInvalidDescriptor = errors.New("invalid module descriptor")
)

type (
	// ParentRef points at the descriptor this module inherits group, version
	// and properties from.
	ParentRef struct {
		Group    string `json:"group"`
		Artifact string `json:"artifact"`
		Version  string `json:"version"`
		Path     string `json:"path,omitempty"`
	}

	// Dependency is one declared dependency edge.
	Dependency struct {
		Group      string            `json:"group"`
		Artifact   string            `json:"artifact"`
		Version    string            `json:"version,omitempty"`
		Packaging  coord.Packaging   `json:"packaging"`
		Classifier string            `json:"classifier,omitempty"`
		Scope      string            `json:"scope"`
		Exclusions []coord.Exclusion `json:"exclusions,omitempty"`
	}

	// Descriptor is a parsed sdumod.cue. Descriptors are immutable once loaded;
	// the only mutation is linking the resolved parent descriptor.
	Descriptor struct {
		Group        string            `json:"group,omitempty"`
		Artifact     string            `json:"artifact"`
		Version      string            `json:"version,omitempty"`
		Packaging    coord.Packaging   `json:"packaging"`
		Parent       *ParentRef        `json:"parent,omitempty"`
		Properties   map[string]string `json:"properties,omitempty"`
		Dependencies []Dependency      `json:"dependencies,omitempty"`
		Modules      []string          `json:"modules,omitempty"`

		// Path is the file the descriptor was read from.
		Path string `json:"-"`

		parent *Descriptor
	}
)

// Coordinate returns the dependency as a coordinate. The version may still be
// a placeholder or a range.
func (d Dependency) Coordinate() coord.Coordinate {
	return coord.Coordinate{
		Group:      d.Group,
		Artifact:   d.Artifact,
		Version:    d.Version,
		Packaging:  d.Packaging,
		Classifier: d.Classifier,
	}
}

// Coordinate returns the module coordinate as declared. Blank group and
// version fields are not inherited; see EffectiveCoordinate.
func (d *Descriptor) Coordinate() coord.Coordinate {
	return coord.New(d.Group, d.Artifact, d.Version, d.Packaging)
}

// EffectiveCoordinate fills a blank group or version from the parent reference.
func (d *Descriptor) EffectiveCoordinate() coord.Coordinate {
	c := d.Coordinate()
	if d.Parent != nil {
		if strings.TrimSpace(c.Group) == "" {
			c.Group = d.Parent.Group
		}
		if strings.TrimSpace(c.Version) == "" {
			c.Version = d.Parent.Version
		}
	}
	return c
}

// ParentCoordinate returns the descriptor coordinate of the parent reference.
func (d *Descriptor) ParentCoordinate() (coord.Coordinate, bool) {
	if d.Parent == nil {
		return coord.Coordinate{}, false
	}
	return coord.New(d.Parent.Group, d.Parent.Artifact, d.Parent.Version, coord.PackagingAggregate), true
}

// Link records the resolved parent descriptor used for property inheritance.
func (d *Descriptor) Link(parent *Descriptor) { d.parent = parent }

// Linked returns the linked parent descriptor, or nil.
func (d *Descriptor) Linked() *Descriptor { return d.parent }

// NeedsParent reports whether a parent is referenced but not yet linked.
func (d *Descriptor) NeedsParent() bool { return d.Parent != nil && d.parent == nil }

// Dir returns the directory holding the descriptor file.
func (d *Descriptor) Dir() string { return filepath.Dir(d.Path) }

// String returns the effective full coordinate.
func (d *Descriptor) String() string { return d.EffectiveCoordinate().String() }

// ParseDescriptor parses descriptor bytes. filename is used in error messages
// and recorded as the descriptor path.
func ParseDescriptor(data []byte, filename string) (*Descriptor, error) {
	res, err := cueutil.ParseAndDecode[Descriptor](descriptorSchema, data, "#Descriptor",
		cueutil.WithFilename(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}
	d := res.Value
	d.Path = filename
	return d, nil
}

// ParseDescriptorFile reads and parses a descriptor file.
func ParseDescriptorFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrDescriptorNotFound)
		}
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	return ParseDescriptor(data, path)
}

// LoadDir parses <dir>/sdumod.cue.
func LoadDir(dir string) (*Descriptor, error) {
	return ParseDescriptorFile(filepath.Join(dir, DescriptorFile))
}

// RepositoryFileName returns the published descriptor name "<artifact>-<version>.sdumod.cue".
func RepositoryFileName(c coord.Coordinate) string {
	return c.Artifact + "-" + c.Version + RepositorySuffix
}
