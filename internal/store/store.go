// SPDX-License-Identifier: MPL-2.0

// Package store provides artifact repositories the resolver falls back to for
// coordinates outside the in-progress build set.
//
// Every store uses the same layout:
//
//	group/as/path/<artifact>/<version>/<artifact>-<version>[-<classifier>].<ext>
//	group/as/path/<artifact>/<version>/<artifact>-<version>.sdumod.cue
//
// The second form is the module descriptor, fetched with packaging "pom".
package store

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/sdukit/sdukit/pkg/coord"
	"github.com/sdukit/sdukit/pkg/sdumod"
)

// ErrNotFound is returned when a store has no file for a coordinate.
var ErrNotFound = errors.New("not found in artifact store")

// Store answers version listings and materializes artifact files locally.
type Store interface {
	// Versions lists the versions published for c's group and artifact.
	Versions(ctx context.Context, c coord.Coordinate) ([]string, error)
	// Fetch returns a local path holding the file of c. The version must be
	// concrete. Packaging "pom" fetches the module descriptor.
	Fetch(ctx context.Context, c coord.Coordinate) (string, error)
}

// ArtifactDir returns "group/as/path/artifact".
func ArtifactDir(c coord.Coordinate) string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact)
}

// ObjectPath returns the slash-separated repository path of c.
func ObjectPath(c coord.Coordinate) string {
	return path.Join(ArtifactDir(c), c.Version, FileName(c))
}

// FileName returns the repository file name of c.
func FileName(c coord.Coordinate) string {
	if c.Packaging == coord.PackagingAggregate {
		return sdumod.RepositoryFileName(c)
	}
	name := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + c.Packaging.Extension()
}
