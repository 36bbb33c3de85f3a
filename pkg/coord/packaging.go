// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"errors"
	"fmt"
)

const (
	// PackagingProfile is a device profile. A profile may act as the runtime
	// parent of features, extensions and other profiles.
	PackagingProfile Packaging = "dar"
	// PackagingFeature is a network feature.
	PackagingFeature Packaging = "feature"
	// PackagingExtension is an extension archive.
	PackagingExtension Packaging = "xar"
	// PackagingAggregate groups sub-modules. It never occupies a load-order slot.
	PackagingAggregate Packaging = "pom"
	// PackagingJar is the generic build output extension that is renamed to the
	// packaging extension when placed in an archive.
	PackagingJar Packaging = "jar"
)

// ErrInvalidPackaging is the sentinel error wrapped by InvalidPackagingError.
var ErrInvalidPackaging = errors.New("invalid packaging")

type (
	// Packaging is the packaging kind of a module ("dar", "feature", "xar", "pom").
	Packaging string

	// InvalidPackagingError is returned when a Packaging value is not one of the
	// known kinds.
	InvalidPackagingError struct {
		Value Packaging
	}
)

// Error implements the error interface.
func (e *InvalidPackagingError) Error() string {
	return fmt.Sprintf("invalid packaging %q (expected dar, feature, xar or pom)", e.Value)
}

// Unwrap returns ErrInvalidPackaging for errors.Is.
func (e *InvalidPackagingError) Unwrap() error { return ErrInvalidPackaging }

// Packageable lists the kinds that participate in the load-order graph.
func Packageable() []Packaging {
	return []Packaging{PackagingProfile, PackagingFeature, PackagingExtension}
}

// IsPackageable reports whether p takes part in the load-order graph.
func (p Packaging) IsPackageable() bool {
	switch p {
	case PackagingProfile, PackagingFeature, PackagingExtension:
		return true
	default:
		return false
	}
}

// IsProfile reports whether p is the profile kind.
func (p Packaging) IsProfile() bool { return p == PackagingProfile }

// Extension returns the file extension (without the dot) used for members of this kind.
func (p Packaging) Extension() string { return string(p) }

// Validate returns an error if p is not a known packaging kind.
func (p Packaging) Validate() error {
	switch p {
	case PackagingProfile, PackagingFeature, PackagingExtension, PackagingAggregate:
		return nil
	default:
		return &InvalidPackagingError{Value: p}
	}
}

// Label returns the human-readable kind name.
func (p Packaging) Label() string {
	switch p {
	case PackagingProfile:
		return "profile"
	case PackagingFeature:
		return "feature"
	case PackagingExtension:
		return "extension"
	case PackagingAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// String returns the packaging value.
func (p Packaging) String() string { return string(p) }
