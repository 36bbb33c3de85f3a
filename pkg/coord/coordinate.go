// SPDX-License-Identifier: MPL-2.0

package coord

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCoordinate is the sentinel error wrapped by InvalidCoordinateError.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

type (
	// Coordinate identifies an artifact. Identity is value equality on all fields.
	// Version may be a concrete value or a range expression such as "[1.0,2.0)".
	Coordinate struct {
		Group      string    `json:"group"`
		Artifact   string    `json:"artifact"`
		Version    string    `json:"version"`
		Packaging  Packaging `json:"packaging"`
		Classifier string    `json:"classifier,omitempty"`
	}

	// InvalidCoordinateError is returned when a coordinate string cannot be parsed.
	InvalidCoordinateError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidCoordinate for errors.Is.
func (e *InvalidCoordinateError) Unwrap() error { return ErrInvalidCoordinate }

// New returns a coordinate with the given fields and no classifier.
func New(group, artifact, version string, packaging Packaging) Coordinate {
	return Coordinate{Group: group, Artifact: artifact, Version: version, Packaging: packaging}
}

// Parse accepts "group:artifact", "group:artifact:version" and
// "group:artifact:packaging:version". Omitted fields are left empty.
func Parse(s string) (Coordinate, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Coordinate{}, &InvalidCoordinateError{Value: s, Reason: "empty segment"}
		}
	}
	switch len(parts) {
	case 2:
		return Coordinate{Group: parts[0], Artifact: parts[1]}, nil
	case 3:
		return Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}, nil
	case 4:
		p := Packaging(parts[2])
		if err := p.Validate(); err != nil {
			return Coordinate{}, &InvalidCoordinateError{Value: s, Reason: err.Error()}
		}
		return Coordinate{Group: parts[0], Artifact: parts[1], Packaging: p, Version: parts[3]}, nil
	default:
		return Coordinate{}, &InvalidCoordinateError{
			Value:  s,
			Reason: "expected group:artifact[:packaging]:version",
		}
	}
}

// Key returns the logical identity "group:artifact".
func (c Coordinate) Key() string { return c.Group + ":" + c.Artifact }

// DottedKey returns "group.artifact", the form used in version markers and
// archive manifests.
func (c Coordinate) DottedKey() string { return c.Group + "." + c.Artifact }

// String returns the full form "group:artifact:packaging:version".
func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + string(c.Packaging) + ":" + c.Version
}

// IsRange reports whether the version is a bracket/paren range expression.
func (c Coordinate) IsRange() bool {
	return strings.HasPrefix(c.Version, "[") || strings.HasPrefix(c.Version, "(")
}

// Same reports whether c and o denote the same artifact: group, artifact,
// version and packaging equal. The classifier is ignored.
func (c Coordinate) Same(o Coordinate) bool {
	return c.Group == o.Group && c.Artifact == o.Artifact &&
		c.Version == o.Version && c.Packaging == o.Packaging
}

// SameGAV reports whether group, artifact and version match.
func (c Coordinate) SameGAV(o Coordinate) bool {
	return c.Group == o.Group && c.Artifact == o.Artifact && c.Version == o.Version
}

// WithVersion returns a copy of c with the version replaced.
func (c Coordinate) WithVersion(v string) Coordinate {
	c.Version = v
	return c
}

// WithPackaging returns a copy of c with the packaging replaced.
func (c Coordinate) WithPackaging(p Packaging) Coordinate {
	c.Packaging = p
	return c
}

// FileName returns "artifact-version.ext" for the coordinate's packaging.
func (c Coordinate) FileName() string {
	return c.Artifact + "-" + c.Version + "." + c.Packaging.Extension()
}

// Missing returns the names of blank group/artifact/version fields.
func (c Coordinate) Missing() []string {
	var missing []string
	if strings.TrimSpace(c.Group) == "" {
		missing = append(missing, "group")
	}
	if strings.TrimSpace(c.Artifact) == "" {
		missing = append(missing, "artifact")
	}
	if strings.TrimSpace(c.Version) == "" {
		missing = append(missing, "version")
	}
	return missing
}
