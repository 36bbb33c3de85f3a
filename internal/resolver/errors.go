// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sdukit/sdukit/pkg/coord"
)

var (
	// ErrUnresolvableVersion is returned when no available version satisfies a range.
	ErrUnresolvableVersion = errors.New("unresolvable version")
	// ErrArtifactNotFound is returned when neither the build set nor the store
	// can produce a file that exists.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrUpstreamBuildFailed is returned when an awaited in-progress module failed.
	ErrUpstreamBuildFailed = errors.New("upstream build failed")
	// ErrAbortedUpstream is returned when the build session stopped while waiting.
	ErrAbortedUpstream = errors.New("aborted because of upstream build failures")
)

type (
	// Error ties a resolution failure to its coordinate. errors.Is matches
	// Kind and the underlying cause.
	Error struct {
		Kind       error
		Coordinate coord.Coordinate
		Err        error
	}

	// UnresolvableVersionError lists what was available when a range matched nothing.
	UnresolvableVersionError struct {
		Coordinate coord.Coordinate
		Available  []string
	}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Coordinate)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Coordinate, e.Err)
}

// Unwrap returns the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Error implements the error interface.
func (e *UnresolvableVersionError) Error() string {
	avail := "none"
	if len(e.Available) > 0 {
		avail = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("no version of %s satisfies %s (available: %s)", e.Coordinate.Key(), e.Coordinate.Version, avail)
}

// Unwrap returns ErrUnresolvableVersion.
func (e *UnresolvableVersionError) Unwrap() error { return ErrUnresolvableVersion }
