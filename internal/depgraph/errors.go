// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sdukit/sdukit/pkg/coord"
)

var (
	// ErrMultipleParentsDeclared is returned when a module depends on more
	// than one profile.
	ErrMultipleParentsDeclared = errors.New("multiple parents declared")
	// ErrDependencyCycle is returned when a module transitively depends on itself.
	ErrDependencyCycle = errors.New("dependency cycle")
	// ErrMissingVersion is returned when a dependency has no version and none
	// was collected for it.
	ErrMissingVersion = errors.New("dependency has no version")
)

type (
	// MultipleParentsError names the module and both profile dependencies.
	MultipleParentsError struct {
		Module coord.Coordinate
		First  coord.Coordinate
		Second coord.Coordinate
	}

	// CycleError lists the modules on the cycle, starting and ending with the
	// repeated one.
	CycleError struct {
		Path []coord.Coordinate
	}
)

// Error implements the error interface.
func (e *MultipleParentsError) Error() string {
	return fmt.Sprintf("%s declares more than one parent profile: %s and %s", e.Module, e.First, e.Second)
}

// Unwrap returns ErrMultipleParentsDeclared.
func (e *MultipleParentsError) Unwrap() error { return ErrMultipleParentsDeclared }

// Error implements the error interface.
func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, c := range e.Path {
		parts[i] = c.String()
	}
	return "dependency cycle: " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrDependencyCycle.
func (e *CycleError) Unwrap() error { return ErrDependencyCycle }
