// SPDX-License-Identifier: MPL-2.0

package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sdukit/sdukit/pkg/coord"
)

var (
	// ErrNothingToPackage is returned when no artifact was resolved.
	ErrNothingToPackage = errors.New("nothing to package")
	// ErrIncompleteCoordinate is returned when a load-order node or the
	// project lacks a group, artifact or version.
	ErrIncompleteCoordinate = errors.New("incomplete coordinate")
)

type (
	// NothingToPackageError carries the caller's exclusions for diagnosis.
	NothingToPackageError struct {
		Exclusions []coord.Exclusion
	}

	// IncompleteCoordinateError names the node and the blank fields.
	IncompleteCoordinateError struct {
		Node    string
		Missing []string
	}
)

// Error implements the error interface.
func (e *NothingToPackageError) Error() string {
	msg := "no artifacts found to include in the SDU; check the project dependencies and exclusions"
	if len(e.Exclusions) > 0 {
		msg += fmt.Sprintf(" (exclusions: [%s])", coord.JoinExclusions(e.Exclusions))
	}
	return msg
}

// Unwrap returns ErrNothingToPackage.
func (e *NothingToPackageError) Unwrap() error { return ErrNothingToPackage }

// Error implements the error interface.
func (e *IncompleteCoordinateError) Error() string {
	return fmt.Sprintf("cannot determine %s of %s", strings.Join(e.Missing, ", "), e.Node)
}

// Unwrap returns ErrIncompleteCoordinate.
func (e *IncompleteCoordinateError) Unwrap() error { return ErrIncompleteCoordinate }
