// SPDX-License-Identifier: MPL-2.0

package sdu

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is matched by every I/O failure while reading or writing an archive.
	ErrIO = errors.New("archive I/O error")
	// ErrMissingManifest is returned when an archive has no META-INF/MANIFEST.MF.
	ErrMissingManifest = errors.New("archive has no manifest")
	// ErrMalformedManifest is returned when the manifest cannot be parsed.
	ErrMalformedManifest = errors.New("malformed manifest")
)

// IOError records the failed operation and the path it was applied to.
// errors.Is matches both ErrIO and the underlying error.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns ErrIO and the underlying cause.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

func ioErr(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
