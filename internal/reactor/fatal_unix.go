// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package reactor

import (
	"errors"
	"syscall"
)

// isFatalWatchError reports inotify resource exhaustion (watch limit, process
// or system descriptor limits). After such an error the wait relies on the
// poll tick alone.
func isFatalWatchError(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
