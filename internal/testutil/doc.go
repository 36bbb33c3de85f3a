// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests across sdukit packages.
//
// The Must* helpers fail the test on error so call sites stay flat. Archive
// helpers build and inspect SDU files: BuildArchive writes a small archive
// from a manifest and a member map, ArchiveContents reads every file entry
// back for comparison.
package testutil
