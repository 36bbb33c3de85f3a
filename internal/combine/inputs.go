// SPDX-License-Identifier: MPL-2.0

package combine

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sdukit/sdukit/pkg/sdu"
)

// ExpandInputs turns files, directories and glob patterns into a list of
// archive paths. Directories contribute their *.sdu files; globs may use **.
// Each group is sorted; duplicates keep their first position.
func ExpandInputs(inputs []string) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(paths ...string) {
		for _, p := range paths {
			p = filepath.Clean(p)
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}

	for _, in := range inputs {
		if isPattern(in) {
			matches, err := doublestar.FilepathGlob(in)
			if err != nil {
				return nil, &sdu.IOError{Op: "expand pattern", Path: in, Err: err}
			}
			add(regularFiles(matches)...)
			continue
		}

		info, err := os.Stat(in)
		if err != nil {
			return nil, &sdu.IOError{Op: "stat input", Path: in, Err: err}
		}
		if !info.IsDir() {
			add(in)
			continue
		}
		matches, err := doublestar.FilepathGlob(filepath.Join(in, "*."+sdu.Extension))
		if err != nil {
			return nil, &sdu.IOError{Op: "list input dir", Path: in, Err: err}
		}
		add(regularFiles(matches)...)
	}
	return out, nil
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func regularFiles(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}
