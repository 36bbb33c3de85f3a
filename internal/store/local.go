// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sdukit/sdukit/pkg/coord"
)

// Local is a repository in a directory on disk.
type Local struct {
	Root string
}

// NewLocal returns a store rooted at dir.
func NewLocal(dir string) *Local { return &Local{Root: dir} }

// Versions implements Store.
func (l *Local) Versions(_ context.Context, c coord.Coordinate) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Root, filepath.FromSlash(ArtifactDir(c))))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list versions of %s: %w", c.Key(), err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Fetch implements Store.
func (l *Local) Fetch(_ context.Context, c coord.Coordinate) (string, error) {
	p := l.path(c)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", c, ErrNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: %w", c, ErrNotFound)
	}
	return p, nil
}

// Install copies src into the repository as c.
func (l *Local) Install(c coord.Coordinate, src string) (string, error) {
	dst := l.path(c)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("install %s: %w", c, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("install %s: %w", c, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("install %s: %w", c, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck // copy error takes precedence
		return "", fmt.Errorf("install %s: %w", c, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("install %s: %w", c, err)
	}
	return dst, nil
}

func (l *Local) path(c coord.Coordinate) string {
	return filepath.Join(l.Root, filepath.FromSlash(ObjectPath(c)))
}
