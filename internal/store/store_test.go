// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/sdukit/sdukit/pkg/coord"
)

func TestObjectPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    coord.Coordinate
		want string
	}{
		{coord.New("com.acme", "base", "1.0", coord.PackagingProfile), "com/acme/base/1.0/base-1.0.dar"},
		{coord.New("com.acme", "base", "1.0", coord.PackagingAggregate), "com/acme/base/1.0/base-1.0.sdumod.cue"},
		{coord.Coordinate{Group: "io", Artifact: "x", Version: "2", Packaging: coord.PackagingFeature, Classifier: "lab"}, "io/x/2/x-2-lab.feature"},
	}
	for _, tt := range tests {
		if got := ObjectPath(tt.c); got != tt.want {
			t.Errorf("ObjectPath(%s) = %q, want %q", tt.c, got, tt.want)
		}
	}
}

func installBytes(t *testing.T, l *Local, c coord.Coordinate, content string) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "src")
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := l.Install(c, src)
	if err != nil {
		t.Fatalf("Install(%s) error: %v", c, err)
	}
	return p
}

func TestLocal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLocal(t.TempDir())
	for _, v := range []string{"1.0", "1.5", "2.0"} {
		installBytes(t, l, coord.New("com.acme", "base", v, coord.PackagingProfile), "v"+v)
	}

	versions, err := l.Versions(ctx, coord.New("com.acme", "base", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(versions, []string{"1.0", "1.5", "2.0"}) {
		t.Errorf("Versions() = %v", versions)
	}

	p, err := l.Fetch(ctx, coord.New("com.acme", "base", "1.5", coord.PackagingProfile))
	if err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(p); string(data) != "v1.5" {
		t.Errorf("fetched content = %q", data)
	}

	if _, err := l.Fetch(ctx, coord.New("com.acme", "base", "9", coord.PackagingProfile)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch(missing) error = %v, want ErrNotFound", err)
	}
	if v, err := l.Versions(ctx, coord.New("com.other", "none", "", "")); err != nil || len(v) != 0 {
		t.Errorf("Versions(unknown) = %v, %v", v, err)
	}
}

type countingStore struct {
	Store
	versions, fetches int
}

func (s *countingStore) Versions(ctx context.Context, c coord.Coordinate) ([]string, error) {
	s.versions++
	return s.Store.Versions(ctx, c)
}

func (s *countingStore) Fetch(ctx context.Context, c coord.Coordinate) (string, error) {
	s.fetches++
	return s.Store.Fetch(ctx, c)
}

func TestCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	l := NewLocal(t.TempDir())
	c := coord.New("com.acme", "edge", "1.0", coord.PackagingFeature)
	installBytes(t, l, c, "edge")

	inner := &countingStore{Store: l}
	cached, err := NewCached(inner, 8)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := cached.Fetch(ctx, c); err != nil {
			t.Fatal(err)
		}
		if _, err := cached.Versions(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	if inner.fetches != 1 || inner.versions != 1 {
		t.Errorf("inner calls = %d fetches, %d listings; want 1 each", inner.fetches, inner.versions)
	}

	missing := c.WithVersion("2.0")
	for range 2 {
		if _, err := cached.Fetch(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Fetch(missing) error = %v", err)
		}
	}
	if inner.fetches != 3 {
		t.Errorf("misses must not be cached: %d fetches", inner.fetches)
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first, second := NewLocal(t.TempDir()), NewLocal(t.TempDir())
	onlySecond := coord.New("com.acme", "x", "1.0", coord.PackagingExtension)
	both := coord.New("com.acme", "x", "2.0", coord.PackagingExtension)
	installBytes(t, second, onlySecond, "second")
	installBytes(t, first, both, "first")
	installBytes(t, second, both, "second")

	ch := Chain{first, second}
	p, err := ch.Fetch(ctx, both)
	if err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(p); string(data) != "first" {
		t.Errorf("first store must win, got %q", data)
	}
	if _, err := ch.Fetch(ctx, onlySecond); err != nil {
		t.Errorf("Fetch(onlySecond) error: %v", err)
	}
	if _, err := ch.Fetch(ctx, both.WithVersion("3.0")); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	versions, err := ch.Versions(ctx, both)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(versions, []string{"2.0", "1.0"}) {
		t.Errorf("Versions() = %v, want [2.0 1.0]", versions)
	}
}

func TestVersionFromKey(t *testing.T) {
	t.Parallel()

	prefix := "repo/com/acme/base/"
	tests := map[string]string{
		"repo/com/acme/base/1.0/":               "1.0",
		"repo/com/acme/base/2.0/base-2.0.dar":   "2.0",
		"repo/com/acme/base/maven-metadata.xml": "",
		"other/com/acme/base/1.0/":              "",
	}
	for key, want := range tests {
		if got := versionFromKey(prefix, key); got != want {
			t.Errorf("versionFromKey(%q) = %q, want %q", key, got, want)
		}
	}
}
