// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/sdukit/sdukit/pkg/sdu"
)

// BuildArchive writes an SDU at path holding m, a version marker with
// versionText, and members keyed by archive path.
func BuildArchive(t testing.TB, path string, m *sdu.Manifest, versionText string, members map[string]string) string {
	t.Helper()
	w, err := sdu.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	if err := w.WriteManifest(m); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := w.WriteBytes(sdu.VersionMarkerPath, []byte(versionText)); err != nil {
		t.Fatalf("write version marker: %v", err)
	}
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := w.WriteBytes(name, []byte(members[name])); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

// ArchiveContents returns every file entry of the archive at path. Directory
// entries are left out. Reading an entry verifies its CRC-32.
func ArchiveContents(t testing.TB, path string) map[string][]byte {
	t.Helper()
	rc, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive %s: %v", path, err)
	}
	defer rc.Close()

	out := make(map[string][]byte)
	for _, f := range rc.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		r, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		out[f.Name] = data
	}
	return out
}

// ArchiveManifest parses the manifest of the archive at path.
func ArchiveManifest(t testing.TB, path string) *sdu.Manifest {
	t.Helper()
	a, err := sdu.Open(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer a.Close()
	m, err := a.Manifest()
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	return m
}
