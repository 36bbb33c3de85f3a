// SPDX-License-Identifier: MPL-2.0

package sdu

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
)

type (
	// Archive is an SDU opened for reading.
	Archive struct {
		path string
		rc   *zip.ReadCloser
	}

	// Handle describes a written archive.
	Handle struct {
		Path     string
		Entries  []string
		Manifest *Manifest
	}
)

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, ioErr("open archive", path, err)
	}
	return &Archive{path: path, rc: rc}, nil
}

// Path returns the archive path.
func (a *Archive) Path() string { return a.path }

// Files returns the archive entries in directory order.
func (a *Archive) Files() []*zip.File { return a.rc.File }

// Entry returns the entry with the given name.
func (a *Archive) Entry(name string) (*zip.File, bool) {
	for _, f := range a.rc.File {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Manifest parses META-INF/MANIFEST.MF.
func (a *Archive) Manifest() (*Manifest, error) {
	f, ok := a.Entry(ManifestPath)
	if !ok {
		return nil, fmt.Errorf("%s: %w", a.path, ErrMissingManifest)
	}
	r, err := f.Open()
	if err != nil {
		return nil, ioErr("open manifest", a.path, err)
	}
	defer r.Close()
	m, err := ParseManifest(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.path, err)
	}
	return m, nil
}

// VersionText returns the content of version.txt.
func (a *Archive) VersionText() (string, error) {
	data, err := a.ReadEntry(VersionMarkerPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadEntry returns the decompressed content of an entry.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	f, ok := a.Entry(name)
	if !ok {
		return nil, ioErr("read entry", a.path+"!"+name, fmt.Errorf("entry not found"))
	}
	r, err := f.Open()
	if err != nil {
		return nil, ioErr("read entry", a.path+"!"+name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ioErr("read entry", a.path+"!"+name, err)
	}
	return data, nil
}

// Close releases the archive.
func (a *Archive) Close() error { return a.rc.Close() }
