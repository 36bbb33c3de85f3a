// SPDX-License-Identifier: MPL-2.0

package sdu

import (
	"archive/zip"
	"bufio"
	"errors"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ModTime is stamped on every entry so identical inputs give identical bytes.
var ModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// dosModDate is ModTime in MS-DOS date format. CreateRaw writes header fields
// as given, so the DOS fields must be filled in directly.
const dosModDate = 1<<5 | 1

// Writer writes an archive entry by entry. Every file entry is stored with its
// CRC-32 and size in the local header. Parent directory entries are emitted
// once, the first time a path below them is written.
type Writer struct {
	path    string
	file    *os.File
	buf     *bufio.Writer
	zw      *zip.Writer
	dirs    map[string]bool
	entries []string
}

// Create removes any existing file at path and starts a new archive there.
func Create(path string) (*Writer, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, ioErr("delete existing output", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, ioErr("create output dir", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, ioErr("create", path, err)
	}
	buf := bufio.NewWriter(f)
	return &Writer{
		path: path,
		file: f,
		buf:  buf,
		zw:   zip.NewWriter(buf),
		dirs: make(map[string]bool),
	}, nil
}

// Path returns the archive file path.
func (w *Writer) Path() string { return w.path }

// Entries returns the names written so far, directories included.
func (w *Writer) Entries() []string {
	out := make([]string, len(w.entries))
	copy(out, w.entries)
	return out
}

// WriteManifest writes META-INF/MANIFEST.MF.
func (w *Writer) WriteManifest(m *Manifest) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	return w.WriteBytes(ManifestPath, data)
}

// WriteBytes stores data under name.
func (w *Writer) WriteBytes(name string, data []byte) error {
	if err := w.ensureParents(name); err != nil {
		return err
	}
	fw, err := w.zw.CreateRaw(storedHeader(name, crc32.ChecksumIEEE(data), uint64(len(data))))
	if err != nil {
		return ioErr("write entry", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return ioErr("write entry", name, err)
	}
	w.entries = append(w.entries, name)
	return nil
}

// WriteFile stores the file at src under name. The file is read twice: once
// for the checksum, once for the copy.
func (w *Writer) WriteFile(name, src string) error {
	sum, size, err := checksumFile(src)
	if err != nil {
		return err
	}
	if err := w.ensureParents(name); err != nil {
		return err
	}
	fw, err := w.zw.CreateRaw(storedHeader(name, sum, size))
	if err != nil {
		return ioErr("write entry", name, err)
	}

	f, err := os.Open(src)
	if err != nil {
		return ioErr("open", src, err)
	}
	defer f.Close()
	n, err := io.Copy(fw, f)
	if err != nil {
		return ioErr("copy", src, err)
	}
	if uint64(n) != size {
		return ioErr("copy", src, errors.New("file changed while writing"))
	}
	w.entries = append(w.entries, name)
	return nil
}

// CopyRaw copies an entry from another archive without decompressing or
// recompressing it. The entry keeps its name.
func (w *Writer) CopyRaw(f *zip.File) error {
	if err := w.ensureParents(f.Name); err != nil {
		return err
	}
	fh := f.FileHeader
	fh.Modified = ModTime
	fh.ModifiedDate, fh.ModifiedTime = dosModDate, 0
	rc, err := f.OpenRaw()
	if err != nil {
		return ioErr("open entry", f.Name, err)
	}
	fw, err := w.zw.CreateRaw(&fh)
	if err != nil {
		return ioErr("write entry", f.Name, err)
	}
	if _, err := io.Copy(fw, rc); err != nil {
		return ioErr("copy entry", f.Name, err)
	}
	w.entries = append(w.entries, f.Name)
	return nil
}

// Close finishes the archive. The file is left in place on failure.
func (w *Writer) Close() error {
	err := w.zw.Close()
	if err == nil {
		err = w.buf.Flush()
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ioErr("close", w.path, err)
	}
	return nil
}

func (w *Writer) ensureParents(name string) error {
	for _, dir := range parentDirs(name) {
		if w.dirs[dir] {
			continue
		}
		fh := &zip.FileHeader{Name: dir, Method: zip.Store, Modified: ModTime}
		fh.SetMode(os.ModeDir | 0o755)
		if _, err := w.zw.CreateHeader(fh); err != nil {
			return ioErr("write dir entry", dir, err)
		}
		w.dirs[dir] = true
		w.entries = append(w.entries, dir)
	}
	return nil
}

func storedHeader(name string, sum uint32, size uint64) *zip.FileHeader {
	fh := &zip.FileHeader{
		Name:               name,
		Method:             zip.Store,
		CRC32:              sum,
		CompressedSize64:   size,
		UncompressedSize64: size,
		Modified:           ModTime,
		ModifiedDate:       dosModDate,
	}
	fh.SetMode(0o644)
	return fh
}

func checksumFile(src string) (uint32, uint64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, 0, ioErr("open", src, err)
	}
	defer f.Close()
	h := crc32.NewIEEE()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, 0, ioErr("checksum", src, err)
	}
	return h.Sum32(), uint64(n), nil
}
