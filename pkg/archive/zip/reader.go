// Package zip adapts a standard ZIP file to the importer.ArchiveReader
// interface. Container parsing is a concern the pack has no specialized
// third-party library for (ZIP is a closed, stable format fully served by
// the standard library's archive/zip), so this is the one place the asset
// store deliberately reaches for stdlib over an ecosystem package.
package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"os"

	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// Reader implements importer.ArchiveReader over an in-memory or on-disk ZIP
// archive.
type Reader struct {
	name  string
	files map[string]*zip.File
	names []string
}

// Open reads a ZIP archive from path into memory and wraps it as an
// ArchiveReader. name is the display name used when the archive has no
// hashable entry and fingerprinting falls back to hashing it.
func Open(path, name string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "archive/zip.Open", path, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "archive/zip.Open", path, err)
	}
	return fromZipFiles(zr.File, name)
}

// OpenBytes wraps an in-memory ZIP archive as an ArchiveReader.
func OpenBytes(data []byte, name string) (*Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, storeerr.Wrap(storeerr.ErrIOFailure, "archive/zip.OpenBytes", err)
	}
	return fromZipFiles(zr.File, name)
}

func fromZipFiles(entries []*zip.File, name string) (*Reader, error) {
	r := &Reader{name: name, files: make(map[string]*zip.File, len(entries))}
	for _, f := range entries {
		if f.FileInfo().IsDir() {
			continue
		}
		r.files[f.Name] = f
		r.names = append(r.names, f.Name)
	}
	return r, nil
}

// Name returns the archive's display name.
func (r *Reader) Name() string { return r.name }

// Filenames lists every entry's relative path inside the archive.
func (r *Reader) Filenames() []string { return r.names }

// GetStream returns a readable, seekable stream for the named entry. The
// ZIP format does not support seeking directly on a compressed entry, so the
// entry is buffered fully into memory.
func (r *Reader) GetStream(name string) (io.ReadSeeker, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, storeerr.WithPath(storeerr.ErrNotFound, "archive/zip.GetStream", name, nil)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "archive/zip.GetStream", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "archive/zip.GetStream", name, err)
	}
	return bytes.NewReader(data), nil
}
