// Package fs implements blobstore.Store over a local directory, storing
// each blob as a single file with the content-addressed path as its
// filesystem path. Writes are atomic via a temp-file-plus-rename.
package fs

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/beatmaplib/assetstore/pkg/blobstore"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// Store is a filesystem-backed blobstore.Store.
type Store struct {
	mu       sync.RWMutex
	basePath string
	closed   bool
}

// Config configures the filesystem blob store.
type Config struct {
	// BasePath is the root directory for blob storage; all paths passed to
	// Store methods are relative to it.
	BasePath string

	// CreateDir creates BasePath if it does not already exist. Default:
	// true.
	CreateDir bool

	// DirMode is the permission mode for created directories. Default:
	// 0755.
	DirMode os.FileMode
}

// DefaultConfig returns the default configuration for basePath.
func DefaultConfig(basePath string) Config {
	return Config{BasePath: basePath, CreateDir: true, DirMode: 0o755}
}

// New opens (and optionally creates) a filesystem blob store rooted at
// cfg.BasePath.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, storeerr.New(storeerr.ErrIOFailure, "blobstore/fs.New")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0o755
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
			return nil, storeerr.Wrap(storeerr.ErrIOFailure, "blobstore/fs.New", err)
		}
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.ErrIOFailure, "blobstore/fs.New", err)
	}
	if !info.IsDir() {
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.New", cfg.BasePath, nil)
	}

	return &Store{basePath: cfg.BasePath}, nil
}

// NewWithPath opens a filesystem blob store with default configuration.
func NewWithPath(basePath string) (*Store, error) {
	return New(DefaultConfig(basePath))
}

func (s *Store) fullPath(relPath string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(relPath))
}

// Exists reports whether a blob is present at path.
func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, storeerr.New(storeerr.ErrClosed, "blobstore/fs.Exists")
	}

	_, err := os.Stat(s.fullPath(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.Exists", path, err)
}

// OpenRead returns a readable stream for the blob at path.
func (s *Store) OpenRead(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storeerr.New(storeerr.ErrClosed, "blobstore/fs.OpenRead")
	}

	f, err := os.Open(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storeerr.WithPath(storeerr.ErrNotFound, "blobstore/fs.OpenRead", path, err)
		}
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.OpenRead", path, err)
	}
	return f, nil
}

// atomicWriter buffers writes into a temp file beside the destination and
// renames it into place on Close, so a reader never observes a partially
// written blob.
type atomicWriter struct {
	tmp  *os.File
	dest string
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	return w.tmp.Write(p)
}

func (w *atomicWriter) Close() error {
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.OpenWrite", w.dest, err)
	}
	if err := os.Rename(w.tmp.Name(), w.dest); err != nil {
		os.Remove(w.tmp.Name())
		return storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.OpenWrite", w.dest, err)
	}
	return nil
}

// OpenWrite returns a writable stream for path, creating parent
// directories as needed. The blob is not visible at path until the
// returned writer is closed.
func (s *Store) OpenWrite(_ context.Context, path string) (io.WriteCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storeerr.New(storeerr.ErrClosed, "blobstore/fs.OpenWrite")
	}

	dest := s.fullPath(path)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.OpenWrite", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.OpenWrite", path, err)
	}

	return &atomicWriter{tmp: tmp, dest: dest}, nil
}

// Delete removes a single blob. Deleting a missing path is not an error.
func (s *Store) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storeerr.New(storeerr.ErrClosed, "blobstore/fs.Delete")
	}

	full := s.fullPath(path)
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.Delete", path, err)
	}
	s.cleanEmptyDirs(filepath.Dir(full))
	return nil
}

// DeleteAll recursively removes every blob under path.
func (s *Store) DeleteAll(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storeerr.New(storeerr.ErrClosed, "blobstore/fs.DeleteAll")
	}

	full := s.fullPath(path)
	if err := os.RemoveAll(full); err != nil {
		return storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.DeleteAll", path, err)
	}
	s.cleanEmptyDirs(filepath.Dir(full))
	return nil
}

func (s *Store) cleanEmptyDirs(dir string) {
	for dir != s.basePath && strings.HasPrefix(dir, s.basePath) {
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
}

// Close marks the store as closed; subsequent operations fail with
// ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// BasePath returns the store's root directory, mainly for tests.
func (s *Store) BasePath() string {
	return s.basePath
}

// ListByPrefix lists every blob path under prefix, sorted for determinism.
// Used by the File Store's cleanup reconciliation.
func (s *Store) ListByPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storeerr.New(storeerr.ErrClosed, "blobstore/fs.ListByPrefix")
	}

	root := s.fullPath(prefix)
	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, storeerr.WithPath(storeerr.ErrIOFailure, "blobstore/fs.ListByPrefix", prefix, err)
	}
	return keys, nil
}

var _ blobstore.Store = (*Store)(nil)
