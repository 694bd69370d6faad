// Package blobstore abstracts a content-addressed local directory (or, via
// the s3 implementation, a remote object store) in terms of the five
// operations the File Store needs: existence check, read, write, single
// delete and recursive delete. Paths are always relative; callers never
// see or construct the storage root.
package blobstore

import (
	"context"
	"io"
)

// Store is the Blob Store interface. All I/O errors surface as one
// ErrIOFailure-coded *storeerr.StoreError carrying the cause and path.
type Store interface {
	// Exists reports whether a blob is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// OpenRead returns a readable stream for the blob at path.
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)

	// OpenWrite returns a writable stream for path, creating any missing
	// parent directories. The write is not guaranteed visible to Exists/
	// OpenRead until the returned writer is closed.
	OpenWrite(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes a single blob. Deleting a path that does not exist is
	// not an error.
	Delete(ctx context.Context, path string) error

	// DeleteAll recursively removes every blob under path.
	DeleteAll(ctx context.Context, path string) error
}
