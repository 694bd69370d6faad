// Package filestore deduplicates blobs on disk by SHA-256 and reclaims
// them once nothing references them, on top of a pkg/blobstore.Store and
// the File/NamedFileUsage tables of pkg/schema.
package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"time"

	"github.com/beatmaplib/assetstore/internal/logger"
	"github.com/beatmaplib/assetstore/internal/telemetry"
	"github.com/beatmaplib/assetstore/pkg/blobstore"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/metrics"
	"github.com/beatmaplib/assetstore/pkg/schema"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// Store deduplicates blobs by content hash and tracks their usage count
// through the schema package's NamedFileUsage back-references.
type Store struct {
	blobs   blobstore.Store
	manager *dbsession.Manager
	metrics *metrics.Metrics
}

// New constructs a Store over the given blob store and session manager.
func New(blobs blobstore.Store, manager *dbsession.Manager) *Store {
	return &Store{blobs: blobs, manager: manager}
}

// SetMetrics attaches a Prometheus metrics collector. A nil *Metrics (the
// default) makes every recording call a no-op.
func (s *Store) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Add computes the SHA-256 of stream, deduplicates against any existing
// File with that hash, writes the blob if it is missing or corrupt, and
// returns the (possibly pre-existing) File record. Must be called within
// an active write session; repeated calls with identical content are
// idempotent and never duplicate the File row or the blob.
func (s *Store) Add(ctx context.Context, stream io.ReadSeeker, session *dbsession.Session) (*schema.File, error) {
	hash, size, err := hashStream(stream)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Add", err)
	}

	ctx, span := telemetry.StartBlobSpan(ctx, telemetry.SpanBlobWrite, hash, telemetry.BlobSize(size))
	defer span.End()

	path := schema.StoragePathForHash(hash)

	existing, err := dbsession.Find[schema.File](session, hash)
	switch {
	case err != nil && !storeerr.Is(err, storeerr.ErrNotFound):
		return nil, err
	case err == nil:
		// File record exists; verify the blob is intact before trusting it.
		if ok, verifyErr := s.blobIntact(ctx, path, hash); verifyErr != nil {
			return nil, verifyErr
		} else if !ok {
			if err := s.writeBlob(ctx, path, stream); err != nil {
				return nil, err
			}
		}
		s.metrics.RecordFileAdded("deduplicated", 0)
		return existing, nil
	}

	// No File record yet: the blob may still exist from an earlier
	// rolled-back import, in which case it's already correct.
	if ok, verifyErr := s.blobIntact(ctx, path, hash); verifyErr != nil {
		return nil, verifyErr
	} else if !ok {
		if err := s.writeBlob(ctx, path, stream); err != nil {
			return nil, err
		}
	}

	file := &schema.File{Hash: hash, Size: size}
	if err := session.Add(file, false); err != nil && !storeerr.Is(err, storeerr.ErrDuplicatePrimaryKey) {
		return nil, err
	}
	s.metrics.RecordFileAdded("new", size)
	return file, nil
}

// blobIntact reports whether the blob at path exists and its recomputed
// hash matches the expected one.
func (s *Store) blobIntact(ctx context.Context, path, expectedHash string) (bool, error) {
	exists, err := s.blobs.Exists(ctx, path)
	if err != nil {
		return false, storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Add", err)
	}
	if !exists {
		return false, nil
	}

	r, err := s.blobs.OpenRead(ctx, path)
	if err != nil {
		return false, storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Add", err)
	}
	defer r.Close()

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return false, storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Add", err)
	}
	return hex.EncodeToString(h.Sum(nil)) == expectedHash, nil
}

func (s *Store) writeBlob(ctx context.Context, path string, stream io.ReadSeeker) error {
	if _, err := stream.Seek(0, io.SeekStart); err != nil {
		return storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Add", err)
	}
	defer stream.Seek(0, io.SeekStart)

	w, err := s.blobs.OpenWrite(ctx, path)
	if err != nil {
		return storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Add", err)
	}
	if _, err := io.Copy(w, stream); err != nil {
		w.Close()
		return storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Add", err)
	}
	if err := w.Close(); err != nil {
		return storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Add", err)
	}
	return nil
}

func hashStream(stream io.ReadSeeker) (hash string, size int64, err error) {
	if _, err = stream.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}
	h := sha256.New()
	n, err := io.Copy(h, stream)
	if err != nil {
		return "", 0, err
	}
	if _, err = stream.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Cleanup opens a fresh write transaction, enumerates every File, and
// deletes the blob and record for each whose usage count is zero.
// Per-blob deletion errors are logged and do not abort the scan.
func (s *Store) Cleanup(ctx context.Context) (reclaimed int, err error) {
	ctx, span := telemetry.StartGCSpan(ctx)
	start := time.Now()
	defer func() {
		span.SetAttributes(telemetry.GCReclaimed(reclaimed))
		span.End()
		s.metrics.RecordGC(reclaimed, time.Since(start).Seconds())
	}()

	session, err := s.manager.WriteSession()
	if err != nil {
		return 0, err
	}
	defer session.Close()

	files, err := dbsession.All[schema.File](session)
	if err != nil {
		return 0, err
	}

	for _, f := range files {
		var count int64
		if err := session.DB().Model(&schema.NamedFileUsage{}).
			Where("file_hash = ?", f.Hash).Count(&count).Error; err != nil {
			return reclaimed, storeerr.Wrap(storeerr.ErrIOFailure, "filestore.Cleanup", err)
		}
		if count > 0 {
			continue
		}

		if err := s.blobs.Delete(ctx, f.StoragePath()); err != nil {
			logger.Warn("filestore: cleanup failed to delete blob, continuing",
				"hash", f.Hash, "error", err)
			continue
		}
		if err := session.Remove(&f); err != nil {
			logger.Warn("filestore: cleanup failed to remove record, continuing",
				"hash", f.Hash, "error", err)
			continue
		}
		reclaimed++
	}

	if err := session.Commit(); err != nil {
		return reclaimed, err
	}
	return reclaimed, nil
}
