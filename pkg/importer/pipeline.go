package importer

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/beatmaplib/assetstore/internal/logger"
	"github.com/beatmaplib/assetstore/internal/telemetry"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/handle"
	"github.com/beatmaplib/assetstore/pkg/schema"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// runPipeline executes stages 1-7 of spec §4.6.2 for a single archive. It is
// the process function handed to both named queues; the queues guarantee
// only one of these runs at a time per queue.
func (im *Importer) runPipeline(ctx context.Context, archive ArchiveReader) (result *importResult, err error) {
	ctx = logger.WithContext(ctx, logger.NewLogContext(archive.Name()))
	ctx, span := telemetry.StartImportSpan(ctx, telemetry.SpanImportCreate, archive.Name())
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, storeerr.Wrap(storeerr.ErrCancelled, "importer.Submit", err)
	}

	hashableExts := im.handler.HashableExtensions()

	// Stage 1: create skeletal model.
	representative := representativeEntry(archive.Filenames(), hashableExts)
	if representative == "" {
		return nil, storeerr.New(storeerr.ErrModelCreationFailed, "importer.CreateModel")
	}
	onlineID, err := im.handler.CreateModel(ctx, archive, representative)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.ErrModelCreationFailed, "importer.CreateModel", err)
	}
	candidate := &schema.BeatmapSet{ID: uuid.New(), OnlineID: onlineID, DateAdded: time.Now()}
	span.SetAttributes(telemetry.SetID(candidate.ID.String()))

	if err := ctx.Err(); err != nil {
		return nil, storeerr.Wrap(storeerr.ErrCancelled, "importer.Fingerprint", err)
	}

	// Stage 2: fast fingerprint.
	hash, err := fingerprintArchive(archive, hashableExts)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.ErrIOFailure, "importer.Fingerprint", err)
	}
	candidate.Hash = hash

	// Stage 3: early-skip check.
	if result, skipped, err := im.earlySkipCheck(ctx, archive, hashableExts, hash); err != nil {
		return nil, err
	} else if skipped {
		span.SetAttributes(telemetry.Outcome("reused"))
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, storeerr.Wrap(storeerr.ErrCancelled, "importer.Populate", err)
	}

	// Stages 4-6 share one write transaction.
	result, err = im.populateAndCommit(ctx, archive, candidate, hashableExts)
	if err == nil {
		span.SetAttributes(telemetry.Outcome("imported"))
	}
	return result, err
}

// earlySkipCheck implements stage 3. The second return value reports
// whether an existing set was found and is compatible for re-use.
func (im *Importer) earlySkipCheck(ctx context.Context, archive ArchiveReader, hashableExts []string, hash string) (*importResult, bool, error) {
	session, err := im.manager.ReadSession()
	if err != nil {
		return nil, false, err
	}
	defer session.Close()

	var existing schema.BeatmapSet
	err = session.DB().Where("hash = ?", hash).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeerr.Wrap(storeerr.ErrIOFailure, "importer.EarlySkip", err)
	}

	compatible, err := im.handler.CanSkipImport(ctx, &existing, session)
	if err != nil {
		return nil, false, err
	}
	if !compatible {
		return nil, false, nil
	}

	var usages []schema.NamedFileUsage
	if err := session.DB().Where("beatmap_set_id = ?", existing.ID).Find(&usages).Error; err != nil {
		return nil, false, storeerr.Wrap(storeerr.ErrIOFailure, "importer.EarlySkip", err)
	}
	existingNames := make([]string, len(usages))
	for i, u := range usages {
		existingNames[i] = u.Filename
	}

	if !equalSortedStrings(shortenFilenames(archive.Filenames()), existingNames) {
		return nil, false, nil
	}

	write, err := im.manager.WriteSession()
	if err != nil {
		return nil, false, err
	}
	existing.DeletePending = false
	if err := write.Add(&existing, true); err != nil {
		write.Rollback()
		write.Close()
		return nil, false, err
	}
	if err := write.Commit(); err != nil {
		write.Close()
		return nil, false, err
	}
	write.Close()

	return &importResult{handle: handle.New[schema.BeatmapSet](im.manager, nil, existing.ID), outcome: "reused"}, true, nil
}

// populateAndCommit implements stages 4-6: one write transaction spanning
// file population, the handler's populate hook, online-id sanitation,
// collision resolution, and commit.
func (im *Importer) populateAndCommit(ctx context.Context, archive ArchiveReader, candidate *schema.BeatmapSet, hashableExts []string) (*importResult, error) {
	session, err := im.manager.WriteSession()
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			session.Rollback()
			session.Close()
		}
	}()

	names := archive.Filenames()
	shortened := shortenFilenames(names)
	contents := make(map[string][]byte)

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, storeerr.Wrap(storeerr.ErrCancelled, "importer.Populate", err)
		}

		stream, err := archive.GetStream(name)
		if err != nil {
			return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.Populate", err)
		}

		file, err := im.files.Add(ctx, stream, session)
		if err != nil {
			logger.ErrorCtx(ctx, "import populate: file store add failed, rolling back",
				"set_id", candidate.ID, "filename", name, "error", err)
			return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.Populate", err)
		}

		usage := schema.NamedFileUsage{BeatmapSetID: candidate.ID, FileHash: file.Hash, Filename: shortened[i]}
		if err := session.Add(&usage, false); err != nil {
			logger.ErrorCtx(ctx, "import populate: named file usage add failed, rolling back",
				"set_id", candidate.ID, "filename", name, "error", err)
			return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.Populate", err)
		}
		candidate.Files = append(candidate.Files, usage)

		if hasHashableExt(name, hashableExts) {
			if body, err := io.ReadAll(stream); err == nil {
				contents[shortened[i]] = body
			}
		}
	}

	// Stage 4b: recompute the hash from the bytes just added to the File
	// Store, read from each archive stream after Add rewound it; the blobs
	// are not read back from the blob store.
	if revised := fingerprintContents(contents, hashableExts); revised != "" {
		candidate.Hash = revised
	}

	// Stage 4c: the handler's populate hook constructs and persists the
	// Beatmap / BeatmapDifficulty / BeatmapMetadata rows.
	if err := im.handler.Populate(ctx, archive, candidate, session, im.files); err != nil {
		logger.ErrorCtx(ctx, "import populate: handler populate failed, rolling back",
			"set_id", candidate.ID, "error", err)
		return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.Populate", err)
	}

	// Stage 4d: online-id sanitation.
	var beatmaps []schema.Beatmap
	if err := session.DB().Where("beatmap_set_id = ?", candidate.ID).Find(&beatmaps).Error; err != nil {
		return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.Populate", err)
	}
	if err := im.sanitizeOnlineIDs(session, candidate, beatmaps); err != nil {
		return nil, err
	}

	result, err := im.resolveCollisionsAndCommit(ctx, session, candidate)
	if err != nil {
		return nil, err
	}
	committed = true
	session.Close()

	if im.events != nil {
		im.events(Event{Kind: EventImported, SetID: candidate.ID})
	}
	return result, nil
}

// sanitizeOnlineIDs implements stage 4d.
func (im *Importer) sanitizeOnlineIDs(session *dbsession.Session, candidate *schema.BeatmapSet, beatmaps []schema.Beatmap) error {
	seen := make(map[int64]bool)
	internalCollision := false
	for _, b := range beatmaps {
		if b.OnlineID == nil {
			continue
		}
		if seen[*b.OnlineID] {
			internalCollision = true
			break
		}
		seen[*b.OnlineID] = true
	}

	externalCollision := false
	if !internalCollision {
		for _, b := range beatmaps {
			if b.OnlineID == nil {
				continue
			}
			var other schema.Beatmap
			err := session.DB().Where("online_id = ? AND beatmap_set_id <> ?", *b.OnlineID, candidate.ID).
				First(&other).Error
			if err == nil {
				externalCollision = true
				break
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.SanitizeOnlineIDs", err)
			}
		}
	}

	if !internalCollision && !externalCollision {
		return nil
	}

	hadOnlineID := false
	for i := range beatmaps {
		if beatmaps[i].OnlineID != nil {
			hadOnlineID = true
		}
		beatmaps[i].OnlineID = nil
		if err := session.Add(&beatmaps[i], true); err != nil {
			return storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.SanitizeOnlineIDs", err)
		}
	}
	if hadOnlineID && candidate.OnlineID != nil {
		candidate.OnlineID = nil
	}
	return nil
}

// resolveCollisionsAndCommit implements stage 5 and stage 6.
func (im *Importer) resolveCollisionsAndCommit(ctx context.Context, session *dbsession.Session, candidate *schema.BeatmapSet) (*importResult, error) {
	if candidate.OnlineID != nil {
		if err := im.handler.PreImport(ctx, candidate.OnlineID, session); err != nil {
			return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.PreImport", err)
		}
	}

	var collided schema.BeatmapSet
	err := session.DB().Where("hash = ? AND id <> ?", candidate.Hash, candidate.ID).First(&collided).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no collision
	case err != nil:
		return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.CollisionResolution", err)
	default:
		reuse, rerr := im.handler.CanReuseExisting(ctx, &collided, candidate, session)
		if rerr != nil {
			return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.CollisionResolution", rerr)
		}
		if reuse {
			// candidate's own writes are discarded first (which also
			// releases the write lock), so clearing delete_pending on the
			// reused set happens on a separate transaction rather than
			// this one, mirroring earlySkipCheck.
			if err := session.Rollback(); err != nil {
				return nil, err
			}
			session.Close()
			write, err := im.manager.WriteSession()
			if err != nil {
				return nil, err
			}
			collided.DeletePending = false
			if err := write.Add(&collided, true); err != nil {
				write.Rollback()
				write.Close()
				return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.CollisionResolution", err)
			}
			if err := write.Commit(); err != nil {
				write.Close()
				return nil, err
			}
			write.Close()

			return &importResult{handle: handle.New[schema.BeatmapSet](im.manager, nil, collided.ID), outcome: "reused"}, nil
		}

		collided.DeletePending = true
		if err := session.Add(&collided, true); err != nil {
			return nil, storeerr.Wrap(storeerr.ErrPopulateFailed, "importer.CollisionResolution", err)
		}
	}

	// Stage 6: commit.
	if err := session.Add(candidate, false); err != nil {
		return nil, storeerr.Wrap(storeerr.ErrRollback, "importer.Commit", err)
	}
	if err := session.Commit(); err != nil {
		return nil, err
	}

	return &importResult{handle: handle.New[schema.BeatmapSet](im.manager, nil, candidate.ID), outcome: "imported"}, nil
}
