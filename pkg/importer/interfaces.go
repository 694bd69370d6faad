package importer

import (
	"context"
	"io"

	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/filestore"
	"github.com/beatmaplib/assetstore/pkg/schema"
)

// ArchiveReader is consumed, not provided, by this package: archive
// container parsing (ZIP or otherwise) is an external collaborator.
type ArchiveReader interface {
	// Name is the archive's display name, used to fingerprint archives
	// that contain no hashable file.
	Name() string

	// Filenames lists every entry's relative path inside the archive.
	Filenames() []string

	// GetStream returns a readable, seekable stream for the named entry.
	GetStream(name string) (io.ReadSeeker, error)
}

// ImportHandler realizes the subclass-style hooks of spec §9
// (create_model, populate, can_skip_import, can_reuse_existing, pre_import)
// as a plain interface, so each archive type (beatmaps, skins, replays)
// plugs in an implementation without a runtime polymorphism chain. Beatmap
// text-format decoding and ruleset instantiation are external collaborators
// implemented by the concrete handler, not by this package.
type ImportHandler interface {
	// HashableExtensions returns the importer-declared set of file
	// extensions (e.g. []string{".osu"}) whose content participates in the
	// archive-level hash fingerprint.
	HashableExtensions() []string

	// CreateModel inspects the archive and the chosen representative
	// hashable entry (already verified to exist by the pipeline) to
	// extract whatever online identifier the archive declares. Returning
	// a nil onlineID with a nil error means the archive has no known
	// online set id.
	CreateModel(ctx context.Context, archive ArchiveReader, representative string) (onlineID *int64, err error)

	// CanSkipImport reports whether existing is an acceptable re-use
	// target for the early-skip check at stage 3. The conventional default
	// is "at least one beatmap has an online id present".
	CanSkipImport(ctx context.Context, existing *schema.BeatmapSet, session *dbsession.Session) (bool, error)

	// CanReuseExisting reports whether existing may be reused in place of
	// candidate at the stage-5 collision check. The conventional default
	// is "same sorted File hashes and same sorted filenames".
	CanReuseExisting(ctx context.Context, existing, candidate *schema.BeatmapSet, session *dbsession.Session) (bool, error)

	// Populate is called within the stage-4 write transaction after every
	// archive entry has been added to the File Store and attached to
	// candidate via NamedFileUsage. It must read back whatever hashable
	// entries it needs through files (the in-archive streams have already
	// been consumed), decode them, and construct and persist the Beatmap /
	// BeatmapDifficulty / BeatmapMetadata rows parented to candidate.
	Populate(ctx context.Context, archive ArchiveReader, candidate *schema.BeatmapSet, session *dbsession.Session, files *filestore.Store) error

	// PreImport runs before collision resolution: if onlineID is non-nil
	// and the database already has a BeatmapSet with the same online id,
	// the implementation marks that prior set delete_pending and clears
	// its (and its Beatmaps') online ids, releasing the uniqueness slot.
	PreImport(ctx context.Context, onlineID *int64, session *dbsession.Session) error
}
