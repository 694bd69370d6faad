// Package beatmapimport provides a minimal importer.ImportHandler for
// osu!-style beatmap archives. It recognizes the conventional
// "<online_id> Artist - Title" top-level folder naming and treats every
// hashable file as one difficulty, deriving a human-readable difficulty
// name from its filename. It does not parse .osu hit-object data or
// resolve game modes beyond the built-in "osu!" ruleset: a full text-format
// decoder and ruleset registry are external collaborators the Archive
// Importer pipeline is deliberately blind to.
package beatmapimport

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/filestore"
	"github.com/beatmaplib/assetstore/pkg/importer"
	"github.com/beatmaplib/assetstore/pkg/schema"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// StandardRuleset is the one ruleset this handler understands. Real
// deployments register additional rulesets (mania, taiko, catch) through
// their own decoder package and seed them into the database independently.
var StandardRuleset = schema.Ruleset{
	OnlineID:  0,
	Name:      "osu!",
	ShortName: "osu",
	Available: true,
}

var folderPrefixPattern = regexp.MustCompile(`^(\d+)\s+(.*)$`)

// Handler is a default, conventions-only ImportHandler.
type Handler struct {
	hashableExts []string
}

// New constructs a Handler. extensions is the operator-configured hashable
// set (config.StorageConfig.HashableExtensions); when empty it falls back
// to the conventional osu! difficulty extension alone.
func New(extensions ...string) *Handler {
	if len(extensions) == 0 {
		extensions = []string{".osu"}
	}
	return &Handler{hashableExts: extensions}
}

// HashableExtensions returns the extensions considered part of a beatmap
// set's identity fingerprint.
func (h *Handler) HashableExtensions() []string {
	return h.hashableExts
}

func (h *Handler) isHashable(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range h.hashableExts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// CreateModel returns the online set id parsed from the archive's
// conventional top-level folder name, or nil when there is none; it does not
// build the BeatmapSet itself. representative is the lexicographically
// first hashable entry, used only as a fallback when Name() carries no
// recognizable folder prefix.
func (h *Handler) CreateModel(_ context.Context, archive importer.ArchiveReader, representative string) (*int64, error) {
	onlineID := parseOnlineIDPrefix(archive.Name())
	if onlineID == nil {
		onlineID = parseOnlineIDPrefix(path.Dir(representative))
	}
	return onlineID, nil
}

func parseOnlineIDPrefix(name string) *int64 {
	m := folderPrefixPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return nil
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// CanSkipImport allows skipping re-import whenever the existing set still
// has a resolvable online id; an unresolved (nil) online id means the
// earlier import was incomplete and should be attempted again.
func (h *Handler) CanSkipImport(_ context.Context, existing *schema.BeatmapSet, _ *dbsession.Session) (bool, error) {
	return existing.OnlineID != nil, nil
}

// CanReuseExisting allows reuse of a hash-colliding set whenever it isn't
// itself pending deletion.
func (h *Handler) CanReuseExisting(_ context.Context, existing, _ *schema.BeatmapSet, _ *dbsession.Session) (bool, error) {
	return !existing.DeletePending, nil
}

// PreImport is a no-op: this handler performs no external online-id
// resolution beyond what CreateModel already read from the folder name. A
// prior set holding the same online id is neither marked delete_pending nor
// has its or its Beatmaps' online ids cleared.
func (h *Handler) PreImport(_ context.Context, _ *int64, _ *dbsession.Session) error {
	return nil
}

// Populate creates one Beatmap per hashable archive entry, deriving its
// difficulty name from the filename and computing its identity hashes from
// raw file content. Entries are read from the archive, not back through
// files. The .osu text is not parsed: each Beatmap's metadata
// carries only a title taken from the filename, and its difficulty gets
// fixed placeholder values (5 for drain rate, circle size, overall
// difficulty and approach rate; slider multiplier 1.4; slider tick rate 1).
// Per spec §4.6.2 stage 4c, entries whose content hash
// duplicates one already seen in this set are collapsed onto the first
// Beatmap rather than creating a second one.
func (h *Handler) Populate(ctx context.Context, archive importer.ArchiveReader, candidate *schema.BeatmapSet, session *dbsession.Session, files *filestore.Store) error {
	var hashable []string
	for _, name := range archive.Filenames() {
		if h.isHashable(name) {
			hashable = append(hashable, name)
		}
	}
	sort.Strings(hashable)

	if err := ensureRuleset(session); err != nil {
		return err
	}

	seen := make(map[[sha256.Size]byte]bool, len(hashable))

	for _, name := range hashable {
		stream, err := archive.GetStream(name)
		if err != nil {
			return err
		}

		content, err := io.ReadAll(stream)
		if err != nil {
			return err
		}
		if _, err := stream.Seek(0, io.SeekStart); err != nil {
			return err
		}

		sum := sha256.Sum256(content)
		if seen[sum] {
			continue
		}
		seen[sum] = true

		md5sum := md5.Sum(content)

		metadata := schema.BeatmapMetadata{Title: strings.TrimSuffix(path.Base(name), path.Ext(name))}
		if err := session.Add(&metadata, false); err != nil {
			return err
		}

		difficulty := schema.BeatmapDifficulty{
			DrainRate:         5,
			CircleSize:        5,
			OverallDifficulty: 5,
			ApproachRate:      5,
			SliderMultiplier:  1.4,
			SliderTickRate:    1,
		}
		if err := session.Add(&difficulty, false); err != nil {
			return err
		}

		beatmap := schema.Beatmap{
			ID:             uuid.New(),
			BeatmapSetID:   candidate.ID,
			RulesetID:      StandardRuleset.OnlineID,
			DifficultyID:   difficulty.ID,
			MetadataID:     metadata.ID,
			Hash:           hex.EncodeToString(sum[:]),
			MD5:            hex.EncodeToString(md5sum[:]),
			DifficultyName: strings.TrimSuffix(path.Base(name), path.Ext(name)),
		}
		if err := session.Add(&beatmap, false); err != nil {
			return err
		}
	}

	candidate.DateAdded = timeNow()
	return nil
}

func ensureRuleset(session *dbsession.Session) error {
	_, err := dbsession.Find[schema.Ruleset](session, StandardRuleset.OnlineID)
	if err == nil {
		return nil
	}
	if !storeerr.Is(err, storeerr.ErrNotFound) {
		return err
	}
	r := StandardRuleset
	return session.Add(&r, false)
}

func timeNow() time.Time { return time.Now().UTC() }
