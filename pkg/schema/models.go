// Package schema defines the persisted record types of the asset store and
// their GORM mappings: File, NamedFileUsage, Ruleset, BeatmapMetadata,
// BeatmapDifficulty, Beatmap and BeatmapSet. Every mutation to these types
// must happen inside a transaction opened by pkg/dbsession; the schema
// package itself holds no session state.
package schema

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// File is the content-addressed index entry for a unique byte-content blob.
// Its primary key is the lowercase hex SHA-256 of the blob content; the blob
// itself lives at StoragePath() under the blob store root.
type File struct {
	Hash      string `gorm:"column:hash;primaryKey;size:64"`
	Size      int64  `gorm:"column:size"`
	CreatedAt time.Time

	Usages []NamedFileUsage `gorm:"foreignKey:FileHash;references:Hash"`
}

func (File) TableName() string { return "files" }

// StoragePath derives the blob store path from the hash, per the layout
// hash[0]/hash[0..2]/hash.
func (f File) StoragePath() string {
	return StoragePathForHash(f.Hash)
}

// StoragePathForHash derives the content-addressed relative path for a raw
// hex SHA-256 string, without requiring a File value.
func StoragePathForHash(hash string) string {
	if len(hash) < 2 {
		return hash
	}
	return hash[0:1] + "/" + hash[0:2] + "/" + hash
}

// NamedFileUsage embeds a File in exactly one BeatmapSet under a
// set-relative filename. It has no primary key meaningful to callers; the
// ID column below exists only so GORM has a physical row identity.
type NamedFileUsage struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	BeatmapSetID uuid.UUID `gorm:"column:beatmap_set_id;type:uuid;index;not null"`
	FileHash     string    `gorm:"column:file_hash;size:64;index;not null"`
	Filename     string    `gorm:"column:filename;not null"`

	File File `gorm:"foreignKey:FileHash;references:Hash"`
}

func (NamedFileUsage) TableName() string { return "named_file_usages" }

// Ruleset is the game mode a Beatmap is played under. Its primary key is
// the online ruleset id; rulesets with an unknown online id are never
// persisted (the importer skips beatmaps whose ruleset cannot be resolved).
type Ruleset struct {
	OnlineID         int    `gorm:"column:online_id;primaryKey;autoIncrement:false"`
	Name             string `gorm:"column:name;not null"`
	ShortName        string `gorm:"column:short_name;not null"`
	InstantiationHint string `gorm:"column:instantiation_hint"`
	Available        bool   `gorm:"column:available;default:true"`
}

func (Ruleset) TableName() string { return "rulesets" }

// BeatmapMetadata is a value record describing the display metadata of a
// single Beatmap.
type BeatmapMetadata struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	Title            string `gorm:"column:title"`
	TitleUnicode     string `gorm:"column:title_unicode"`
	Artist           string `gorm:"column:artist"`
	ArtistUnicode    string `gorm:"column:artist_unicode"`
	Author           string `gorm:"column:author"`
	Source           string `gorm:"column:source"`
	Tags             string `gorm:"column:tags"`
	PreviewTimeMs    int    `gorm:"column:preview_time_ms"`
	AudioFile        string `gorm:"column:audio_file"`
	BackgroundFile   string `gorm:"column:background_file"`
}

func (BeatmapMetadata) TableName() string { return "beatmap_metadata" }

// BeatmapDifficulty is a value record carrying the six numeric difficulty
// parameters of a single Beatmap.
type BeatmapDifficulty struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	DrainRate        float64 `gorm:"column:drain_rate"`
	CircleSize       float64 `gorm:"column:circle_size"`
	OverallDifficulty float64 `gorm:"column:overall_difficulty"`
	ApproachRate     float64 `gorm:"column:approach_rate"`
	SliderMultiplier float64 `gorm:"column:slider_multiplier"`
	SliderTickRate   float64 `gorm:"column:slider_tick_rate"`
}

func (BeatmapDifficulty) TableName() string { return "beatmap_difficulties" }

// EditorSettings holds small ancillary editor fields carried alongside a
// Beatmap. It is stored as a single JSON-blob column rather than its own
// table, since it has no independent lifecycle or query surface.
type EditorSettings struct {
	DistanceSpacing float64 `json:"distance_spacing,omitempty"`
	BeatDivisor     int     `json:"beat_divisor,omitempty"`
	GridSize        int     `json:"grid_size,omitempty"`
	TimelineZoom    float64 `json:"timeline_zoom,omitempty"`
}

// Value implements driver.Valuer for EditorSettings.
func (e EditorSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for EditorSettings.
func (e *EditorSettings) Scan(value any) error {
	if value == nil {
		*e = EditorSettings{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil
	}
	if len(raw) == 0 {
		*e = EditorSettings{}
		return nil
	}
	return json.Unmarshal(raw, e)
}

// Beatmap is a single playable difficulty owned by exactly one BeatmapSet.
type Beatmap struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`

	// BeatmapSetID is the non-owning back-reference to the parent set,
	// stored explicitly and resolved through a session query on access
	// (see pkg/dbsession) rather than a live in-memory pointer, per the
	// cyclic-reference design in spec §9.
	BeatmapSetID uuid.UUID `gorm:"column:beatmap_set_id;type:uuid;index;not null"`

	RulesetID    int  `gorm:"column:ruleset_id;not null"`
	Ruleset      Ruleset `gorm:"foreignKey:RulesetID;references:OnlineID"`
	DifficultyID uint `gorm:"column:difficulty_id;not null"`
	Difficulty   BeatmapDifficulty `gorm:"foreignKey:DifficultyID"`
	MetadataID   uint `gorm:"column:metadata_id;not null"`
	Metadata     BeatmapMetadata `gorm:"foreignKey:MetadataID"`

	// OnlineID is unique across Beatmaps when non-nil.
	OnlineID *int64 `gorm:"column:online_id;uniqueIndex"`

	// Hash is the SHA-256 of the beatmap's own .osu text; MD5 is the
	// legacy hash kept for compatibility with older online lookups.
	Hash string `gorm:"column:hash;size:64;not null"`
	MD5  string `gorm:"column:md5;size:32"`

	DifficultyName string         `gorm:"column:difficulty_name"`
	Editor         EditorSettings `gorm:"column:editor;type:text"`
}

func (Beatmap) TableName() string { return "beatmaps" }

// BeatmapSet is a group of playable difficulties packaged and identified
// together. It owns its Beatmaps and NamedFileUsages exclusively.
type BeatmapSet struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`

	// OnlineID is unique across BeatmapSets when non-nil.
	OnlineID *int64 `gorm:"column:online_id;uniqueIndex"`

	DateAdded     time.Time `gorm:"column:date_added;not null"`
	Hash          string    `gorm:"column:hash;size:64;index;not null"`
	DeletePending bool      `gorm:"column:delete_pending;default:false"`
	Protected     bool      `gorm:"column:protected;default:false"`

	Beatmaps []Beatmap        `gorm:"foreignKey:BeatmapSetID"`
	Files    []NamedFileUsage `gorm:"foreignKey:BeatmapSetID"`
}

func (BeatmapSet) TableName() string { return "beatmap_sets" }

// AllModels returns every schema type in dependency order, suitable for
// passing directly to gorm.DB.AutoMigrate.
func AllModels() []any {
	return []any{
		&File{},
		&Ruleset{},
		&BeatmapMetadata{},
		&BeatmapDifficulty{},
		&BeatmapSet{},
		&Beatmap{},
		&NamedFileUsage{},
	}
}
