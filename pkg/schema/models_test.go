package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatmaplib/assetstore/pkg/schema"
)

func TestAllModelsCoversEveryType(t *testing.T) {
	models := schema.AllModels()
	require.Len(t, models, 7)

	assert.IsType(t, &schema.File{}, models[0])
	assert.IsType(t, &schema.Ruleset{}, models[1])
	assert.IsType(t, &schema.BeatmapMetadata{}, models[2])
	assert.IsType(t, &schema.BeatmapDifficulty{}, models[3])
	assert.IsType(t, &schema.BeatmapSet{}, models[4])
	assert.IsType(t, &schema.Beatmap{}, models[5])
	assert.IsType(t, &schema.NamedFileUsage{}, models[6])
}

func TestStoragePathForHash(t *testing.T) {
	hash := "abcdef0123456789"
	assert.Equal(t, "a/ab/abcdef0123456789", schema.StoragePathForHash(hash))

	f := schema.File{Hash: hash}
	assert.Equal(t, schema.StoragePathForHash(hash), f.StoragePath())
}

func TestStoragePathForHashShortInput(t *testing.T) {
	assert.Equal(t, "a", schema.StoragePathForHash("a"))
	assert.Equal(t, "", schema.StoragePathForHash(""))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "files", schema.File{}.TableName())
	assert.Equal(t, "named_file_usages", schema.NamedFileUsage{}.TableName())
	assert.Equal(t, "rulesets", schema.Ruleset{}.TableName())
	assert.Equal(t, "beatmap_metadata", schema.BeatmapMetadata{}.TableName())
	assert.Equal(t, "beatmap_difficulties", schema.BeatmapDifficulty{}.TableName())
	assert.Equal(t, "beatmaps", schema.Beatmap{}.TableName())
	assert.Equal(t, "beatmap_sets", schema.BeatmapSet{}.TableName())
}

func TestEditorSettingsValueScanRoundTrip(t *testing.T) {
	original := schema.EditorSettings{
		DistanceSpacing: 1.2,
		BeatDivisor:     4,
		GridSize:        8,
		TimelineZoom:    2.5,
	}

	raw, err := original.Value()
	require.NoError(t, err)

	var restored schema.EditorSettings
	require.NoError(t, restored.Scan(raw))
	assert.Equal(t, original, restored)

	// Scan accepts both string and []byte driver representations.
	var fromBytes schema.EditorSettings
	require.NoError(t, fromBytes.Scan([]byte(raw.(string))))
	assert.Equal(t, original, fromBytes)
}

func TestEditorSettingsScanNilResetsToZeroValue(t *testing.T) {
	e := schema.EditorSettings{BeatDivisor: 16}
	require.NoError(t, e.Scan(nil))
	assert.Equal(t, schema.EditorSettings{}, e)
}

func TestEditorSettingsScanEmptyBytes(t *testing.T) {
	e := schema.EditorSettings{BeatDivisor: 16}
	require.NoError(t, e.Scan([]byte{}))
	assert.Equal(t, schema.EditorSettings{}, e)
}
