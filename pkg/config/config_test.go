package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatmaplib/assetstore/pkg/config"
)

func TestGetDefaultConfigIsValid(t *testing.T) {
	cfg := config.GetDefaultConfig()
	assert.NoError(t, config.Validate(cfg))

	assert.Equal(t, "sqlite", cfg.Storage.DatabaseType)
	assert.Equal(t, "fs", cfg.Storage.BlobBackend)
	assert.Equal(t, []string{".osu"}, cfg.Storage.HashableExtensions)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, 256, cfg.Scheduler.NormalQueueSize)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{
			Root:         "/custom/root",
			DatabaseFile: "custom.db",
			DatabaseType: "postgres",
			BlobBackend:  "s3",
		},
		Logging: config.LoggingConfig{Level: "debug"},
	}
	config.ApplyDefaults(cfg)

	assert.Equal(t, "/custom/root", cfg.Storage.Root)
	assert.Equal(t, "custom.db", cfg.Storage.DatabaseFile)
	assert.Equal(t, "postgres", cfg.Storage.DatabaseType)
	assert.Equal(t, "s3", cfg.Storage.BlobBackend)
	// Untouched fields still get their defaults filled in.
	assert.Equal(t, 5432, cfg.Storage.Postgres.Port)
	// Level is normalized to uppercase but not otherwise overridden.
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestValidateRejectsS3BackendWithoutBucket(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Storage.BlobBackend = "s3"

	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.s3.bucket")
}

func TestValidateRejectsPostgresWithoutDatabase(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Storage.DatabaseType = "postgres"

	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.postgres.database")
}

func TestValidateAcceptsPostgresWithDatabase(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Storage.DatabaseType = "postgres"
	cfg.Storage.Postgres.Database = "assetstore"

	assert.NoError(t, config.Validate(cfg))
}

func TestValidateRejectsUnknownDatabaseType(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Storage.DatabaseType = "mongodb"

	assert.Error(t, config.Validate(cfg))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := config.GetDefaultConfig()
	original.Storage.Root = filepath.Join(dir, "data")
	original.Logging.Level = "WARN"

	require.NoError(t, config.SaveConfig(original, path))

	loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, original.Storage.Root, loaded.Storage.Root)
	assert.Equal(t, "WARN", loaded.Logging.Level)
}

func TestInitConfigToPathRefusesToOverwriteWithoutForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	_, err := config.InitConfigToPath(path, false)
	require.NoError(t, err)

	_, err = config.InitConfigToPath(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = config.InitConfigToPath(path, true)
	assert.NoError(t, err)
}

func TestGCDefaultInterval(t *testing.T) {
	cfg := config.GetDefaultConfig()
	assert.Equal(t, "1h0m0s", cfg.GC.Interval.String())
}
