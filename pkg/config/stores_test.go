package config_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatmaplib/assetstore/pkg/config"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
)

func TestToDBSessionConfigSQLite(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Storage.Root = "/var/lib/assetstore"
	cfg.Storage.DatabaseFile = "assetstore.db"

	dbCfg := cfg.ToDBSessionConfig()
	assert.Equal(t, dbsession.DatabaseTypeSQLite, dbCfg.Type)
	assert.Equal(t, filepath.Join("/var/lib/assetstore", "assetstore.db"), dbCfg.SQLite.Path)
}

func TestToDBSessionConfigPostgres(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Storage.DatabaseType = "postgres"
	cfg.Storage.Postgres.Host = "db.internal"
	cfg.Storage.Postgres.Database = "assetstore"
	cfg.Storage.Postgres.User = "assetstore"

	dbCfg := cfg.ToDBSessionConfig()
	assert.Equal(t, dbsession.DatabaseTypePostgres, dbCfg.Type)
	assert.Equal(t, "db.internal", dbCfg.Postgres.Host)
	assert.Equal(t, "assetstore", dbCfg.Postgres.Database)
}

func TestNewBlobStoreFilesystemBackend(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Storage.Root = t.TempDir()
	cfg.Storage.BlobBackend = "fs"

	store, err := cfg.NewBlobStore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, store)

	exists, err := store.Exists(context.Background(), "does/not/exist")
	require.NoError(t, err)
	assert.False(t, exists)
}
