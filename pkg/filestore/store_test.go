package filestore_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobfs "github.com/beatmaplib/assetstore/pkg/blobstore/fs"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/filestore"
	"github.com/beatmaplib/assetstore/pkg/schema"
)

func newTestFileStore(t *testing.T) (*filestore.Store, *dbsession.Manager) {
	t.Helper()

	blobs, err := blobfs.NewWithPath(t.TempDir())
	require.NoError(t, err)

	cfg := &dbsession.Config{
		Type:   dbsession.DatabaseTypeSQLite,
		SQLite: dbsession.SQLiteConfig{Path: filepath.Join(t.TempDir(), "library.db")},
	}
	manager, err := dbsession.Open(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	return filestore.New(blobs, manager), manager
}

func TestAddWritesNewBlobAndRecord(t *testing.T) {
	files, manager := newTestFileStore(t)
	ctx := context.Background()

	ws, err := manager.WriteSession()
	require.NoError(t, err)

	f, err := files.Add(ctx, bytes.NewReader([]byte("hello world")), ws)
	require.NoError(t, err)
	assert.NotEmpty(t, f.Hash)
	assert.EqualValues(t, len("hello world"), f.Size)

	require.NoError(t, ws.Commit())
	require.NoError(t, ws.Close())

	rs, err := manager.ReadSession()
	require.NoError(t, err)
	defer rs.Close()
	got, err := dbsession.Find[schema.File](rs, f.Hash)
	require.NoError(t, err)
	assert.Equal(t, f.Size, got.Size)
}

func TestAddDeduplicatesIdenticalContent(t *testing.T) {
	files, manager := newTestFileStore(t)
	ctx := context.Background()

	ws, err := manager.WriteSession()
	require.NoError(t, err)
	f1, err := files.Add(ctx, bytes.NewReader([]byte("same content")), ws)
	require.NoError(t, err)
	require.NoError(t, ws.Commit())
	require.NoError(t, ws.Close())

	ws2, err := manager.WriteSession()
	require.NoError(t, err)
	f2, err := files.Add(ctx, bytes.NewReader([]byte("same content")), ws2)
	require.NoError(t, err)
	require.NoError(t, ws2.Commit())
	require.NoError(t, ws2.Close())

	assert.Equal(t, f1.Hash, f2.Hash)

	rs, err := manager.ReadSession()
	require.NoError(t, err)
	defer rs.Close()
	all, err := dbsession.All[schema.File](rs)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCleanupReclaimsUnreferencedFiles(t *testing.T) {
	files, manager := newTestFileStore(t)
	ctx := context.Background()

	ws, err := manager.WriteSession()
	require.NoError(t, err)
	orphan, err := files.Add(ctx, bytes.NewReader([]byte("orphaned blob")), ws)
	require.NoError(t, err)
	referenced, err := files.Add(ctx, bytes.NewReader([]byte("referenced blob")), ws)
	require.NoError(t, err)

	setID := uuid.New()
	require.NoError(t, ws.Add(&schema.BeatmapSet{ID: setID, Hash: "seed"}, false))
	require.NoError(t, ws.Add(&schema.NamedFileUsage{
		BeatmapSetID: setID,
		FileHash:     referenced.Hash,
		Filename:     "bg.jpg",
	}, false))
	require.NoError(t, ws.Commit())
	require.NoError(t, ws.Close())

	reclaimed, err := files.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	rs, err := manager.ReadSession()
	require.NoError(t, err)
	defer rs.Close()

	_, err = dbsession.Find[schema.File](rs, orphan.Hash)
	assert.Error(t, err)

	_, err = dbsession.Find[schema.File](rs, referenced.Hash)
	assert.NoError(t, err)
}

func TestCleanupIsNoOpWhenEverythingReferenced(t *testing.T) {
	files, manager := newTestFileStore(t)
	ctx := context.Background()

	ws, err := manager.WriteSession()
	require.NoError(t, err)
	f, err := files.Add(ctx, bytes.NewReader([]byte("kept")), ws)
	require.NoError(t, err)

	setID := uuid.New()
	require.NoError(t, ws.Add(&schema.BeatmapSet{ID: setID, Hash: "seed"}, false))
	require.NoError(t, ws.Add(&schema.NamedFileUsage{
		BeatmapSetID: setID,
		FileHash:     f.Hash,
		Filename:     "map.osu",
	}, false))
	require.NoError(t, ws.Commit())
	require.NoError(t, ws.Close())

	reclaimed, err := files.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
}
