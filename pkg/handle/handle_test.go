package handle_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/handle"
	"github.com/beatmaplib/assetstore/pkg/schema"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

func openTestManager(t *testing.T) *dbsession.Manager {
	t.Helper()
	cfg := &dbsession.Config{
		Type:   dbsession.DatabaseTypeSQLite,
		SQLite: dbsession.SQLiteConfig{Path: filepath.Join(t.TempDir(), "library.db")},
	}
	manager, err := dbsession.Open(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

func seedRuleset(t *testing.T, manager *dbsession.Manager, onlineID int) {
	t.Helper()
	ws, err := manager.WriteSession()
	require.NoError(t, err)
	require.NoError(t, ws.Add(&schema.Ruleset{OnlineID: onlineID, Name: "osu!", ShortName: "osu"}, false))
	require.NoError(t, ws.Commit())
	require.NoError(t, ws.Close())
}

func TestPerformReadViaTransientSession(t *testing.T) {
	manager := openTestManager(t)
	seedRuleset(t, manager, 0)

	h := handle.New[schema.Ruleset](manager, nil, 0)
	name, err := handle.PerformRead(h, func(r *schema.Ruleset) (string, error) {
		return r.Name, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "osu!", name)
}

func TestPerformReadViaOriginSession(t *testing.T) {
	manager := openTestManager(t)
	seedRuleset(t, manager, 0)

	rs, err := manager.ReadSession()
	require.NoError(t, err)
	defer rs.Close()

	h := handle.New[schema.Ruleset](manager, rs, 0)
	name, err := handle.PerformRead(h, func(r *schema.Ruleset) (string, error) {
		return r.Name, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "osu!", name)
}

func TestPerformReadNotFound(t *testing.T) {
	manager := openTestManager(t)

	h := handle.New[schema.Ruleset](manager, nil, 999)
	_, err := handle.PerformRead(h, func(r *schema.Ruleset) (string, error) {
		return r.Name, nil
	})
	require.Error(t, err)
	assert.True(t, storeerr.Is(err, storeerr.ErrNotFound))
}

func TestPerformWriteCommitsMutation(t *testing.T) {
	manager := openTestManager(t)
	seedRuleset(t, manager, 0)

	h := handle.New[schema.Ruleset](manager, nil, 0)
	_, err := handle.PerformWrite(h, func(r *schema.Ruleset) (struct{}, error) {
		r.Name = "osu!standard"
		return struct{}{}, nil
	})
	require.NoError(t, err)

	rs, err := manager.ReadSession()
	require.NoError(t, err)
	defer rs.Close()
	got, err := dbsession.Find[schema.Ruleset](rs, 0)
	require.NoError(t, err)
	assert.Equal(t, "osu!standard", got.Name)
}

func TestPerformReadLeakingManagedRecordFails(t *testing.T) {
	manager := openTestManager(t)
	seedRuleset(t, manager, 0)

	h := handle.New[schema.Ruleset](manager, nil, 0)
	_, err := handle.PerformRead(h, func(r *schema.Ruleset) (*schema.Ruleset, error) {
		return r, nil
	})
	require.Error(t, err)
	assert.True(t, storeerr.Is(err, storeerr.ErrLeakedManagedObject))
}

func TestPerformWriteLeakingManagedRecordRollsBack(t *testing.T) {
	manager := openTestManager(t)
	seedRuleset(t, manager, 0)

	h := handle.New[schema.Ruleset](manager, nil, 0)
	_, err := handle.PerformWrite(h, func(r *schema.Ruleset) (*schema.Ruleset, error) {
		r.Name = "should not persist"
		return r, nil
	})
	require.Error(t, err)
	assert.True(t, storeerr.Is(err, storeerr.ErrLeakedManagedObject))

	rs, err := manager.ReadSession()
	require.NoError(t, err)
	defer rs.Close()
	got, err := dbsession.Find[schema.Ruleset](rs, 0)
	require.NoError(t, err)
	assert.Equal(t, "osu!", got.Name)
}

func TestPerformWriteOnBeatmapSet(t *testing.T) {
	manager := openTestManager(t)

	ws, err := manager.WriteSession()
	require.NoError(t, err)
	set := &schema.BeatmapSet{ID: uuid.New(), DateAdded: time.Now().UTC(), Hash: "abc123"}
	require.NoError(t, ws.Add(set, false))
	require.NoError(t, ws.Commit())
	require.NoError(t, ws.Close())

	h := handle.New[schema.BeatmapSet](manager, nil, set.ID)
	_, err = handle.PerformWrite(h, func(s *schema.BeatmapSet) (struct{}, error) {
		s.Protected = true
		return struct{}{}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, set.ID, h.PrimaryKey())
}
