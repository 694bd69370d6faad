package dbsession

import (
	"context"
	"sync"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/beatmaplib/assetstore/internal/logger"
	"github.com/beatmaplib/assetstore/internal/telemetry"
	"github.com/beatmaplib/assetstore/pkg/metrics"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// Manager owns the single embedded database file and is the only component
// that knows the physical file exists. All other components reach the
// database exclusively through the sessions it grants.
type Manager struct {
	config *Config
	db     *gorm.DB

	// gate is the quiesce gate: ordinary session acquisition takes a
	// shared (read) lock for the lifetime of the session; BlockAllOperations
	// takes the exclusive lock, which by construction waits for every
	// outstanding session to release first.
	gate sync.RWMutex

	// writeMu serializes write sessions: at most one writer at a time.
	writeMu sync.Mutex

	// active is the process-wide count of outstanding sessions, incremented
	// on creation and decremented exactly once on release. Exposed for
	// diagnostics; quiesce's actual draining is done via gate above.
	active atomic.Int64

	// updateMu serializes access to the single long-lived update session,
	// since Go goroutines are not pinned to OS threads the way the source
	// model assumes; callers are still expected to drive it from one
	// designated goroutine (the host's update tick).
	updateMu      sync.Mutex
	updateSession *Session

	metrics *metrics.Metrics

	closed atomic.Bool
}

// SetMetrics attaches a Prometheus metrics collector. A nil *Metrics (the
// default) makes every recording call a no-op.
func (m *Manager) SetMetrics(mt *metrics.Metrics) {
	m.metrics = mt
}

// Open opens (creating if necessary) the embedded database described by
// config and runs schema migration.
func Open(config *Config, migration MigrationFunc) (*Manager, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, storeerr.Wrap(storeerr.ErrStorageUnavailable, "dbsession.Open", err)
	}

	db, err := open(config)
	if err != nil {
		return nil, storeerr.Wrap(storeerr.ErrStorageUnavailable, "dbsession.Open", err)
	}

	if err := migrate(db, migration); err != nil {
		return nil, storeerr.Wrap(storeerr.ErrSchemaMigrationFailed, "dbsession.Open", err)
	}

	return &Manager{config: config, db: db}, nil
}

// ActiveSessions returns the number of currently outstanding sessions.
func (m *Manager) ActiveSessions() int64 {
	return m.active.Load()
}

func (m *Manager) checkOpen(op string) error {
	if m.closed.Load() {
		return storeerr.New(storeerr.ErrClosed, op)
	}
	return nil
}

// ReadSession opens a fresh, read-only session usable from any goroutine.
// Any number may exist concurrently.
func (m *Manager) ReadSession() (*Session, error) {
	if err := m.checkOpen("dbsession.ReadSession"); err != nil {
		return nil, err
	}
	m.gate.RLock()
	if m.closed.Load() {
		m.gate.RUnlock()
		return nil, storeerr.New(storeerr.ErrClosed, "dbsession.ReadSession")
	}
	m.metrics.SetActiveSessions(m.active.Add(1))
	return &Session{manager: m, db: m.db}, nil
}

// WriteSession opens a fresh session with an open write transaction.
// Writers are fully serialized; readers are never blocked by a write
// session's transaction.
func (m *Manager) WriteSession() (*Session, error) {
	if err := m.checkOpen("dbsession.WriteSession"); err != nil {
		return nil, err
	}
	m.gate.RLock()
	if m.closed.Load() {
		m.gate.RUnlock()
		return nil, storeerr.New(storeerr.ErrClosed, "dbsession.WriteSession")
	}
	m.metrics.SetActiveSessions(m.active.Add(1))

	m.writeMu.Lock()
	tx := m.db.Begin()
	if tx.Error != nil {
		m.writeMu.Unlock()
		m.metrics.SetActiveSessions(m.active.Add(-1))
		m.gate.RUnlock()
		return nil, storeerr.Wrap(storeerr.ErrStorageUnavailable, "dbsession.WriteSession", tx.Error)
	}

	return &Session{manager: m, db: tx, writable: true, inTx: true}, nil
}

// UpdateSession returns the single long-lived session bound to the
// designated update goroutine, creating it lazily on first access. All
// subsequent calls return the same *Session.
func (m *Manager) UpdateSession() (*Session, error) {
	if err := m.checkOpen("dbsession.UpdateSession"); err != nil {
		return nil, err
	}
	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	if m.updateSession != nil {
		return m.updateSession, nil
	}

	m.gate.RLock()
	if m.closed.Load() {
		m.gate.RUnlock()
		return nil, storeerr.New(storeerr.ErrClosed, "dbsession.UpdateSession")
	}
	m.metrics.SetActiveSessions(m.active.Add(1))
	m.updateSession = &Session{manager: m, db: m.db, update: true}
	return m.updateSession, nil
}

// releaseSession is called by Session.Close to return the session's usage
// slot. The update session is never released this way; it lives until the
// manager itself is disposed.
func (m *Manager) releaseSession(s *Session) {
	if s.update {
		return
	}
	m.metrics.SetActiveSessions(m.active.Add(-1))
	m.gate.RUnlock()
}

// QuiesceToken is returned by BlockAllOperations; releasing it reopens the
// gate to new sessions.
type QuiesceToken struct {
	manager  *Manager
	released atomic.Bool
}

// Release reopens the manager to new sessions. Safe to call more than
// once; only the first call has effect.
func (t *QuiesceToken) Release() {
	if t.released.CompareAndSwap(false, true) {
		t.manager.gate.Unlock()
	}
}

// BlockAllOperations acquires an exclusive, manager-wide gate: it closes
// the update session, waits until every outstanding read/write session has
// been released, and returns a token that reopens the gate on Release.
// While the token is held, no new session can be created and no write lock
// can be taken (properties required by spec §5's quiesce semantics).
func (m *Manager) BlockAllOperations(ctx context.Context) (*QuiesceToken, error) {
	ctx, span := telemetry.StartSessionSpan(ctx, telemetry.SpanSessionQuiesce, telemetry.ActiveSessions(m.active.Load()))
	defer span.End()

	if err := m.checkOpen("dbsession.BlockAllOperations"); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	m.updateMu.Lock()
	if m.updateSession != nil {
		m.metrics.SetActiveSessions(m.active.Add(-1))
		m.updateSession = nil
		m.gate.RUnlock()
	}
	m.updateMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.gate.Lock()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// The goroutine above will still acquire the lock eventually and
		// block forever holding it if we give up here without releasing;
		// since gate.Lock() has no cancellable variant, the caller must
		// wait out in-flight sessions. We surface cancellation but the
		// lock attempt is not abandoned — matches the source's documented
		// choice to hold the gate "indefinitely" once requested.
		<-done
		m.gate.Unlock()
		return nil, storeerr.Wrap(storeerr.ErrCancelled, "dbsession.BlockAllOperations", ctx.Err())
	}

	logger.Debug("dbsession: quiesce acquired", "active", m.active.Load())
	m.metrics.RecordQuiesce()

	return &QuiesceToken{manager: m}, nil
}

// Compact reclaims unused space in the backing file. Only callable while
// quiesced.
func (m *Manager) Compact(_ *QuiesceToken) error {
	if m.config.Type != DatabaseTypeSQLite {
		return nil
	}
	return m.db.Exec("VACUUM").Error
}

// Reset drops and recreates every table. Only callable while quiesced.
func (m *Manager) Reset(_ *QuiesceToken) error {
	if err := m.db.Migrator().DropTable(allTables()...); err != nil {
		return storeerr.Wrap(storeerr.ErrIOFailure, "dbsession.Reset", err)
	}
	if err := migrate(m.db, nil); err != nil {
		return storeerr.Wrap(storeerr.ErrSchemaMigrationFailed, "dbsession.Reset", err)
	}
	return nil
}

// Close disposes the manager. Any subsequent session request fails with
// ErrClosed.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return storeerr.Wrap(storeerr.ErrIOFailure, "dbsession.Close", err)
	}
	return sqlDB.Close()
}
