package dbsession

import (
	"errors"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// Session is a scoped handle on the embedded database, returned by one of
// Manager's three session constructors. It exposes the generic per-type
// queries and transaction control described by spec §4.3.
type Session struct {
	manager *Manager
	db      *gorm.DB

	writable bool // true for sessions opened with an open transaction
	inTx     bool
	update   bool // true for the manager's single long-lived update session

	mu     sync.Mutex
	closed bool
}

// All returns every persisted record of type T.
func All[T any](s *Session) ([]T, error) {
	var out []T
	if err := s.db.Find(&out).Error; err != nil {
		return nil, storeerr.Wrap(storeerr.ErrIOFailure, "dbsession.All", err)
	}
	return out, nil
}

// Find resolves a single record of type T by primary key. It returns
// ErrNotFound if no such record exists.
func Find[T any](s *Session, primaryKey any) (*T, error) {
	var out T
	err := s.db.Where(clause.Eq{Column: clause.PrimaryColumn, Value: primaryKey}).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeerr.New(storeerr.ErrNotFound, "dbsession.Find")
	}
	if err != nil {
		return nil, storeerr.Wrap(storeerr.ErrIOFailure, "dbsession.Find", err)
	}
	return &out, nil
}

// Add inserts record, or upserts by primary key when updateExisting is
// true. Mutating calls are only valid on a session with an open
// transaction.
func (s *Session) Add(record any, updateExisting bool) error {
	if !s.inTx {
		return storeerr.New(storeerr.ErrNotInTransaction, "dbsession.Add")
	}

	if !updateExisting {
		if err := s.db.Create(record).Error; err != nil {
			if isUniqueConstraintError(err) {
				return storeerr.Wrap(storeerr.ErrDuplicatePrimaryKey, "dbsession.Add", err)
			}
			return storeerr.Wrap(storeerr.ErrIOFailure, "dbsession.Add", err)
		}
		return nil
	}

	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(record).Error; err != nil {
		return storeerr.Wrap(storeerr.ErrIOFailure, "dbsession.Add", err)
	}
	return nil
}

// Remove deletes record from the database.
func (s *Session) Remove(record any) error {
	if !s.inTx {
		return storeerr.New(storeerr.ErrNotInTransaction, "dbsession.Remove")
	}
	if err := s.db.Delete(record).Error; err != nil {
		return storeerr.Wrap(storeerr.ErrIOFailure, "dbsession.Remove", err)
	}
	return nil
}

// BeginWrite upgrades a read-only session to one with an open transaction.
// WriteSession-created sessions already have one open and calling this is
// a no-op for them.
func (s *Session) BeginWrite() error {
	if s.inTx {
		return nil
	}
	s.manager.writeMu.Lock()
	tx := s.db.Begin()
	if tx.Error != nil {
		s.manager.writeMu.Unlock()
		return storeerr.Wrap(storeerr.ErrStorageUnavailable, "dbsession.BeginWrite", tx.Error)
	}
	s.db = tx
	s.writable = true
	s.inTx = true
	return nil
}

// Commit commits the session's open transaction.
func (s *Session) Commit() error {
	if !s.inTx {
		return storeerr.New(storeerr.ErrNotInTransaction, "dbsession.Commit")
	}
	err := s.db.Commit().Error
	s.db = s.manager.db
	s.inTx = false
	s.manager.writeMu.Unlock()
	if err != nil {
		return storeerr.Wrap(storeerr.ErrRollback, "dbsession.Commit", err)
	}
	return nil
}

// Rollback discards the session's open transaction. Dropping a write
// session without calling Commit has the same effect.
func (s *Session) Rollback() error {
	if !s.inTx {
		return nil
	}
	err := s.db.Rollback().Error
	s.inTx = false
	s.manager.writeMu.Unlock()
	if err != nil {
		return storeerr.Wrap(storeerr.ErrIOFailure, "dbsession.Rollback", err)
	}
	return nil
}

// Refresh brings the session's view up to date with commits made by other
// sessions. On the underlying engine used here every query already reads
// the most recently committed state (GORM issues autocommit reads against
// the shared connection pool, and SQLite is opened in WAL mode precisely so
// readers see committed writes without holding a snapshot transaction), so
// Refresh has no connection-level work to do; it exists as the explicit
// synchronization point the update thread is required to call before
// relying on another session's commit, per spec §5's polling model.
func (s *Session) Refresh() error {
	return nil
}

// Close releases the session's slot in the manager's active-usage count.
// A session with an open transaction that has not been committed is
// rolled back.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.inTx {
		err = s.Rollback()
	}
	s.manager.releaseSession(s)
	return err
}

// DB exposes the underlying *gorm.DB for components (schema queries with
// preloads, raw SQL) that need it directly. Callers must still respect the
// transaction discipline above.
func (s *Session) DB() *gorm.DB {
	return s.db
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
