// Package handle implements the live handle abstraction: a thread-portable
// reference to a persisted record by primary key, usable across sessions
// and across the goroutine that originally fetched it.
package handle

import (
	"reflect"

	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/storeerr"
)

// Handle is a logical reference to a record of type T, identified by its
// primary key. It replaces the closure-capturing pattern of holding a live
// pointer across goroutines: operations take a callback, the handle
// resolves the record within a fresh scope, and invokes the callback there.
type Handle[T any] struct {
	pk      any
	manager *dbsession.Manager

	// origin is the session that produced this handle, if it is still
	// open. Go has no OS-thread affinity in the sense the source model
	// assumes, so "same originating thread" is translated to "same
	// *Session value, still open" — the idiomatic stand-in recorded in
	// the design notes.
	origin *dbsession.Session
}

// New constructs a handle to record, captured from origin (the session
// that fetched it). pk must be the record's primary key value.
func New[T any](manager *dbsession.Manager, origin *dbsession.Session, pk any) *Handle[T] {
	return &Handle[T]{pk: pk, manager: manager, origin: origin}
}

// PrimaryKey returns the primary key this handle resolves to.
func (h *Handle[T]) PrimaryKey() any {
	return h.pk
}

// PerformRead resolves the record and invokes fn on it within a read-only
// scope, returning whatever fn returns. When called with the session that
// originated this handle (still open), the record is re-read on that same
// session; otherwise a transient read session is opened and closed
// automatically. Returning the resolved *T itself from fn fails with
// ErrLeakedManagedObject — callers must copy out the fields they need.
func PerformRead[T any, R any](h *Handle[T], fn func(*T) (R, error)) (R, error) {
	var zero R

	if h.origin != nil {
		if record, err := dbsession.Find[T](h.origin, h.pk); err == nil {
			return callGuarded(record, fn)
		} else if storeerr.Is(err, storeerr.ErrNotFound) {
			return zero, err
		}
		// origin session no longer usable (closed, storage error) — fall
		// through to a transient session.
	}

	session, err := h.manager.ReadSession()
	if err != nil {
		return zero, err
	}
	defer session.Close()

	record, err := dbsession.Find[T](session, h.pk)
	if err != nil {
		return zero, err
	}
	return callGuarded(record, fn)
}

// PerformWrite always opens a fresh write session: resolves the record by
// primary key, begins a transaction, invokes fn, commits on a nil error
// and rolls back otherwise.
func PerformWrite[T any, R any](h *Handle[T], fn func(*T) (R, error)) (R, error) {
	var zero R

	session, err := h.manager.WriteSession()
	if err != nil {
		return zero, err
	}

	record, err := dbsession.Find[T](session, h.pk)
	if err != nil {
		_ = session.Rollback()
		_ = session.Close()
		return zero, err
	}

	result, callErr := callGuarded(record, fn)
	if callErr == nil {
		callErr = session.Add(record, true)
	}
	if callErr != nil {
		_ = session.Rollback()
		_ = session.Close()
		return zero, callErr
	}

	if err := session.Commit(); err != nil {
		_ = session.Close()
		return zero, err
	}
	return result, session.Close()
}

// callGuarded invokes fn and rejects a result that is itself a pointer to
// the managed record type, per the "fn must not let the managed record
// escape" contract.
func callGuarded[T any, R any](record *T, fn func(*T) (R, error)) (R, error) {
	result, err := fn(record)
	if err != nil {
		var zero R
		return zero, err
	}

	if leaksManagedRecord[T](result) {
		var zero R
		return zero, storeerr.New(storeerr.ErrLeakedManagedObject, "handle.PerformRead")
	}

	return result, nil
}

func leaksManagedRecord[T any](result any) bool {
	v := reflect.ValueOf(result)
	if !v.IsValid() || v.Kind() != reflect.Ptr {
		return false
	}
	var t T
	return v.Type().Elem() == reflect.TypeOf(t)
}
