// Package storeerr defines the tagged error kind used across the asset
// store: every public operation in pkg/dbsession, pkg/handle, pkg/filestore,
// pkg/blobstore and pkg/importer returns either a value or a *StoreError
// carrying one of the ErrorCode values below. There is no shared exception
// channel.
package storeerr

import (
	"errors"
	"fmt"
)

// ErrorCode enumerates the error kinds a caller can branch on.
type ErrorCode int

const (
	// ErrUnknown is the zero value; never intentionally returned.
	ErrUnknown ErrorCode = iota

	// ErrIOFailure wraps a blob store read/write/delete failure.
	ErrIOFailure

	// ErrClosed is returned when the session manager is used after disposal.
	ErrClosed

	// ErrStorageUnavailable is returned when the backing database file or
	// connection cannot be acquired.
	ErrStorageUnavailable

	// ErrSchemaMigrationFailed is returned when the schema version check or
	// migration callback fails on open.
	ErrSchemaMigrationFailed

	// ErrNotInTransaction is returned when a mutating call is made on a
	// session that has no open write transaction.
	ErrNotInTransaction

	// ErrNotFound is returned when a record cannot be resolved by primary
	// key, including a live handle whose target has been deleted.
	ErrNotFound

	// ErrLeakedManagedObject is returned when a live handle callback returns
	// a managed record directly instead of a plain value copied out of it.
	ErrLeakedManagedObject

	// ErrDuplicatePrimaryKey is returned by Add when update_existing is
	// false and a record with the same primary key already exists.
	ErrDuplicatePrimaryKey

	// ErrCancelled is returned when a caller's context is cancelled before
	// or during an importer pipeline stage.
	ErrCancelled

	// ErrModelCreationFailed is returned at importer stage 1 when the
	// archive contains no recognized hashable entry or cannot be read.
	ErrModelCreationFailed

	// ErrPopulateFailed wraps an error raised by an ImportHandler's
	// Populate hook during stage 4.
	ErrPopulateFailed

	// ErrRollback indicates a transaction was rolled back; it wraps the
	// error that triggered the rollback.
	ErrRollback
)

func (c ErrorCode) String() string {
	switch c {
	case ErrIOFailure:
		return "io_failure"
	case ErrClosed:
		return "closed"
	case ErrStorageUnavailable:
		return "storage_unavailable"
	case ErrSchemaMigrationFailed:
		return "schema_migration_failed"
	case ErrNotInTransaction:
		return "not_in_transaction"
	case ErrNotFound:
		return "not_found"
	case ErrLeakedManagedObject:
		return "leaked_managed_object"
	case ErrDuplicatePrimaryKey:
		return "duplicate_primary_key"
	case ErrCancelled:
		return "cancelled"
	case ErrModelCreationFailed:
		return "model_creation_failed"
	case ErrPopulateFailed:
		return "populate_failed"
	case ErrRollback:
		return "rollback"
	default:
		return "unknown"
	}
}

// StoreError is the concrete error type returned by every public operation
// in this module. It carries a classifiable Code plus optional Path/Op
// context and wraps the underlying cause, if any.
type StoreError struct {
	Code ErrorCode
	Op   string // operation that failed, e.g. "blobstore.OpenWrite"
	Path string // relative path or primary key involved, if applicable
	Err  error  // underlying cause, may be nil
}

func (e *StoreError) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Code, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Code, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, storeerr.ErrNotFound) style checks by treating
// a bare ErrorCode as a sentinel.
func (e *StoreError) Is(target error) bool {
	var t *StoreError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New constructs a StoreError with no wrapped cause.
func New(code ErrorCode, op string) *StoreError {
	return &StoreError{Code: code, Op: op}
}

// Wrap constructs a StoreError wrapping an underlying cause.
func Wrap(code ErrorCode, op string, err error) *StoreError {
	return &StoreError{Code: code, Op: op, Err: err}
}

// WithPath constructs a StoreError carrying path/primary-key context.
func WithPath(code ErrorCode, op, path string, err error) *StoreError {
	return &StoreError{Code: code, Op: op, Path: path, Err: err}
}

// Code returns the ErrorCode of err if it is (or wraps) a *StoreError, and
// ErrUnknown otherwise.
func Code(err error) ErrorCode {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrUnknown
}

// Is reports whether err is a *StoreError with the given code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}

// Sentinel values for errors.Is comparisons against a bare code, e.g.
// errors.Is(err, storeerr.Sentinel(storeerr.ErrNotFound)).
func Sentinel(code ErrorCode) error {
	return &StoreError{Code: code}
}
