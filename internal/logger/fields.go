package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // storeerr.ErrorCode string value
	KeyOperation  = "operation"   // Sub-operation type for complex operations
	KeyAttempt    = "attempt"     // Retry attempt number

	// ========================================================================
	// Blob & File Store
	// ========================================================================
	KeyFileHash  = "file_hash"  // SHA-256 hash of a File record
	KeySize      = "size"       // Blob size in bytes
	KeyBackend   = "backend"    // Blob store backend: fs, s3
	KeyReclaimed = "reclaimed"  // Number of File records reclaimed by a sweep

	// ========================================================================
	// Session Manager
	// ========================================================================
	KeySessionKind    = "session_kind"    // read, write, update
	KeyActiveSessions = "active_sessions" // Current active-usage count

	// ========================================================================
	// Archive Importer
	// ========================================================================
	KeyArchiveName = "archive_name" // Display name of the archive being imported
	KeySetID       = "set_id"       // BeatmapSet primary key (UUID)
	KeyOnlineID    = "online_id"    // Online id, beatmap or set
	KeyQueue       = "queue"        // Task queue name: normal, low_priority
	KeyOutcome     = "outcome"      // imported, reused, skipped, failed
	KeyFilename    = "filename"     // Archive entry relative path
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a storeerr.ErrorCode string value.
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// Operation returns a slog.Attr for sub-operation type.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Attempt returns a slog.Attr for retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// FileHash returns a slog.Attr for a File record's hash.
func FileHash(hash string) slog.Attr {
	return slog.String(KeyFileHash, hash)
}

// Size returns a slog.Attr for blob size in bytes.
func Size(n int64) slog.Attr {
	return slog.Int64(KeySize, n)
}

// Backend returns a slog.Attr for the blob store backend name.
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// Reclaimed returns a slog.Attr for the number of File records reclaimed.
func Reclaimed(n int) slog.Attr {
	return slog.Int(KeyReclaimed, n)
}

// SessionKind returns a slog.Attr for the kind of session opened.
func SessionKind(kind string) slog.Attr {
	return slog.String(KeySessionKind, kind)
}

// ActiveSessions returns a slog.Attr for the current active-usage count.
func ActiveSessions(n int64) slog.Attr {
	return slog.Int64(KeyActiveSessions, n)
}

// ArchiveName returns a slog.Attr for an archive's display name.
func ArchiveName(name string) slog.Attr {
	return slog.String(KeyArchiveName, name)
}

// SetID returns a slog.Attr for a BeatmapSet primary key.
func SetID(id string) slog.Attr {
	return slog.String(KeySetID, id)
}

// OnlineID returns a slog.Attr for an online id.
func OnlineID(id int64) slog.Attr {
	return slog.Int64(KeyOnlineID, id)
}

// Queue returns a slog.Attr for a task queue name.
func Queue(name string) slog.Attr {
	return slog.String(KeyQueue, name)
}

// Outcome returns a slog.Attr for an import outcome.
func Outcome(outcome string) slog.Attr {
	return slog.String(KeyOutcome, outcome)
}

// Filename returns a slog.Attr for an archive entry's relative path.
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}
