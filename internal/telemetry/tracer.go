package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for asset-store operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Blob store attributes
	// ========================================================================
	AttrBlobHash    = "blob.hash"    // SHA-256 hash of a blob
	AttrBlobSize    = "blob.size"    // Blob size in bytes
	AttrBlobBackend = "blob.backend" // Blob store backend: fs, s3
	AttrBlobPath    = "blob.path"    // Storage path derived from hash

	// ========================================================================
	// Session manager attributes
	// ========================================================================
	AttrSessionKind    = "session.kind"   // read, write, update
	AttrActiveSessions = "session.active" // Current active-usage count

	// ========================================================================
	// Archive importer attributes
	// ========================================================================
	AttrArchiveName = "import.archive_name" // Display name of the archive
	AttrSetID       = "import.set_id"       // BeatmapSet primary key
	AttrOnlineID    = "import.online_id"    // Resolved online id
	AttrQueue       = "import.queue"        // Task queue name: normal, low_priority
	AttrOutcome     = "import.outcome"      // imported, reused, skipped, failed
	AttrFilename    = "import.filename"     // Archive entry relative path

	// ========================================================================
	// Garbage collection attributes
	// ========================================================================
	AttrGCReclaimed = "gc.reclaimed" // Number of File records reclaimed by a sweep
)

// Span names for asset-store operations.
const (
	SpanImportCreate      = "import.create"
	SpanImportFingerprint = "import.fingerprint"
	SpanImportPopulate    = "import.populate"
	SpanImportCommit      = "import.commit"

	SpanBlobRead   = "blob.read"
	SpanBlobWrite  = "blob.write"
	SpanBlobDelete = "blob.delete"

	SpanSessionRead    = "session.read"
	SpanSessionWrite   = "session.write"
	SpanSessionQuiesce = "session.quiesce"

	SpanGCSweep = "gc.sweep"
)

// BlobHash returns an attribute for a blob's SHA-256 hash.
func BlobHash(hash string) attribute.KeyValue {
	return attribute.String(AttrBlobHash, hash)
}

// BlobSize returns an attribute for blob size in bytes.
func BlobSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrBlobSize, size)
}

// BlobBackend returns an attribute for the blob store backend name.
func BlobBackend(name string) attribute.KeyValue {
	return attribute.String(AttrBlobBackend, name)
}

// BlobPath returns an attribute for the storage path derived from a hash.
func BlobPath(path string) attribute.KeyValue {
	return attribute.String(AttrBlobPath, path)
}

// SessionKind returns an attribute for the kind of session opened.
func SessionKind(kind string) attribute.KeyValue {
	return attribute.String(AttrSessionKind, kind)
}

// ActiveSessions returns an attribute for the current active-usage count.
func ActiveSessions(n int64) attribute.KeyValue {
	return attribute.Int64(AttrActiveSessions, n)
}

// ArchiveName returns an attribute for an archive's display name.
func ArchiveName(name string) attribute.KeyValue {
	return attribute.String(AttrArchiveName, name)
}

// SetID returns an attribute for a BeatmapSet primary key.
func SetID(id string) attribute.KeyValue {
	return attribute.String(AttrSetID, id)
}

// OnlineID returns an attribute for a resolved online id.
func OnlineID(id int64) attribute.KeyValue {
	return attribute.Int64(AttrOnlineID, id)
}

// Queue returns an attribute for a task queue name.
func Queue(name string) attribute.KeyValue {
	return attribute.String(AttrQueue, name)
}

// Outcome returns an attribute for an import outcome.
func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

// Filename returns an attribute for an archive entry's relative path.
func Filename(name string) attribute.KeyValue {
	return attribute.String(AttrFilename, name)
}

// GCReclaimed returns an attribute for the number of records a GC sweep reclaimed.
func GCReclaimed(n int) attribute.KeyValue {
	return attribute.Int(AttrGCReclaimed, n)
}

// HashHex formats an arbitrary byte slice as a lowercase hex string attribute.
// Useful for content hashes that aren't already string-encoded.
func HashHex(key string, b []byte) attribute.KeyValue {
	return attribute.String(key, fmt.Sprintf("%x", b))
}

// StartImportSpan starts a span for one stage of the archive import pipeline.
func StartImportSpan(ctx context.Context, stage string, archiveName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ArchiveName(archiveName)}, attrs...)
	return StartSpan(ctx, stage, trace.WithAttributes(allAttrs...))
}

// StartBlobSpan starts a span for a blob store operation.
func StartBlobSpan(ctx context.Context, operation string, hash string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{BlobHash(hash)}, attrs...)
	return StartSpan(ctx, operation, trace.WithAttributes(allAttrs...))
}

// StartSessionSpan starts a span for a session manager operation.
func StartSessionSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, operation, trace.WithAttributes(attrs...))
}

// StartGCSpan starts a span for a file store garbage collection sweep.
func StartGCSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanGCSweep, trace.WithAttributes(attrs...))
}
