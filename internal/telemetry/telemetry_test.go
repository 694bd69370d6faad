package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "assetstore", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, BlobHash("deadbeef"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("BlobHash", func(t *testing.T) {
		attr := BlobHash("deadbeef")
		assert.Equal(t, AttrBlobHash, string(attr.Key))
		assert.Equal(t, "deadbeef", attr.Value.AsString())
	})

	t.Run("BlobSize", func(t *testing.T) {
		attr := BlobSize(1048576)
		assert.Equal(t, AttrBlobSize, string(attr.Key))
		assert.Equal(t, int64(1048576), attr.Value.AsInt64())
	})

	t.Run("BlobBackend", func(t *testing.T) {
		attr := BlobBackend("s3")
		assert.Equal(t, AttrBlobBackend, string(attr.Key))
		assert.Equal(t, "s3", attr.Value.AsString())
	})

	t.Run("BlobPath", func(t *testing.T) {
		attr := BlobPath("de/adbeef")
		assert.Equal(t, AttrBlobPath, string(attr.Key))
		assert.Equal(t, "de/adbeef", attr.Value.AsString())
	})

	t.Run("SessionKind", func(t *testing.T) {
		attr := SessionKind("write")
		assert.Equal(t, AttrSessionKind, string(attr.Key))
		assert.Equal(t, "write", attr.Value.AsString())
	})

	t.Run("ActiveSessions", func(t *testing.T) {
		attr := ActiveSessions(3)
		assert.Equal(t, AttrActiveSessions, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("ArchiveName", func(t *testing.T) {
		attr := ArchiveName("123 Artist - Title")
		assert.Equal(t, AttrArchiveName, string(attr.Key))
		assert.Equal(t, "123 Artist - Title", attr.Value.AsString())
	})

	t.Run("SetID", func(t *testing.T) {
		attr := SetID("abc-123")
		assert.Equal(t, AttrSetID, string(attr.Key))
		assert.Equal(t, "abc-123", attr.Value.AsString())
	})

	t.Run("OnlineID", func(t *testing.T) {
		attr := OnlineID(456)
		assert.Equal(t, AttrOnlineID, string(attr.Key))
		assert.Equal(t, int64(456), attr.Value.AsInt64())
	})

	t.Run("Queue", func(t *testing.T) {
		attr := Queue("low_priority")
		assert.Equal(t, AttrQueue, string(attr.Key))
		assert.Equal(t, "low_priority", attr.Value.AsString())
	})

	t.Run("Outcome", func(t *testing.T) {
		attr := Outcome("imported")
		assert.Equal(t, AttrOutcome, string(attr.Key))
		assert.Equal(t, "imported", attr.Value.AsString())
	})

	t.Run("Filename", func(t *testing.T) {
		attr := Filename("Set/diff.osu")
		assert.Equal(t, AttrFilename, string(attr.Key))
		assert.Equal(t, "Set/diff.osu", attr.Value.AsString())
	})

	t.Run("GCReclaimed", func(t *testing.T) {
		attr := GCReclaimed(7)
		assert.Equal(t, AttrGCReclaimed, string(attr.Key))
		assert.Equal(t, int64(7), attr.Value.AsInt64())
	})

	t.Run("HashHex", func(t *testing.T) {
		attr := HashHex("custom.hash", []byte{0x01, 0x02, 0x03, 0x04})
		assert.Equal(t, "custom.hash", string(attr.Key))
		assert.Equal(t, "01020304", attr.Value.AsString())
	})
}

func TestStartImportSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartImportSpan(ctx, SpanImportCreate, "123 Artist - Title")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartImportSpan(ctx, SpanImportPopulate, "123 Artist - Title", OnlineID(123))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartBlobSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartBlobSpan(ctx, SpanBlobRead, "deadbeef")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartBlobSpan(ctx, SpanBlobWrite, "deadbeef", BlobSize(1024), BlobBackend("fs"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartSessionSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSessionSpan(ctx, SpanSessionRead, SessionKind("read"))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()
}

func TestStartGCSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartGCSpan(ctx, GCReclaimed(0))
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartGCSpan(ctx, GCReclaimed(3))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}
