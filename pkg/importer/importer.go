// Package importer drives the archive import pipeline of spec §4.6: two
// serial task queues feed a fixed sequence of stages (create model,
// fingerprint, early-skip check, populate, collision resolution, commit,
// deferred events) that turn an ArchiveReader into a persisted BeatmapSet,
// returned as a Live handle.
package importer

import (
	"context"
	"time"

	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/filestore"
	"github.com/beatmaplib/assetstore/pkg/handle"
	"github.com/beatmaplib/assetstore/pkg/metrics"
	"github.com/beatmaplib/assetstore/pkg/schema"
)

// Priority selects which of the two serial queues an import is submitted to.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityLow
)

// Config configures an Importer.
type Config struct {
	// QueueSize bounds how many imports may be pending on the normal
	// queue before Submit blocks. Default: 256.
	QueueSize int

	// LowPriorityQueueSize bounds the low-priority queue the same way.
	// Zero means "use QueueSize for both queues".
	LowPriorityQueueSize int

	// Events, if non-nil, receives every dispatched deferred event.
	Events EventSink
}

// importResult is the internal, queue-carried outcome of one pipeline run.
type importResult struct {
	handle  *handle.Handle[schema.BeatmapSet]
	outcome string // imported, reused
}

// Importer owns the two named queues and the ImportHandler that supplies
// the domain-specific hooks of the pipeline.
type Importer struct {
	manager *dbsession.Manager
	files   *filestore.Store
	handler ImportHandler
	events  EventSink

	normal      *taskQueue
	lowPriority *taskQueue
}

// New constructs an Importer. Call Start before submitting any archive.
func New(manager *dbsession.Manager, files *filestore.Store, handler ImportHandler, cfg Config) *Importer {
	im := &Importer{
		manager: manager,
		files:   files,
		handler: handler,
		events:  cfg.Events,
	}
	lowPrioritySize := cfg.LowPriorityQueueSize
	if lowPrioritySize == 0 {
		lowPrioritySize = cfg.QueueSize
	}
	im.normal = newTaskQueue("normal", cfg.QueueSize, im.runPipeline)
	im.lowPriority = newTaskQueue("low-priority", lowPrioritySize, im.runPipeline)
	return im
}

// SetMetrics attaches a Prometheus metrics collector to both named queues.
// A nil *Metrics (the default) makes every recording call a no-op.
func (im *Importer) SetMetrics(m *metrics.Metrics) {
	im.normal.metrics = m
	im.lowPriority.metrics = m
}

// Start launches both queues' single workers. ctx governs their lifetime;
// cancelling it stops new work from being picked up.
func (im *Importer) Start(ctx context.Context) {
	im.normal.start(ctx)
	im.lowPriority.start(ctx)
}

// Stop drains both queues, waiting up to timeout for in-flight imports to
// finish.
func (im *Importer) Stop(timeout time.Duration) {
	im.normal.stop(timeout)
	im.lowPriority.stop(timeout)
}

// Submit enqueues archive on the queue selected by priority and blocks
// until the pipeline has run to completion (or ctx is cancelled first). A
// single outstanding cancellation is honored at submission, at the start of
// the transaction, and before each expensive sub-step, per spec §4.6.1.
func (im *Importer) Submit(ctx context.Context, archive ArchiveReader, priority Priority) (*handle.Handle[schema.BeatmapSet], error) {
	q := im.normal
	if priority == PriorityLow {
		q = im.lowPriority
	}

	res, err := q.submit(ctx, archive)
	if err != nil {
		return nil, err
	}
	return res.handle, nil
}

// Pending reports how many imports are queued (including any currently
// running) on each named queue, for status reporting.
func (im *Importer) Pending() (normal, lowPriority int) {
	return im.normal.Pending(), im.lowPriority.Pending()
}
