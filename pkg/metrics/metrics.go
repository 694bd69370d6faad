// Package metrics provides Prometheus instrumentation for the asset store.
//
// All metrics use the assetstore_ prefix. Every method follows the nil
// receiver pattern: calling any method on a nil *Metrics is a no-op, so
// components can be instantiated once with NullMetrics() when the metrics
// server is disabled, at zero runtime overhead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter, gauge, and histogram the asset store
// exports.
type Metrics struct {
	// ImportsTotal counts completed imports by queue and outcome
	// (imported, reused, failed).
	ImportsTotal *prometheus.CounterVec

	// ImportDuration tracks the wall-clock time of a full pipeline run.
	ImportDuration *prometheus.HistogramVec

	// ImportQueueDepth tracks how many imports are pending per queue.
	ImportQueueDepth *prometheus.GaugeVec

	// FilesAdded counts File Store Add calls by outcome (new, deduplicated).
	FilesAdded *prometheus.CounterVec

	// BlobBytesWritten counts bytes written to the Blob Store.
	BlobBytesWritten prometheus.Counter

	// GCReclaimedTotal counts Files reclaimed by Cleanup.
	GCReclaimedTotal prometheus.Counter

	// GCDuration tracks Cleanup sweep duration.
	GCDuration prometheus.Histogram

	// ActiveSessions tracks the Session Manager's active-usage counter.
	ActiveSessions prometheus.Gauge

	// QuiesceTotal counts completed BlockAllOperations calls.
	QuiesceTotal prometheus.Counter
}

// New creates and registers asset store metrics. Pass nil to create
// metrics without registration (tests, or when metrics are disabled).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ImportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstore_imports_total",
				Help: "Total completed imports by queue and outcome",
			},
			[]string{"queue", "outcome"},
		),
		ImportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assetstore_import_duration_seconds",
				Help:    "Archive import pipeline duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"queue"},
		),
		ImportQueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "assetstore_import_queue_depth",
				Help: "Current number of pending imports per queue",
			},
			[]string{"queue"},
		),
		FilesAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assetstore_files_added_total",
				Help: "Total File Store Add calls by outcome (new, deduplicated)",
			},
			[]string{"outcome"},
		),
		BlobBytesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "assetstore_blob_bytes_written_total",
				Help: "Total bytes written to the blob store",
			},
		),
		GCReclaimedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "assetstore_gc_reclaimed_total",
				Help: "Total File records reclaimed by cleanup",
			},
		),
		GCDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assetstore_gc_duration_seconds",
				Help:    "Cleanup sweep duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "assetstore_active_sessions",
				Help: "Current number of open database sessions",
			},
		),
		QuiesceTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "assetstore_quiesce_total",
				Help: "Total completed block_all_operations calls",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.ImportsTotal,
			m.ImportDuration,
			m.ImportQueueDepth,
			m.FilesAdded,
			m.BlobBytesWritten,
			m.GCReclaimedTotal,
			m.GCDuration,
			m.ActiveSessions,
			m.QuiesceTotal,
		)
	}

	return m
}

// RecordImport records the outcome and duration of one pipeline run.
// Safe to call on a nil receiver.
func (m *Metrics) RecordImport(queue, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(queue, outcome).Inc()
	m.ImportDuration.WithLabelValues(queue).Observe(durationSeconds)
}

// SetQueueDepth reports the current pending count for queue.
// Safe to call on a nil receiver.
func (m *Metrics) SetQueueDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.ImportQueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordFileAdded records a File Store Add outcome ("new" or
// "deduplicated"). Safe to call on a nil receiver.
func (m *Metrics) RecordFileAdded(outcome string, bytesWritten int64) {
	if m == nil {
		return
	}
	m.FilesAdded.WithLabelValues(outcome).Inc()
	if bytesWritten > 0 {
		m.BlobBytesWritten.Add(float64(bytesWritten))
	}
}

// RecordGC records one cleanup sweep. Safe to call on a nil receiver.
func (m *Metrics) RecordGC(reclaimed int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.GCReclaimedTotal.Add(float64(reclaimed))
	m.GCDuration.Observe(durationSeconds)
}

// SetActiveSessions reports the Session Manager's current active-usage
// count. Safe to call on a nil receiver.
func (m *Metrics) SetActiveSessions(count int64) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(count))
}

// RecordQuiesce increments the quiesce counter. Safe to call on a nil
// receiver.
func (m *Metrics) RecordQuiesce() {
	if m == nil {
		return
	}
	m.QuiesceTotal.Inc()
}

// NullMetrics returns nil, which acts as a no-op metrics collector.
func NullMetrics() *Metrics {
	return nil
}
