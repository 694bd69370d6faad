package importer

import (
	"context"
	"sync"
	"time"

	"github.com/beatmaplib/assetstore/internal/logger"
	"github.com/beatmaplib/assetstore/pkg/metrics"
)

// job is one queued import; resultCh receives exactly one result before
// being closed.
type job struct {
	ctx      context.Context
	archive  ArchiveReader
	resultCh chan jobResult
}

type jobResult struct {
	set *importResult
	err error
}

// taskQueue is a single-worker serial queue, adapted from
// pkg/payload/transfer.TransferQueue but fixed at one worker: the spec calls
// for exactly one in-flight import per named queue, never a worker pool.
type taskQueue struct {
	name string

	queue chan job

	wg        sync.WaitGroup
	stopCh    chan struct{}
	stoppedCh chan struct{}

	mu      sync.Mutex
	started bool
	pending int

	process func(ctx context.Context, archive ArchiveReader) (*importResult, error)
	metrics *metrics.Metrics
}

func newTaskQueue(name string, queueSize int, process func(context.Context, ArchiveReader) (*importResult, error)) *taskQueue {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &taskQueue{
		name:      name,
		queue:     make(chan job, queueSize),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
		process:   process,
	}
}

func (q *taskQueue) start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	logger.Info("starting import queue", "queue", q.name, "workers", 1)

	q.wg.Add(1)
	go q.worker(ctx)

	go func() {
		q.wg.Wait()
		close(q.stoppedCh)
	}()
}

func (q *taskQueue) stop(timeout time.Duration) {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	close(q.stopCh)

	select {
	case <-q.stoppedCh:
		logger.Info("import queue stopped", "queue", q.name)
	case <-time.After(timeout):
		logger.Warn("import queue stop timed out", "queue", q.name, "pending", q.Pending())
	}
}

// submit enqueues archive and blocks until the single worker has processed
// it, or ctx is cancelled first.
func (q *taskQueue) submit(ctx context.Context, archive ArchiveReader) (*importResult, error) {
	j := job{ctx: ctx, archive: archive, resultCh: make(chan jobResult, 1)}

	q.mu.Lock()
	q.pending++
	depth := q.pending
	q.mu.Unlock()
	q.metrics.SetQueueDepth(q.name, depth)

	select {
	case q.queue <- j:
	case <-ctx.Done():
		q.mu.Lock()
		q.pending--
		depth := q.pending
		q.mu.Unlock()
		q.metrics.SetQueueDepth(q.name, depth)
		return nil, ctx.Err()
	}

	select {
	case res := <-j.resultCh:
		return res.set, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *taskQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

func (q *taskQueue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			q.drain(ctx)
			return
		case <-ctx.Done():
			return
		case j, ok := <-q.queue:
			if !ok {
				return
			}
			q.run(j)
		}
	}
}

func (q *taskQueue) drain(ctx context.Context) {
	for {
		select {
		case j, ok := <-q.queue:
			if !ok {
				return
			}
			q.run(j)
		default:
			return
		}
	}
}

func (q *taskQueue) run(j job) {
	defer func() {
		q.mu.Lock()
		q.pending--
		depth := q.pending
		q.mu.Unlock()
		q.metrics.SetQueueDepth(q.name, depth)
	}()

	start := time.Now()
	set, err := q.process(j.ctx, j.archive)
	j.resultCh <- jobResult{set: set, err: err}
	close(j.resultCh)

	outcome := "failed"
	if err == nil && set != nil {
		outcome = set.outcome
	}
	q.metrics.RecordImport(q.name, outcome, time.Since(start).Seconds())
}
