package filestore

import (
	"context"
	"sync"
	"time"

	"github.com/beatmaplib/assetstore/internal/logger"
)

// BackgroundGC runs a Store's Cleanup sweep on a fixed interval, the same
// ticker-worker shape the teacher used for its write-cache auto-flush
// decorator: a stop channel for idempotent shutdown, a done channel the
// caller can wait on, and one final check before the worker exits.
type BackgroundGC struct {
	store    *Store
	interval time.Duration

	stopCh    chan struct{}
	doneCh    chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewBackgroundGC constructs a sweep scheduler for store. Callers only
// construct one when cfg.GC.Interval > 0; a zero interval means the sweep
// is disabled and Cleanup stays available on demand (e.g. the gc command).
func NewBackgroundGC(store *Store, interval time.Duration) *BackgroundGC {
	return &BackgroundGC{
		store:    store,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Idempotent; ctx governs the
// lifetime of each individual sweep, not the worker loop itself.
func (g *BackgroundGC) Start(ctx context.Context) {
	g.startOnce.Do(func() {
		go g.run(ctx)
	})
}

// Stop signals the worker to exit and waits for it to finish. Idempotent.
func (g *BackgroundGC) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
		<-g.doneCh
	})
}

func (g *BackgroundGC) run(ctx context.Context) {
	defer close(g.doneCh)

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sweep(ctx)
		}
	}
}

func (g *BackgroundGC) sweep(ctx context.Context) {
	reclaimed, err := g.store.Cleanup(ctx)
	if err != nil {
		logger.Warn("filestore: background gc sweep failed", "error", err)
		return
	}
	logger.Debug("filestore: background gc sweep completed", "reclaimed", reclaimed)
}
