package importer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueueProcessesOneAtATime(t *testing.T) {
	var inFlight int32
	var maxInFlight int32

	q := newTaskQueue("test", 8, func(ctx context.Context, archive ArchiveReader) (*importResult, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt32(&maxInFlight, cur, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return &importResult{}, nil
	})
	q.start(context.Background())
	defer q.stop(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.submit(context.Background(), newFakeArchive("a", nil))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&maxInFlight))
}

func TestTaskQueueSubmitReturnsProcessResult(t *testing.T) {
	expected := &importResult{}
	q := newTaskQueue("test", 4, func(ctx context.Context, archive ArchiveReader) (*importResult, error) {
		return expected, nil
	})
	q.start(context.Background())
	defer q.stop(time.Second)

	got, err := q.submit(context.Background(), newFakeArchive("a", nil))
	require.NoError(t, err)
	assert.Same(t, expected, got)
}

func TestTaskQueueSubmitHonorsCancellation(t *testing.T) {
	q := newTaskQueue("test", 1, func(ctx context.Context, archive ArchiveReader) (*importResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	q.start(context.Background())
	defer q.stop(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.submit(ctx, newFakeArchive("a", nil))
	assert.Error(t, err)
}

func TestTaskQueuePendingCounts(t *testing.T) {
	release := make(chan struct{})
	q := newTaskQueue("test", 4, func(ctx context.Context, archive ArchiveReader) (*importResult, error) {
		<-release
		return &importResult{}, nil
	})
	q.start(context.Background())
	defer q.stop(time.Second)

	done := make(chan struct{})
	go func() {
		_, _ = q.submit(context.Background(), newFakeArchive("a", nil))
		close(done)
	}()

	assert.Eventually(t, func() bool { return q.Pending() == 1 }, time.Second, time.Millisecond)
	close(release)
	<-done
	assert.Equal(t, 0, q.Pending())
}

func TestTaskQueueDefaultsQueueSize(t *testing.T) {
	q := newTaskQueue("test", 0, func(ctx context.Context, archive ArchiveReader) (*importResult, error) {
		return &importResult{}, nil
	})
	assert.Equal(t, 256, cap(q.queue))
}
