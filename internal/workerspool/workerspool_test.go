package workerspool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Bihan/xla/types/xsync"
	"github.com/stretchr/testify/assert"
)

// TestPoolBounded saturates a pool of 3 slots with blocked tasks and checks
// that the fourth WaitToStart call only returns once a slot frees up.
func TestPoolBounded(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(3)

	var running, peak atomic.Int32
	release := xsync.NewLatch()
	enqueued := xsync.NewLatch()
	var wg sync.WaitGroup
	go func() {
		for range 10 {
			wg.Add(1)
			pool.WaitToStart(func() {
				defer wg.Done()
				now := running.Add(1)
				for {
					highest := peak.Load()
					if now <= highest || peak.CompareAndSwap(highest, now) {
						break
					}
				}
				release.Wait()
				running.Add(-1)
			})
		}
		enqueued.Trigger()
	}()

	assert.Eventually(t, func() bool { return running.Load() == 3 },
		time.Second, time.Millisecond, "3 tasks should be running")
	assert.False(t, enqueued.Test(), "the 4th task should be waiting for a slot")

	release.Trigger()
	select {
	case <-enqueued.WaitChan():
	case <-time.After(time.Second):
		t.Fatal("enqueueing didn't resume after slots freed up")
	}
	wg.Wait()
	assert.Equal(t, int32(3), peak.Load(), "parallelism should have been capped at 3")
	assert.Equal(t, int32(0), running.Load())
}

// TestPoolInline checks that parallelism 0 runs the task in the caller's
// goroutine, before WaitToStart returns.
func TestPoolInline(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(0)
	ran := false
	pool.WaitToStart(func() { ran = true })
	assert.True(t, ran)
}

// TestPoolUnlimited checks that a negative parallelism removes the bound:
// more blocked tasks than the default CPU count all start.
func TestPoolUnlimited(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(-1)

	const numTasks = 64
	var running atomic.Int32
	release := xsync.NewLatch()
	var wg sync.WaitGroup
	for range numTasks {
		wg.Add(1)
		pool.WaitToStart(func() {
			defer wg.Done()
			running.Add(1)
			release.Wait()
		})
	}
	assert.Eventually(t, func() bool { return running.Load() == numTasks },
		time.Second, time.Millisecond, "all tasks should start concurrently")
	release.Trigger()
	wg.Wait()
}
