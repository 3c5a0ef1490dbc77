// Package workerspool bounds how many goroutines fan-out work holds running
// at once, used by the blob-scanning CLI to inflate many payloads without
// spawning a goroutine per directory entry.
//
// The bound is cooperative: callers hand tasks to WaitToStart, which blocks
// until a slot frees up. A zero bound degrades to running tasks inline, a
// negative bound removes the limit.
package workerspool

import (
	"runtime"
	"sync"
)

// Pool limits concurrent tasks. Create with New; the zero value is unusable.
type Pool struct {
	maxParallelism int

	mu         sync.Mutex
	cond       sync.Cond // Signaled whenever numRunning decreases.
	numRunning int
}

// New returns a Pool bounded at runtime.NumCPU() concurrent tasks.
func New() *Pool {
	p := &Pool{maxParallelism: runtime.NumCPU()}
	p.cond = sync.Cond{L: &p.mu}
	return p
}

// SetMaxParallelism changes the bound: 0 disables concurrency (tasks run
// inline), negative removes the bound entirely. Only change it before
// handing out tasks, the behavior with tasks in flight is undefined.
func (p *Pool) SetMaxParallelism(maxParallelism int) {
	p.maxParallelism = maxParallelism
}

// WaitToStart runs task in its own goroutine as soon as a slot is free,
// blocking until then. With concurrency disabled it runs the task inline
// before returning.
//
// Completion is the caller's to track, typically with a sync.WaitGroup
// inside the tasks.
func (p *Pool) WaitToStart(task func()) {
	if p.maxParallelism < 0 {
		go task()
		return
	}
	if p.maxParallelism == 0 {
		task()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.numRunning >= p.maxParallelism {
		p.cond.Wait()
	}
	p.numRunning++
	go func() {
		defer func() {
			p.mu.Lock()
			p.numRunning--
			p.cond.Signal()
			p.mu.Unlock()
		}()
		task()
	}()
}
