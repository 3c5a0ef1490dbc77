// Package xsync implements the small synchronization helpers the rest of the
// repository builds on: a one-shot Latch and a typed wrapper over sync.Map
// for write-once registries.
package xsync

import "sync"

// Latch is a one-shot signal: it can be waited on until triggered, and once
// triggered it stays triggered forever.
type Latch struct {
	muTrigger sync.Mutex
	wait      chan struct{}
}

// NewLatch returns an un-triggered latch.
func NewLatch() *Latch {
	return &Latch{
		wait: make(chan struct{}),
	}
}

// Trigger the latch, releasing every current and future Wait. Triggering an
// already-triggered latch is a no-op.
func (l *Latch) Trigger() {
	l.muTrigger.Lock()
	defer l.muTrigger.Unlock()
	if l.Test() {
		return
	}
	close(l.wait)
}

// Wait blocks until the latch is triggered.
func (l *Latch) Wait() {
	<-l.wait
}

// Test reports whether the latch has been triggered, without blocking.
func (l *Latch) Test() bool {
	select {
	case <-l.wait:
		return true
	default:
		return false
	}
}

// WaitChan returns the channel a select can use to observe the trigger: it
// is closed when the latch triggers.
func (l *Latch) WaitChan() <-chan struct{} {
	return l.wait
}

// SyncMap is a trivial wrapper to sync.Map that casts the key and value
// types accordingly. Like sync.Map it is ready to use when declared and must
// not be copied after first use; it suits write-once-per-key registries read
// from many goroutines.
type SyncMap[K comparable, V any] struct {
	Map sync.Map
}

// Load returns the value stored for key, if any.
func (m *SyncMap[K, V]) Load(key K) (value V, ok bool) {
	v, ok := m.Map.Load(key)
	if !ok {
		return value, false
	}
	return v.(V), true
}

// Store sets the value for a key.
func (m *SyncMap[K, V]) Store(key K, value V) {
	m.Map.Store(key, value)
}

// LoadOrStore returns the existing value for the key if present. Otherwise,
// it stores and returns the given value. The loaded result is true if the
// value was loaded, false if stored.
func (m *SyncMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	v, loaded := m.Map.LoadOrStore(key, value)
	return v.(V), loaded
}

// Range calls f sequentially for each key and value present in the map.
// If f returns false, range stops the iteration.
func (m *SyncMap[K, V]) Range(f func(key K, value V) bool) {
	m.Map.Range(func(key, value any) bool {
		return f(key.(K), value.(V))
	})
}
