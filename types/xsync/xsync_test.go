package xsync

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatch(t *testing.T) {
	l := NewLatch()
	assert.False(t, l.Test())

	const numWaiters = 4
	var wg sync.WaitGroup
	for range numWaiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Wait()
		}()
	}

	l.Trigger()
	wg.Wait()
	assert.True(t, l.Test())

	// Triggering again is a no-op, and Wait no longer blocks.
	l.Trigger()
	l.Wait()

	select {
	case <-l.WaitChan():
	case <-time.After(time.Second):
		t.Fatal("WaitChan of a triggered latch should be closed")
	}
}

func TestSyncMap(t *testing.T) {
	var m SyncMap[string, int]

	_, found := m.Load("a")
	assert.False(t, found)

	m.Store("a", 1)
	v, found := m.Load("a")
	require.True(t, found)
	assert.Equal(t, 1, v)

	// LoadOrStore keeps the first value for a key.
	v, loaded := m.LoadOrStore("a", 100)
	assert.True(t, loaded)
	assert.Equal(t, 1, v)
	v, loaded = m.LoadOrStore("b", 2)
	assert.False(t, loaded)
	assert.Equal(t, 2, v)

	got := make(map[string]int)
	m.Range(func(key string, value int) bool {
		got[key] = value
		return true
	})
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, got)
}
