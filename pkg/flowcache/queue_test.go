package flowcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportQueuePushPopFIFO(t *testing.T) {
	q := NewExportQueue(4, nil)
	r1, r2 := &FlowRecord{Key: keyN(1)}, &FlowRecord{Key: keyN(2)}
	q.Push(r1)
	q.Push(r2)

	got, ok := q.TryPop()
	require.True(t, ok)
	assert.Same(t, r1, got)

	got, ok = q.TryPop()
	require.True(t, ok)
	assert.Same(t, r2, got)
}

func TestExportQueueOverflowDropsOldest(t *testing.T) {
	overflowed := 0
	q := NewExportQueue(2, func() { overflowed++ })
	r1, r2, r3 := &FlowRecord{Key: keyN(1)}, &FlowRecord{Key: keyN(2)}, &FlowRecord{Key: keyN(3)}
	q.Push(r1)
	q.Push(r2)
	q.Push(r3) // drops r1, the oldest

	assert.Equal(t, 1, overflowed)
	assert.Equal(t, 2, q.Len())

	got, _ := q.TryPop()
	assert.Same(t, r2, got)
	got, _ = q.TryPop()
	assert.Same(t, r3, got)
}

func TestExportQueuePopBlocksUntilPush(t *testing.T) {
	q := NewExportQueue(2, nil)
	done := make(chan *FlowRecord, 1)
	go func() {
		rec, _ := q.Pop()
		done <- rec
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before any Push")
	case <-time.After(20 * time.Millisecond):
	}

	r := &FlowRecord{Key: keyN(1)}
	q.Push(r)

	select {
	case got := <-done:
		assert.Same(t, r, got)
	case <-time.After(time.Second):
		t.Fatal("Pop never returned after Push")
	}
}

func TestExportQueueCloseDrainsThenReturnsFalse(t *testing.T) {
	q := NewExportQueue(2, nil)
	q.Push(&FlowRecord{Key: keyN(1)})
	q.Close()

	_, ok := q.Pop()
	assert.True(t, ok, "Close must let pending records drain")

	_, ok = q.Pop()
	assert.False(t, ok, "Pop must return false once drained and closed")
}

func TestExportQueuePushAfterCloseIsNoop(t *testing.T) {
	q := NewExportQueue(2, nil)
	q.Close()
	q.Push(&FlowRecord{Key: keyN(1)})
	assert.Equal(t, 0, q.Len())
}
