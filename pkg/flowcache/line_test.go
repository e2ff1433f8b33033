package flowcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyN(n uint16) FlowKey {
	return FlowKey{SrcPort: n, DstPort: 1, Protocol: ProtoTCP, AddrFamily: 4}
}

func TestCacheLineInsertFillsFreeSlotsAtFront(t *testing.T) {
	l := newCacheLine(4)
	r1 := &FlowRecord{Key: keyN(1)}
	r2 := &FlowRecord{Key: keyN(2)}

	assert.Nil(t, l.Insert(r1))
	assert.Nil(t, l.Insert(r2))

	assert.Same(t, r2, l.At(0))
	assert.Same(t, r1, l.At(1))
	assert.Equal(t, 2, l.Len())
}

func TestCacheLineFindPromotesToFront(t *testing.T) {
	l := newCacheLine(4)
	r1, r2, r3 := &FlowRecord{Key: keyN(1)}, &FlowRecord{Key: keyN(2)}, &FlowRecord{Key: keyN(3)}
	l.Insert(r1)
	l.Insert(r2)
	l.Insert(r3)
	// order is now r3, r2, r1

	found, ok := l.Find(keyN(1))
	require.True(t, ok)
	assert.Same(t, r1, found)
	assert.Same(t, r1, l.At(0))
	assert.Same(t, r3, l.At(1))
	assert.Same(t, r2, l.At(2))
}

func TestCacheLineFindMiss(t *testing.T) {
	l := newCacheLine(4)
	l.Insert(&FlowRecord{Key: keyN(1)})
	_, ok := l.Find(keyN(99))
	assert.False(t, ok)
}

func TestCacheLineEvictsLRUWhenFull(t *testing.T) {
	l := newCacheLine(2)
	r1, r2 := &FlowRecord{Key: keyN(1)}, &FlowRecord{Key: keyN(2)}
	l.Insert(r1)
	l.Insert(r2)
	// order: r2, r1 - r1 is the LRU victim at the last index

	r3 := &FlowRecord{Key: keyN(3)}
	evicted := l.Insert(r3)
	require.NotNil(t, evicted)
	assert.Same(t, r1, evicted)
	assert.Same(t, r3, l.At(0))
	assert.Same(t, r2, l.At(1))
}

func TestCacheLineRemoveAtPreservesOrder(t *testing.T) {
	l := newCacheLine(4)
	r1, r2, r3 := &FlowRecord{Key: keyN(1)}, &FlowRecord{Key: keyN(2)}, &FlowRecord{Key: keyN(3)}
	l.Insert(r1)
	l.Insert(r2)
	l.Insert(r3)
	// order: r3, r2, r1

	removed := l.RemoveAt(1)
	assert.Same(t, r2, removed)
	assert.Same(t, r3, l.At(0))
	assert.Same(t, r1, l.At(1))
	assert.Nil(t, l.At(2))
	assert.Equal(t, 2, l.Len())
}
