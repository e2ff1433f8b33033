package flowcache

import "sync"

// CacheLine is a fixed-capacity, ordered set of flow slots sharing a
// hash bucket (spec.md §3, §4.4). Index 0 is always the
// most-recently-used occupied slot; empty slots are represented by a nil
// pointer and always trail the occupied ones.
//
// CacheLine carries its own mutex per spec.md §5's shared-cache option:
// a FlowCache serving a single producer never contends on it, but a
// deployment sharing one cache across capture goroutines locks exactly
// one line at a time, in strict index order. The pre_update and
// post_update hooks run with the flow's line locked; pre_create runs
// with it unlocked.
type CacheLine struct {
	mu    sync.Mutex
	slots []*FlowRecord
}

func newCacheLine(size int) *CacheLine {
	return &CacheLine{slots: make([]*FlowRecord, size)}
}

// Lock and Unlock expose the line's mutex to FlowCache, which is the
// only caller allowed to hold it across a Find/Insert/RemoveAt sequence.
func (l *CacheLine) Lock()   { l.mu.Lock() }
func (l *CacheLine) Unlock() { l.mu.Unlock() }

// Len returns the number of occupied slots.
func (l *CacheLine) Len() int {
	n := 0
	for _, s := range l.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// At returns the record at position i (nil if the slot is empty).
func (l *CacheLine) At(i int) *FlowRecord {
	return l.slots[i]
}

// Size returns the line's slot capacity (L of spec.md §3).
func (l *CacheLine) Size() int {
	return len(l.slots)
}

// Find walks the line for key. On a hit it promotes the matching slot to
// position 0 (spec.md §4.4: "the slot is rotated to position 0 ...
// other slots shift down by one") and returns it.
func (l *CacheLine) Find(key FlowKey) (*FlowRecord, bool) {
	for i, s := range l.slots {
		if s != nil && s.Key == key {
			l.promote(i)
			return l.slots[0], true
		}
	}
	return nil, false
}

func (l *CacheLine) promote(i int) {
	if i == 0 {
		return
	}
	rec := l.slots[i]
	copy(l.slots[1:i+1], l.slots[0:i])
	l.slots[0] = rec
}

// Insert installs rec at position 0. If the line has a free slot, the
// occupied slots shift down by one (spec.md §4.4). If the line is full,
// the slot at position L-1 (the LRU victim, per the "higher index is
// older" tie-break of spec.md §4.4) is evicted and returned so the
// caller can terminate and export it.
func (l *CacheLine) Insert(rec *FlowRecord) (evicted *FlowRecord) {
	for i, s := range l.slots {
		if s == nil {
			copy(l.slots[1:i+1], l.slots[0:i])
			l.slots[0] = rec
			return nil
		}
	}
	last := len(l.slots) - 1
	evicted = l.slots[last]
	copy(l.slots[1:], l.slots[0:last])
	l.slots[0] = rec
	return evicted
}

// RemoveAt detaches and returns the record at position i, shifting every
// later slot up by one so empty slots keep trailing the occupied ones
// and the relative order of the remaining records is preserved.
func (l *CacheLine) RemoveAt(i int) *FlowRecord {
	rec := l.slots[i]
	copy(l.slots[i:], l.slots[i+1:])
	l.slots[len(l.slots)-1] = nil
	return rec
}
