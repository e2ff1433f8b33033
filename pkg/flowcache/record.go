package flowcache

import "sync"

// FlowRecord aggregates statistics for one biflow and owns its
// parser-attached extensions (spec.md §3, §4.2). A FlowRecord is
// exclusively owned by its CacheLine slot, then — after termination — by
// the ExportQueue; no reference survives removal from both (spec.md §5).
type FlowRecord struct {
	Key FlowKey

	// FirstSeen / LastSeen are microseconds since the Unix epoch.
	FirstSeen int64
	LastSeen  int64

	PacketsFwd uint64
	PacketsRev uint64
	BytesFwd   uint64
	BytesRev   uint64

	// TCPFlagsFwd / TCPFlagsRev are the bitwise OR of every TCP flag byte
	// observed in that direction.
	TCPFlagsFwd uint8
	TCPFlagsRev uint8

	// LastWasForward records whether the most recently processed packet
	// travelled in the forward direction of Key.
	LastWasForward bool

	Reason TerminationReason

	ext   extensionList
	arena []byte
}

var recordPool = sync.Pool{New: func() any { return new(FlowRecord) }}

// newRecord obtains a FlowRecord from the pool, zeroed and ready for
// init. Per spec.md §9 ("Extension ownership"), reuse makes teardown free:
// the backing arena and extension slice capacity carry over across
// flows instead of being reallocated.
func newRecord() *FlowRecord {
	r := recordPool.Get().(*FlowRecord)
	r.ext.reset()
	return r
}

// release returns r to the pool. Callers must not touch r afterwards.
func release(r *FlowRecord) {
	if r.arena != nil {
		arenaPool.Put(r.arena)
	}
	*r = FlowRecord{ext: r.ext}
	recordPool.Put(r)
}

// init zeroes stats, sets first_seen=last_seen=now and imports the first
// packet's direction and counters (spec.md §4.2).
func (r *FlowRecord) init(key FlowKey, dirForward bool, nowMicros int64, byteLen int) {
	r.Key = key
	r.FirstSeen = nowMicros
	r.LastSeen = nowMicros
	r.LastWasForward = dirForward
	r.PacketsFwd, r.PacketsRev = 0, 0
	r.BytesFwd, r.BytesRev = 0, 0
	r.TCPFlagsFwd, r.TCPFlagsRev = 0, 0
	r.Reason = 0
	r.applyPacket(dirForward, nowMicros, byteLen, 0, false)
}

// update accumulates a subsequent packet's stats into the correct
// direction and advances LastSeen (spec.md §4.2).
func (r *FlowRecord) update(dirForward bool, nowMicros int64, byteLen int, tcpFlags uint8, hasTCPFlags bool) {
	r.LastWasForward = dirForward
	r.applyPacket(dirForward, nowMicros, byteLen, tcpFlags, hasTCPFlags)
}

func (r *FlowRecord) applyPacket(dirForward bool, nowMicros int64, byteLen int, tcpFlags uint8, hasTCPFlags bool) {
	if nowMicros > r.LastSeen {
		r.LastSeen = nowMicros
	}
	if dirForward {
		r.PacketsFwd++
		r.BytesFwd += uint64(byteLen)
		if hasTCPFlags {
			r.TCPFlagsFwd |= tcpFlags
		}
	} else {
		r.PacketsRev++
		r.BytesRev += uint64(byteLen)
		if hasTCPFlags {
			r.TCPFlagsRev |= tcpFlags
		}
	}
}

// TotalPackets returns packets_fwd + packets_rev (spec.md §8 invariant).
func (r *FlowRecord) TotalPackets() uint64 {
	return r.PacketsFwd + r.PacketsRev
}

// Release returns rec to the record pool once its consumer — the
// exporter that popped it off the ExportQueue — is done with it
// (spec.md §3: "ownership transfers to the queue; the cache retains no
// reference"). The cache itself never releases a record at termination
// time; only the queue's consumer may, after it has finished reading
// rec's fields.
func Release(rec *FlowRecord) {
	release(rec)
}

// GetExtension returns the extension registered under id, if attached.
func (r *FlowRecord) GetExtension(id ExtensionID) (Extension, bool) {
	return r.ext.get(id)
}

// AddExtension attaches ext under its own ExtensionID. Returns
// ErrDuplicateExtension if an extension with that id is already attached
// (spec.md §4.2: "duplicate add is forbidden"); this is a parser-local
// error and must not abort packet processing (spec.md §7).
func (r *FlowRecord) AddExtension(ext Extension) error {
	return r.ext.add(ext)
}

// Arena returns an n-byte slice carved out of the record's pooled
// scratch arena, growing the backing buffer if needed. It gives parser
// hooks bump-allocated scratch space without putting every extension's
// payload on the heap individually (spec.md §9).
func (r *FlowRecord) Arena(n int) []byte {
	if r.arena == nil {
		size := defaultArenaSize
		if n > size {
			size = n
		}
		r.arena = arenaPool.Get(size)
	}
	if len(r.arena) < n {
		grown := make([]byte, n)
		copy(grown, r.arena)
		arenaPool.Put(r.arena)
		r.arena = grown
	}
	return r.arena[:n]
}
