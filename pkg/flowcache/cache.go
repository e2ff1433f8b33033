package flowcache

import (
	"context"
	"sync"
	"time"

	"github.com/flowdeck/fccache/pkg/logging"
)

// FlowCache is the bounded, line-associative flow cache of spec.md §3–§5:
// a fixed N/L array of CacheLines, a ParserPipeline driving per-packet
// lifecycle hooks, a rolling timeout sweep, and an ExportQueue receiving
// every terminated FlowRecord.
//
// FlowCache assumes a single producer goroutine drives Process (spec.md
// §5); Shutdown and Stats may be called from any goroutine. The optional
// background sweep ticker started by RunSweepTicker is the only other
// goroutine ever allowed to touch the cache, and it only ever advances
// the sweep cursor, never the packet-routing path.
type FlowCache struct {
	ctx      context.Context
	opts     Options
	lines    []*CacheLine
	hasher   Hasher
	pipeline *ParserPipeline
	queue    *ExportQueue
	stats    StatsCounters

	cursorMu  sync.Mutex
	sweepLine uint32
	sweepSlot int

	closedMu sync.Mutex
	closed   bool
}

// New allocates a FlowCache per opts, wiring pipeline's hooks into
// packet routing and sizing the export queue to opts.QueueCapacity.
// Its diagnostics log against context.Background(); use NewWithContext
// to carry the caller's request-scoped logging.WithFields instead.
func New(opts Options, pipeline *ParserPipeline) (*FlowCache, error) {
	return NewWithContext(context.Background(), opts, pipeline)
}

// NewWithContext is New, but every diagnostic FlowCache logs (line
// eviction, export-queue overflow, sweep-ticker start) goes through
// logging.FromContext(ctx) instead of the background logger — the same
// ctx-carries-the-logger idiom the teacher's pkg/capture uses for its
// own per-interface state transitions. Validation failures are fatal at
// startup (spec.md §7) and are returned, never panicked.
func NewWithContext(ctx context.Context, opts Options, pipeline *ParserPipeline) (*FlowCache, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &FlowCache{
		ctx:      ctx,
		opts:     opts,
		pipeline: pipeline,
	}
	numLines := opts.NumLines()
	c.lines = make([]*CacheLine, numLines)
	for i := range c.lines {
		c.lines[i] = newCacheLine(int(opts.LineSize()))
	}
	c.queue = NewExportQueue(opts.QueueCapacity, func() {
		c.stats.queueOverflow.Add(1)
		logging.FromContext(c.ctx).Warnf("export queue overflow: dropping oldest flow record")
	})
	return c, nil
}

// Queue returns the export queue. The consumer must call Release on
// every record it pops once it is done reading it.
func (c *FlowCache) Queue() *ExportQueue { return c.queue }

// Stats returns the cache's live counters.
func (c *FlowCache) Stats() *StatsCounters { return &c.stats }

// Process routes one packet through the cache (spec.md §4.5): lookup,
// parser hooks, stats update, and end-of-flow detection, followed by one
// step of the timeout sweep (spec.md §4.6). now is the packet's arrival
// time; it drives both the flow's own first/last-seen bookkeeping and
// the sweep. The packet's TimestampMicros field is not read here.
func (c *FlowCache) Process(pkt *Packet, now time.Time) {
	if c.isClosed() {
		return
	}
	nowMicros := now.UnixMicro()

	budget := 1
	for {
		reinsert := c.route(pkt, nowMicros, &budget)
		if !reinsert {
			break
		}
	}
	c.advanceSweep(nowMicros, c.opts.effectiveSweepStep())
}

// route runs one pass of spec.md §4.5's decision tree for pkt. It
// reports true if the caller must reprocess the same packet from
// scratch (a FLUSH_WITH_REINSERT verdict that still has budget left).
func (c *FlowCache) route(pkt *Packet, now int64, budget *int) (reinsert bool) {
	key, dir := KeyOf(pkt, c.opts.Split)
	h := c.hasher.Hash(key)
	line := c.lines[lineIndex(h, c.opts.NumLines())]

	line.Lock()

	if line.Len() == 0 {
		c.stats.emptyLookups.Add(1)
	} else {
		c.stats.nonEmptyLookups.Add(1)
	}

	rec, hit := line.Find(key)
	if hit {
		c.stats.hits.Add(1)
		return c.routeHit(line, rec, pkt, dir, now, budget)
	}

	line.Unlock()
	c.stats.misses.Add(1)
	return c.routeMiss(line, key, pkt, dir, now)
}

// routeHit handles spec.md §4.5 steps 3–5 for an existing flow. line is
// held locked on entry; routeHit always unlocks it before returning.
func (c *FlowCache) routeHit(line *CacheLine, rec *FlowRecord, pkt *Packet, dir bool, now int64, budget *int) (reinsert bool) {
	preResult := c.pipeline.RunPreUpdate(rec, pkt)

	switch preResult {
	case HookFlush:
		line.RemoveAt(0)
		line.Unlock()
		c.stats.flushes.Add(1)
		c.terminate(rec, ReasonForcedEnd)
		return false

	case HookFlushWithReinsert:
		line.RemoveAt(0)
		line.Unlock()
		c.terminate(rec, ReasonForcedEnd)
		if *budget > 0 {
			*budget--
			c.stats.reinsertions.Add(1)
			return true
		}
		// Budget already spent for this packet: a second
		// FLUSH_WITH_REINSERT request degrades to FLUSH (spec.md §4.3).
		c.stats.flushes.Add(1)
		return false
	}

	rec.update(dir, now, pkt.PayloadLen, pkt.TCPFlags, pkt.HasTCPFlags)
	postResult := c.pipeline.RunPostUpdate(rec, pkt)

	if preResult == HookExport || postResult == HookExport {
		line.RemoveAt(0)
		line.Unlock()
		c.stats.forcedExports.Add(1)
		c.terminate(rec, ReasonForcedEnd)
		return false
	}

	if pkt.IsTCPFinOrRst() {
		line.RemoveAt(0)
		line.Unlock()
		c.terminate(rec, ReasonEndOfFlow)
		return false
	}

	line.Unlock()
	return false
}

// routeMiss handles spec.md §4.5 steps 1–2 and 5 for a new flow. line is
// unlocked on entry (pre_create must not run under the line lock, since
// parsers may do arbitrary work); routeMiss re-locks it only for the
// Insert itself.
func (c *FlowCache) routeMiss(line *CacheLine, key FlowKey, pkt *Packet, dir bool, now int64) (reinsert bool) {
	if c.pipeline.RunPreCreate(pkt) == HookDecline {
		return false
	}

	rec := newRecord()
	rec.init(key, dir, now, pkt.PayloadLen)
	if pkt.HasTCPFlags {
		if dir {
			rec.TCPFlagsFwd = pkt.TCPFlags
		} else {
			rec.TCPFlagsRev = pkt.TCPFlags
		}
	}

	line.Lock()
	evicted := line.Insert(rec)
	line.Unlock()
	c.stats.flowsAlive.Add(1)
	if evicted != nil {
		c.stats.evictions.Add(1)
		logging.FromContext(c.ctx).Debugf("line eviction: reclaiming LRU slot for a new flow")
		c.terminate(evicted, ReasonEvicted)
	}

	postResult := c.pipeline.RunPostCreate(rec, pkt)
	if postResult == HookExport {
		line.Lock()
		line.RemoveAt(0)
		line.Unlock()
		c.stats.forcedExports.Add(1)
		c.terminate(rec, ReasonForcedEnd)
		return false
	}

	if pkt.IsTCPFinOrRst() {
		line.Lock()
		line.RemoveAt(0)
		line.Unlock()
		c.terminate(rec, ReasonEndOfFlow)
		return false
	}

	return false
}

// terminate runs the on_finish hook on every parser, pushes rec to the
// export queue and drops the cache's own accounting of it. It never
// calls Release: ownership has already passed to the queue.
func (c *FlowCache) terminate(rec *FlowRecord, reason TerminationReason) {
	rec.Reason = reason
	c.pipeline.RunOnFinish(rec, reason)
	c.stats.flowsAlive.Add(-1)
	switch reason {
	case ReasonActiveTimeout:
		c.stats.timeoutsActive.Add(1)
	case ReasonInactiveTimeout:
		c.stats.timeoutsInactive.Add(1)
	}
	c.queue.Push(rec)
}

// advanceSweep advances the rolling sweep cursor by steps slots,
// terminating any slot whose occupant has exceeded the active or
// inactive timeout (spec.md §4.6). The cursor walks every line in
// index order, wrapping at the end of the array, so a full sweep always
// completes in NumSlots/steps calls regardless of which slots are
// occupied.
//
// A slot whose occupant is removed is re-examined on the same call
// (the removal shifts the next slot's occupant into its place) rather
// than skipped, at the cost of that step not advancing the cursor;
// amortised over a full sweep this is negligible and never delays
// coverage past the next full pass.
func (c *FlowCache) advanceSweep(now int64, steps int) {
	c.cursorMu.Lock()
	defer c.cursorMu.Unlock()

	numLines := len(c.lines)
	if numLines == 0 {
		return
	}
	activeMicros := int64(c.opts.Active) * 1_000_000
	inactiveMicros := int64(c.opts.Inactive) * 1_000_000

	for s := 0; s < steps; s++ {
		line := c.lines[c.sweepLine]
		line.Lock()
		size := line.Size()
		if c.sweepSlot >= size {
			line.Unlock()
			c.sweepSlot = 0
			c.sweepLine = (c.sweepLine + 1) % uint32(numLines)
			continue
		}

		rec := line.At(c.sweepSlot)
		if rec == nil {
			line.Unlock()
			c.advanceCursor(size)
			continue
		}

		var reason TerminationReason
		switch {
		case now-rec.FirstSeen >= activeMicros:
			reason = ReasonActiveTimeout
		case now-rec.LastSeen >= inactiveMicros:
			reason = ReasonInactiveTimeout
		}

		if reason == 0 {
			line.Unlock()
			c.advanceCursor(size)
			continue
		}

		line.RemoveAt(c.sweepSlot)
		line.Unlock()
		c.terminate(rec, reason)
	}
}

// advanceCursor must be called with cursorMu held.
func (c *FlowCache) advanceCursor(lineSize int) {
	c.sweepSlot++
	if c.sweepSlot >= lineSize {
		c.sweepSlot = 0
		c.sweepLine = (c.sweepLine + 1) % uint32(len(c.lines))
	}
}

// RunSweepTicker starts a background goroutine that advances the sweep
// on a fixed interval, so coverage makes progress even under a packet
// drought (spec.md §4.6: "sweep must make progress even under packet
// drought"). It stops when stop is closed.
func (c *FlowCache) RunSweepTicker(interval time.Duration, stop <-chan struct{}) {
	logging.FromContext(c.ctx).Debugf("sweep ticker started: interval=%s", interval)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				if c.isClosed() {
					return
				}
				c.advanceSweep(t.UnixMicro(), c.opts.effectiveSweepStep())
			}
		}
	}()
}

func (c *FlowCache) isClosed() bool {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	return c.closed
}

// Shutdown cooperatively drains the cache (spec.md §5): new packets are
// refused, every slot still occupied is terminated with ReasonShutdown
// and handed to the queue, then the queue itself is closed so its
// consumer can drain the rest and exit.
func (c *FlowCache) Shutdown() {
	c.closedMu.Lock()
	if c.closed {
		c.closedMu.Unlock()
		return
	}
	c.closed = true
	c.closedMu.Unlock()

	for _, line := range c.lines {
		line.Lock()
		for line.Len() > 0 {
			rec := line.RemoveAt(0)
			line.Unlock()
			c.terminate(rec, ReasonShutdown)
			line.Lock()
		}
		line.Unlock()
	}

	c.queue.Close()
}
