package flowcache

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsCounters holds the monotone counters of spec.md §4.8. Every field
// is updated with sync/atomic so a snapshot never needs a global lock
// (spec.md §4.8: "snapshots need not be globally atomic but each counter
// must be read atomically"). It also implements prometheus.Collector so
// the same counters can be registered with a Prometheus registry; no
// /metrics endpoint is served by fccached itself.
type StatsCounters struct {
	hits             atomic.Int64
	misses           atomic.Int64
	emptyLookups     atomic.Int64
	nonEmptyLookups  atomic.Int64
	evictions        atomic.Int64
	timeoutsActive   atomic.Int64
	timeoutsInactive atomic.Int64
	forcedExports    atomic.Int64
	flushes          atomic.Int64
	queueOverflow    atomic.Int64
	reinsertions     atomic.Int64
	flowsAlive       atomic.Int64
}

// Snapshot is a point-in-time, independently-atomic read of every
// counter.
type Snapshot struct {
	Hits             int64
	Misses           int64
	EmptyLookups     int64
	NonEmptyLookups  int64
	Evictions        int64
	TimeoutsActive   int64
	TimeoutsInactive int64
	ForcedExports    int64
	Flushes          int64
	QueueOverflow    int64
	Reinsertions     int64
	FlowsAlive       int64
}

// Snapshot returns the current value of every counter.
func (s *StatsCounters) Snapshot() Snapshot {
	return Snapshot{
		Hits:             s.hits.Load(),
		Misses:           s.misses.Load(),
		EmptyLookups:     s.emptyLookups.Load(),
		NonEmptyLookups:  s.nonEmptyLookups.Load(),
		Evictions:        s.evictions.Load(),
		TimeoutsActive:   s.timeoutsActive.Load(),
		TimeoutsInactive: s.timeoutsInactive.Load(),
		ForcedExports:    s.forcedExports.Load(),
		Flushes:          s.flushes.Load(),
		QueueOverflow:    s.queueOverflow.Load(),
		Reinsertions:     s.reinsertions.Load(),
		FlowsAlive:       s.flowsAlive.Load(),
	}
}

var statsDescs = struct {
	hits, misses, emptyLookups, nonEmptyLookups, evictions              *prometheus.Desc
	timeoutsActive, timeoutsInactive, forcedExports, flushes            *prometheus.Desc
	queueOverflow, reinsertions, flowsAlive                              *prometheus.Desc
}{
	hits:             prometheus.NewDesc("fccache_hits_total", "Cache lookups that matched an existing flow", nil, nil),
	misses:           prometheus.NewDesc("fccache_misses_total", "Cache lookups that matched no flow", nil, nil),
	emptyLookups:     prometheus.NewDesc("fccache_empty_lookups_total", "Lookups on a line with no occupied slots", nil, nil),
	nonEmptyLookups:  prometheus.NewDesc("fccache_non_empty_lookups_total", "Lookups on a line with at least one occupied slot", nil, nil),
	evictions:        prometheus.NewDesc("fccache_evictions_total", "Flows evicted as the LRU victim of a full line", nil, nil),
	timeoutsActive:   prometheus.NewDesc("fccache_active_timeouts_total", "Flows terminated by the active timeout", nil, nil),
	timeoutsInactive: prometheus.NewDesc("fccache_inactive_timeouts_total", "Flows terminated by the inactive timeout", nil, nil),
	forcedExports:    prometheus.NewDesc("fccache_forced_exports_total", "Flows terminated by a parser EXPORT verdict", nil, nil),
	flushes:          prometheus.NewDesc("fccache_flushes_total", "Flows terminated and their packet discarded by a parser FLUSH verdict", nil, nil),
	queueOverflow:    prometheus.NewDesc("fccache_queue_overflow_total", "Queued records dropped because the export queue was full", nil, nil),
	reinsertions:     prometheus.NewDesc("fccache_reinsertions_total", "Packets reinserted via FLUSH_WITH_REINSERT", nil, nil),
	flowsAlive:       prometheus.NewDesc("fccache_flows_alive", "Flows currently occupying a cache slot", nil, nil),
}

// Describe implements prometheus.Collector.
func (s *StatsCounters) Describe(ch chan<- *prometheus.Desc) {
	ch <- statsDescs.hits
	ch <- statsDescs.misses
	ch <- statsDescs.emptyLookups
	ch <- statsDescs.nonEmptyLookups
	ch <- statsDescs.evictions
	ch <- statsDescs.timeoutsActive
	ch <- statsDescs.timeoutsInactive
	ch <- statsDescs.forcedExports
	ch <- statsDescs.flushes
	ch <- statsDescs.queueOverflow
	ch <- statsDescs.reinsertions
	ch <- statsDescs.flowsAlive
}

// Collect implements prometheus.Collector.
func (s *StatsCounters) Collect(ch chan<- prometheus.Metric) {
	snap := s.Snapshot()
	ch <- prometheus.MustNewConstMetric(statsDescs.hits, prometheus.CounterValue, float64(snap.Hits))
	ch <- prometheus.MustNewConstMetric(statsDescs.misses, prometheus.CounterValue, float64(snap.Misses))
	ch <- prometheus.MustNewConstMetric(statsDescs.emptyLookups, prometheus.CounterValue, float64(snap.EmptyLookups))
	ch <- prometheus.MustNewConstMetric(statsDescs.nonEmptyLookups, prometheus.CounterValue, float64(snap.NonEmptyLookups))
	ch <- prometheus.MustNewConstMetric(statsDescs.evictions, prometheus.CounterValue, float64(snap.Evictions))
	ch <- prometheus.MustNewConstMetric(statsDescs.timeoutsActive, prometheus.CounterValue, float64(snap.TimeoutsActive))
	ch <- prometheus.MustNewConstMetric(statsDescs.timeoutsInactive, prometheus.CounterValue, float64(snap.TimeoutsInactive))
	ch <- prometheus.MustNewConstMetric(statsDescs.forcedExports, prometheus.CounterValue, float64(snap.ForcedExports))
	ch <- prometheus.MustNewConstMetric(statsDescs.flushes, prometheus.CounterValue, float64(snap.Flushes))
	ch <- prometheus.MustNewConstMetric(statsDescs.queueOverflow, prometheus.CounterValue, float64(snap.QueueOverflow))
	ch <- prometheus.MustNewConstMetric(statsDescs.reinsertions, prometheus.CounterValue, float64(snap.Reinsertions))
	ch <- prometheus.MustNewConstMetric(statsDescs.flowsAlive, prometheus.GaugeValue, float64(snap.FlowsAlive))
}
