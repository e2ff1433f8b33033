// Package export defines the out-of-scope boundary between the cache's
// ExportQueue and a real downstream sender (spec.md §1: "the IPFIX
// template/record encoder and network transport ... specified only as
// interfaces"). It mirrors the teacher's writeout.Handler shape
// (pkg/goprobe/writeout/handler.go: a consumer goroutine draining a
// channel of finished work) but the channel here is pkg/flowcache's own
// ExportQueue rather than a DB writeout channel.
package export

import (
	"context"

	"github.com/flowdeck/fccache/pkg/flowcache"
)

// Exporter consumes terminated flows popped off a FlowCache's
// ExportQueue. A real implementation encodes them as IPFIX records and
// ships them to a collector; that encoding and transport are out of
// scope here.
type Exporter interface {
	// Export is called once per terminated flow, in the order the cache
	// terminated them (spec.md §5: "Termination events reach the
	// exporter in the order in which the cache terminates the flows").
	// The exporter must call flowcache.Release(rec) once it is done
	// reading rec's fields (spec.md §3: "ownership transfers to the
	// queue").
	Export(rec *flowcache.FlowRecord)

	// Close flushes any buffered state and releases resources. Called
	// once, after the queue has been drained.
	Close() error
}

// Run pops records off queue until it is closed and drained (spec.md
// §5's shutdown sequence: "the queue is flushed"), handing each to exp.
// It returns once the queue reports no more records will ever arrive, or
// as soon as ctx is done; ctx is checked only between records, so records
// still queued at that point are not exported.
// Callers typically run this in its own goroutine, the consumer side of
// the cache's single-producer design (spec.md §5).
func Run(ctx context.Context, queue *flowcache.ExportQueue, exp Exporter) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		rec, ok := queue.Pop()
		if !ok {
			return
		}
		exp.Export(rec)
	}
}
