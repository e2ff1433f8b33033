// Package capture defines the out-of-scope boundary between a packet
// capture implementation and the flow cache (spec.md §1: "packet
// capture and decoding ... specified only as interfaces"). It mirrors
// the teacher's own capture.Source indirection (pkg/capture/capture_mock.go
// aliases capture.Source to slimcap's SourceZeroCopy) but narrows the
// surface to exactly what pkg/flowcache.Process needs: a stream of
// already-decoded Packets, not a gopacket/slimcap wire decoder.
package capture

import (
	"context"

	"github.com/flowdeck/fccache/pkg/flowcache"
)

// Stats mirrors the teacher's CaptureStats (pkg/capture/source.go), the
// per-interface counters an InputStats record in the stats socket (spec.md
// §6) is built from.
type Stats struct {
	PacketsReceived  uint64
	PacketsDropped   uint64
	PacketsIfDropped uint64
	BytesReceived    uint64
}

// Source is the capture-layer contract a real implementation (AF_PACKET,
// PF_RING, pcap, slimcap, ...) must satisfy to feed a FlowCache. Only the
// shape is specified here; decoding a wire packet into a *flowcache.Packet
// is the implementation's job.
type Source interface {
	// Open starts the capture on the given interface. It must be called
	// once, before Packets.
	Open(ctx context.Context, iface string) error

	// Packets returns a channel of decoded packets. The channel is
	// closed when ctx is done or the source is closed; the source must
	// never block Close waiting for a slow consumer.
	Packets(ctx context.Context) (<-chan *flowcache.Packet, error)

	// Stats returns the current capture counters.
	Stats() Stats

	// Close releases the underlying capture handle. Idempotent.
	Close() error
}
