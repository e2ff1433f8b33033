package capture

import (
	"context"
	"sync"

	"github.com/flowdeck/fccache/pkg/flowcache"
)

// NullSource is a Source that never produces a packet. It exists so
// cmd/fccached can wire a complete cache pipeline — options, parser
// pipeline, stats socket, exporter — without a real capture backend,
// the same role the teacher's capture_mock.go plays for its own tests:
// something that satisfies the interface end to end for wiring and
// integration tests, without claiming to implement capture.
type NullSource struct {
	mu     sync.Mutex
	closed bool
	ch     chan *flowcache.Packet
}

// NewNullSource returns a Source that opens successfully and then emits
// nothing until ctx is cancelled or Close is called.
func NewNullSource() *NullSource {
	return &NullSource{ch: make(chan *flowcache.Packet)}
}

// Open implements Source. It never fails.
func (s *NullSource) Open(_ context.Context, _ string) error { return nil }

// Packets implements Source: the returned channel closes when ctx is
// done.
func (s *NullSource) Packets(ctx context.Context) (<-chan *flowcache.Packet, error) {
	out := make(chan *flowcache.Packet)
	go func() {
		defer close(out)
		select {
		case <-ctx.Done():
		case <-s.ch:
		}
	}()
	return out, nil
}

// Stats implements Source. A NullSource never receives anything.
func (s *NullSource) Stats() Stats { return Stats{} }

// Close implements Source. Idempotent.
func (s *NullSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}
