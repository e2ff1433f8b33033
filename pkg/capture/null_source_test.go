package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullSourceOpenNeverFails(t *testing.T) {
	s := NewNullSource()
	assert.NoError(t, s.Open(context.Background(), "eth0"))
}

func TestNullSourcePacketsClosesOnContextCancel(t *testing.T) {
	s := NewNullSource()
	ctx, cancel := context.WithCancel(context.Background())

	pkts, err := s.Packets(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-pkts:
		assert.False(t, ok, "channel must close, not yield a packet")
	case <-time.After(time.Second):
		t.Fatal("Packets channel did not close after context cancellation")
	}
}

func TestNullSourcePacketsClosesOnClose(t *testing.T) {
	s := NewNullSource()
	pkts, err := s.Packets(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Close())

	select {
	case _, ok := <-pkts:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Packets channel did not close after Close")
	}

	// Close must be idempotent.
	assert.NoError(t, s.Close())
}

func TestNullSourceStatsIsZero(t *testing.T) {
	s := NewNullSource()
	assert.Equal(t, Stats{}, s.Stats())
}
