package statsock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerClientRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fccache.sock")

	want := Snapshot{
		Inputs:  []InputStats{{Packets: 5, Parsed: 5, Bytes: 700}},
		Outputs: []OutputStats{{Biflows: 2, Packets: 5, Bytes: 700}},
	}
	srv, err := NewServer(path, func() Snapshot { return want })
	require.NoError(t, err)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	time.Sleep(10 * time.Millisecond)

	client, err := Dial(path)
	require.NoError(t, err)
	defer client.Close()

	got, err := client.Once()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = client.Once()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestServerClosePreventsFurtherDials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fccache.sock")
	srv, err := NewServer(path, func() Snapshot { return Snapshot{} })
	require.NoError(t, err)

	require.NoError(t, srv.Close())

	_, err = Dial(path)
	assert.Error(t, err)
}
