package flowcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowRecordInitSetsFirstAndLastSeen(t *testing.T) {
	r := newRecord()
	defer Release(r)

	r.init(keyN(1), true, 1000, 64)
	assert.Equal(t, int64(1000), r.FirstSeen)
	assert.Equal(t, int64(1000), r.LastSeen)
	assert.Equal(t, uint64(1), r.PacketsFwd)
	assert.Equal(t, uint64(64), r.BytesFwd)
	assert.Equal(t, uint64(0), r.PacketsRev)
}

func TestFlowRecordUpdateAccumulatesByDirection(t *testing.T) {
	r := newRecord()
	defer Release(r)

	r.init(keyN(1), true, 1000, 64)
	r.update(true, 2000, 100, 0, false)
	r.update(false, 3000, 50, TCPFlagACK, true)

	assert.Equal(t, uint64(2), r.PacketsFwd)
	assert.Equal(t, uint64(164), r.BytesFwd)
	assert.Equal(t, uint64(1), r.PacketsRev)
	assert.Equal(t, uint64(50), r.BytesRev)
	assert.Equal(t, uint8(TCPFlagACK), r.TCPFlagsRev)
	assert.Equal(t, int64(3000), r.LastSeen)
	assert.Equal(t, uint64(3), r.TotalPackets())
	assert.False(t, r.LastWasForward)
}

func TestFlowRecordUpdateNeverRewindsLastSeen(t *testing.T) {
	r := newRecord()
	defer Release(r)
	r.init(keyN(1), true, 5000, 10)
	r.update(true, 1000, 10, 0, false) // an out-of-order arrival timestamp
	assert.Equal(t, int64(5000), r.LastSeen)
}

func TestFlowRecordReleaseThenReuseIsClean(t *testing.T) {
	r := newRecord()
	r.init(keyN(1), true, 1000, 64)
	r.Arena(16)
	Release(r)

	r2 := newRecord()
	defer Release(r2)
	assert.Equal(t, uint64(0), r2.PacketsFwd)
	assert.Equal(t, TerminationReason(0), r2.Reason)
}

func TestFlowRecordArenaGrows(t *testing.T) {
	r := newRecord()
	defer Release(r)

	a := r.Arena(8)
	require.Len(t, a, 8)
	for i := range a {
		a[i] = byte(i)
	}

	b := r.Arena(512)
	require.Len(t, b, 512)
}

type fakeExtension struct{ id ExtensionID }

func (f fakeExtension) ExtensionID() ExtensionID { return f.id }

func TestFlowRecordExtensionsAddAndGet(t *testing.T) {
	r := newRecord()
	defer Release(r)

	require.NoError(t, r.AddExtension(fakeExtension{id: 1}))
	_, ok := r.GetExtension(1)
	assert.True(t, ok)
	_, ok = r.GetExtension(2)
	assert.False(t, ok)
}

func TestFlowRecordDuplicateExtensionRejected(t *testing.T) {
	r := newRecord()
	defer Release(r)

	require.NoError(t, r.AddExtension(fakeExtension{id: 1}))
	err := r.AddExtension(fakeExtension{id: 1})
	assert.ErrorIs(t, err, ErrDuplicateExtension)
}
