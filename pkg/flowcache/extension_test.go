package flowcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionListGetMissingReturnsFalse(t *testing.T) {
	var l extensionList
	_, ok := l.get(1)
	assert.False(t, ok)
}

func TestExtensionListAddThenGet(t *testing.T) {
	var l extensionList
	require.NoError(t, l.add(fakeExtension{id: 5}))
	ext, ok := l.get(5)
	require.True(t, ok)
	assert.Equal(t, ExtensionID(5), ext.ExtensionID())
}

func TestExtensionListResetClearsSlotsButKeepsCapacity(t *testing.T) {
	var l extensionList
	require.NoError(t, l.add(fakeExtension{id: 1}))
	require.NoError(t, l.add(fakeExtension{id: 2}))

	capBefore := cap(l.slots)
	l.reset()

	assert.Equal(t, 0, len(l.slots))
	assert.Equal(t, capBefore, cap(l.slots), "reset should keep the backing array for reuse")
	_, ok := l.get(1)
	assert.False(t, ok)
}

func TestSetArenaPoolSizeReplacesPool(t *testing.T) {
	SetArenaPoolSize(4096)
	r := newRecord()
	defer Release(r)
	a := r.Arena(32)
	assert.Len(t, a, 32)
	SetArenaPoolSize(1024) // restore a sane default for any test run after this one
}
