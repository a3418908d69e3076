package buffers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_PrepareAllocatesOnce(t *testing.T) {
	alloc := NewDirectAllocator()
	h := NewHolder(alloc, KindPlain, 16, 64)
	assert.True(t, h.NullOrEmpty())

	h.Prepare()
	require.NotNil(t, h.Bytes())
	assert.Equal(t, 16, h.Cap())

	h.Prepare() // idempotent
	assert.Equal(t, 16, h.Cap())
}

func TestHolder_EnlargeGrowsTowardCeilingThenFails(t *testing.T) {
	h := NewHolder(NewDirectAllocator(), KindEncrypted, 16, 32)
	h.Prepare()

	require.NoError(t, h.Enlarge())
	assert.Equal(t, 32, h.Cap())

	err := h.Enlarge()
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestHolder_ResizeCapsAtCeiling(t *testing.T) {
	h := NewHolder(NewDirectAllocator(), KindEncrypted, 16, 100)
	h.Prepare()

	require.NoError(t, h.Resize(1000))
	assert.Equal(t, 100, h.Cap())
}

func TestHolder_ZeroRemainingOnlyTouchesPlainBuffers(t *testing.T) {
	h := NewHolder(NewDirectAllocator(), KindEncrypted, 8, 8)
	h.Prepare()
	copy(h.Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	h.Produced(8)
	h.Consumed(8) // fully read, pos==lim==8

	h.ZeroRemaining()
	for _, b := range h.Bytes() {
		assert.NotEqual(t, byte(0), b, "encrypted buffer must not be zeroed")
	}
}

func TestHolder_ReleaseZeroesPlainAndReturnsToPool(t *testing.T) {
	alloc := NewPoolAllocator(8)
	h := NewHolder(alloc, KindPlain, 8, 8)
	h.Prepare()
	copy(h.Bytes(), []byte{9, 9, 9, 9, 9, 9, 9, 9})
	h.Produced(8)
	h.Consumed(8)

	disposed := h.Release()
	assert.True(t, disposed)
	assert.True(t, h.NullOrEmpty())
}

func TestHolder_ReleaseFailsWhilePending(t *testing.T) {
	h := NewHolder(NewDirectAllocator(), KindPlain, 8, 8)
	h.Prepare()
	h.Produced(4) // pending bytes, position still 0

	assert.False(t, h.Release())
}

func TestHolder_CompactPreservesPendingBytes(t *testing.T) {
	h := NewHolder(NewDirectAllocator(), KindEncrypted, 8, 8)
	h.Prepare()
	copy(h.Bytes(), []byte{1, 2, 3, 4, 0, 0, 0, 0})
	h.Produced(4)
	h.Consumed(2)

	h.Compact()
	assert.Equal(t, []byte{3, 4}, h.Pending())
	assert.Equal(t, 4, h.FreeSpace())
}

func TestHolder_DisposeIsTerminal(t *testing.T) {
	h := NewHolder(NewDirectAllocator(), KindPlain, 8, 8)
	h.Prepare()
	h.Dispose()
	assert.True(t, h.NullOrEmpty())

	h.Prepare() // must stay disposed
	assert.Nil(t, h.Bytes())
}
