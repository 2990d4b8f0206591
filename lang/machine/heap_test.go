package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapMallocReadWriteByte(t *testing.T) {
	h := NewHeap()
	ptr, err := h.Malloc(16)
	require.NoError(t, err)

	require.NoError(t, h.Write(ptr+3, 0x7f))
	b, err := h.Read(ptr + 3)
	require.NoError(t, err)
	assert.Equal(t, byte(0x7f), b)
}

func TestHeapReadWordRoundTrip(t *testing.T) {
	h := NewHeap()
	ptr, err := h.Malloc(8)
	require.NoError(t, err)

	require.NoError(t, h.WriteWord(ptr, 8, 0x0102030405060708))
	v, err := h.ReadWord(ptr, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)

	require.NoError(t, h.WriteWord(ptr, 4, 0xaabbccdd))
	v32, err := h.ReadWord(ptr, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xaabbccdd), v32)
}

func TestHeapMemsetMemcpy(t *testing.T) {
	h := NewHeap()
	src, err := h.Malloc(4)
	require.NoError(t, err)
	dst, err := h.Malloc(4)
	require.NoError(t, err)

	require.NoError(t, h.Memset(src, 0x11, 4))
	require.NoError(t, h.Memcpy(dst, src, 4))

	for i := uint64(0); i < 4; i++ {
		b, err := h.Read(dst + i)
		require.NoError(t, err)
		assert.Equal(t, byte(0x11), b)
	}
}

func TestHeapFreeThenDoubleFreeErrors(t *testing.T) {
	h := NewHeap()
	ptr, err := h.Malloc(8)
	require.NoError(t, err)
	require.NoError(t, h.Free(ptr))

	err = h.Free(ptr)
	require.Error(t, err)
	var herr *HeapError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, HeapNotFound, herr.Kind)
}

func TestHeapFreeNonBasePointerErrors(t *testing.T) {
	h := NewHeap()
	ptr, err := h.Malloc(16)
	require.NoError(t, err)
	err = h.Free(ptr + 4)
	require.Error(t, err)
}

func TestHeapOversizeMallocErrors(t *testing.T) {
	h := NewHeap()
	_, err := h.Malloc(maxRegionBytes)
	require.Error(t, err)
	var herr *HeapError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, HeapOutOfMemory, herr.Kind)
}

func TestHeapNeverAllocatesUserSpaceRegion(t *testing.T) {
	h := NewHeap()
	for i := 0; i < 64; i++ {
		ptr, err := h.Malloc(1)
		require.NoError(t, err)
		region, _ := splitPtr(ptr)
		assert.NotEqual(t, userSpaceRegion, region)
	}
}

func TestHeapAddPtrPreservesRegion(t *testing.T) {
	h := NewHeap()
	ptr, err := h.Malloc(16)
	require.NoError(t, err)
	moved := h.AddPtr(ptr, 5)
	region, offset := splitPtr(moved)
	origRegion, _ := splitPtr(ptr)
	assert.Equal(t, origRegion, region)
	assert.Equal(t, uint64(5), offset)

	back := h.AddPtr(moved, -5)
	assert.Equal(t, ptr, back)
}

func TestHeapSnapshot(t *testing.T) {
	h := NewHeap()
	ptr, err := h.Malloc(4)
	require.NoError(t, err)
	require.NoError(t, h.Memset(ptr, 0x42, 4))

	snap := h.Snapshot()
	region, _ := splitPtr(ptr)
	require.Contains(t, snap, region)
	assert.Equal(t, []byte{0x42, 0x42, 0x42, 0x42}, snap[region])
}

func TestUserSpacePtrAliasesReservedRegion(t *testing.T) {
	ptr := userSpacePtr(3)
	region, offset := splitPtr(ptr)
	assert.Equal(t, userSpaceRegion, region)
	assert.Equal(t, uint64(24), offset)
}
