package machine

import (
	"encoding/binary"
	"fmt"

	"github.com/dolthub/swiss"
)

// Virtual pointer layout (spec section 4.8.1): region id in the top 16
// bits, byte offset in the low 48.
const (
	heapRegionShift = 48
	heapOffsetMask  = uint64(1)<<heapRegionShift - 1
	maxRegions      = 1 << 16
	maxRegionBytes  = uint64(1) << heapRegionShift
)

// userSpaceRegion is a reserved heap region id that Malloc never hands out.
// The machine's LDNXPTR opcode aliases a UserSpace cell index into a
// pointer in this region (spec section 4.6.3's "mutable arrays use
// LDNXPTR + READ_F64"), so the same generic typed READ_F*/WRITE_F* opcodes
// that dereference a true MALLOC'd pointer also dereference a mutable
// array element, without the compiler ever needing to MALLOC array
// storage out of the heap.
const userSpaceRegion uint16 = 0xffff

func splitPtr(ptr uint64) (region uint16, offset uint64) {
	return uint16(ptr >> heapRegionShift), ptr & heapOffsetMask
}

func makePtr(region uint16, offset uint64) uint64 {
	return uint64(region)<<heapRegionShift | (offset & heapOffsetMask)
}

// userSpacePtr encodes a UserSpace cell index as a pointer in the reserved
// alias region, 8 bytes (one cell) apart.
func userSpacePtr(idx uint64) uint64 {
	return makePtr(userSpaceRegion, idx*8)
}

// Heap is the emulator's virtual heap (spec section 4.8.1): a mapping from
// 16-bit region id to a zero-filled byte buffer, addressed by pointers
// packing region_id<<48|byte_offset. Regions are allocated sequentially
// from a cursor that wraps on overflow; Malloc skips ids that are still
// occupied (and the reserved alias id) and fails only when every other id
// is in use.
type Heap struct {
	regions *swiss.Map[uint16, []byte]
	count   int
	cursor  uint32
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{regions: swiss.NewMap[uint16, []byte](16)}
}

// Malloc allocates a fresh n-byte zero-filled region and returns its base
// pointer.
func (h *Heap) Malloc(n uint64) (uint64, error) {
	if n >= maxRegionBytes {
		return 0, &HeapError{Kind: HeapOutOfMemory, Size: n, Msg: "requested size exceeds the region limit"}
	}
	if h.count >= maxRegions-1 {
		return 0, &HeapError{Kind: HeapOutOfMemory, Size: n, Msg: "all region ids are in use"}
	}
	for i := 0; i < maxRegions; i++ {
		id := uint16(h.cursor)
		h.cursor++
		if id == userSpaceRegion {
			continue
		}
		if _, ok := h.regions.Get(id); ok {
			continue
		}
		h.regions.Put(id, make([]byte, n))
		h.count++
		return makePtr(id, 0), nil
	}
	return 0, &HeapError{Kind: HeapOutOfMemory, Size: n, Msg: "no free region id found"}
}

// Free releases the region ptr points at the base of. Freeing a pointer
// that is not a region base, or a region not currently allocated
// (including a double free), is an error.
func (h *Heap) Free(ptr uint64) error {
	region, offset := splitPtr(ptr)
	if offset != 0 {
		return &HeapError{Kind: HeapNotFound, Region: region, Msg: fmt.Sprintf("%#x is not a region base pointer", ptr)}
	}
	if _, ok := h.regions.Get(region); !ok {
		return &HeapError{Kind: HeapNotFound, Region: region, Msg: "region is not allocated (double free?)"}
	}
	h.regions.Delete(region)
	h.count--
	return nil
}

func (h *Heap) bytes(ptr, n uint64) ([]byte, error) {
	region, offset := splitPtr(ptr)
	buf, ok := h.regions.Get(region)
	if !ok {
		return nil, &HeapError{Kind: HeapNotFound, Region: region, Size: n, Msg: "region is not allocated"}
	}
	if offset+n > uint64(len(buf)) {
		return nil, &Error{Kind: AddressOutOfRange, Msg: fmt.Sprintf("heap access [%d,%d) out of range for region %d (len %d)", offset, offset+n, region, len(buf))}
	}
	return buf[offset : offset+n], nil
}

// Read loads one byte at ptr.
func (h *Heap) Read(ptr uint64) (byte, error) {
	b, err := h.bytes(ptr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write stores one byte at ptr.
func (h *Heap) Write(ptr uint64, v byte) error {
	b, err := h.bytes(ptr, 1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

// Memset fills n bytes starting at dst with v.
func (h *Heap) Memset(dst uint64, v byte, n uint64) error {
	b, err := h.bytes(dst, n)
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = v
	}
	return nil
}

// Memcpy copies n bytes from src to dst. The two ranges may belong to
// different regions or overlap within the same one.
func (h *Heap) Memcpy(dst, src, n uint64) error {
	s, err := h.bytes(src, n)
	if err != nil {
		return err
	}
	srcCopy := make([]byte, len(s))
	copy(srcCopy, s)
	d, err := h.bytes(dst, n)
	if err != nil {
		return err
	}
	copy(d, srcCopy)
	return nil
}

// ReadWord reads an n-byte little-endian word at ptr (n is 4 or 8, for the
// READ_F32/READ_I32 and READ_F64/READ_I64 families).
func (h *Heap) ReadWord(ptr uint64, n int) (uint64, error) {
	b, err := h.bytes(ptr, uint64(n))
	if err != nil {
		return 0, err
	}
	switch n {
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 8:
		return binary.LittleEndian.Uint64(b), nil
	default:
		return 0, fmt.Errorf("machine: unsupported heap word size %d", n)
	}
}

// WriteWord stores an n-byte little-endian word at ptr.
func (h *Heap) WriteWord(ptr uint64, n int, v uint64) error {
	b, err := h.bytes(ptr, uint64(n))
	if err != nil {
		return err
	}
	switch n {
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	default:
		return fmt.Errorf("machine: unsupported heap word size %d", n)
	}
	return nil
}

// Snapshot returns a copy of every currently live region's bytes, keyed by
// region id, for a debugger UI to render without holding a reference into
// live heap storage.
func (h *Heap) Snapshot() map[uint16][]byte {
	out := make(map[uint16][]byte, h.count)
	h.regions.Iter(func(id uint16, buf []byte) bool {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		out[id] = cp
		return false
	})
	return out
}

// AddPtr offsets ptr by delta bytes within its region, preserving the
// region id (negative delta implements SUB_PTR).
func (h *Heap) AddPtr(ptr uint64, delta int64) uint64 {
	region, offset := splitPtr(ptr)
	return makePtr(region, uint64(int64(offset)+delta))
}
