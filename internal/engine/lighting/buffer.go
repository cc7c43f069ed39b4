package lighting

import (
	"encoding/binary"
	"sync/atomic"
)

// HeaderSize is the number of int32 words before the first bucket region.
// Words 0..5 hold the bucket counts; the rest is zero padding for GPU alignment.
const HeaderSize = 16

// VisibleBuffer holds the per-frame visible-light index lists for the shading stage.
//
// Layout, in int32 words:
//
//	[0..5]    count per bucket, in Bucket order
//	[6..15]   zero
//	[16..]    one region per bucket, sized to its capacity, holding light slots
//	          in culling-scan order; entries past the count are zero
//
// The buffer never grows. Write fills the working copy on the frame thread and
// Publish makes it visible to readers; readers never see a partial frame.
type VisibleBuffer struct {
	capacity [NumBuckets]int
	offsets  [NumBuckets]int
	data     []int32

	published atomic.Pointer[[]int32]
}

// NewVisibleBuffer allocates a buffer for the given bucket capacities.
func NewVisibleBuffer(capacity [NumBuckets]int) *VisibleBuffer {
	b := &VisibleBuffer{capacity: capacity}
	off := HeaderSize
	for i, c := range capacity {
		b.offsets[i] = off
		off += c
	}
	b.data = make([]int32, off)
	return b
}

// Len returns the buffer size in int32 words.
func (b *VisibleBuffer) Len() int { return len(b.data) }

// Offset returns the first word of the region of bucket bk.
func (b *VisibleBuffer) Offset(bk Bucket) int { return b.offsets[bk] }

// Capacity returns the region size of bucket bk.
func (b *VisibleBuffer) Capacity(bk Bucket) int { return b.capacity[bk] }

// Write replaces the working copy with lists. Lists longer than their region are truncated.
func (b *VisibleBuffer) Write(lists *[NumBuckets][]int32) {
	clear(b.data)
	for i, list := range lists {
		n := min(len(list), b.capacity[i])
		b.data[i] = int32(n)
		copy(b.data[b.offsets[i]:b.offsets[i]+n], list[:n])
	}
}

// Publish makes the working copy visible to Snapshot.
func (b *VisibleBuffer) Publish() {
	snap := make([]int32, len(b.data))
	copy(snap, b.data)
	b.published.Store(&snap)
}

// Snapshot returns the last published buffer, or nil before the first frame.
// Safe to call from any goroutine; the returned slice must not be modified.
func (b *VisibleBuffer) Snapshot() []int32 {
	p := b.published.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Bytes returns the last published buffer little-endian for GPU upload.
func (b *VisibleBuffer) Bytes() []byte {
	snap := b.Snapshot()
	if snap == nil {
		return nil
	}
	out := make([]byte, len(snap)*4)
	for i, v := range snap {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}
