// Package pool provides pooled scratch memory for the ingestion and snapshot layers.
package pool

import "sync"

const (
	snapshotBufferSize      = 1 << 20 // 1MiB
	snapshotBufferThreshold = 1 << 26 // 64MiB, larger buffers are left to the GC
)

// ByteBuffer is the growable body buffer of a snapshot under construction.
type ByteBuffer struct {
	B []byte
}

// Bytes returns the buffered bytes.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the number of buffered bytes.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Grow makes room for n more bytes.
//
// The capacity grows by at least a quarter so that a sample payload appended
// curve by curve reallocates only a handful of times.
func (bb *ByteBuffer) Grow(n int) {
	if cap(bb.B)-len(bb.B) >= n {
		return
	}

	grown := make([]byte, len(bb.B), len(bb.B)+max(n, cap(bb.B)/4, snapshotBufferSize))
	copy(grown, bb.B)
	bb.B = grown
}

var snapshotBuffers = sync.Pool{
	New: func() any {
		return &ByteBuffer{B: make([]byte, 0, snapshotBufferSize)}
	},
}

// GetSnapshotBuffer returns an empty buffer from the snapshot pool.
func GetSnapshotBuffer() *ByteBuffer {
	bb, _ := snapshotBuffers.Get().(*ByteBuffer)
	return bb
}

// PutSnapshotBuffer recycles bb. Buffers above 64MiB are dropped.
func PutSnapshotBuffer(bb *ByteBuffer) {
	if bb == nil || cap(bb.B) > snapshotBufferThreshold {
		return
	}
	bb.B = bb.B[:0]
	snapshotBuffers.Put(bb)
}
