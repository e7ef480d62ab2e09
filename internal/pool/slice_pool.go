package pool

import "sync"

// scratchLimit caps the capacity of recycled scratch slices (16M samples).
const scratchLimit = 1 << 24

var float64Scratch = sync.Pool{
	New: func() any { return new([]float64) },
}

// GetFloat64Scratch returns an empty float64 slice with pooled capacity.
//
// The ingestion layer parses every line into such a slice and copies the
// retained prefix into an owned curve, so the backing array never escapes.
//
// Example:
//
//	scratch := pool.GetFloat64Scratch()
//	defer func() { pool.PutFloat64Scratch(scratch) }()
func GetFloat64Scratch() []float64 {
	ptr, _ := float64Scratch.Get().(*[]float64)
	return (*ptr)[:0]
}

// PutFloat64Scratch recycles s, including any capacity gained through append.
func PutFloat64Scratch(s []float64) {
	if cap(s) > scratchLimit {
		return
	}
	s = s[:0]
	float64Scratch.Put(&s)
}
