package encoding

import (
	"iter"

	"github.com/arloliu/sircmp/endian"
	"github.com/arloliu/sircmp/internal/pool"
)

// NumericRawEncoder stores float64 samples as their IEEE-754 bits, 8 bytes each.
type NumericRawEncoder struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

var _ ColumnarEncoder[float64] = (*NumericRawEncoder)(nil)

// NewNumericRawEncoder creates a raw encoder backed by a pooled snapshot buffer.
//
// Parameters:
//   - engine: Byte order of the samples; snapshots use the little-endian engine
//
// Returns:
//   - *NumericRawEncoder: Encoder ready for Write and WriteSlice; call Finish when done
func NewNumericRawEncoder(engine endian.EndianEngine) *NumericRawEncoder {
	return &NumericRawEncoder{
		engine: engine,
		buf:    pool.GetSnapshotBuffer(),
	}
}

// Write appends one sample.
//
// Panics if Finish() has been called.
func (e *NumericRawEncoder) Write(val float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	e.count++
	e.buf.Grow(8)
	e.buf.B = endian.AppendFloat64(e.engine, e.buf.B, val)
}

// WriteSlice appends every sample of values, growing the buffer once.
//
// Panics if Finish() has been called.
func (e *NumericRawEncoder) WriteSlice(values []float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	if len(values) == 0 {
		return
	}

	e.count += len(values)
	e.buf.Grow(len(values) * 8)
	e.buf.B = endian.AppendFloat64s(e.engine, e.buf.B, values)
}

// Bytes returns the encoded samples.
func (e *NumericRawEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	return e.buf.Bytes()
}

// Len returns the number of encoded samples.
func (e *NumericRawEncoder) Len() int {
	return e.count
}

// Size returns the encoded size in bytes.
func (e *NumericRawEncoder) Size() int {
	if e.buf == nil {
		panic("encoder already finished - cannot access size after Finish()")
	}

	return e.buf.Len()
}

// Reset is a no-op for the raw encoding: samples carry no state between them.
func (e *NumericRawEncoder) Reset() {}

// Finish returns the buffer to the pool. Calling it twice is safe.
func (e *NumericRawEncoder) Finish() {
	if e.buf == nil {
		return
	}

	pool.PutSnapshotBuffer(e.buf)
	e.buf = nil
}

// NumericRawDecoder decodes samples written by NumericRawEncoder.
type NumericRawDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[float64] = NumericRawDecoder{}

// NewNumericRawDecoder creates a raw decoder with the given byte order.
func NewNumericRawDecoder(engine endian.EndianEngine) NumericRawDecoder {
	return NumericRawDecoder{engine: engine}
}

// All yields min(count, len(data)/8) samples.
func (d NumericRawDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		n := min(count, len(data)/8)
		for i := range n {
			if !yield(endian.Float64(d.engine, data[i*8:])) {
				return
			}
		}
	}
}
