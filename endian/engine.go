// Package endian provides the byte order engine used by the snapshot format.
//
// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so that an
// encoder can append fixed-width integers and float samples to a growing buffer
// without scratch allocations, and a decoder can read them back with the same
// engine:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = endian.AppendFloat64(engine, buf, 0.25)
//	v := endian.Float64(engine, buf[off:])
//
// All functions are safe for concurrent use; engines are stateless.
package endian

import (
	"encoding/binary"
	"math"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian satisfies it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine. Snapshots are always little endian.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// AppendFloat64 appends the IEEE-754 bits of v to buf.
func AppendFloat64(engine EndianEngine, buf []byte, v float64) []byte {
	return engine.AppendUint64(buf, math.Float64bits(v))
}

// AppendFloat64s appends every value of vs to buf.
func AppendFloat64s(engine EndianEngine, buf []byte, vs []float64) []byte {
	for _, v := range vs {
		buf = engine.AppendUint64(buf, math.Float64bits(v))
	}

	return buf
}

// Float64 reads a float64 from the first 8 bytes of b.
func Float64(engine EndianEngine, b []byte) float64 {
	return math.Float64frombits(engine.Uint64(b))
}

// Float64s decodes len(dst) consecutive float64 values from b into dst.
// b must hold at least 8*len(dst) bytes.
func Float64s(engine EndianEngine, dst []float64, b []byte) {
	for i := range dst {
		dst[i] = math.Float64frombits(engine.Uint64(b[i*8:]))
	}
}
