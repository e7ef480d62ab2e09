// Package encoding holds the sample codecs of the snapshot body.
//
// Two codecs are provided, matching format.TypeRaw and format.TypeGorilla:
//
//   - NumericRawEncoder / NumericRawDecoder store every sample as 8 little-endian bytes.
//   - NumericGorillaEncoder / NumericGorillaDecoder store the XOR of consecutive samples
//     with a leading-zero/block-size header, which is compact for smooth curves.
//
// A snapshot writes every curve of a set into one encoder, bin by bin, and decodes
// the whole stream with the total sample count taken from its index.
package encoding

import "iter"

// ColumnarEncoder appends a sequence of values to an internal buffer.
type ColumnarEncoder[T comparable] interface {
	// Bytes returns the encoded byte slice.
	// The returned slice is valid until the next call to Write, WriteSlice, Reset or Finish.
	Bytes() []byte

	// Len returns the number of encoded values.
	Len() int

	// Size returns the size in bytes of the encoded data.
	Size() int

	// Write encodes a single value.
	Write(value T)

	// WriteSlice encodes values in order. Consecutive calls continue the same stream.
	WriteSlice(values []T)

	// Reset clears the encoder state but keeps the buffered bytes.
	Reset()

	// Finish returns the buffer to its pool. The encoder must not be used afterwards.
	Finish()
}

// ColumnarDecoder decodes a sequence of values produced by the matching encoder.
type ColumnarDecoder[T comparable] interface {
	// All yields up to count decoded values from data.
	//
	// Malformed or short data makes the iterator stop early, so callers that need
	// exactly count values must count what they receive.
	All(data []byte, count int) iter.Seq[T]
}
