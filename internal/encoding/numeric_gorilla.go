package encoding

import (
	"encoding/binary"
	"iter"
	"math"
	"math/bits"

	"github.com/arloliu/sircmp/internal/pool"
)

// gorillaSmallSequenceThreshold selects the decode loop: short streams use the
// plain loop, longer ones the run-aware loop.
const gorillaSmallSequenceThreshold = 64

// NumericGorillaEncoder compresses float64 samples with Gorilla XOR encoding.
//
// The first value is stored as its 64 raw bits. Every following value is XORed
// with its predecessor:
//
//   - '0': the value repeats the previous one
//   - '10' + meaningful bits: the XOR fits the previous leading/trailing window
//   - '11' + 5 bits leading zeros + 6 bits (block size - 1) + meaningful bits
//
// Epidemic curves rise and fall smoothly and often flatten into long runs of
// identical values once an outbreak is over, which this scheme stores in one bit
// per sample. Bits are accumulated in a 64-bit buffer and flushed big endian.
type NumericGorillaEncoder struct {
	bitBuf        uint64 // pending bits, right aligned
	prevValue     uint64 // previous value bits
	bitCount      int    // valid bits in bitBuf
	count         int    // encoded values
	prevLeading   int
	prevTrailing  int
	prevBlockSize int // 64 - prevLeading - prevTrailing
	firstValue    bool

	buf *pool.ByteBuffer
}

var _ ColumnarEncoder[float64] = (*NumericGorillaEncoder)(nil)

// NewNumericGorillaEncoder creates a Gorilla encoder backed by a pooled snapshot buffer.
//
// Returns:
//   - *NumericGorillaEncoder: Encoder ready for Write and WriteSlice; call Finish when done
func NewNumericGorillaEncoder() *NumericGorillaEncoder {
	return &NumericGorillaEncoder{
		buf:        pool.GetSnapshotBuffer(),
		firstValue: true,
	}
}

// Write encodes a single sample.
//
// Panics if Finish() has been called.
func (e *NumericGorillaEncoder) Write(val float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write values after Finish()")
	}

	e.count++
	valBits := math.Float64bits(val)

	if e.firstValue {
		e.firstValue = false
		e.prevValue = valBits
		e.writeBits(valBits, 64)

		return
	}

	e.writeValue(valBits)
}

// WriteSlice encodes values, continuing the stream of earlier calls.
//
// Runs of a value equal to the previous sample are written as a block of zero
// bits instead of one bit at a time.
//
// Panics if Finish() has been called.
func (e *NumericGorillaEncoder) WriteSlice(values []float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write values after Finish()")
	}
	if len(values) == 0 {
		return
	}

	if e.firstValue {
		e.count++
		valBits := math.Float64bits(values[0])
		e.firstValue = false
		e.prevValue = valBits
		e.writeBits(valBits, 64)
		values = values[1:]
	}

	i := 0
	for i < len(values) {
		valBits := math.Float64bits(values[i])

		j := i + 1
		for j < len(values) && math.Float64bits(values[j]) == valBits {
			j++
		}

		if run := j - i; run > 1 && valBits == e.prevValue {
			e.writeZeroBits(run)
			e.count += run
			i = j

			continue
		}

		e.count++
		e.writeValue(valBits)
		i++
	}
}

func (e *NumericGorillaEncoder) writeZeroBits(n int) {
	for n > 0 {
		chunk := min(n, 64)
		e.writeBits(0, chunk)
		n -= chunk
	}
}

// Bytes flushes pending bits and returns the encoded stream.
func (e *NumericGorillaEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	if e.bitCount > 0 {
		e.flushBits()
	}

	return e.buf.Bytes()
}

// Len returns the number of encoded samples.
func (e *NumericGorillaEncoder) Len() int {
	return e.count
}

// Size returns the flushed size in bytes. Pending bits are not counted until Bytes is called.
func (e *NumericGorillaEncoder) Size() int {
	if e.buf == nil {
		panic("encoder already finished - cannot access size after Finish()")
	}

	return e.buf.Len()
}

// Reset flushes pending bits and starts a new stream at the current Size.
//
// The next value is stored in full, so the new stream decodes on its own.
func (e *NumericGorillaEncoder) Reset() {
	if e.buf != nil && e.bitCount > 0 {
		e.flushBits()
	}
	e.prevValue = 0
	e.prevLeading = 0
	e.prevTrailing = 0
	e.prevBlockSize = 0
	e.firstValue = true
}

// Finish returns the buffer to the pool. Calling it twice is safe.
func (e *NumericGorillaEncoder) Finish() {
	if e.buf == nil {
		return
	}

	pool.PutSnapshotBuffer(e.buf)
	e.buf = nil
}

func (e *NumericGorillaEncoder) writeValue(valBits uint64) {
	xor := valBits ^ e.prevValue
	e.prevValue = valBits

	if xor == 0 {
		e.writeBit(0)
		return
	}

	e.writeBit(1)

	leading := bits.LeadingZeros64(xor)
	trailing := bits.TrailingZeros64(xor)

	// 5 bits hold at most 31 leading zeros; widen the block downwards instead.
	if leading > 31 {
		trailing = max(trailing-(leading-31), 0)
		leading = 31
	}

	if e.count > 2 && e.prevBlockSize > 0 && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.writeBit(0)
		e.writeBits(xor>>e.prevTrailing, e.prevBlockSize)

		return
	}

	blockSize := 64 - leading - trailing
	e.writeBit(1)
	e.writeBits(uint64(leading), 5)     //nolint:gosec // 0-31
	e.writeBits(uint64(blockSize-1), 6) //nolint:gosec // 0-63
	e.writeBits(xor>>trailing, blockSize)

	e.prevLeading = leading
	e.prevTrailing = trailing
	e.prevBlockSize = blockSize
}

func (e *NumericGorillaEncoder) writeBit(bit uint64) {
	e.bitBuf = (e.bitBuf << 1) | bit
	e.bitCount++

	if e.bitCount == 64 {
		e.flushBits()
	}
}

func (e *NumericGorillaEncoder) writeBits(value uint64, numBits int) {
	if numBits == 0 {
		return
	}
	if numBits < 64 {
		value &= (1 << numBits) - 1
	}

	available := 64 - e.bitCount
	if numBits <= available {
		e.bitBuf = (e.bitBuf << numBits) | value
		e.bitCount += numBits
		if e.bitCount == 64 {
			e.flushBits()
		}

		return
	}

	high := numBits - available
	e.bitBuf = (e.bitBuf << available) | (value >> high)
	e.bitCount = 64
	e.flushBits()

	e.bitBuf = value & ((1 << high) - 1)
	e.bitCount = high
}

// flushBits appends the pending bits, left aligned and zero padded to a byte.
func (e *NumericGorillaEncoder) flushBits() {
	if e.bitCount == 0 {
		return
	}

	numBytes := (e.bitCount + 7) / 8
	aligned := e.bitBuf << (64 - e.bitCount)

	e.buf.Grow(numBytes)
	if numBytes == 8 {
		e.buf.B = binary.BigEndian.AppendUint64(e.buf.B, aligned)
	} else {
		for i := range numBytes {
			e.buf.B = append(e.buf.B, byte(aligned>>(56-i*8)))
		}
	}

	e.bitBuf = 0
	e.bitCount = 0
}

// NumericGorillaDecoder decodes streams written by NumericGorillaEncoder.
type NumericGorillaDecoder struct{}

var _ ColumnarDecoder[float64] = NumericGorillaDecoder{}

// NewNumericGorillaDecoder creates a Gorilla decoder.
func NewNumericGorillaDecoder() NumericGorillaDecoder {
	return NumericGorillaDecoder{}
}

// gorillaBlockState tracks the leading/trailing window reused by '10' control bits.
type gorillaBlockState struct {
	trailing  int
	blockSize int
	valid     bool
}

// next reads the window selector following a '1' control bit.
func (s *gorillaBlockState) next(br *bitReader) (trailing int, blockSize int, ok bool) {
	reuse, ok := br.readBit()
	if !ok {
		return 0, 0, false
	}

	if reuse == 0 {
		if !s.valid {
			return 0, 0, false
		}

		return s.trailing, s.blockSize, true
	}

	leading, ok := br.readBits(5)
	if !ok {
		return 0, 0, false
	}
	size, ok := br.readBits(6)
	if !ok {
		return 0, 0, false
	}

	blockSize = int(size) + 1                //nolint:gosec // 1-64
	trailing = 64 - int(leading) - blockSize //nolint:gosec // leading is 0-31
	if trailing < 0 {
		return 0, 0, false
	}

	s.trailing = trailing
	s.blockSize = blockSize
	s.valid = true

	return trailing, blockSize, true
}

// All yields up to count samples decoded from data.
//
// A truncated or malformed stream stops the iterator early.
func (d NumericGorillaDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if len(data) == 0 || count <= 0 {
			return
		}

		br := &bitReader{data: data}

		prevValue, ok := br.readBits(64)
		if !ok {
			return
		}
		prevFloat := math.Float64frombits(prevValue)
		if !yield(prevFloat) {
			return
		}

		remaining := count - 1
		if remaining == 0 {
			return
		}
		if remaining <= gorillaSmallSequenceThreshold {
			decodeAllSmall(br, prevValue, remaining, yield)
			return
		}

		decodeAllLarge(br, prevValue, remaining, yield)
	}
}

func decodeAllSmall(br *bitReader, prevValue uint64, remaining int, yield func(float64) bool) {
	var state gorillaBlockState
	prevFloat := math.Float64frombits(prevValue)

	for remaining > 0 {
		control, ok := br.readBit()
		if !ok {
			return
		}

		if control == 1 {
			trailing, blockSize, ok := state.next(br)
			if !ok {
				return
			}
			meaningful, ok := br.readBits(blockSize)
			if !ok {
				return
			}
			prevValue ^= meaningful << uint(trailing) //nolint:gosec // 0-63
			prevFloat = math.Float64frombits(prevValue)
		}

		if !yield(prevFloat) {
			return
		}
		remaining--
	}
}

// decodeAllLarge consumes runs of repeated samples in a tight inner loop.
func decodeAllLarge(br *bitReader, prevValue uint64, remaining int, yield func(float64) bool) {
	var state gorillaBlockState
	prevFloat := math.Float64frombits(prevValue)
	produced := 0

	for produced < remaining {
		control, ok := br.readBit()
		if !ok {
			return
		}

		for control == 0 {
			if !yield(prevFloat) {
				return
			}
			produced++
			if produced >= remaining {
				return
			}

			if control, ok = br.readBit(); !ok {
				return
			}
		}

		trailing, blockSize, ok := state.next(br)
		if !ok {
			return
		}
		meaningful, ok := br.readBits(blockSize)
		if !ok {
			return
		}

		prevValue ^= meaningful << uint(trailing) //nolint:gosec // 0-63
		prevFloat = math.Float64frombits(prevValue)
		if !yield(prevFloat) {
			return
		}
		produced++
	}
}

// bitReader reads a big-endian bit stream through a 64-bit buffer.
type bitReader struct {
	data     []byte
	bytePos  int
	bitBuf   uint64 // left aligned
	bitCount int
}

func (br *bitReader) readBit() (uint64, bool) {
	if br.bitCount == 0 && !br.fillBuffer() {
		return 0, false
	}

	bit := br.bitBuf >> 63
	br.bitBuf <<= 1
	br.bitCount--

	return bit, true
}

func (br *bitReader) readBits(numBits int) (uint64, bool) {
	if numBits == 0 {
		return 0, true
	}

	if numBits <= br.bitCount {
		result := br.bitBuf >> (64 - numBits)
		br.bitBuf <<= numBits
		br.bitCount -= numBits

		return result, true
	}

	var result uint64
	for numBits > 0 {
		if br.bitCount == 0 && !br.fillBuffer() {
			return 0, false
		}

		n := min(numBits, br.bitCount)
		// n < 64 whenever result already holds bits, so the shift never drops them.
		result = (result << n) | (br.bitBuf >> (64 - n))
		br.bitBuf <<= n
		br.bitCount -= n
		numBits -= n
	}

	return result, true
}

func (br *bitReader) fillBuffer() bool {
	avail := len(br.data) - br.bytePos
	if avail <= 0 {
		return false
	}

	if avail >= 8 {
		br.bitBuf = binary.BigEndian.Uint64(br.data[br.bytePos:])
		br.bytePos += 8
		br.bitCount = 64

		return true
	}

	br.bitBuf = 0
	for range avail {
		br.bitBuf = (br.bitBuf << 8) | uint64(br.data[br.bytePos])
		br.bytePos++
	}
	br.bitBuf <<= (8 - avail) * 8
	br.bitCount = avail * 8

	return true
}
