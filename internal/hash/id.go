// Package hash provides the xxHash64 digests sircmp uses to identify curve sets
// and to checksum snapshot payloads.
package hash

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Bytes computes the xxHash64 of data.
func Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Digest accumulates integers and float samples into a single xxHash64 value.
//
// Floats are hashed by their IEEE-754 bit pattern, so -0 and +0 differ and every
// NaN payload is distinct. The zero value is not usable; create one with NewDigest.
type Digest struct {
	d   *xxhash.Digest
	buf [8]byte
}

// NewDigest returns an empty digest.
func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

// Uint64 adds v to the digest.
func (h *Digest) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	_, _ = h.d.Write(h.buf[:])
}

// Int adds v to the digest.
func (h *Digest) Int(v int) {
	h.Uint64(uint64(v))
}

// Floats adds every value of vs to the digest, preceded by its length so that
// [1 2][3] and [1][2 3] hash differently.
func (h *Digest) Floats(vs []float64) {
	h.Int(len(vs))
	for _, v := range vs {
		h.Uint64(math.Float64bits(v))
	}
}

// Sum64 returns the current hash value.
func (h *Digest) Sum64() uint64 {
	return h.d.Sum64()
}
