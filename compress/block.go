package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"
)

// maxBlockSize bounds the decoded size a block header may announce.
const maxBlockSize = 1 << 30

var errBlockSize = errors.New("compress: invalid block size")

// noopCodec passes data through; the result shares memory with the input.
type noopCodec struct{}

func (noopCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noopCodec) Decompress(data []byte) ([]byte, error) { return data, nil }

type s2Codec struct{}

func (s2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

func (s2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}

var lz4Compressors = sync.Pool{
	New: func() any { return new(lz4.Compressor) },
}

// lz4Codec stores raw LZ4 blocks behind a uvarint of the decoded size, since an
// LZ4 block does not record it.
type lz4Codec struct{}

func (lz4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, binary.MaxVarintLen64+lz4.CompressBlockBound(len(data)))
	off := binary.PutUvarint(dst, uint64(len(data)))

	lc, _ := lz4Compressors.Get().(*lz4.Compressor)
	n, err := lc.CompressBlock(data, dst[off:])
	lz4Compressors.Put(lc)
	if err != nil {
		return nil, err
	}

	return dst[:off+n], nil
}

func (lz4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	size, off := binary.Uvarint(data)
	if off <= 0 || size > maxBlockSize {
		return nil, errBlockSize
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data[off:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if uint64(n) != size {
		return nil, fmt.Errorf("%w: decoded %d of %d bytes", errBlockSize, n, size)
	}

	return out, nil
}
