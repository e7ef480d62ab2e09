package compress

import (
	"fmt"

	"github.com/arloliu/sircmp/format"
)

// Codec compresses and decompresses a complete payload in one call.
//
// Compress never modifies its input. Except for CompressionNone, the returned
// slice is newly allocated and owned by the caller. Decompress returns an error
// if the data is corrupted or was produced by a different algorithm.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// CompressionStats describes the outcome of compressing one payload.
//
// The snapshot encoder reports it through its logger so that the size of a
// cached curve set can be judged before choosing an algorithm.
type CompressionStats struct {
	Algorithm      format.CompressionType
	OriginalSize   int64
	CompressedSize int64
}

// CompressionRatio returns compressed size / original size, or 0 for an empty input.
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the saved space in percent. Negative values mean the
// payload grew.
func (s CompressionStats) SpaceSavings() float64 {
	return (1 - s.CompressionRatio()) * 100
}

// GetCodec returns the shared block codec for compressionType.
//
// Parameters:
//   - compressionType: Algorithm recorded in a snapshot header
//
// Returns:
//   - Codec: Stateless codec, safe for concurrent use
//   - error: Unknown compression type
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return noopCodec{}, nil
	case format.CompressionZstd:
		return zstdCodec{}, nil
	case format.CompressionS2:
		return s2Codec{}, nil
	case format.CompressionLZ4:
		return lz4Codec{}, nil
	case format.CompressionGzip, format.CompressionXz:
		return NewStreamCodec(compressionType), nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}
