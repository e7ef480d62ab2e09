package snapshot

import (
	"fmt"
	"os"

	"github.com/arloliu/sircmp/compress"
	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/internal/encoding"
	"github.com/arloliu/sircmp/internal/hash"
)

// Meta describes a snapshot without its samples.
type Meta struct {
	Header   Header
	BinSizes []int
	Sources  []string
	Samples  int
}

// Decode restores the curve set stored in data.
//
// Returns:
//   - *curve.Set: Restored set; its curves do not alias data
//   - error: ErrBadMagic, ErrUnsupportedVersion, ErrInvalidHeader, ErrTruncated,
//     ErrChecksum or a decompression error
func Decode(data []byte) (*curve.Set, error) {
	set, _, err := decode(data, true)
	return set, err
}

// DecodeMeta reads the header, bin populations and sources of a snapshot.
// The checksum is verified; samples are not decoded.
func DecodeMeta(data []byte) (Meta, error) {
	_, meta, err := decode(data, false)
	return meta, err
}

// ReadFile reads and decodes the snapshot at path.
func ReadFile(path string) (*curve.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	set, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return set, nil
}

func decode(data []byte, withSamples bool) (*curve.Set, Meta, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, Meta{}, err
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, Meta{}, err
	}
	body, err := codec.Decompress(data[HeaderSize:])
	if err != nil {
		return nil, Meta{}, fmt.Errorf("snapshot: decompress body: %w", err)
	}
	if hash.Bytes(body) != h.Checksum {
		return nil, Meta{}, ErrChecksum
	}

	need := 4 * (int(h.BinCount) + int(h.CurveCount))
	if len(body) < need {
		return nil, Meta{}, fmt.Errorf("%w: index needs %d bytes, have %d", ErrTruncated, need, len(body))
	}

	meta := Meta{Header: h, BinSizes: make([]int, h.BinCount)}
	offset := 0

	curves := 0
	for i := range meta.BinSizes {
		meta.BinSizes[i] = int(engine.Uint32(body[offset:]))
		curves += meta.BinSizes[i]
		offset += 4
	}
	if curves != int(h.CurveCount) {
		return nil, Meta{}, fmt.Errorf("%w: bins hold %d curves, header says %d", ErrCorrupt, curves, h.CurveCount)
	}

	lengths := make([]int, h.CurveCount)
	for k := range lengths {
		lengths[k] = int(engine.Uint32(body[offset:]))
		if lengths[k] == 0 {
			return nil, Meta{}, fmt.Errorf("%w: curve %d is empty", ErrCorrupt, k)
		}
		meta.Samples += lengths[k]
		offset += 4
	}

	sources, n, err := decodeSources(body[offset:])
	if err != nil {
		return nil, Meta{}, err
	}
	meta.Sources = sources
	offset += n

	if !withSamples {
		return nil, meta, nil
	}

	var dec encoding.ColumnarDecoder[float64]
	if h.Encoding == format.TypeGorilla {
		dec = encoding.NewNumericGorillaDecoder()
	} else {
		dec = encoding.NewNumericRawDecoder(engine)
	}

	values := make([]float64, 0, meta.Samples)
	for v := range dec.All(body[offset:], meta.Samples) {
		values = append(values, v)
	}
	if len(values) < meta.Samples {
		return nil, Meta{}, fmt.Errorf("%w: decoded %d of %d samples", ErrTruncated, len(values), meta.Samples)
	}

	set, err := curve.New(int(h.BinCount))
	if err != nil {
		return nil, Meta{}, err
	}
	k, start := 0, 0
	for bin, size := range meta.BinSizes {
		for range size {
			end := start + lengths[k]
			if err := set.Push(bin, curve.Curve(values[start:end:end])); err != nil {
				return nil, Meta{}, err
			}
			start = end
			k++
		}
	}
	if h.HasReferenceLength() {
		if err := set.SetReferenceLength(int(h.ReferenceLength)); err != nil { //nolint:gosec
			return nil, Meta{}, err
		}
	}

	return set, meta, nil
}
