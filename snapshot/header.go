package snapshot

import (
	"errors"
	"fmt"

	"github.com/arloliu/sircmp/endian"
	"github.com/arloliu/sircmp/format"
)

const (
	Magic      = "SIRC"
	Version    = 2
	HeaderSize = 48

	// FlagReferenceLength marks a set whose reference length was fixed at ingestion.
	FlagReferenceLength = 0x01
	flagKnownMask       = FlagReferenceLength
)

var (
	ErrBadMagic           = errors.New("snapshot: not a snapshot file")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	ErrTruncated          = errors.New("snapshot: truncated data")
	ErrChecksum           = errors.New("snapshot: checksum mismatch")
	ErrInvalidHeader      = errors.New("snapshot: invalid header")
	ErrTooLarge           = errors.New("snapshot: set too large")
	ErrCorrupt            = errors.New("snapshot: corrupt body")
)

var engine = endian.GetLittleEndianEngine()

// Header is the fixed-size section at the start of every snapshot.
type Header struct {
	// ReferenceLength is the reference length L of the set.
	ReferenceLength uint64 // byte offset 16-23
	// Checksum is the xxHash64 of the uncompressed body.
	Checksum uint64 // byte offset 24-31
	// BinCount is the number of bins, populated or not.
	BinCount uint32 // byte offset 8-11
	// CurveCount is the number of curves across all bins.
	CurveCount uint32 // byte offset 12-15

	Version     uint8                  // byte offset 4
	Encoding    format.EncodingType    // byte offset 5
	Compression format.CompressionType // byte offset 6
	Flags       uint8                  // byte offset 7

	// Every is the line stride used at ingestion; zero when not recorded.
	Every uint32 // byte offset 36-39
	// BinSize is the number of consecutive energies per bin; zero when not recorded.
	BinSize uint32 // byte offset 40-43
	// DataMode is the ingestion data mode; zero when not recorded.
	DataMode format.DataMode // byte offset 32
	// IngestFlags holds IngestNormalize and IngestNoSubtract.
	IngestFlags uint8 // byte offset 33
}

// HasReferenceLength reports whether the reference length was fixed.
func (h Header) HasReferenceLength() bool {
	return h.Flags&FlagReferenceLength != 0
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], Magic)
	b[4] = h.Version
	b[5] = uint8(h.Encoding)
	b[6] = uint8(h.Compression)
	b[7] = h.Flags
	engine.PutUint32(b[8:12], h.BinCount)
	engine.PutUint32(b[12:16], h.CurveCount)
	engine.PutUint64(b[16:24], h.ReferenceLength)
	engine.PutUint64(b[24:32], h.Checksum)
	b[32] = uint8(h.DataMode)
	b[33] = h.IngestFlags
	engine.PutUint32(b[36:40], h.Every)
	engine.PutUint32(b[40:44], h.BinSize)

	return b
}

// ParseHeader parses and validates the header at the start of data.
//
// Parameters:
//   - data: Snapshot bytes (at least HeaderSize)
//
// Returns:
//   - Header: Parsed header
//   - error: ErrTruncated, ErrBadMagic, ErrUnsupportedVersion or ErrInvalidHeader
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(data))
	}
	if string(data[0:4]) != Magic {
		return Header{}, ErrBadMagic
	}

	h := Header{
		Version:         data[4],
		Encoding:        format.EncodingType(data[5]),
		Compression:     format.CompressionType(data[6]),
		Flags:           data[7],
		BinCount:        engine.Uint32(data[8:12]),
		CurveCount:      engine.Uint32(data[12:16]),
		ReferenceLength: engine.Uint64(data[16:24]),
		Checksum:        engine.Uint64(data[24:32]),
		DataMode:        format.DataMode(data[32]),
		IngestFlags:     data[33],
		Every:           engine.Uint32(data[36:40]),
		BinSize:         engine.Uint32(data[40:44]),
	}

	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.Encoding != format.TypeRaw && h.Encoding != format.TypeGorilla {
		return Header{}, fmt.Errorf("%w: sample encoding %d", ErrInvalidHeader, h.Encoding)
	}
	if h.Compression.String() == "Unknown" {
		return Header{}, fmt.Errorf("%w: compression %d", ErrInvalidHeader, h.Compression)
	}
	if h.Flags&^flagKnownMask != 0 {
		return Header{}, fmt.Errorf("%w: flags 0x%02x", ErrInvalidHeader, h.Flags)
	}
	if h.BinCount == 0 {
		return Header{}, fmt.Errorf("%w: zero bins", ErrInvalidHeader)
	}
	if err := h.validateIngest(); err != nil {
		return Header{}, err
	}
	if engine.Uint16(data[34:36]) != 0 || engine.Uint32(data[44:48]) != 0 {
		return Header{}, fmt.Errorf("%w: reserved bytes set", ErrInvalidHeader)
	}

	return h, nil
}
