package snapshot

import (
	"fmt"
	"math"
)

// appendSources appends the source file names as a length-prefixed list:
// [count: uint16] then [len: uint16][name: UTF-8] per name.
func appendSources(buf []byte, sources []string) ([]byte, error) {
	if len(sources) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d source files exceed %d", ErrTooLarge, len(sources), math.MaxUint16)
	}

	buf = engine.AppendUint16(buf, uint16(len(sources))) //nolint:gosec
	for _, name := range sources {
		if len(name) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: source name of %d bytes", ErrTooLarge, len(name))
		}
		buf = engine.AppendUint16(buf, uint16(len(name))) //nolint:gosec
		buf = append(buf, name...)
	}

	return buf, nil
}

// decodeSources decodes a list written by appendSources and returns the bytes consumed.
func decodeSources(data []byte) ([]string, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("%w: source count", ErrTruncated)
	}

	count := int(engine.Uint16(data))
	offset := 2

	sources := make([]string, count)
	for i := range count {
		if len(data) < offset+2 {
			return nil, 0, fmt.Errorf("%w: length of source %d", ErrTruncated, i)
		}
		n := int(engine.Uint16(data[offset:]))
		offset += 2

		if len(data) < offset+n {
			return nil, 0, fmt.Errorf("%w: source %d needs %d bytes at offset %d", ErrTruncated, i, n, offset)
		}
		sources[i] = string(data[offset : offset+n])
		offset += n
	}

	return sources, offset, nil
}
