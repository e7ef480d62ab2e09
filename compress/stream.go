package compress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/arloliu/sircmp/format"
)

const fileBufferSize = 256 * 1024

// NewReader wraps r with a decompressor for compressionType.
//
// Closing the returned reader releases decoder resources; it never closes r.
//
// Parameters:
//   - r: Compressed source
//   - compressionType: Algorithm r was written with
//
// Returns:
//   - io.ReadCloser: Decompressed stream
//   - error: Unsupported type or invalid stream header
func NewReader(r io.Reader, compressionType format.CompressionType) (io.ReadCloser, error) {
	switch compressionType {
	case format.CompressionNone:
		return io.NopCloser(r), nil
	case format.CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}

		return zr, nil
	case format.CompressionXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}

		return io.NopCloser(xr), nil
	case format.CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}

		return zr.IOReadCloser(), nil
	case format.CompressionS2:
		return io.NopCloser(s2.NewReader(r)), nil
	case format.CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported stream compression: %s", compressionType)
	}
}

// NewWriter wraps w with a compressor for compressionType.
//
// Close must be called to flush the final frame; it never closes w.
func NewWriter(w io.Writer, compressionType format.CompressionType) (io.WriteCloser, error) {
	switch compressionType {
	case format.CompressionNone:
		return nopWriteCloser{w}, nil
	case format.CompressionGzip:
		return gzip.NewWriter(w), nil
	case format.CompressionXz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("create xz stream: %w", err)
		}

		return xw, nil
	case format.CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("create zstd stream: %w", err)
		}

		return zw, nil
	case format.CompressionS2:
		return s2.NewWriter(w), nil
	case format.CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported stream compression: %s", compressionType)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// OpenFile opens path for reading and decompresses it according to its extension.
//
// A file named run.curves.xz is read through xz, run.curves.gz through gzip and
// run.curves as plain text.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	rc, err := NewReader(bufio.NewReaderSize(f, fileBufferSize), format.CompressionFromPath(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &fileReader{ReadCloser: rc, file: f}, nil
}

type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (r *fileReader) Close() error {
	return errors.Join(r.ReadCloser.Close(), r.file.Close())
}

// CreateFile creates (or truncates) path and returns a buffered writer that
// compresses with compressionType. Close flushes every layer and closes the file.
func CreateFile(path string, compressionType format.CompressionType) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	buf := bufio.NewWriterSize(f, fileBufferSize)
	wc, err := NewWriter(buf, compressionType)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &fileWriter{WriteCloser: wc, buf: buf, file: f}, nil
}

type fileWriter struct {
	io.WriteCloser
	buf  *bufio.Writer
	file *os.File
}

func (w *fileWriter) Close() error {
	errCompress := w.WriteCloser.Close()
	errFlush := w.buf.Flush()
	errClose := w.file.Close()

	return errors.Join(errCompress, errFlush, errClose)
}

// StreamCodec adapts a stream algorithm to the block Codec interface.
//
// It serves the formats that have no block API of their own (gzip, xz).
type StreamCodec struct {
	compressionType format.CompressionType
}

var _ Codec = StreamCodec{}

// NewStreamCodec creates a block codec backed by NewWriter / NewReader.
func NewStreamCodec(compressionType format.CompressionType) StreamCodec {
	return StreamCodec{compressionType: compressionType}
}

// Compress compresses data as one complete stream.
func (c StreamCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, c.compressionType)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress decodes one complete stream.
func (c StreamCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := NewReader(bytes.NewReader(data), c.compressionType)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s decompression failed: %w", c.compressionType, err)
	}

	return out, nil
}
