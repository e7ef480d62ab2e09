package stats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/arloliu/sircmp/compress"
	"github.com/arloliu/sircmp/format"
)

const (
	meanSuffix       = "stats.mean"
	iterationsSuffix = "stats.iterations"
	curveCountSuffix = "stats.curve_count"
)

// Writer serializes a Stats into three text sinks: the mean matrix, the
// iteration matrix and the per-bin curve count.
//
// Matrices are written one row per line with space separated values; means use
// exponent notation and NaN for pairs that were never computed.
type Writer struct {
	mean       *bufio.Writer
	iterations *bufio.Writer
	curveCount *bufio.Writer
	closers    []io.Closer
}

// NewWriter creates a writer over three caller-owned sinks. Close flushes them
// but does not close them.
func NewWriter(mean, iterations, curveCount io.Writer) *Writer {
	return &Writer{
		mean:       bufio.NewWriter(mean),
		iterations: bufio.NewWriter(iterations),
		curveCount: bufio.NewWriter(curveCount),
	}
}

// Create opens the three stats files next to each other.
//
// The files are named <base>stats.mean<ext>, <base>stats.iterations and
// <base>stats.curve_count, where ext is the extension of meanCompression. Only
// the mean matrix is compressed; it is the only file that grows with bins².
//
// Parameters:
//   - base: Path prefix, usually ending in "."
//   - meanCompression: Compression for the mean matrix
//
// Returns:
//   - *Writer: Writer owning the files; Close finalizes and closes them
//   - error: Any file creation error; already created files are closed
func Create(base string, meanCompression format.CompressionType) (*Writer, error) {
	meanFile, err := compress.CreateFile(base+meanSuffix+meanCompression.Extension(), meanCompression)
	if err != nil {
		return nil, fmt.Errorf("create mean file: %w", err)
	}

	iterFile, err := compress.CreateFile(base+iterationsSuffix, format.CompressionNone)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create iterations file: %w", err), meanFile.Close())
	}

	countFile, err := compress.CreateFile(base+curveCountSuffix, format.CompressionNone)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create curve count file: %w", err), meanFile.Close(), iterFile.Close())
	}

	w := NewWriter(meanFile, iterFile, countFile)
	w.closers = []io.Closer{meanFile, iterFile, countFile}

	return w, nil
}

// Paths returns the three file names Create uses for base.
func Paths(base string, meanCompression format.CompressionType) (mean, iterations, curveCount string) {
	return base + meanSuffix + meanCompression.Extension(), base + iterationsSuffix, base + curveCountSuffix
}

// WriteComment writes "#line" to all three sinks.
func (w *Writer) WriteComment(line string) error {
	for _, out := range w.sinks() {
		if _, err := fmt.Fprintf(out, "#%s\n", line); err != nil {
			return err
		}
	}

	return nil
}

// WriteStats writes the matrices and the curve count of s.
func (w *Writer) WriteStats(s *Stats) error {
	buf := make([]byte, 0, 32)

	for _, row := range s.Mean() {
		for j, v := range row {
			buf = buf[:0]
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, v, 'e', -1, 64)
			if _, err := w.mean.Write(buf); err != nil {
				return err
			}
		}
		if err := w.mean.WriteByte('\n'); err != nil {
			return err
		}
	}

	for _, row := range s.Iterations() {
		for j, v := range row {
			buf = buf[:0]
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, int64(v), 10)
			if _, err := w.iterations.Write(buf); err != nil {
				return err
			}
		}
		if err := w.iterations.WriteByte('\n'); err != nil {
			return err
		}
	}

	for _, n := range s.CurveCount() {
		buf = strconv.AppendInt(buf[:0], int64(n), 10)
		buf = append(buf, '\n')
		if _, err := w.curveCount.Write(buf); err != nil {
			return err
		}
	}

	return nil
}

// Close flushes every sink and closes the files opened by Create.
func (w *Writer) Close() error {
	var errs []error
	for _, out := range w.sinks() {
		errs = append(errs, out.Flush())
	}
	for _, c := range w.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}

func (w *Writer) sinks() []*bufio.Writer {
	return []*bufio.Writer{w.mean, w.iterations, w.curveCount}
}
