package ingest

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sircmp/compress"
	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const sampleRun = `# energy extinction values...
1 2 0.1 0.4 0.2 0 0
2 4 0.2 0.3 0.5 0.1 0.0

3 18446744073709551615 0.1 0.2 0.3 0.4 0.5
  # indented comment
4 0 0.7 0 0 0 0
`

func sparseConfig() Config {
	return Config{Bins: 2, BinSize: 2, Every: 1, DataMode: format.DataSparse}
}

func newParser(t *testing.T, cfg Config, opts ...Option) *Parser {
	t.Helper()

	p, err := NewParser(cfg, append([]Option{WithLogger(discard)}, opts...)...)
	require.NoError(t, err)

	return p
}

func parseString(t *testing.T, p *Parser, bins int, data string) *curve.Set {
	t.Helper()

	set, err := curve.New(bins)
	require.NoError(t, err)
	require.NoError(t, p.ParseReader(strings.NewReader(data), "sample", set))

	return set
}

func TestNewParser_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bins", Config{Bins: 0, BinSize: 1, Every: 1, DataMode: format.DataSparse}},
		{"bin size", Config{Bins: 1, BinSize: 0, Every: 1, DataMode: format.DataSparse}},
		{"every", Config{Bins: 1, BinSize: 1, Every: 0, DataMode: format.DataSparse}},
		{"data mode", Config{Bins: 1, BinSize: 1, Every: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(tt.cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := NewParser(sparseConfig(), WithWorkers(0))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseReader_Sparse(t *testing.T) {
	p := newParser(t, sparseConfig())
	set := parseString(t, p, 2, sampleRun)

	require.Equal(t, 5, set.ReferenceLength())
	require.Equal(t, []int{2, 2}, set.BinSizes())
	require.Equal(t, curve.Curve{0.1, 0.4, 0.2}, set.Curve(0, 0))
	require.Equal(t, curve.Curve{0.2, 0.3, 0.5, 0.1, 0.0}, set.Curve(0, 1))
	require.Equal(t, curve.Curve{0.1, 0.2, 0.3, 0.4, 0.5}, set.Curve(1, 0), "unfinished keeps every sample")
	require.Equal(t, curve.Curve{0.7}, set.Curve(1, 1))
	require.Equal(t, uint64(1), p.Unfinished())
	require.Zero(t, p.Dropped())
}

func TestParseReader_Naive(t *testing.T) {
	cfg := sparseConfig()
	cfg.DataMode = format.DataNaive
	p := newParser(t, cfg)
	set := parseString(t, p, 2, sampleRun)

	require.Equal(t, curve.Curve{0.1, 0.4, 0.2, 0, 0}, set.Curve(0, 0))
	require.Equal(t, curve.Curve{0.7, 0, 0, 0, 0}, set.Curve(1, 1))
	require.Zero(t, p.Unfinished())
	require.Equal(t, 5, set.ReferenceLength())
}

func TestParseReader_Every(t *testing.T) {
	cfg := sparseConfig()
	cfg.Every = 2
	set := parseString(t, newParser(t, cfg), 2, sampleRun)

	// data lines 1 and 3 are kept; comments and blank lines do not count
	require.Equal(t, []int{1, 1}, set.BinSizes())
	require.Equal(t, curve.Curve{0.1, 0.4, 0.2}, set.Curve(0, 0))
	require.Equal(t, curve.Curve{0.1, 0.2, 0.3, 0.4, 0.5}, set.Curve(1, 0))
}

func TestParseReader_Normalize(t *testing.T) {
	cfg := sparseConfig()
	cfg.Normalize = true
	set := parseString(t, newParser(t, cfg), 2, "1 2 1 4 2 0\n")

	require.Equal(t, curve.Curve{0.25, 1, 0.5}, set.Curve(0, 0))
}

func TestParseReader_NoSubtract(t *testing.T) {
	cfg := Config{Bins: 3, BinSize: 2, Every: 1, NoSubtract: true, DataMode: format.DataSparse}
	set := parseString(t, newParser(t, cfg), 3, "0 0 1\n1 0 1\n2 0 1\n5 0 1\n")

	require.Equal(t, []int{2, 1, 1}, set.BinSizes())
}

func TestParseReader_FirstUnfinishedLineKeepsLengthOpen(t *testing.T) {
	set := parseString(t, newParser(t, sparseConfig()), 2,
		"1 18446744073709551615 1 2 3\n2 0 5 6 7 8\n")

	require.True(t, set.HasReferenceLength())
	require.Equal(t, 4, set.ReferenceLength())
}

func TestParseReader_DropsEmptyCurves(t *testing.T) {
	p := newParser(t, sparseConfig())
	set := parseString(t, p, 2, "1 0\n1 0 0.5\n")

	require.Equal(t, uint64(1), p.Dropped())
	require.Equal(t, []int{1, 0}, set.BinSizes())
}

func TestParseReader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected error
	}{
		{"missing extinction", "1\n", ErrMalformedLine},
		{"bad energy", "x 0 1\n", ErrMalformedLine},
		{"bad extinction", "1 -3 1\n", ErrMalformedLine},
		{"bad sample", "1 0 1 nope\n", ErrMalformedLine},
		{"energy zero", "0 0 1\n", curve.ErrBinOutOfRange},
		{"energy too large", "5 0 1\n", curve.ErrBinOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := curve.New(2)
			require.NoError(t, err)

			err = newParser(t, sparseConfig()).ParseReader(strings.NewReader("# header\n"+tt.data), "run.dat", set)
			require.ErrorIs(t, err, tt.expected)
			require.Contains(t, err.Error(), "run.dat:2")
		})
	}
}

func writeCompressed(t *testing.T, path, content string) {
	t.Helper()

	w, err := compress.CreateFile(path, format.CompressionFromPath(path))
	require.NoError(t, err)
	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestParseGlob(t *testing.T) {
	dir := t.TempDir()
	writeCompressed(t, filepath.Join(dir, "run_1.dat.xz"), "1 1 0.5 0.25 0 0\n")
	writeCompressed(t, filepath.Join(dir, "run_2.dat.gz"), "3 2 0.1 0.2 0.3\n")
	writeCompressed(t, filepath.Join(dir, "run_3.dat"), "2 0 0.9 0.8\n")

	for _, workers := range []int{1, 3} {
		p := newParser(t, sparseConfig(), WithWorkers(workers))
		set, sources, err := p.ParseGlob(filepath.Join(dir, "run_*"))
		require.NoError(t, err)

		require.Len(t, sources, 3)
		require.Equal(t, 4, set.ReferenceLength(), "first file in path order fixes L")
		require.Equal(t, []int{2, 1}, set.BinSizes())
		require.Equal(t, curve.Curve{0.5, 0.25}, set.Curve(0, 0))
		require.Equal(t, curve.Curve{0.9}, set.Curve(0, 1))
		require.Equal(t, curve.Curve{0.1, 0.2, 0.3}, set.Curve(1, 0))
	}
}

func TestParseGlob_Errors(t *testing.T) {
	dir := t.TempDir()
	p := newParser(t, sparseConfig())

	_, _, err := p.ParseGlob(filepath.Join(dir, "*.dat"))
	require.ErrorIs(t, err, ErrNoFiles)

	writeCompressed(t, filepath.Join(dir, "a.dat"), "1 0 1\n")
	writeCompressed(t, filepath.Join(dir, "a.dat.gz"), "1 0 1\n")
	_, _, err = p.ParseGlob(filepath.Join(dir, "a.dat*"))
	require.ErrorContains(t, err, "duplicate source")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("9 0 1\n"), 0o600))
	_, _, err = p.ParseGlob(filepath.Join(dir, "b.txt"))
	require.ErrorIs(t, err, curve.ErrBinOutOfRange)
}

func TestSuffix(t *testing.T) {
	s, ok := Suffix([]string{"a/run_1.dat.xz", "a/run_2.dat.gz", "a/run_3.dat"})
	require.True(t, ok)
	require.Equal(t, "dat", s)

	s, ok = Suffix([]string{"x.curves.xz", "y.dat"})
	require.False(t, ok)
	require.Equal(t, "curves_dat", s)

	s, ok = Suffix([]string{"plain"})
	require.True(t, ok)
	require.Equal(t, "plain", s)
}

func TestParseReader_LongLine(t *testing.T) {
	var b strings.Builder
	b.WriteString("1 99999")
	for range 20000 {
		b.WriteString(" 0.125")
	}
	b.WriteByte('\n')

	set := parseString(t, newParser(t, sparseConfig()), 2, b.String())
	require.Equal(t, 20000, set.ReferenceLength())
	require.Len(t, set.Curve(0, 0), 20000)
	require.False(t, math.IsNaN(set.Curve(0, 0)[0]))
}
