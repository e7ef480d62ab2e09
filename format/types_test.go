package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in       string
		expected Mode
	}{
		{"abs", ModeAbs},
		{"0", ModeAbs},
		{"Sqrt", ModeSqrt},
		{"1", ModeSqrt},
		{" CBRT ", ModeCbrt},
		{"2", ModeCbrt},
		{"corr", ModeCorr},
		{"3", ModeCorr},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMode(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.expected, m)
		})
	}

	_, err := ParseMode("4")
	require.Error(t, err)
	_, err = ParseMode("pearson")
	require.Error(t, err)
}

func TestMode_Properties(t *testing.T) {
	for _, m := range Modes {
		require.True(t, m.Valid())
		require.NotEqual(t, "Unknown", m.String())
	}
	require.False(t, Mode(9).Valid())
	require.Equal(t, "Unknown", Mode(9).String())

	require.True(t, ModeAbs.Elementwise())
	require.True(t, ModeCbrt.Elementwise())
	require.False(t, ModeCorr.Elementwise())

	require.Equal(t, DataSparse, ModeSqrt.DataMode())
	require.Equal(t, DataNaive, ModeCorr.DataMode())
}

func TestCompressionType(t *testing.T) {
	tests := []struct {
		name string
		c    CompressionType
		ext  string
		str  string
	}{
		{"none", CompressionNone, "", "None"},
		{"zstd", CompressionZstd, ".zst", "Zstd"},
		{"s2", CompressionS2, ".s2", "S2"},
		{"lz4", CompressionLZ4, ".lz4", "LZ4"},
		{"gzip", CompressionGzip, ".gz", "Gzip"},
		{"xz", CompressionXz, ".xz", "Xz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.ext, tt.c.Extension())
			require.Equal(t, tt.str, tt.c.String())

			parsed, err := ParseCompression(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.c, parsed)

			require.Equal(t, tt.c, CompressionFromPath("data/run_1.dat"+tt.ext))
		})
	}

	_, err := ParseCompression("bzip2")
	require.Error(t, err)
	require.Equal(t, "Unknown", CompressionType(0xFF).String())
}

func TestIsCompressionExtension(t *testing.T) {
	require.True(t, IsCompressionExtension("gz"))
	require.True(t, IsCompressionExtension("xz"))
	require.False(t, IsCompressionExtension("dat"))
	require.False(t, IsCompressionExtension("curves"))
}

func TestEncodingType(t *testing.T) {
	e, err := ParseEncoding("Gorilla")
	require.NoError(t, err)
	require.Equal(t, TypeGorilla, e)
	require.Equal(t, "Gorilla", e.String())

	e, err = ParseEncoding("")
	require.NoError(t, err)
	require.Equal(t, TypeRaw, e)
	require.Equal(t, "Raw", e.String())

	_, err = ParseEncoding("delta")
	require.Error(t, err)
	require.Equal(t, "Unknown", EncodingType(0).String())
}
