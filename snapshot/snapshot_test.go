package snapshot

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/ingest"
	"github.com/arloliu/sircmp/internal/hash"
)

var allCompressions = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
	format.CompressionGzip,
	format.CompressionXz,
}

var allEncodings = []format.EncodingType{format.TypeRaw, format.TypeGorilla}

// epidemicSet builds bins of smooth rise-and-fall curves with flat extinction tails.
func epidemicSet(t *testing.T, seed uint64) *curve.Set {
	t.Helper()

	const refLen = 120

	rng := rand.New(rand.NewPCG(seed, 99))
	set, err := curve.New(5)
	require.NoError(t, err)
	for bin := range 5 {
		if bin == 3 {
			continue
		}
		for range 4 + bin {
			n := 20 + rng.IntN(refLen-20)
			peak := 1 + rng.IntN(n)
			c := make(curve.Curve, n)
			for k := range c {
				if k > n/2 {
					c[k] = c[k-1]
					continue
				}
				x := float64(k-peak) / float64(peak)
				c[k] = math.Round(1000*math.Exp(-x*x)) / 1000
			}
			require.NoError(t, set.Push(bin, c))
		}
	}
	require.NoError(t, set.SetReferenceLength(refLen))

	return set
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	set := epidemicSet(t, 1)

	for _, enc := range allEncodings {
		for _, c := range allCompressions {
			t.Run(enc.String()+"/"+c.String(), func(t *testing.T) {
				data, err := Encode(set, WithEncoding(enc), WithCompression(c), WithSources([]string{"a.dat.xz", "b.dat"}))
				require.NoError(t, err)

				got, err := Decode(data)
				require.NoError(t, err)
				require.Equal(t, set.BinSizes(), got.BinSizes())
				require.Equal(t, set.ReferenceLength(), got.ReferenceLength())
				require.True(t, got.HasReferenceLength())
				require.Equal(t, set.Fingerprint(), got.Fingerprint())

				meta, err := DecodeMeta(data)
				require.NoError(t, err)
				require.Equal(t, []string{"a.dat.xz", "b.dat"}, meta.Sources)
				require.Equal(t, enc, meta.Header.Encoding)
				require.Equal(t, c, meta.Header.Compression)
				require.Equal(t, set.BinSizes(), meta.BinSizes)
			})
		}
	}
}

func TestEncodeDecode_SpecialValues(t *testing.T) {
	set, err := curve.FromBins(0,
		[]curve.Curve{{0, math.Copysign(0, -1), math.Inf(1), math.NaN(), 1e-300, math.MaxFloat64}},
		[]curve.Curve{{0.5}, {0.5, 0.5, 0.5}},
	)
	require.NoError(t, err)

	for _, enc := range allEncodings {
		data, err := Encode(set, WithEncoding(enc))
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)
		require.Equal(t, set.Fingerprint(), got.Fingerprint(), "bit patterns survive %s", enc)
	}
}

func TestEncode_Defaults(t *testing.T) {
	data, err := Encode(epidemicSet(t, 2))
	require.NoError(t, err)

	h, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint8(Version), h.Version)
	require.Equal(t, format.TypeGorilla, h.Encoding)
	require.Equal(t, format.CompressionZstd, h.Compression)
	require.Equal(t, uint32(5), h.BinCount)
	require.Equal(t, uint64(120), h.ReferenceLength)
}

func TestEncode_GorillaSmallerThanRaw(t *testing.T) {
	set := epidemicSet(t, 3)

	raw, err := Encode(set, WithEncoding(format.TypeRaw), WithCompression(format.CompressionNone))
	require.NoError(t, err)
	gorilla, err := Encode(set, WithEncoding(format.TypeGorilla), WithCompression(format.CompressionNone))
	require.NoError(t, err)

	require.Less(t, len(gorilla), len(raw))
}

func TestEncode_InvalidOptions(t *testing.T) {
	set := epidemicSet(t, 4)

	_, err := Encode(set, WithCompression(format.CompressionType(0xEE)))
	require.Error(t, err)

	_, err = Encode(set, WithEncoding(format.EncodingType(0x2)))
	require.Error(t, err)
}

func TestEncode_NoReferenceLength(t *testing.T) {
	set, err := curve.New(2)
	require.NoError(t, err)
	require.NoError(t, set.Push(1, curve.Curve{1, 2}))

	data, err := Encode(set)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.False(t, got.HasReferenceLength())
	require.Equal(t, []int{0, 1}, got.BinSizes())
}

func TestDecode_Errors(t *testing.T) {
	data, err := Encode(epidemicSet(t, 5), WithCompression(format.CompressionNone))
	require.NoError(t, err)

	t.Run("short header", func(t *testing.T) {
		_, err := Decode(data[:HeaderSize-1])
		require.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte("XXXX"), data[4:]...)
		_, err := Decode(bad)
		require.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("unsupported version", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] = 9
		_, err := Decode(bad)
		require.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("unknown flags", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[7] = 0x80
		_, err := Decode(bad)
		require.ErrorIs(t, err, ErrInvalidHeader)
	})

	t.Run("flipped sample bit", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-1] ^= 0x01
		_, err := Decode(bad)
		require.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("truncated body", func(t *testing.T) {
		_, err := Decode(data[:len(data)-8])
		require.ErrorIs(t, err, ErrChecksum)
	})
}

func TestDecode_TruncatedSampleStream(t *testing.T) {
	for _, enc := range allEncodings {
		t.Run(enc.String(), func(t *testing.T) {
			set := epidemicSet(t, 6)
			data, err := Encode(set, WithCompression(format.CompressionNone), WithEncoding(enc))
			require.NoError(t, err)

			// re-sign a shortened body so only the sample stream is short
			h, err := ParseHeader(data)
			require.NoError(t, err)
			body := data[HeaderSize : len(data)-16]
			h.Checksum = hash.Bytes(body)
			bad := append(h.Bytes(), body...)

			_, err = Decode(bad)
			require.ErrorIs(t, err, ErrTruncated)

			_, err = DecodeMeta(bad)
			require.NoError(t, err, "metadata does not need the samples")
		})
	}
}

func TestWriteReadFile(t *testing.T) {
	set := epidemicSet(t, 7)
	path := filepath.Join(t.TempDir(), "run.sirc")

	require.NoError(t, WriteFile(path, set, WithCompression(format.CompressionXz)))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, set.Fingerprint(), got.Fingerprint())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.sirc"))
	require.Error(t, err)
}

func TestEncode_RecordsIngest(t *testing.T) {
	set := epidemicSet(t, 8)
	parsed := ingest.Config{Bins: 5, BinSize: 40, Every: 2, Normalize: true, DataMode: format.DataSparse}

	data, err := Encode(set, WithIngest(parsed))
	require.NoError(t, err)

	h, err := ParseHeader(data)
	require.NoError(t, err)
	require.True(t, h.HasIngest())
	require.Equal(t, format.DataSparse, h.DataMode)
	require.Equal(t, uint8(IngestNormalize), h.IngestFlags)

	got, ok := h.IngestConfig()
	require.True(t, ok)
	require.Equal(t, parsed, got)
	require.NoError(t, h.MatchIngest(parsed))

	relaxed := parsed
	relaxed.BinSize = 0
	require.NoError(t, h.MatchIngest(relaxed), "an unknown bin size is not compared")

	tests := []struct {
		name   string
		modify func(c *ingest.Config)
	}{
		{"data mode", func(c *ingest.Config) { c.DataMode = format.DataNaive }},
		{"bins", func(c *ingest.Config) { c.Bins = 4 }},
		{"bin size", func(c *ingest.Config) { c.BinSize = 20 }},
		{"every", func(c *ingest.Config) { c.Every = 1 }},
		{"normalize", func(c *ingest.Config) { c.Normalize = false }},
		{"no subtract", func(c *ingest.Config) { c.NoSubtract = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := parsed
			tt.modify(&want)
			require.ErrorIs(t, h.MatchIngest(want), ErrIngestMismatch)
		})
	}
}

func TestEncode_WithoutIngest(t *testing.T) {
	data, err := Encode(epidemicSet(t, 9))
	require.NoError(t, err)

	h, err := ParseHeader(data)
	require.NoError(t, err)
	require.False(t, h.HasIngest())
	_, ok := h.IngestConfig()
	require.False(t, ok)

	err = h.MatchIngest(ingest.Config{Bins: 5, BinSize: 1, Every: 1, DataMode: format.DataSparse})
	require.ErrorIs(t, err, ErrIngestMismatch)
}

func TestWithIngest_Invalid(t *testing.T) {
	set := epidemicSet(t, 10)

	_, err := Encode(set, WithIngest(ingest.Config{Bins: 5, BinSize: 1, Every: 1}))
	require.Error(t, err, "data mode is required")

	_, err = Encode(set, WithIngest(ingest.Config{Bins: 5, BinSize: 0, Every: 1, DataMode: format.DataNaive}))
	require.Error(t, err)

	_, err = Encode(set, WithIngest(ingest.Config{Bins: 3, BinSize: 1, Every: 1, DataMode: format.DataNaive}))
	require.Error(t, err, "bin count must match the set")
}

func TestParseHeader_IngestFields(t *testing.T) {
	data, err := Encode(epidemicSet(t, 11), WithCompression(format.CompressionNone),
		WithIngest(ingest.Config{Bins: 5, BinSize: 3, Every: 1, DataMode: format.DataNaive}))
	require.NoError(t, err)

	corrupt := func(i int, v byte) []byte {
		bad := append([]byte(nil), data...)
		bad[i] = v

		return bad
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"unknown data mode", corrupt(32, 0x7)},
		{"unknown ingest flag", corrupt(33, 0x80)},
		{"reserved byte", corrupt(35, 0x1)},
		{"trailing reserved byte", corrupt(47, 0x1)},
		{"zero every", corrupt(36, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader(tt.data)
			require.ErrorIs(t, err, ErrInvalidHeader)
		})
	}

	unrecorded := corrupt(32, 0)
	_, err = ParseHeader(unrecorded)
	require.ErrorIs(t, err, ErrInvalidHeader, "settings without a data mode")
}
