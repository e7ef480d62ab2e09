package snapshot

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/arloliu/sircmp/compress"
	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/ingest"
	"github.com/arloliu/sircmp/internal/encoding"
	"github.com/arloliu/sircmp/internal/hash"
	"github.com/arloliu/sircmp/internal/options"
	"github.com/arloliu/sircmp/internal/pool"
)

type encoderConfig struct {
	logger      *slog.Logger
	ingest      *ingest.Config
	sources     []string
	compression format.CompressionType
	encoding    format.EncodingType
}

// Option configures Encode.
type Option = options.Option[*encoderConfig]

// WithCompression sets the body compression. The default is format.CompressionZstd.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(cfg *encoderConfig) error {
		if _, err := compress.GetCodec(c); err != nil {
			return err
		}
		cfg.compression = c

		return nil
	})
}

// WithEncoding sets the sample encoding. The default is format.TypeGorilla.
func WithEncoding(e format.EncodingType) Option {
	return options.New(func(cfg *encoderConfig) error {
		if e != format.TypeRaw && e != format.TypeGorilla {
			return fmt.Errorf("snapshot: unsupported sample encoding %s", e)
		}
		cfg.encoding = e

		return nil
	})
}

// WithSources records the names of the files the set was parsed from.
func WithSources(sources []string) Option {
	return options.NoError(func(cfg *encoderConfig) {
		cfg.sources = sources
	})
}

// WithLogger reports compression statistics to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(cfg *encoderConfig) {
		cfg.logger = logger
	})
}

// Encode serializes set into a snapshot.
//
// Parameters:
//   - set: Curve set to store
//   - opts: Compression, sample encoding, ingestion settings, sources and logger
//
// Returns:
//   - []byte: Snapshot bytes, owned by the caller
//   - error: Invalid option, a set exceeding the uint32 limits, or a compression failure
func Encode(set *curve.Set, opts ...Option) ([]byte, error) {
	cfg := &encoderConfig{
		compression: format.CompressionZstd,
		encoding:    format.TypeGorilla,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.ingest != nil && cfg.ingest.Bins != set.BinCount() {
		return nil, fmt.Errorf("snapshot: ingestion settings name %d bins, set has %d", cfg.ingest.Bins, set.BinCount())
	}

	total := set.TotalCurves()
	if set.BinCount() > math.MaxUint32 || total > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bins, %d curves", ErrTooLarge, set.BinCount(), total)
	}

	body := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(body)

	samples := 0
	for i := range set.BinCount() {
		body.B = engine.AppendUint32(body.B, uint32(set.BinLen(i))) //nolint:gosec
	}
	for i := range set.BinCount() {
		for _, c := range set.Bin(i) {
			if len(c) > math.MaxUint32 {
				return nil, fmt.Errorf("%w: curve of %d samples", ErrTooLarge, len(c))
			}
			body.B = engine.AppendUint32(body.B, uint32(len(c))) //nolint:gosec
			samples += len(c)
		}
	}

	var err error
	if body.B, err = appendSources(body.B, cfg.sources); err != nil {
		return nil, err
	}

	var enc encoding.ColumnarEncoder[float64]
	if cfg.encoding == format.TypeGorilla {
		enc = encoding.NewNumericGorillaEncoder()
	} else {
		enc = encoding.NewNumericRawEncoder(engine)
	}
	defer enc.Finish()

	for i := range set.BinCount() {
		for _, c := range set.Bin(i) {
			enc.WriteSlice(c)
		}
	}
	body.B = append(body.B, enc.Bytes()...)

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Compress(body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("snapshot: compress body: %w", err)
	}

	h := Header{
		Version:     Version,
		Encoding:    cfg.encoding,
		Compression: cfg.compression,
		BinCount:    uint32(set.BinCount()), //nolint:gosec
		CurveCount:  uint32(total),          //nolint:gosec
		Checksum:    hash.Bytes(body.Bytes()),
	}
	h.setIngest(cfg.ingest)
	if set.HasReferenceLength() {
		h.Flags |= FlagReferenceLength
		h.ReferenceLength = uint64(set.ReferenceLength()) //nolint:gosec
	}

	if cfg.logger != nil {
		st := compress.CompressionStats{
			Algorithm:      cfg.compression,
			OriginalSize:   int64(body.Len()),
			CompressedSize: int64(len(payload)),
		}
		cfg.logger.Debug("snapshot encoded",
			"curves", total,
			"samples", samples,
			"encoding", cfg.encoding,
			"compression", st.Algorithm,
			"ratio", st.CompressionRatio(),
			"savings_pct", st.SpaceSavings(),
		)
	}

	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, h.Bytes()...)
	out = append(out, payload...)

	return out, nil
}

// WriteFile encodes set and writes it to path.
func WriteFile(path string, set *curve.Set, opts ...Option) error {
	data, err := Encode(set, opts...)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644) //nolint:gosec
}
