package snapshot

import (
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/ingest"
	"github.com/arloliu/sircmp/internal/options"
)

// Ingestion flags, header byte 33.
const (
	IngestNormalize  = 0x01
	IngestNoSubtract = 0x02

	ingestKnownMask = IngestNormalize | IngestNoSubtract
)

// ErrIngestMismatch is returned when a snapshot was parsed with other settings than a run asks for.
var ErrIngestMismatch = errors.New("snapshot: ingestion settings differ")

// WithIngest records the parser settings the set was built with.
//
// Without it the header leaves the ingestion fields zero and MatchIngest rejects
// every request, since nothing is known about how the curves were cut.
func WithIngest(cfg ingest.Config) Option {
	return options.New(func(ec *encoderConfig) error {
		if cfg.DataMode != format.DataSparse && cfg.DataMode != format.DataNaive {
			return fmt.Errorf("snapshot: unsupported data mode %d", cfg.DataMode)
		}
		if cfg.Every < 1 || cfg.BinSize < 1 || cfg.Every > math.MaxUint32 || cfg.BinSize > math.MaxUint32 {
			return fmt.Errorf("snapshot: every %d and bin size %d must fit in [1, 2^32)", cfg.Every, cfg.BinSize)
		}
		ec.ingest = &cfg

		return nil
	})
}

// HasIngest reports whether the ingestion settings were recorded.
func (h Header) HasIngest() bool {
	return h.DataMode != 0
}

// IngestConfig returns the recorded parser settings; ok is false when none were recorded.
func (h Header) IngestConfig() (cfg ingest.Config, ok bool) {
	if !h.HasIngest() {
		return ingest.Config{}, false
	}

	return ingest.Config{
		Bins:       int(h.BinCount),
		BinSize:    int(h.BinSize),
		Every:      int(h.Every),
		Normalize:  h.IngestFlags&IngestNormalize != 0,
		NoSubtract: h.IngestFlags&IngestNoSubtract != 0,
		DataMode:   h.DataMode,
	}, true
}

// MatchIngest checks that the snapshot holds curves parsed the way want describes.
//
// Parameters:
//   - want: Settings of the run; a zero BinSize skips the bin size check
//
// Returns:
//   - error: ErrIngestMismatch naming the first differing setting, or nil
func (h Header) MatchIngest(want ingest.Config) error {
	got, ok := h.IngestConfig()
	if !ok {
		return fmt.Errorf("%w: snapshot does not record its ingestion settings", ErrIngestMismatch)
	}

	switch {
	case got.DataMode != want.DataMode:
		return fmt.Errorf("%w: snapshot holds %s data, run needs %s", ErrIngestMismatch, got.DataMode, want.DataMode)
	case got.Bins != want.Bins:
		return fmt.Errorf("%w: snapshot has %d bins, run has %d", ErrIngestMismatch, got.Bins, want.Bins)
	case want.BinSize != 0 && got.BinSize != want.BinSize:
		return fmt.Errorf("%w: snapshot bin size %d, run bin size %d", ErrIngestMismatch, got.BinSize, want.BinSize)
	case got.Every != want.Every:
		return fmt.Errorf("%w: snapshot every %d, run every %d", ErrIngestMismatch, got.Every, want.Every)
	case got.Normalize != want.Normalize:
		return fmt.Errorf("%w: snapshot normalize %t, run normalize %t", ErrIngestMismatch, got.Normalize, want.Normalize)
	case got.NoSubtract != want.NoSubtract:
		return fmt.Errorf("%w: snapshot no-subtract %t, run no-subtract %t", ErrIngestMismatch, got.NoSubtract, want.NoSubtract)
	}

	return nil
}

func (h *Header) setIngest(cfg *ingest.Config) {
	if cfg == nil {
		return
	}
	h.DataMode = cfg.DataMode
	h.Every = uint32(cfg.Every)     //nolint:gosec // checked by WithIngest
	h.BinSize = uint32(cfg.BinSize) //nolint:gosec // checked by WithIngest
	if cfg.Normalize {
		h.IngestFlags |= IngestNormalize
	}
	if cfg.NoSubtract {
		h.IngestFlags |= IngestNoSubtract
	}
}

func (h Header) validateIngest() error {
	switch {
	case h.IngestFlags&^ingestKnownMask != 0:
		return fmt.Errorf("%w: ingest flags 0x%02x", ErrInvalidHeader, h.IngestFlags)
	case !h.HasIngest():
		if h.IngestFlags != 0 || h.Every != 0 || h.BinSize != 0 {
			return fmt.Errorf("%w: ingestion settings without a data mode", ErrInvalidHeader)
		}
	case h.DataMode != format.DataSparse && h.DataMode != format.DataNaive:
		return fmt.Errorf("%w: data mode %d", ErrInvalidHeader, h.DataMode)
	case h.Every == 0 || h.BinSize == 0:
		return fmt.Errorf("%w: zero every or bin size", ErrInvalidHeader)
	}

	return nil
}
