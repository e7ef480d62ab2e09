package reduce

import (
	"fmt"

	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
)

// Reducer compares curve pairs under one fixed mode and reference length.
//
// It is immutable after New and safe for concurrent use by scheduler workers.
type Reducer struct {
	fn     Func
	mode   format.Mode
	refLen int
}

// New creates a reducer for mode.
//
// Parameters:
//   - mode: Comparison mode
//   - refLen: Reference length L used by the elementwise modes (ignored by ModeCorr)
//
// Returns:
//   - *Reducer: Reducer ready for Pair
//   - error: ErrInvalidMode for an unknown mode
func New(mode format.Mode, refLen int) (*Reducer, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}

	r := &Reducer{mode: mode, refLen: refLen}
	if mode.Elementwise() {
		fn, err := ForMode(mode)
		if err != nil {
			return nil, err
		}
		r.fn = fn
	}

	return r, nil
}

// Mode returns the comparison mode.
func (r *Reducer) Mode() format.Mode {
	return r.mode
}

// ReferenceLength returns the reference length used for extrapolation.
func (r *Reducer) ReferenceLength() int {
	return r.refLen
}

// Pair compares two curves and returns their dissimilarity (or correlation).
func (r *Reducer) Pair(a, b curve.Curve) float64 {
	if r.mode == format.ModeCorr {
		return Correlation(a, b)
	}

	return Ragged(a, b, r.refLen, r.fn)
}
