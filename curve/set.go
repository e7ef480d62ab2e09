package curve

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/arloliu/sircmp/internal/hash"
)

var (
	ErrInvalidBinCount      = errors.New("curve: bin count must be at least 1")
	ErrBinOutOfRange        = errors.New("curve: bin index out of range")
	ErrEmptyCurve           = errors.New("curve: empty curve")
	ErrReferenceLengthFixed = errors.New("curve: reference length already set")
	ErrInvalidLimit         = errors.New("curve: limit must be at least 1")
	ErrBinCountMismatch     = errors.New("curve: bin count mismatch")
)

// Curve is one simulated trajectory: infection counts (possibly normalized) per
// time step, truncated at its extinction step.
type Curve []float64

// Last returns the final sample of the curve. It panics on an empty curve.
func (c Curve) Last() float64 {
	return c[len(c)-1]
}

// Max returns the largest sample of the curve. It panics on an empty curve.
func (c Curve) Max() float64 {
	return slices.Max(c)
}

// Set holds every curve of a run grouped into bins by initial condition.
//
// A Set is built once by the ingestion layer through Push and SetReferenceLength
// and is read-only afterwards; concurrent readers need no locking. The only
// mutations after ingestion are the explicit whole-set passes PadToMaxLength and
// LimitEntries, which must run before comparison starts.
type Set struct {
	bins   [][]Curve
	refLen int
	refSet bool
}

// New creates an empty set with binCount bins.
//
// Parameters:
//   - binCount: Number of initial-condition bins (at least 1)
//
// Returns:
//   - *Set: Empty curve set
//   - error: ErrInvalidBinCount if binCount < 1
func New(binCount int) (*Set, error) {
	if binCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBinCount, binCount)
	}

	return &Set{bins: make([][]Curve, binCount)}, nil
}

// FromBins builds a set from already grouped curves with the given reference length.
// The curves are used as-is, not copied.
func FromBins(refLen int, bins ...[]Curve) (*Set, error) {
	s, err := New(len(bins))
	if err != nil {
		return nil, err
	}
	for i, bin := range bins {
		for _, c := range bin {
			if err := s.Push(i, c); err != nil {
				return nil, err
			}
		}
	}
	if err := s.SetReferenceLength(refLen); err != nil {
		return nil, err
	}

	return s, nil
}

// Push appends a curve to bin.
//
// Returns ErrBinOutOfRange for an invalid bin and ErrEmptyCurve for an empty curve;
// empty curves are never stored.
func (s *Set) Push(bin int, c Curve) error {
	if bin < 0 || bin >= len(s.bins) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrBinOutOfRange, bin, len(s.bins))
	}
	if len(c) == 0 {
		return fmt.Errorf("%w: bin %d", ErrEmptyCurve, bin)
	}
	s.bins[bin] = append(s.bins[bin], c)

	return nil
}

// Append moves every curve of other to the end of the matching bin of s.
//
// The reference length of s is not changed. Both sets must have the same number
// of bins; other must not be used afterwards.
func (s *Set) Append(other *Set) error {
	if len(other.bins) != len(s.bins) {
		return fmt.Errorf("%w: %d and %d", ErrBinCountMismatch, len(s.bins), len(other.bins))
	}
	for i, bin := range other.bins {
		s.bins[i] = append(s.bins[i], bin...)
	}

	return nil
}

// SetReferenceLength fixes the reference length L of the set.
//
// The first call wins. Repeating the same value is a no-op; a different value
// returns ErrReferenceLengthFixed.
func (s *Set) SetReferenceLength(n int) error {
	if s.refSet {
		if n == s.refLen {
			return nil
		}

		return fmt.Errorf("%w: have %d, got %d", ErrReferenceLengthFixed, s.refLen, n)
	}
	s.refLen = n
	s.refSet = true

	return nil
}

// ReferenceLength returns the reference length L, or 0 if it was never set.
func (s *Set) ReferenceLength() int {
	return s.refLen
}

// HasReferenceLength reports whether the reference length has been fixed.
func (s *Set) HasReferenceLength() bool {
	return s.refSet
}

// BinCount returns the number of bins.
func (s *Set) BinCount() int {
	return len(s.bins)
}

// BinLen returns the number of curves in bin i.
func (s *Set) BinLen(i int) int {
	return len(s.bins[i])
}

// Bin returns the curves of bin i. The slice must not be modified.
func (s *Set) Bin(i int) []Curve {
	return s.bins[i]
}

// Curve returns curve k of bin i.
func (s *Set) Curve(i, k int) Curve {
	return s.bins[i][k]
}

// BinSizes returns the population of every bin.
func (s *Set) BinSizes() []int {
	sizes := make([]int, len(s.bins))
	for i, bin := range s.bins {
		sizes[i] = len(bin)
	}

	return sizes
}

// TotalCurves returns the number of curves across all bins.
func (s *Set) TotalCurves() int {
	total := 0
	for _, bin := range s.bins {
		total += len(bin)
	}

	return total
}

// MaxLength returns the length of the longest curve, 0 for an empty set.
func (s *Set) MaxLength() int {
	maxLen := 0
	for _, bin := range s.bins {
		for _, c := range bin {
			maxLen = max(maxLen, len(c))
		}
	}

	return maxLen
}

// PadToMaxLength extends every curve to the length of the longest curve in the set
// by repeating its final sample, and returns that common length.
//
// This is the one-time preprocessing pass that correlation mode requires: Pearson
// correlation is only defined for equal-length inputs. It is unrelated to the
// per-pair tail handling of the elementwise modes.
func (s *Set) PadToMaxLength() int {
	maxLen := s.MaxLength()
	for _, bin := range s.bins {
		for k, c := range bin {
			if missing := maxLen - len(c); missing > 0 {
				last := c.Last()
				// clip first: c may share its backing array with the next curve
				padded := slices.Grow(slices.Clip(c), missing)
				for range missing {
					padded = append(padded, last)
				}
				bin[k] = padded
			}
		}
	}

	return maxLen
}

// LimitEntries caps every bin at limit curves.
//
// Bins above the limit are shuffled with rng and truncated, so the retained curves
// are a uniform random subset. The generator is owned by the caller; the same seed
// yields the same subset.
func (s *Set) LimitEntries(limit int, rng *rand.Rand) error {
	if limit < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	for i, bin := range s.bins {
		if len(bin) <= limit {
			continue
		}
		rng.Shuffle(len(bin), func(a, b int) {
			bin[a], bin[b] = bin[b], bin[a]
		})
		s.bins[i] = slices.Clip(bin[:limit])
	}

	return nil
}

// AverageEntries returns the mean bin population, rounded down.
func (s *Set) AverageEntries() int {
	return s.TotalCurves() / len(s.bins)
}

// MaxNEntries returns the n largest bin populations in descending order.
func (s *Set) MaxNEntries(n int) []int {
	sizes := s.BinSizes()
	slices.SortFunc(sizes, func(a, b int) int { return cmp.Compare(b, a) })

	return sizes[:min(n, len(sizes))]
}

// MinNEntries returns the n smallest bin populations in ascending order.
func (s *Set) MinNEntries(n int) []int {
	sizes := s.BinSizes()
	slices.Sort(sizes)

	return sizes[:min(n, len(sizes))]
}

// Fingerprint returns an xxHash64 digest of the bin structure, the reference
// length and every sample. Two sets with the same fingerprint hold the same data.
func (s *Set) Fingerprint() uint64 {
	d := hash.NewDigest()
	d.Int(len(s.bins))
	d.Int(s.refLen)
	for _, bin := range s.bins {
		d.Int(len(bin))
		for _, c := range bin {
			d.Floats(c)
		}
	}

	return d.Sum64()
}

// Normalize divides every sample of c by the curve's own maximum, in place.
//
// Empty curves are left untouched. A curve whose maximum is zero becomes NaN
// (0/0), mirroring the numeric behavior of the comparison stage.
func Normalize(c Curve) {
	if len(c) == 0 {
		return
	}
	inverse := 1.0 / c.Max()
	for i := range c {
		c[i] *= inverse
	}
}
