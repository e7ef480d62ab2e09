package reduce

import (
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/sircmp/format"
)

var (
	ErrNotElementwise = errors.New("reduce: mode is not elementwise")
	ErrInvalidMode    = errors.New("reduce: invalid mode")
)

// Func reduces one pair of samples to a non-negative dissimilarity.
type Func func(a, b float64) float64

// Abs returns |a-b|.
func Abs(a, b float64) float64 {
	return math.Abs(a - b)
}

// Sqrt returns sqrt(|a-b|).
func Sqrt(a, b float64) float64 {
	return math.Sqrt(math.Abs(a - b))
}

// Cbrt returns cbrt(|a-b|).
func Cbrt(a, b float64) float64 {
	return math.Cbrt(math.Abs(a - b))
}

// ForMode returns the elementwise reduction of mode.
//
// Returns ErrNotElementwise for format.ModeCorr and ErrInvalidMode for an unknown mode.
func ForMode(mode format.Mode) (Func, error) {
	switch mode {
	case format.ModeAbs:
		return Abs, nil
	case format.ModeSqrt:
		return Sqrt, nil
	case format.ModeCbrt:
		return Cbrt, nil
	case format.ModeCorr:
		return nil, fmt.Errorf("%w: %s", ErrNotElementwise, mode)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}
}
