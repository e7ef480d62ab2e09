package reduce

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/arloliu/sircmp/curve"
)

// Weights returns the number of conceptual positions covered by each stage of Ragged
// for curves of length e1 and e2 compared against reference length refLen.
//
// prefix is the overlap min(e1, e2), tail is |e1-e2| and extrapolation is
// refLen - max(e1, e2), clamped at zero. The three always sum to
// max(refLen, e1, e2); for curves no longer than refLen that is exactly refLen.
func Weights(e1, e2, refLen int) (prefix, tail, extrapolation int) {
	shorter, longer := min(e1, e2), max(e1, e2)

	return shorter, longer - shorter, max(refLen-longer, 0)
}

// Ragged computes the weighted mean of f over two curves of possibly different lengths.
//
// The comparison spans max(refLen, len(a), len(b)) conceptual positions:
//  1. the overlapping prefix reduces a[k] against b[k];
//  2. the tail reduces the longer curve against the last sample of the shorter one;
//  3. the extrapolation reduces the two last samples once and weights the result by
//     the positions left up to refLen.
//
// Stages with zero weight are skipped without calling f. When both curves have the
// same length and that length is at least refLen, the result is the plain mean of
// f over the prefix. A refLen of 0 disables extrapolation.
//
// Parameters:
//   - a, b: Curves to compare
//   - refLen: Reference length L of the curve set
//   - f: Elementwise reduction
//
// Returns:
//   - float64: Weighted mean, or NaN if either curve is empty
func Ragged(a, b curve.Curve, refLen int, f Func) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.NaN()
	}

	prefix, tail, extrapolation := Weights(len(a), len(b), refLen)

	var sum float64
	for k := range prefix {
		sum += f(a[k], b[k])
	}
	prefixMean := sum / float64(prefix)

	if tail == 0 && extrapolation == 0 {
		return prefixMean
	}

	var (
		means   [3]float64
		weights [3]float64
		n       int
	)
	means[n], weights[n] = prefixMean, float64(prefix)
	n++

	if tail > 0 {
		longer, last := b, a.Last()
		if len(a) > len(b) {
			longer, last = a, b.Last()
		}
		sum = 0
		for _, v := range longer[prefix:] {
			sum += f(v, last)
		}
		means[n], weights[n] = sum/float64(tail), float64(tail)
		n++
	}

	if extrapolation > 0 {
		means[n], weights[n] = f(a.Last(), b.Last()), float64(extrapolation)
		n++
	}

	return stat.Mean(means[:n], weights[:n])
}

// Correlation returns the Pearson correlation coefficient of a and b.
//
// The curves must have equal length; correlation mode pads the whole set to a common
// length before any comparison. Unequal or empty inputs return NaN, and so does a
// curve with zero variance.
func Correlation(a, b curve.Curve) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	return stat.Correlation(a, b, nil)
}
