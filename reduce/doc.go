// Package reduce compares two curves and collapses the comparison into one scalar.
//
// There are two families of comparison:
//
//   - Elementwise modes (Abs, Sqrt, Cbrt) reduce every sample pair with a Func and
//     average the results with Ragged, which handles curves of different lengths by
//     holding the shorter curve at its final value and extrapolating both curves
//     flat out to the reference length L.
//   - Correlation mode computes the Pearson coefficient of two equal-length curves.
//
// Reducer is the closed dispatch over the four modes used by the scheduler:
//
//	r, err := reduce.New(format.ModeSqrt, set.ReferenceLength())
//	if err != nil {
//	    return err
//	}
//	d := r.Pair(set.Curve(0, 0), set.Curve(1, 0))
//
// Every function in this package is pure and safe for concurrent use.
package reduce
