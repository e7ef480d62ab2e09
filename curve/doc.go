// Package curve holds the in-memory curve set that every comparison reads from.
//
// A Set groups simulated trajectories (curves) into bins by initial condition and
// records the reference length L: the full simulation horizon, against which
// curves that went extinct early are compared. Curves inside a bin may have
// different lengths; every stored curve is non-empty.
//
// Construction is single-threaded:
//
//	set, err := curve.New(bins)
//	if err != nil {
//	    return err
//	}
//	_ = set.SetReferenceLength(1000)
//	_ = set.Push(0, curve.Curve{0.1, 0.4, 0.2})
//
// Once built, a Set is shared read-only between comparison workers.
package curve
