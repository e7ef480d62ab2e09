// Package schedule computes the comparison matrix of a curve set.
//
// The scheduler enumerates every bin pair (i, j) with i >= j whose bins both hold
// at least cutoff curves, compares every curve of bin i with every curve of bin j
// (skipping a curve against itself on the diagonal), and stores the mean in a
// stats.Stats. Pairs run sequentially in bin order or on a fixed-size worker pool;
// both produce bit-identical matrices because each job computes its own result and
// results are merged after all workers finish.
//
// Typical use:
//
//	s, err := schedule.New(
//	    schedule.WithMode(format.ModeAbs),
//	    schedule.WithWorkers(runtime.NumCPU()),
//	    schedule.WithCutoff(2),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := s.Run(set)
//
// Runs cannot be cancelled; a started run always covers the full job list.
package schedule
