package schedule

import (
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/internal/metrics"
	"github.com/arloliu/sircmp/reduce"
	"github.com/arloliu/sircmp/stats"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func exampleSet(t *testing.T) *curve.Set {
	t.Helper()

	set, err := curve.FromBins(4,
		[]curve.Curve{{1, 2, 3}, {1, 2, 4}},
		[]curve.Curve{{1, 3, 5, 5}},
	)
	require.NoError(t, err)

	return set
}

func randomSet(t *testing.T, seed uint64, sizes ...int) *curve.Set {
	t.Helper()

	const refLen = 30

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	set, err := curve.New(len(sizes))
	require.NoError(t, err)
	for bin, n := range sizes {
		for range n {
			c := make(curve.Curve, 1+rng.IntN(refLen))
			for k := range c {
				c[k] = rng.Float64()
			}
			require.NoError(t, set.Push(bin, c))
		}
	}
	require.NoError(t, set.SetReferenceLength(refLen))

	return set
}

func TestNew_Defaults(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	require.Equal(t, DefaultWorkers, s.Workers())
	require.Equal(t, DefaultCutoff, s.Cutoff())
	require.Equal(t, format.ModeAbs, s.Mode())
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithWorkers(0))
	require.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = New(WithCutoff(0))
	require.ErrorIs(t, err, ErrInvalidCutoff)

	_, err = New(WithMode(format.Mode(9)))
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestRun_Example(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(map[int]string{1: "sequential", 4: "parallel"}[workers], func(t *testing.T) {
			s, err := New(WithWorkers(workers), WithCutoff(1), WithMode(format.ModeAbs), WithLogger(discard))
			require.NoError(t, err)

			result, err := s.Run(exampleSet(t))
			require.NoError(t, err)

			mean, iter := result.At(0, 0)
			require.Equal(t, 2, iter)
			require.InDelta(t, 0.5, mean, 1e-12)

			mean, iter = result.At(0, 1)
			require.Equal(t, 2, iter)
			require.InDelta(t, 1.0, mean, 1e-12)

			// a single curve has no partner on the diagonal
			mean, iter = result.At(1, 1)
			require.Zero(t, iter)
			require.True(t, math.IsNaN(mean))

			require.Equal(t, []int{2, 1}, result.CurveCount())
		})
	}
}

func TestRun_ExampleDefaultCutoff(t *testing.T) {
	s, err := New(WithLogger(discard))
	require.NoError(t, err)

	result, err := s.Run(exampleSet(t))
	require.NoError(t, err)

	_, iter := result.At(0, 0)
	require.Equal(t, 2, iter)

	for _, cell := range [][2]int{{0, 1}, {1, 0}, {1, 1}} {
		mean, iter := result.At(cell[0], cell[1])
		require.True(t, math.IsNaN(mean))
		require.Zero(t, iter)
	}
}

func TestRun_SymmetryAndSelfExclusion(t *testing.T) {
	set := randomSet(t, 1, 4, 3, 5, 2)
	s, err := New(WithWorkers(3), WithMode(format.ModeSqrt), WithLogger(discard))
	require.NoError(t, err)

	result, err := s.Run(set)
	require.NoError(t, err)

	for i := range result.Len() {
		for j := range result.Len() {
			mi, ii := result.At(i, j)
			mj, ij := result.At(j, i)
			require.Equal(t, ii, ij)
			require.Equal(t, math.Float64bits(mi), math.Float64bits(mj))
		}
		n := set.BinLen(i)
		_, iter := result.At(i, i)
		require.Equal(t, n*(n-1), iter)
	}

	_, iter := result.At(2, 1)
	require.Equal(t, 5*3, iter)
}

func TestRun_BelowCutoffStaysNaN(t *testing.T) {
	set := randomSet(t, 2, 3, 2, 4)
	s, err := New(WithCutoff(3), WithLogger(discard))
	require.NoError(t, err)

	result, err := s.Run(set)
	require.NoError(t, err)

	for k := range result.Len() {
		mean, iter := result.At(1, k)
		require.True(t, math.IsNaN(mean))
		require.Zero(t, iter)
	}

	mean, iter := result.At(2, 0)
	require.False(t, math.IsNaN(mean))
	require.Equal(t, 12, iter)
}

func TestRun_SequentialParallelEquivalence(t *testing.T) {
	for _, mode := range format.Modes {
		t.Run(mode.String(), func(t *testing.T) {
			run := func(workers int) *stats.Stats {
				s, err := New(WithWorkers(workers), WithMode(mode), WithLogger(discard))
				require.NoError(t, err)
				result, err := s.Run(randomSet(t, 42, 6, 3, 0, 7, 4, 5))
				require.NoError(t, err)

				return result
			}

			seq, par := run(1), run(8)
			require.Equal(t, seq.Iterations(), par.Iterations())
			for i := range seq.Len() {
				for j := range seq.Len() {
					a, _ := seq.At(i, j)
					b, _ := par.At(i, j)
					require.Equal(t, math.Float64bits(a), math.Float64bits(b), "cell (%d,%d)", i, j)
				}
			}
		})
	}
}

func TestRun_CorrelationPadsSet(t *testing.T) {
	set, err := curve.FromBins(3,
		[]curve.Curve{{1, 2}, {1, 2, 3}},
		[]curve.Curve{{2, 4, 6}, {3, 2, 1}},
	)
	require.NoError(t, err)

	s, err := New(WithMode(format.ModeCorr), WithLogger(discard))
	require.NoError(t, err)

	result, err := s.Run(set)
	require.NoError(t, err)

	require.Equal(t, curve.Curve{1, 2, 2}, set.Curve(0, 0))

	// {1,2,2} vs {1,2,3}
	mean, iter := result.At(0, 0)
	require.Equal(t, 2, iter)
	require.InDelta(t, math.Sqrt(3)/2, mean, 1e-12)

	// {2,4,6} vs {3,2,1}
	mean, _ = result.At(1, 1)
	require.InDelta(t, -1.0, mean, 1e-12)
}

func TestRun_CorrelationZeroVariance(t *testing.T) {
	set, err := curve.FromBins(3,
		[]curve.Curve{{2, 2, 2}, {1, 2, 3}},
	)
	require.NoError(t, err)

	s, err := New(WithMode(format.ModeCorr), WithLogger(discard))
	require.NoError(t, err)

	result, err := s.Run(set)
	require.NoError(t, err)

	mean, iter := result.At(0, 0)
	require.Equal(t, 2, iter)
	require.True(t, math.IsNaN(mean))
}

func TestRun_ProgressAndMetrics(t *testing.T) {
	set := randomSet(t, 7, 3, 1, 4)
	var counter Counter
	m := metrics.NewRun("test", "Abs")

	s, err := New(WithWorkers(2), WithProgress(&counter), WithMetrics(m), WithLogger(discard))
	require.NoError(t, err)

	_, err = s.Run(set)
	require.NoError(t, err)

	_, workload := Plan(set, 2)
	require.Equal(t, workload, counter.Total())
	require.Equal(t, workload, counter.Done())
	require.Equal(t, uint64(9+12+16), workload)

	count, err := testutil.GatherAndCount(m.Registry(), "sircmp_jobs_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCompare(t *testing.T) {
	set := exampleSet(t)
	r, err := reduce.New(format.ModeAbs, set.ReferenceLength())
	require.NoError(t, err)

	res := Compare(set, r, Job{I: 1, J: 0})
	require.Equal(t, 1, res.I)
	require.Equal(t, 0, res.J)
	require.Equal(t, 2, res.Iterations)
	require.InDelta(t, 1.0, res.Mean, 1e-12)

	res = Compare(set, r, Job{I: 1, J: 1})
	require.Zero(t, res.Iterations)
	require.True(t, math.IsNaN(res.Mean))
}
