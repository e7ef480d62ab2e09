package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/sircmp/curve"
)

func TestNew(t *testing.T) {
	sizes := []int{3, 0, 5}
	s := New(sizes)
	sizes[0] = 99

	require.Equal(t, 3, s.Len())
	require.Equal(t, []int{3, 0, 5}, s.CurveCount(), "population is copied at construction")
	for i := range 3 {
		for j := range 3 {
			mean, iter := s.At(i, j)
			require.True(t, math.IsNaN(mean))
			require.Zero(t, iter)
		}
	}
}

func TestNewFromSet(t *testing.T) {
	set, err := curve.FromBins(2, []curve.Curve{{1}, {2}}, []curve.Curve{{3}})
	require.NoError(t, err)

	s := NewFromSet(set)
	require.Equal(t, []int{2, 1}, s.CurveCount())
	require.Len(t, s.Mean(), 2)
	require.Len(t, s.Iterations(), 2)
}

func TestStats_PushUnchecked(t *testing.T) {
	s := New([]int{2, 2, 2})

	s.PushUnchecked(2, 0, 0.75, 4)
	s.PushResult(Result{I: 1, J: 1, Mean: 0.25, Iterations: 2})

	mean, iter := s.At(2, 0)
	require.Equal(t, 0.75, mean)
	require.Equal(t, 4, iter)
	mean, iter = s.At(0, 2)
	require.Equal(t, 0.75, mean)
	require.Equal(t, 4, iter)

	mean, iter = s.At(1, 1)
	require.Equal(t, 0.25, mean)
	require.Equal(t, 2, iter)

	mean, _ = s.At(1, 0)
	require.True(t, math.IsNaN(mean))
}

func TestStats_PushUncheckedNaN(t *testing.T) {
	s := New([]int{2, 2})
	s.PushUnchecked(1, 0, math.NaN(), 4)

	mean, iter := s.At(0, 1)
	require.True(t, math.IsNaN(mean))
	require.Equal(t, 4, iter)
}
