// Package stats holds the result of a comparison run: a symmetric matrix of mean
// dissimilarities, a symmetric matrix of the number of curve pairs behind each mean,
// and the curve population of every bin.
package stats

import (
	"math"
	"slices"

	"github.com/arloliu/sircmp/curve"
)

// Stats is the comparison matrix of a run.
//
// Entries that were never written keep their defaults: NaN mean and zero
// iterations, the "no data" sentinel for bin pairs below the population cutoff.
//
// Stats does no locking. Each (i, j) cell has exactly one writer; the scheduler
// collects per-job results and merges them after every worker has finished.
type Stats struct {
	mean       [][]float64
	iterations [][]int
	curveCount []int
}

// New creates an empty matrix sized for len(binSizes) bins.
//
// binSizes is copied and reported unchanged by CurveCount.
func New(binSizes []int) *Stats {
	n := len(binSizes)
	s := &Stats{
		mean:       make([][]float64, n),
		iterations: make([][]int, n),
		curveCount: slices.Clone(binSizes),
	}
	for i := range n {
		row := make([]float64, n)
		for j := range row {
			row[j] = math.NaN()
		}
		s.mean[i] = row
		s.iterations[i] = make([]int, n)
	}

	return s
}

// NewFromSet creates an empty matrix for the bins of set.
func NewFromSet(set *curve.Set) *Stats {
	return New(set.BinSizes())
}

// Result is the owned outcome of one bin-pair job.
type Result struct {
	I, J       int
	Mean       float64
	Iterations int
}

// PushUnchecked writes mean and iterations to both (i, j) and (j, i).
//
// There is no bounds or value validation: callers guarantee valid indices and
// that each pair is written once.
func (s *Stats) PushUnchecked(i, j int, mean float64, iterations int) {
	s.mean[i][j] = mean
	s.mean[j][i] = mean
	s.iterations[i][j] = iterations
	s.iterations[j][i] = iterations
}

// PushResult writes r with PushUnchecked.
func (s *Stats) PushResult(r Result) {
	s.PushUnchecked(r.I, r.J, r.Mean, r.Iterations)
}

// Len returns the number of bins.
func (s *Stats) Len() int {
	return len(s.curveCount)
}

// At returns the mean and iteration count of bin pair (i, j).
func (s *Stats) At(i, j int) (float64, int) {
	return s.mean[i][j], s.iterations[i][j]
}

// Mean returns the mean matrix. It must not be modified.
func (s *Stats) Mean() [][]float64 {
	return s.mean
}

// Iterations returns the iteration count matrix. It must not be modified.
func (s *Stats) Iterations() [][]int {
	return s.iterations
}

// CurveCount returns the per-bin curve population captured at construction.
func (s *Stats) CurveCount() []int {
	return s.curveCount
}
