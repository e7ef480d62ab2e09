package schedule

import (
	"sync/atomic"

	"github.com/arloliu/sircmp/curve"
)

// Job is one bin pair to compare. I >= J always holds.
type Job struct {
	I, J int
}

// Self reports whether the job compares a bin with itself.
func (j Job) Self() bool {
	return j.I == j.J
}

// Plan lists the eligible bin pairs of set in bin-index order.
//
// A pair is eligible when both bins hold at least cutoff curves. The returned
// workload is the sum of n_i*n_j over eligible pairs; it only sizes progress
// reporting and has no influence on scheduling.
//
// Parameters:
//   - set: Curve set to plan over
//   - cutoff: Minimum bin population
//
// Returns:
//   - []Job: Eligible pairs ordered by I, then J
//   - uint64: Estimated number of curve-pair reductions
func Plan(set *curve.Set, cutoff int) ([]Job, uint64) {
	var (
		jobs     []Job
		workload uint64
	)

	for i := range set.BinCount() {
		ni := set.BinLen(i)
		if ni < cutoff {
			continue
		}
		for j := range i + 1 {
			nj := set.BinLen(j)
			if nj < cutoff {
				continue
			}
			jobs = append(jobs, Job{I: i, J: j})
			workload += uint64(ni) * uint64(nj)
		}
	}

	return jobs, workload
}

// SkippedBins returns how many bins of set hold fewer than cutoff curves.
func SkippedBins(set *curve.Set, cutoff int) int {
	skipped := 0
	for i := range set.BinCount() {
		if set.BinLen(i) < cutoff {
			skipped++
		}
	}

	return skipped
}

// Progress receives the planned workload once and then the size of every finished job.
//
// Add is called concurrently from worker goroutines.
type Progress interface {
	SetTotal(total uint64)
	Add(n uint64)
}

// Counter is a lock-free Progress that only counts.
type Counter struct {
	total atomic.Uint64
	done  atomic.Uint64
}

var _ Progress = (*Counter)(nil)

// SetTotal records the planned workload.
func (c *Counter) SetTotal(total uint64) {
	c.total.Store(total)
}

// Add advances the counter by n.
func (c *Counter) Add(n uint64) {
	c.done.Add(n)
}

// Total returns the planned workload.
func (c *Counter) Total() uint64 {
	return c.total.Load()
}

// Done returns the accumulated count.
func (c *Counter) Done() uint64 {
	return c.done.Load()
}

type nopProgress struct{}

func (nopProgress) SetTotal(uint64) {}
func (nopProgress) Add(uint64)      {}
