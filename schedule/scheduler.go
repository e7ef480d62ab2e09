package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/internal/metrics"
	"github.com/arloliu/sircmp/internal/options"
	"github.com/arloliu/sircmp/reduce"
	"github.com/arloliu/sircmp/stats"
)

const (
	DefaultWorkers = 1
	DefaultCutoff  = 2
)

var (
	ErrInvalidWorkers = errors.New("schedule: worker count must be at least 1")
	ErrInvalidCutoff  = errors.New("schedule: cutoff must be at least 1")
	ErrInvalidMode    = errors.New("schedule: invalid mode")
)

// Option configures a Scheduler.
type Option = options.Option[*Scheduler]

// WithWorkers sets the size of the worker pool. One worker runs every job
// sequentially on the calling goroutine.
func WithWorkers(n int) Option {
	return options.New(func(s *Scheduler) error {
		if n < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidWorkers, n)
		}
		s.workers = n

		return nil
	})
}

// WithCutoff sets the minimum bin population for a bin to take part in any pair.
func WithCutoff(n int) Option {
	return options.New(func(s *Scheduler) error {
		if n < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidCutoff, n)
		}
		s.cutoff = n

		return nil
	})
}

// WithMode sets the comparison mode. The default is format.ModeAbs.
func WithMode(mode format.Mode) Option {
	return options.New(func(s *Scheduler) error {
		if !mode.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidMode, mode)
		}
		s.mode = mode

		return nil
	})
}

// WithProgress reports the workload and every finished job to p.
func WithProgress(p Progress) Option {
	return options.NoError(func(s *Scheduler) {
		if p != nil {
			s.progress = p
		}
	})
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	})
}

// WithMetrics records job counters in m.
func WithMetrics(m *metrics.Run) Option {
	return options.NoError(func(s *Scheduler) {
		s.metrics = m
	})
}

// Scheduler runs the pairwise comparison of a curve set.
type Scheduler struct {
	progress Progress
	logger   *slog.Logger
	metrics  *metrics.Run
	workers  int
	cutoff   int
	mode     format.Mode
}

// New creates a scheduler.
//
// Invalid settings (a worker count or cutoff below 1, an unknown mode) are
// reported here, before any computation starts.
//
// Parameters:
//   - opts: Scheduler options
//
// Returns:
//   - *Scheduler: Configured scheduler
//   - error: First invalid option
func New(opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		progress: nopProgress{},
		logger:   slog.Default(),
		workers:  DefaultWorkers,
		cutoff:   DefaultCutoff,
		mode:     format.ModeAbs,
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// Workers returns the configured pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Cutoff returns the configured minimum bin population.
func (s *Scheduler) Cutoff() int {
	return s.cutoff
}

// Mode returns the comparison mode.
func (s *Scheduler) Mode() format.Mode {
	return s.mode
}

// Run compares every eligible bin pair of set.
//
// In correlation mode every curve of set is first padded to the longest curve
// length; this mutates set and happens once per run. Bin pairs below the cutoff
// keep a NaN mean and zero iterations in the result.
//
// Parameters:
//   - set: Curve set, read-only for the duration of the run
//
// Returns:
//   - *stats.Stats: Comparison matrix
//   - error: Invalid reducer configuration
func (s *Scheduler) Run(set *curve.Set) (*stats.Stats, error) {
	if s.mode == format.ModeCorr {
		n := set.PadToMaxLength()
		s.logger.Debug("padded curves for correlation", "length", n)
	}

	reducer, err := reduce.New(s.mode, set.ReferenceLength())
	if err != nil {
		return nil, err
	}

	jobs, workload := Plan(set, s.cutoff)
	skipped := SkippedBins(set, s.cutoff)
	s.progress.SetTotal(workload)
	s.metrics.SetPlan(workload, set.TotalCurves(), skipped)

	s.logger.Info("comparison planned",
		"mode", s.mode,
		"bins", set.BinCount(),
		"skipped_bins", skipped,
		"jobs", len(jobs),
		"workload", workload,
		"workers", s.workers,
	)

	start := time.Now()
	results := make([]stats.Result, len(jobs))

	if s.workers == 1 {
		for idx, job := range jobs {
			results[idx] = s.runJob(set, reducer, job)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for idx, job := range jobs {
			g.Go(func() error {
				results[idx] = s.runJob(set, reducer, job)
				return nil
			})
		}
		_ = g.Wait()
	}

	result := stats.NewFromSet(set)
	for _, r := range results {
		result.PushResult(r)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveDuration(elapsed)
	s.logger.Info("comparison finished", "jobs", len(jobs), "elapsed", elapsed)

	return result, nil
}

func (s *Scheduler) runJob(set *curve.Set, reducer *reduce.Reducer, job Job) stats.Result {
	r := Compare(set, reducer, job)
	s.progress.Add(uint64(set.BinLen(job.I)) * uint64(set.BinLen(job.J)))
	s.metrics.ObserveJob(r.Iterations)

	return r
}

// Compare reduces every curve pair of job and returns the mean.
//
// On the diagonal a curve is never compared with itself, so a bin of n curves
// contributes n*(n-1) pairs. A job without any pair yields a NaN mean.
func Compare(set *curve.Set, reducer *reduce.Reducer, job Job) stats.Result {
	binI, binJ := set.Bin(job.I), set.Bin(job.J)
	self := job.Self()

	var (
		sum        float64
		iterations int
	)
	for k, a := range binI {
		for l, b := range binJ {
			if self && k == l {
				continue
			}
			sum += reducer.Pair(a, b)
			iterations++
		}
	}

	mean := math.NaN()
	if iterations > 0 {
		mean = sum / float64(iterations)
	}

	return stats.Result{I: job.I, J: job.J, Mean: mean, Iterations: iterations}
}
