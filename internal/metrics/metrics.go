// Package metrics records per-run comparison counters in a private Prometheus
// registry and exports them as a node-exporter textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sircmp"

// Run holds the collectors of one comparison run.
//
// All methods are safe for concurrent use and are no-ops on a nil *Run, so
// callers can pass a nil Run when metrics are disabled.
type Run struct {
	registry    *prometheus.Registry
	jobs        prometheus.Counter
	comparisons prometheus.Counter
	skipped     prometheus.Gauge
	workload    prometheus.Gauge
	curves      prometheus.Gauge
	duration    prometheus.Gauge
}

// NewRun creates the collectors for a run and registers them.
//
// Parameters:
//   - runID: Run identifier attached to every series as the run_id label
//   - mode: Comparison mode name attached as the mode label
//
// Returns:
//   - *Run: Collectors backed by a private registry
func NewRun(runID, mode string) *Run {
	labels := prometheus.Labels{"run_id": runID, "mode": mode}

	r := &Run{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "jobs_total",
			Help:        "Bin pairs compared.",
			ConstLabels: labels,
		}),
		comparisons: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "comparisons_total",
			Help:        "Curve pairs reduced.",
			ConstLabels: labels,
		}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "skipped_bins",
			Help:        "Bins below the population cutoff.",
			ConstLabels: labels,
		}),
		workload: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "workload_comparisons",
			Help:        "Estimated curve pairs of the run.",
			ConstLabels: labels,
		}),
		curves: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "curves",
			Help:        "Curves in the compared set.",
			ConstLabels: labels,
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "duration_seconds",
			Help:        "Wall time of the comparison stage.",
			ConstLabels: labels,
		}),
	}
	r.registry.MustRegister(r.jobs, r.comparisons, r.skipped, r.workload, r.curves, r.duration)

	return r
}

// Registry returns the private registry of the run.
func (r *Run) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}

	return r.registry
}

// ObserveJob records one finished bin-pair job with its curve-pair count.
func (r *Run) ObserveJob(iterations int) {
	if r == nil {
		return
	}
	r.jobs.Inc()
	r.comparisons.Add(float64(iterations))
}

// SetPlan records the planned workload, the set size and the number of bins
// that fell below the cutoff.
func (r *Run) SetPlan(workload uint64, curves, skippedBins int) {
	if r == nil {
		return
	}
	r.workload.Set(float64(workload))
	r.curves.Set(float64(curves))
	r.skipped.Set(float64(skippedBins))
}

// ObserveDuration records the wall time of the comparison stage.
func (r *Run) ObserveDuration(d time.Duration) {
	if r == nil {
		return
	}
	r.duration.Set(d.Seconds())
}

// WriteTextfile writes every series of the run to path in the Prometheus text
// exposition format, replacing the file atomically.
func (r *Run) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}

	return prometheus.WriteToTextfile(path, r.registry)
}
