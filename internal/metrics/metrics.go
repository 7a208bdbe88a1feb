// Package metrics defines the Prometheus collectors picalc exports. They live
// on a dedicated registry rather than the global one so that tests and
// several runs in one process never collide on registration.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "picalc"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups the collectors updated during runs.
type Metrics struct {
	registry *prometheus.Registry

	segments        *prometheus.CounterVec
	segmentDuration *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	activeRuns      prometheus.Gauge
	lastError       *prometheus.GaugeVec
	cacheLookups    *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Segments summed, by execution mode.",
		}, []string{"mode"}),
		segmentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_duration_seconds",
			Help:      "Time spent summing one segment, by execution mode.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"mode"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs, by execution mode and outcome.",
		}, []string{"mode", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of successful runs, by execution mode.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"mode"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Runs currently in progress.",
		}),
		lastError: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_abs_error",
			Help:      "Absolute error against π of the last successful run, by execution mode.",
		}, []string{"mode"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segment_cache_lookups_total",
			Help:      "Segment cache lookups, by result (hit or miss).",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.segments, m.segmentDuration, m.runs, m.runDuration,
		m.activeRuns, m.lastError, m.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every picalc collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSegment records one summed segment.
func (m *Metrics) ObserveSegment(mode string, elapsed time.Duration) {
	m.segments.WithLabelValues(mode).Inc()
	m.segmentDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// RunStarted marks a run as in progress.
func (m *Metrics) RunStarted() { m.activeRuns.Inc() }

// RunSucceeded records a completed run and its accuracy.
func (m *Metrics) RunSucceeded(mode string, elapsed time.Duration, absError float64) {
	m.activeRuns.Dec()
	m.runs.WithLabelValues(mode, OutcomeSuccess).Inc()
	m.runDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	m.lastError.WithLabelValues(mode).Set(absError)
}

// RunFailed records a run that ended with an error.
func (m *Metrics) RunFailed(mode string) {
	m.activeRuns.Dec()
	m.runs.WithLabelValues(mode, OutcomeFailure).Inc()
}

// ObserveCache adds segment cache hit and miss counts.
func (m *Metrics) ObserveCache(hits, misses uint64) {
	m.cacheLookups.WithLabelValues("hit").Add(float64(hits))
	m.cacheLookups.WithLabelValues("miss").Add(float64(misses))
}
