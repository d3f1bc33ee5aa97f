// Package metrics records pass outcomes as Prometheus metrics.
//
// SnapSentry runs as a short-lived process, so metrics are kept in a registry
// owned by the run and, when configured, written to a file for the node_exporter
// textfile collector at the end of the pass:
//
//   - snapsentry_snapshot_decisions_total{frequency,action}: per-class outcomes
//     of the creation pass (created, skipped, errored).
//   - snapsentry_snapshot_expiry_total{outcome}: expiry pass outcomes
//     (deleted, retained, errored).
//   - snapsentry_pass_duration_seconds{workflow}: wall time of a pass.
//   - snapsentry_last_pass_timestamp_seconds{workflow}: completion time of the
//     last pass.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics of one run. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	decisions     *prometheus.CounterVec
	expiry        *prometheus.CounterVec
	passDuration  *prometheus.HistogramVec
	lastPassStamp *prometheus.GaugeVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapsentry_snapshot_decisions_total",
			Help: "Snapshot creation pass outcomes per policy class",
		}, []string{"frequency", "action"}),
		expiry: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "snapsentry_snapshot_expiry_total",
			Help: "Snapshot expiry pass outcomes",
		}, []string{"outcome"}),
		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "snapsentry_pass_duration_seconds",
			Help:    "Wall time of a workflow pass",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}, []string{"workflow"}),
		lastPassStamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "snapsentry_last_pass_timestamp_seconds",
			Help: "Unix timestamp of the last completed workflow pass",
		}, []string{"workflow"}),
	}
}

// Registry exposes the underlying registry, mainly for tests and exporters.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// SnapshotDecision counts one creation pass outcome.
func (r *Recorder) SnapshotDecision(frequency, action string) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(frequency, action).Inc()
}

// ExpiryOutcome counts one expiry pass outcome.
func (r *Recorder) ExpiryOutcome(outcome string) {
	if r == nil {
		return
	}
	r.expiry.WithLabelValues(outcome).Inc()
}

// PassCompleted records duration and completion time of a workflow pass.
func (r *Recorder) PassCompleted(workflow string, started, finished time.Time) {
	if r == nil {
		return
	}
	r.passDuration.WithLabelValues(workflow).Observe(finished.Sub(started).Seconds())
	r.lastPassStamp.WithLabelValues(workflow).Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in Prometheus text format to path. The file
// is replaced atomically. An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
