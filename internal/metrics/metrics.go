// Package metrics records fetch and record counters for a harvest run, to be interpreted by Prometheus.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record results used as label values.
const (
	ResultCollected = "collected"
	ResultSkipped   = "skipped"
)

// Recorder holds the collectors of a single run in its own registry.
type Recorder struct {
	registry      *prometheus.Registry
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	recordsTotal  *prometheus.CounterVec
}

// New creates a recorder backed by a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_fetch_requests_total",
				Help: "Tracks the number of upstream HTTP attempts by endpoint and outcome.",
			}, []string{"endpoint", "outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "harvester_fetch_duration_seconds",
				Help: "Tracks the latencies of upstream HTTP attempts.",
				// Max of 10.24s, above which the client timeout is the likelier cause.
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			}, []string{"endpoint"},
		),
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_records_total",
				Help: "Tracks the number of IDs collected or skipped.",
			}, []string{"result"},
		),
	}
}

// Registry returns the registry the collectors are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFetch counts one HTTP attempt.
func (r *Recorder) ObserveFetch(endpoint, outcome string, duration time.Duration) {
	r.fetchTotal.WithLabelValues(endpoint, outcome).Inc()
	r.fetchDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCollected counts an ID that produced a record.
func (r *Recorder) RecordCollected() {
	r.recordsTotal.WithLabelValues(ResultCollected).Inc()
}

// RecordSkipped counts an ID skipped after a failed join.
func (r *Recorder) RecordSkipped() {
	r.recordsTotal.WithLabelValues(ResultSkipped).Inc()
}

// WriteTextfile writes the current values in the text exposition format,
// as read by the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
