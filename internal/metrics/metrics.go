// Package metrics records per-stage pipeline statistics with Prometheus.
//
// A Recorder implements pipeline.Observer. Each run registers into its own
// registry, so tests and repeated CLI invocations never collide with the
// global default registry. The collected values can be written in the
// node_exporter textfile format for batch jobs that are not scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "addrslips"

// Recorder collects stage timings and item counts.
type Recorder struct {
	registry *prometheus.Registry

	calls    *prometheus.CounterVec
	itemsIn  *prometheus.CounterVec
	itemsOut *prometheus.CounterVec
	duration *prometheus.HistogramVec
	found    prometheus.Gauge
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_calls_total",
			Help:      "Number of Process calls per pipeline step.",
		}, []string{"step"}),
		itemsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_items_in_total",
			Help:      "Records consumed per pipeline step.",
		}, []string{"step"}),
		itemsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_items_out_total",
			Help:      "Records produced per pipeline step.",
		}, []string{"step"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent in one Process call.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"step"}),
		found: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "detections",
			Help:      "Detections produced by the last run.",
		}),
	}
	r.registry.MustRegister(r.calls, r.itemsIn, r.itemsOut, r.duration, r.found)
	return r
}

// ObserveStep implements pipeline.Observer. It is safe for concurrent use.
func (r *Recorder) ObserveStep(step string, in, out int, elapsed time.Duration) {
	r.calls.WithLabelValues(step).Inc()
	r.itemsIn.WithLabelValues(step).Add(float64(in))
	r.itemsOut.WithLabelValues(step).Add(float64(out))
	r.duration.WithLabelValues(step).Observe(elapsed.Seconds())
}

// SetDetections records the size of the final result.
func (r *Recorder) SetDetections(n int) {
	r.found.Set(float64(n))
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
