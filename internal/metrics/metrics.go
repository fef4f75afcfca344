// Package metrics exports fix counters in the Prometheus text format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"remedy/internal/fix"
)

const namespace = "remedy"

// Recorder implements fix.Recorder over a private registry, so several runs in
// one process never share counters.
type Recorder struct {
	registry *prometheus.Registry

	applied  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	changed  prometheus.Counter
	duration prometheus.Histogram
}

var _ fix.Recorder = (*Recorder)(nil)

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_applied_total",
			Help:      "Findings fixed, by rule.",
		}, []string{"rule"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_skipped_total",
			Help:      "Findings left unfixed, by rule and reason.",
		}, []string{"rule", "reason"}),
		changed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_changed_total",
			Help:      "Documents with at least one applied fix.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_fix_seconds",
			Help:      "Time spent fixing one document.",
			// от микросекунд (кэш) до секунд (большие деревья)
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
	r.registry.MustRegister(r.applied, r.skipped, r.changed, r.duration)
	return r
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) FixApplied(rule string) {
	r.applied.WithLabelValues(rule).Inc()
}

func (r *Recorder) FixSkipped(rule string, reason fix.SkipReason) {
	r.skipped.WithLabelValues(rule, reason.String()).Inc()
}

func (r *Recorder) DocumentChanged() {
	r.changed.Inc()
}

func (r *Recorder) DocumentDuration(d time.Duration) {
	r.duration.Observe(d.Seconds())
}

// WriteTextfile writes all metrics to path in the node exporter textfile
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
