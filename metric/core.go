package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the pipeline-level metrics every run exports.
type Metrics struct {
	ConversionsTotal   *prometheus.CounterVec
	ConversionDuration *prometheus.HistogramVec
	OutputBytes        *prometheus.CounterVec
	JobsInFlight       prometheus.Gauge
	WorkerPoolSize     prometheus.Gauge
	ErrorsTotal        *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with every pipeline metric.
func NewMetrics() *Metrics {
	return &Metrics{
		ConversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fairhub",
				Subsystem: "pipeline",
				Name:      "conversions_total",
				Help:      "Conversions attempted, by device, profile and outcome",
			},
			[]string{"device", "profile", "status"},
		),

		ConversionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fairhub",
				Subsystem: "pipeline",
				Name:      "conversion_duration_seconds",
				Help:      "Wall-clock duration of one conversion",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"device", "profile"},
		),

		OutputBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fairhub",
				Subsystem: "pipeline",
				Name:      "output_bytes_total",
				Help:      "Bytes written to converted output files",
			},
			[]string{"device", "profile"},
		),

		JobsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "fairhub",
				Subsystem: "pipeline",
				Name:      "jobs_in_flight",
				Help:      "Conversions currently executing",
			},
		),

		WorkerPoolSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "fairhub",
				Subsystem: "pipeline",
				Name:      "worker_pool_size",
				Help:      "Configured worker count of the batch runner",
			},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fairhub",
				Subsystem: "pipeline",
				Name:      "errors_total",
				Help:      "Conversion failures by device, profile and error class",
			},
			[]string{"device", "profile", "class"},
		),
	}
}

// RecordConversion counts one finished conversion and observes its duration.
func (m *Metrics) RecordConversion(device, profile, status string, duration time.Duration) {
	m.ConversionsTotal.WithLabelValues(device, profile, status).Inc()
	m.ConversionDuration.WithLabelValues(device, profile).Observe(duration.Seconds())
}

// RecordError counts one classified conversion failure.
func (m *Metrics) RecordError(device, profile, class string) {
	m.ErrorsTotal.WithLabelValues(device, profile, class).Inc()
}

// RecordOutput counts the bytes of one written output file.
func (m *Metrics) RecordOutput(device, profile string, bytes int64) {
	m.OutputBytes.WithLabelValues(device, profile).Add(float64(bytes))
}
