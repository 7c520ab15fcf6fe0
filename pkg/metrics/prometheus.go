package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes fetch pipeline metrics to Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	quality      *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finfetch_fetches_total",
				Help: "Total provider fetches by provider and category",
			},
			[]string{"provider", "category"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finfetch_errors_total",
				Help: "Total errors by kind",
			},
			[]string{"kind"},
		),
		quality: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finfetch_data_quality_score",
				Help: "Last overall data quality score per provider",
			},
			[]string{"provider"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finfetch_operation_duration_seconds",
				Help:    "Duration of fetch operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records a completed provider fetch.
func (r *Recorder) RecordFetch(provider, category string) {
	r.fetchesTotal.WithLabelValues(provider, category).Inc()
}

// RecordError records an error occurrence by kind.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordQuality records the last overall quality score for a provider.
func (r *Recorder) RecordQuality(provider string, score float64) {
	r.quality.WithLabelValues(provider).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
