package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricAttemptsTotal          = "pattern_ingest_attempts_total"
	MetricProcessingDuration     = "pattern_ingest_duration_seconds"
	MetricDedupHitsTotal         = "pattern_ingest_dedup_hits_total"
	MetricPrivacyRejectionsTotal = "pattern_ingest_privacy_rejections_total"
	MetricExtractionFailures     = "pattern_ingest_extraction_failures_total"
)

// Outcome labels for completed attempts.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Extraction failure kind labels.
const (
	FailureKindTransport = "transport"
	FailureKindMalformed = "malformed"
)

// Metrics contains Prometheus metrics for ingestion operations.
// All operations are thread-safe.
type Metrics struct {
	attemptsTotal      *prometheus.CounterVec
	duration           *prometheus.HistogramVec
	dedupHits          prometheus.Counter
	privacyRejections  prometheus.Counter
	extractionFailures *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricAttemptsTotal,
				Help: "Total number of upload attempts by terminal outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricProcessingDuration,
				Help:    "Histogram of upload attempt processing duration in seconds by outcome",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"outcome"},
		),
		dedupHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricDedupHitsTotal,
				Help: "Total number of uploads short-circuited by content dedup",
			},
		),
		privacyRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricPrivacyRejectionsTotal,
				Help: "Total number of uploads rejected by the privacy gate",
			},
		),
		extractionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricExtractionFailures,
				Help: "Total number of extraction failures by kind",
			},
			[]string{"kind"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.attemptsTotal,
		m.duration,
		m.dedupHits,
		m.privacyRejections,
		m.extractionFailures,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordOutcome records a terminal attempt outcome with its duration.
func (m *Metrics) RecordOutcome(outcome string, seconds float64) {
	m.attemptsTotal.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(seconds)
}

// RecordDedupHit records an upload short-circuited by dedup.
func (m *Metrics) RecordDedupHit() {
	m.dedupHits.Inc()
}

// RecordPrivacyRejection records an upload rejected by the privacy gate.
func (m *Metrics) RecordPrivacyRejection() {
	m.privacyRejections.Inc()
}

// RecordExtractionFailure records an extraction failure by kind.
func (m *Metrics) RecordExtractionFailure(kind string) {
	m.extractionFailures.WithLabelValues(kind).Inc()
}
