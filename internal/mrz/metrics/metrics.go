package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the MRZ module.
type Metrics struct {
	// Encoded documents by kind
	Generated *prometheus.CounterVec

	// Validations by detected kind and outcome (valid, invalid, format_error)
	Validations *prometheus.CounterVec

	// Check-digit mismatches by field name
	FieldMismatches *prometheus.CounterVec

	// Validation latency, including persistence of the report
	ValidateLatency prometheus.Histogram

	// Items per batch request
	BatchSize prometheus.Histogram
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics on reg. Tests pass a fresh registry
// so repeated construction does not collide.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Generated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mrzgate_mrz_generated_total",
			Help: "Total MRZ documents generated by document kind",
		}, []string{"kind"}),

		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mrzgate_mrz_validations_total",
			Help: "Total MRZ validations by detected kind and outcome",
		}, []string{"kind", "outcome"}),

		FieldMismatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mrzgate_mrz_field_mismatches_total",
			Help: "Total check-digit mismatches by field",
		}, []string{"field"}),

		ValidateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mrzgate_mrz_validate_duration_seconds",
			Help:    "Duration of a single MRZ validation including report persistence",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mrzgate_mrz_batch_items",
			Help:    "Number of items per batch validation request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

// IncrementGenerated records an encoded document.
func (m *Metrics) IncrementGenerated(kind string) {
	if m != nil {
		m.Generated.WithLabelValues(kind).Inc()
	}
}

// IncrementValidation records a validation outcome.
func (m *Metrics) IncrementValidation(kind, outcome string) {
	if m != nil {
		m.Validations.WithLabelValues(kind, outcome).Inc()
	}
}

// IncrementFieldMismatch records a failed check digit.
func (m *Metrics) IncrementFieldMismatch(field string) {
	if m != nil {
		m.FieldMismatches.WithLabelValues(field).Inc()
	}
}

// ObserveValidateLatency records the duration of one validation.
func (m *Metrics) ObserveValidateLatency(d time.Duration) {
	if m != nil {
		m.ValidateLatency.Observe(d.Seconds())
	}
}

// ObserveBatchSize records the size of a batch request.
func (m *Metrics) ObserveBatchSize(n int) {
	if m != nil {
		m.BatchSize.Observe(float64(n))
	}
}
