package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsumptionMetrics records outcomes of batch material commits and the
// advisory signals around them.
type ConsumptionMetrics struct {
	commitDuration       *prometheus.HistogramVec
	commits              *prometheus.CounterVec
	shortages            *prometheus.CounterVec
	conservationWarnings prometheus.Counter
}

// NewConsumptionMetrics registers the consumption metrics on the provided
// registerer. A nil registerer yields a no-op recorder, mirroring how the
// engine is embedded in tests.
func NewConsumptionMetrics(reg prometheus.Registerer) *ConsumptionMetrics {
	if reg == nil {
		return &ConsumptionMetrics{}
	}
	commitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "batch_consume_duration_seconds",
		Help:    "Duration of batch consumption commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"batch_type"})
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_consume_total",
		Help: "Batch consumption attempts by outcome.",
	}, []string{"batch_type", "outcome"})
	shortages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_shortage_total",
		Help: "Availability checks that reported at least one short item.",
	}, []string{"stage"})
	conservationWarnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipe_conservation_warnings_total",
		Help: "Recipe scalings whose LAL drift exceeded tolerance.",
	})
	reg.MustRegister(commitDuration, commits, shortages, conservationWarnings)
	return &ConsumptionMetrics{
		commitDuration:       commitDuration,
		commits:              commits,
		shortages:            shortages,
		conservationWarnings: conservationWarnings,
	}
}

// ObserveCommit records the duration and outcome of one consumption commit.
func (m *ConsumptionMetrics) ObserveCommit(batchType string, outcome string, duration time.Duration) {
	if m == nil || m.commitDuration == nil {
		return
	}
	m.commitDuration.WithLabelValues(batchType).Observe(duration.Seconds())
	m.commits.WithLabelValues(batchType, outcome).Inc()
}

// IncShortage counts a shortage surfaced at the named stage ("check" for the
// availability gate, "commit" for races discovered during allocation).
func (m *ConsumptionMetrics) IncShortage(stage string) {
	if m == nil || m.shortages == nil {
		return
	}
	m.shortages.WithLabelValues(stage).Inc()
}

// IncConservationWarning counts an out-of-tolerance scaling.
func (m *ConsumptionMetrics) IncConservationWarning() {
	if m == nil || m.conservationWarnings == nil {
		return
	}
	m.conservationWarnings.Inc()
}
