// Package metrics exposes Prometheus collectors for invoice page loads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
)

// FetchMetrics records how page fetches end. A nil *FetchMetrics is valid
// and records nothing.
type FetchMetrics struct {
	fetches     *prometheus.CounterVec
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge
	generation  prometheus.Gauge
	rowsApplied prometheus.Counter
}

// NewFetchMetrics creates the collectors and registers them with registerer,
// or with the default registerer when nil.
func NewFetchMetrics(registerer prometheus.Registerer) *FetchMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &FetchMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "einvoice_page_fetch_total",
			Help: "Invoice page fetches by outcome; stale means the result was superseded and discarded.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "einvoice_page_fetch_duration_seconds",
			Help:    "Invoice page fetch latency, including superseded fetches.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "einvoice_page_fetch_in_flight",
			Help: "Invoice page fetches currently awaiting a response.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "einvoice_page_fetch_generation",
			Help: "Generation of the most recently issued page fetch.",
		}),
		rowsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "einvoice_page_rows_applied_total",
			Help: "Invoice rows delivered to the grid by current-generation fetches.",
		}),
	}
	registerer.MustRegister(m.fetches, m.duration, m.inFlight, m.generation, m.rowsApplied)
	return m
}

// Issued records a new fetch generation going out.
func (m *FetchMetrics) Issued(generation uint64) {
	if m == nil {
		return
	}
	m.inFlight.Inc()
	m.generation.Set(float64(generation))
}

// Resolved records the end of a fetch. rows only counts for applied successes.
func (m *FetchMetrics) Resolved(outcome string, elapsed time.Duration, rows int) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.duration.Observe(elapsed.Seconds())
	m.fetches.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		m.rowsApplied.Add(float64(rows))
	}
}
