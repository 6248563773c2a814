package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for ledger calls and stats reconciliation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Chain call latency by operation and outcome
	CallLatency *prometheus.HistogramVec

	// Stats fields that fell back, by field and fallback source
	FieldFallbacks *prometheus.CounterVec

	// Stats refreshes by freshness
	Refreshes *prometheus.CounterVec

	// 1 while the chain breaker is open
	BreakerOpen prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		CallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landledger_chain_call_duration_seconds",
			Help:    "Duration of ledger gateway calls by operation and outcome",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op", "outcome"}),

		FieldFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_stats_field_fallbacks_total",
			Help: "Stats fields served from a fallback instead of the ledger",
		}, []string{"field", "source"}), // source: "last_known", "zero"

		Refreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_stats_refreshes_total",
			Help: "Stats refreshes by resulting freshness",
		}, []string{"freshness"}),

		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "landledger_chain_breaker_open",
			Help: "Whether the ledger circuit breaker is open",
		}),
	}
}

func (m *Metrics) ObserveCall(op, outcome string, d time.Duration) {
	if m != nil {
		m.CallLatency.WithLabelValues(op, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementFallback(field, source string) {
	if m != nil {
		m.FieldFallbacks.WithLabelValues(field, source).Inc()
	}
}

func (m *Metrics) IncrementRefresh(freshness string) {
	if m != nil {
		m.Refreshes.WithLabelValues(freshness).Inc()
	}
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
