package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for intake and decisions. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Submissions     *prometheus.CounterVec
	Rejections      *prometheus.CounterVec
	Decisions       *prometheus.CounterVec
	DecisionLatency prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_applications_submitted_total",
			Help: "Applications admitted as pending, by type",
		}, []string{"type"}),

		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_submissions_refused_total",
			Help: "Submissions refused by validation, by type and reason",
		}, []string{"type", "reason"}),

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landledger_decisions_total",
			Help: "Decision attempts by outcome",
		}, []string{"outcome"}), // outcome: "approved", "rejected", "already_resolved", "missing_reason", "error"

		DecisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "landledger_decision_duration_seconds",
			Help:    "Duration of the decision unit of work",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementSubmission(appType string) {
	if m != nil {
		m.Submissions.WithLabelValues(appType).Inc()
	}
}

func (m *Metrics) IncrementRefused(appType, reason string) {
	if m != nil {
		m.Rejections.WithLabelValues(appType, reason).Inc()
	}
}

func (m *Metrics) IncrementDecision(outcome string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveDecisionLatency(d time.Duration) {
	if m != nil {
		m.DecisionLatency.Observe(d.Seconds())
	}
}
