package categorization

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts tier outcomes. A nil *Metrics is a valid no-op, so
// tests and lightweight callers can skip registration.
type Metrics struct {
	tierHits    *prometheus.CounterVec
	aiFailures  prometheus.Counter
	aiSkips     *prometheus.CounterVec
	corrections prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tierHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgertalk",
			Subsystem: "categorization",
			Name:      "tier_hits_total",
			Help:      "Category resolutions by tier.",
		}, []string{"tier"}),
		aiFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgertalk",
			Subsystem: "categorization",
			Name:      "ai_failures_total",
			Help:      "AI tier requests that errored or timed out.",
		}),
		aiSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgertalk",
			Subsystem: "categorization",
			Name:      "ai_skips_total",
			Help:      "AI tier requests skipped before or after the call.",
		}, []string{"reason"}),
		corrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgertalk",
			Subsystem: "categorization",
			Name:      "corrections_total",
			Help:      "User category corrections recorded.",
		}),
	}
	reg.MustRegister(m.tierHits, m.aiFailures, m.aiSkips, m.corrections)
	return m
}

func (m *Metrics) TierHit(tier Tier) {
	if m == nil {
		return
	}
	m.tierHits.WithLabelValues(string(tier)).Inc()
}

func (m *Metrics) AIFailure() {
	if m == nil {
		return
	}
	m.aiFailures.Inc()
}

func (m *Metrics) AISkipped(reason string) {
	if m == nil {
		return
	}
	m.aiSkips.WithLabelValues(reason).Inc()
}

func (m *Metrics) CorrectionRecorded() {
	if m == nil {
		return
	}
	m.corrections.Inc()
}
