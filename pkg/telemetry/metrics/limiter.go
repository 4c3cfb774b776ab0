package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/primitives/pkg/config"
)

// LimiterMetrics tracks rate limit decisions.
//
// Metrics:
//   - <ns>_ratelimit_decisions_total: decisions by limiter and outcome
type LimiterMetrics struct {
	decisionsTotal *prometheus.CounterVec
}

// NewLimiterMetrics creates and registers limiter metrics with the provided registry.
func NewLimiterMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LimiterMetrics {
	lm := &LimiterMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "ratelimit_decisions_total",
				Help:      "Total number of rate limit decisions",
			},
			[]string{"limiter", "outcome"},
		),
	}

	registry.MustRegister(lm.decisionsTotal)
	return lm
}

// RecordDecision increments the allowed or denied counter for limiter.
func (lm *LimiterMetrics) RecordDecision(limiter string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	lm.decisionsTotal.WithLabelValues(limiter, outcome).Inc()
}
