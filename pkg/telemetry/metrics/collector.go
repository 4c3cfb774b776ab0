package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/primitives/pkg/config"
)

// Collector owns the Prometheus registry and every metric family the server
// exports.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics *RequestMetrics
	limiterMetrics *LimiterMetrics
}

// NewCollector creates a new metrics collector. If registry is nil a fresh
// registry is created. A nil cfg uses the defaults.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.limiterMetrics = NewLimiterMetrics(cfg, registry)

	return c
}

// RegisterSource exports the state reported by src on every scrape.
// It must be called at most once per collector.
func (c *Collector) RegisterSource(src Source) {
	c.registry.MustRegister(NewPrimitiveCollector(c.config.Namespace, src))
}

// RecordRequest records a completed HTTP request. route is the router's
// path template, never the raw URL, so cardinality stays bounded.
func (c *Collector) RecordRequest(route, method string, status int, duration time.Duration) {
	if !c.config.MetricsEnabled() {
		return
	}
	c.requestMetrics.RecordRequest(route, method, status, duration)
}

// InFlight returns the gauge of requests currently being served.
func (c *Collector) InFlight() prometheus.Gauge {
	return c.requestMetrics.inFlight
}

// RecordDecision records one rate limit decision.
func (c *Collector) RecordDecision(limiter string, allowed bool) {
	if !c.config.MetricsEnabled() {
		return
	}
	c.limiterMetrics.RecordDecision(limiter, allowed)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
