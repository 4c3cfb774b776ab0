// Package telemetry groups the observability packages of the primitives
// server.
//
// # Components
//
//   - logging: slog construction with principal redaction and request-scoped
//     loggers
//   - metrics: Prometheus request, decision, and per-instance gauges
//   - health: liveness, readiness, and version endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//		return err
//	}
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	collector.RegisterSource(reg)
//
//	checker := health.New(health.DefaultCheckTimeout)
//	checker.Register("stats", func(ctx context.Context) error {
//		_, err := store.Totals(ctx, "")
//		return err
//	})
//
// # Redaction
//
// Principals and client addresses identify callers, so the logger masks
// the attribute keys in logging.DefaultRedactKeys unless configured
// otherwise:
//
//   - principal: alice@example.com → alic***
//   - client: 10.1.2.3 → 10.*.*.*
//
// Metric labels never carry principals; decisions are labeled by limiter
// name only.
package telemetry
