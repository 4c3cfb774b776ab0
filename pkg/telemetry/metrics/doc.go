// Package metrics exposes Prometheus metrics for the primitives server.
//
// # Metrics Categories
//
//   - Request Metrics: HTTP request count and duration by route
//   - Limiter Metrics: allow/deny decisions per limiter
//   - Primitive Metrics: cache, queue, and balancer state read from a
//     Source at scrape time
//
// Primitive metrics are pulled rather than pushed. The hot paths of caches
// and queues keep their own counters and the collector reads them only
// when Prometheus scrapes.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RegisterSource(registry)
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics
