package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/primitives/pkg/cache"
	"mercator-hq/primitives/pkg/queue"
)

// Source reports the current state of every hosted primitive.
type Source interface {
	Snapshot() Snapshot
}

// Snapshot is the state of all primitives at one instant.
type Snapshot struct {
	Caches    []CacheSample
	Limiters  []LimiterSample
	Queues    []QueueSample
	Balancers []BalancerSample
}

// CacheSample is one named cache.
type CacheSample struct {
	Name  string
	Stats cache.Stats
}

// LimiterSample is one named limiter. Principals is 0 for shared limiters.
type LimiterSample struct {
	Name       string
	Algorithm  string
	Principals int
}

// QueueSample is one named queue.
type QueueSample struct {
	Name     string
	Priority bool
	Stats    queue.Stats
}

// BalancerSample is one named balancer pool.
type BalancerSample struct {
	Name     string
	Strategy string
	Errors   int64
	Servers  []ServerSample
}

// ServerSample is one backend of a balancer.
type ServerSample struct {
	ID       string
	Healthy  bool
	Active   int64
	Total    int64
	Selected int64
}

// PrimitiveCollector is a prometheus.Collector that reads a Source on each
// scrape and emits const metrics.
type PrimitiveCollector struct {
	source Source

	cacheEntries     *prometheus.Desc
	cacheCapacity    *prometheus.Desc
	cacheHits        *prometheus.Desc
	cacheMisses      *prometheus.Desc
	cacheEvictions   *prometheus.Desc
	cacheExpirations *prometheus.Desc

	limiterPrincipals *prometheus.Desc

	queueLength   *prometheus.Desc
	queueCapacity *prometheus.Desc
	queueEnqueued *prometheus.Desc
	queueDequeued *prometheus.Desc
	queueTimeouts *prometheus.Desc
	queueWaiting  *prometheus.Desc

	serverActive   *prometheus.Desc
	serverTotal    *prometheus.Desc
	serverSelected *prometheus.Desc
	serverHealthy  *prometheus.Desc
	balancerErrors *prometheus.Desc
}

// NewPrimitiveCollector creates a collector for src under namespace.
func NewPrimitiveCollector(namespace string, src Source) *PrimitiveCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}

	return &PrimitiveCollector{
		source: src,

		cacheEntries:     desc("cache_entries", "Current number of entries in the cache", "cache", "policy"),
		cacheCapacity:    desc("cache_capacity", "Configured cache capacity (0 if unbounded)", "cache", "policy"),
		cacheHits:        desc("cache_hits_total", "Total number of cache hits", "cache", "policy"),
		cacheMisses:      desc("cache_misses_total", "Total number of cache misses", "cache", "policy"),
		cacheEvictions:   desc("cache_evictions_total", "Total number of capacity evictions", "cache", "policy"),
		cacheExpirations: desc("cache_expirations_total", "Total number of entries removed on expiry", "cache", "policy"),

		limiterPrincipals: desc("ratelimit_principals", "Number of principals tracked by a keyed limiter", "limiter", "algorithm"),

		queueLength:   desc("queue_length", "Current number of queued items", "queue", "kind"),
		queueCapacity: desc("queue_capacity", "Configured queue bound (0 if unbounded)", "queue", "kind"),
		queueEnqueued: desc("queue_enqueued_total", "Total number of items enqueued", "queue", "kind"),
		queueDequeued: desc("queue_dequeued_total", "Total number of items dequeued", "queue", "kind"),
		queueTimeouts: desc("queue_timeouts_total", "Total number of timed out puts and gets", "queue", "kind"),
		queueWaiting:  desc("queue_waiting", "Callers currently blocked on the queue", "queue", "kind", "side"),

		serverActive:   desc("balancer_server_active_connections", "Active connections on a backend", "balancer", "server"),
		serverTotal:    desc("balancer_server_requests_total", "Total requests handled by a backend", "balancer", "server"),
		serverSelected: desc("balancer_server_selections_total", "Total times a backend was selected", "balancer", "server"),
		serverHealthy:  desc("balancer_server_healthy", "1 if the backend is healthy, 0 otherwise", "balancer", "server"),
		balancerErrors: desc("balancer_selection_errors_total", "Total failed selections", "balancer", "strategy"),
	}
}

// Describe implements prometheus.Collector.
func (pc *PrimitiveCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		pc.cacheEntries, pc.cacheCapacity, pc.cacheHits, pc.cacheMisses, pc.cacheEvictions, pc.cacheExpirations,
		pc.limiterPrincipals,
		pc.queueLength, pc.queueCapacity, pc.queueEnqueued, pc.queueDequeued, pc.queueTimeouts, pc.queueWaiting,
		pc.serverActive, pc.serverTotal, pc.serverSelected, pc.serverHealthy, pc.balancerErrors,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (pc *PrimitiveCollector) Collect(ch chan<- prometheus.Metric) {
	snap := pc.source.Snapshot()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, labels...)
	}

	for _, c := range snap.Caches {
		policy := string(c.Stats.Policy)
		gauge(pc.cacheEntries, float64(c.Stats.Len), c.Name, policy)
		gauge(pc.cacheCapacity, float64(c.Stats.Capacity), c.Name, policy)
		counter(pc.cacheHits, float64(c.Stats.Hits), c.Name, policy)
		counter(pc.cacheMisses, float64(c.Stats.Misses), c.Name, policy)
		counter(pc.cacheEvictions, float64(c.Stats.Evictions), c.Name, policy)
		counter(pc.cacheExpirations, float64(c.Stats.Expirations), c.Name, policy)
	}

	for _, l := range snap.Limiters {
		gauge(pc.limiterPrincipals, float64(l.Principals), l.Name, l.Algorithm)
	}

	for _, q := range snap.Queues {
		kind := "fifo"
		if q.Priority {
			kind = "priority"
		}
		gauge(pc.queueLength, float64(q.Stats.Len), q.Name, kind)
		gauge(pc.queueCapacity, float64(q.Stats.MaxSize), q.Name, kind)
		counter(pc.queueEnqueued, float64(q.Stats.Enqueued), q.Name, kind)
		counter(pc.queueDequeued, float64(q.Stats.Dequeued), q.Name, kind)
		counter(pc.queueTimeouts, float64(q.Stats.Timeouts), q.Name, kind)
		gauge(pc.queueWaiting, float64(q.Stats.WaitingProducers), q.Name, kind, "producer")
		gauge(pc.queueWaiting, float64(q.Stats.WaitingConsumers), q.Name, kind, "consumer")
	}

	for _, b := range snap.Balancers {
		counter(pc.balancerErrors, float64(b.Errors), b.Name, b.Strategy)
		for _, s := range b.Servers {
			healthy := 0.0
			if s.Healthy {
				healthy = 1
			}
			gauge(pc.serverActive, float64(s.Active), b.Name, s.ID)
			counter(pc.serverTotal, float64(s.Total), b.Name, s.ID)
			counter(pc.serverSelected, float64(s.Selected), b.Name, s.ID)
			gauge(pc.serverHealthy, healthy, b.Name, s.ID)
		}
	}
}
