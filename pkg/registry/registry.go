package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"mercator-hq/primitives/pkg/config"
	"mercator-hq/primitives/pkg/telemetry/metrics"
)

// Registry owns every named primitive instance.
type Registry struct {
	logger *slog.Logger
	now    func() time.Time

	applyMu sync.Mutex // serializes Apply

	mu        sync.RWMutex
	caches    map[string]*Cache
	limiters  map[string]*Limiter
	queues    map[string]*Queue
	balancers map[string]*Balancer
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithClock injects the time source handed to caches and limiters.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New builds a registry holding the instances in cfg.
func New(cfg *config.Config, opts ...Option) (*Registry, error) {
	r := &Registry{
		logger:    slog.Default(),
		caches:    make(map[string]*Cache),
		limiters:  make(map[string]*Limiter),
		queues:    make(map[string]*Queue),
		balancers: make(map[string]*Balancer),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "registry")

	if err := r.Apply(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// applyCounts summarizes what one reconcile changed.
type applyCounts struct {
	Created int
	Kept    int
	Removed int
}

// Apply reconciles the registry with cfg. Every new or changed instance is
// built before anything is swapped in, so a failing cfg leaves the registry
// untouched.
func (r *Registry) Apply(cfg *config.Config) error {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	r.mu.RLock()
	caches, cr, err := reconcile(r.caches, cfg.Caches,
		func(c config.CacheConfig) string { return c.Name },
		func(old *Cache, c config.CacheConfig) bool { return old.Config == c },
		func(c config.CacheConfig) (*Cache, error) { return newCache(c, r.now) })
	if err != nil {
		r.mu.RUnlock()
		return fmt.Errorf("cache: %w", err)
	}
	limiters, lr, err := reconcile(r.limiters, cfg.Limiters,
		func(c config.LimiterConfig) string { return c.Name },
		func(old *Limiter, c config.LimiterConfig) bool { return old.Config == c },
		func(c config.LimiterConfig) (*Limiter, error) { return newLimiter(c, r.now) })
	if err != nil {
		r.mu.RUnlock()
		return fmt.Errorf("limiter: %w", err)
	}
	queues, qr, err := reconcile(r.queues, cfg.Queues,
		func(c config.QueueConfig) string { return c.Name },
		func(old *Queue, c config.QueueConfig) bool { return old.Config == c },
		newQueue)
	if err != nil {
		r.mu.RUnlock()
		return fmt.Errorf("queue: %w", err)
	}
	balancers, br, err := reconcile(r.balancers, cfg.Balancers,
		func(c config.BalancerConfig) string { return c.Name },
		func(old *Balancer, c config.BalancerConfig) bool { return sameBalancerConfig(old.Config, c) },
		newBalancer)
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("balancer: %w", err)
	}

	r.mu.Lock()
	var retired []*Queue
	for name, q := range r.queues {
		if queues[name] != q {
			retired = append(retired, q)
		}
	}
	r.caches, r.limiters, r.queues, r.balancers = caches, limiters, queues, balancers
	r.mu.Unlock()

	// Closing wakes blocked callers, which must not happen under r.mu.
	for _, q := range retired {
		q.Close()
	}

	r.logger.Info("Registry applied configuration",
		"caches", len(caches), "caches_created", cr.Created, "caches_removed", cr.Removed,
		"limiters", len(limiters), "limiters_created", lr.Created, "limiters_removed", lr.Removed,
		"queues", len(queues), "queues_created", qr.Created, "queues_removed", qr.Removed,
		"balancers", len(balancers), "balancers_created", br.Created, "balancers_removed", br.Removed,
	)
	return nil
}

// reconcile builds the next generation of one instance map, reusing
// instances whose configuration is unchanged.
func reconcile[T any, C any](
	current map[string]*T,
	cfgs []C,
	name func(C) string,
	same func(*T, C) bool,
	build func(C) (*T, error),
) (map[string]*T, applyCounts, error) {
	next := make(map[string]*T, len(cfgs))
	var res applyCounts

	for _, c := range cfgs {
		n := name(c)
		if old, ok := current[n]; ok && same(old, c) {
			next[n] = old
			res.Kept++
			continue
		}
		inst, err := build(c)
		if err != nil {
			return nil, applyCounts{}, fmt.Errorf("%q: %w", n, err)
		}
		next[n] = inst
		res.Created++
	}
	for n := range current {
		if _, ok := next[n]; !ok {
			res.Removed++
		}
	}
	return next, res, nil
}

func lookup[T any](r *Registry, m func() map[string]*T, kind, name string) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := m()[name]; ok {
		return v, nil
	}
	return nil, &NotFoundError{Kind: kind, Name: name}
}

// Cache returns the cache named name.
func (r *Registry) Cache(name string) (*Cache, error) {
	return lookup(r, func() map[string]*Cache { return r.caches }, "cache", name)
}

// Limiter returns the limiter named name.
func (r *Registry) Limiter(name string) (*Limiter, error) {
	return lookup(r, func() map[string]*Limiter { return r.limiters }, "limiter", name)
}

// Queue returns the queue named name.
func (r *Registry) Queue(name string) (*Queue, error) {
	return lookup(r, func() map[string]*Queue { return r.queues }, "queue", name)
}

// Balancer returns the balancer named name.
func (r *Registry) Balancer(name string) (*Balancer, error) {
	return lookup(r, func() map[string]*Balancer { return r.balancers }, "balancer", name)
}

// Names lists instance names by kind, each sorted.
type Names struct {
	Caches    []string `json:"caches"`
	Limiters  []string `json:"limiters"`
	Queues    []string `json:"queues"`
	Balancers []string `json:"balancers"`
}

// Names returns the names of every hosted instance.
func (r *Registry) Names() Names {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Names{
		Caches:    sortedKeys(r.caches),
		Limiters:  sortedKeys(r.limiters),
		Queues:    sortedKeys(r.queues),
		Balancers: sortedKeys(r.balancers),
	}
}

func sortedKeys[T any](m map[string]*T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CleanupResult counts what one maintenance pass removed.
type CleanupResult struct {
	Expired    int // TTL cache entries
	Principals int // idle per-principal limiters
}

// Cleanup sweeps expired cache entries and idle principals.
func (r *Registry) Cleanup() CleanupResult {
	r.mu.RLock()
	caches := mapValues(r.caches)
	limiters := mapValues(r.limiters)
	r.mu.RUnlock()

	var res CleanupResult
	for _, c := range caches {
		res.Expired += c.Cleanup()
	}
	for _, l := range limiters {
		res.Principals += l.Cleanup()
	}
	return res
}

func mapValues[T any](m map[string]*T) []*T {
	out := make([]*T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// Close closes every queue. The registry must not be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	queues := mapValues(r.queues)
	r.queues = make(map[string]*Queue)
	r.mu.Unlock()

	for _, q := range queues {
		q.Close()
	}
}

// Snapshot implements metrics.Source.
func (r *Registry) Snapshot() metrics.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var snap metrics.Snapshot

	for _, name := range sortedKeys(r.caches) {
		snap.Caches = append(snap.Caches, metrics.CacheSample{Name: name, Stats: r.caches[name].Stats()})
	}
	for _, name := range sortedKeys(r.limiters) {
		l := r.limiters[name]
		snap.Limiters = append(snap.Limiters, metrics.LimiterSample{
			Name:       name,
			Algorithm:  l.Config.Algorithm,
			Principals: l.Principals(),
		})
	}
	for _, name := range sortedKeys(r.queues) {
		q := r.queues[name]
		snap.Queues = append(snap.Queues, metrics.QueueSample{Name: name, Priority: q.Config.Priority, Stats: q.Stats()})
	}
	for _, name := range sortedKeys(r.balancers) {
		b := r.balancers[name]
		stats := b.Stats()
		sample := metrics.BalancerSample{Name: name, Strategy: b.Strategy().Name(), Errors: stats.Errors}
		for _, srv := range b.Servers() {
			sample.Servers = append(sample.Servers, metrics.ServerSample{
				ID:       srv.ID(),
				Healthy:  srv.IsHealthy(),
				Active:   srv.ActiveConnections(),
				Total:    srv.TotalRequests(),
				Selected: stats.PerServer[srv.ID()],
			})
		}
		snap.Balancers = append(snap.Balancers, sample)
	}

	return snap
}

var _ metrics.Source = (*Registry)(nil)
