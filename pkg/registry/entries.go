package registry

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"

	"mercator-hq/primitives/pkg/balancer"
	"mercator-hq/primitives/pkg/cache"
	"mercator-hq/primitives/pkg/config"
	"mercator-hq/primitives/pkg/fault"
	"mercator-hq/primitives/pkg/queue"
	"mercator-hq/primitives/pkg/ratelimit"
)

// Cache is a named byte-valued cache.
type Cache struct {
	cache.Cache[string, []byte]

	Name   string
	Config config.CacheConfig
}

func newCache(cfg config.CacheConfig, now func() time.Time) (*Cache, error) {
	var opts []cache.Option[string, []byte]
	if now != nil {
		opts = append(opts, cache.WithClock[string, []byte](now))
	}
	c, err := cache.New(cache.Policy(cfg.Policy), cfg.Capacity, cfg.DefaultTTL, opts...)
	if err != nil {
		return nil, err
	}
	return &Cache{Cache: c, Name: cfg.Name, Config: cfg}, nil
}

// Set stores value under key. A positive ttl is only accepted by caches
// with the ttl policy; others return an error matching fault.ErrInvalidState.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		c.Put(key, value)
		return nil
	}
	setter, ok := c.Cache.(cache.TTLSetter[string, []byte])
	if !ok {
		return &fault.InvalidStateError{
			Component: "cache " + c.Name,
			Field:     "ttl",
			Reason:    "is not supported by the " + c.Config.Policy + " policy",
		}
	}
	setter.PutWithTTL(key, value, ttl)
	return nil
}

// Cleanup removes expired entries and returns how many were removed. It is
// a no-op for caches without expiry.
func (c *Cache) Cleanup() int {
	if e, ok := c.Cache.(cache.Expirer); ok {
		return e.Cleanup()
	}
	return 0
}

// Limiter is a named rate limiter, either shared or per principal.
type Limiter struct {
	Name   string
	Config config.LimiterConfig

	shared ratelimit.Limiter
	keyed  *ratelimit.Keyed
}

func limiterConfig(cfg config.LimiterConfig) ratelimit.Config {
	return ratelimit.Config{
		Algorithm:   ratelimit.Algorithm(cfg.Algorithm),
		Capacity:    cfg.Capacity,
		RefillRate:  cfg.RefillRate,
		MaxRequests: cfg.MaxRequests,
		Window:      cfg.Window,
		BucketSize:  cfg.BucketSize,
	}
}

func newLimiter(cfg config.LimiterConfig, now func() time.Time) (*Limiter, error) {
	var opts []ratelimit.Option
	if now != nil {
		opts = append(opts, ratelimit.WithClock(now))
	}

	l := &Limiter{Name: cfg.Name, Config: cfg}
	var err error
	if cfg.PerPrincipal {
		l.keyed, err = ratelimit.NewKeyed(limiterConfig(cfg), opts...)
	} else {
		l.shared, err = ratelimit.New(limiterConfig(cfg), opts...)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Check decides a request of the given cost. principal is ignored by
// shared limiters.
func (l *Limiter) Check(principal string, cost int) ratelimit.CheckResult {
	if l.keyed != nil {
		return l.keyed.Check(principal, cost)
	}
	return l.shared.Check(cost)
}

// PerPrincipal reports whether each principal has its own limiter.
func (l *Limiter) PerPrincipal() bool { return l.keyed != nil }

// Principals returns how many principals are tracked, 0 for shared limiters.
func (l *Limiter) Principals() int {
	if l.keyed == nil {
		return 0
	}
	return l.keyed.Len()
}

// Cleanup forgets principals idle for longer than the configured idle TTL.
func (l *Limiter) Cleanup() int {
	if l.keyed == nil || l.Config.IdleTTL <= 0 {
		return 0
	}
	return l.keyed.Cleanup(l.Config.IdleTTL)
}

// Reset restores the limiter to full capacity. A per-principal limiter
// keeps its principals and resets each of them.
func (l *Limiter) Reset() {
	if l.keyed != nil {
		l.keyed.Reset()
		return
	}
	l.shared.Reset()
}

// Message is a queued item.
type Message struct {
	ID         string          `json:"id"`
	Body       json.RawMessage `json:"body"`
	Priority   int             `json:"priority"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Queue is a named FIFO or priority queue of messages.
type Queue struct {
	Name   string
	Config config.QueueConfig

	fifo *queue.Queue[Message]
	prio *queue.PriorityQueue[Message]
}

func newQueue(cfg config.QueueConfig) (*Queue, error) {
	q := &Queue{Name: cfg.Name, Config: cfg}
	var err error
	if cfg.Priority {
		q.prio, err = queue.NewPriority[Message](cfg.MaxSize)
	} else {
		q.fifo, err = queue.New[Message](cfg.MaxSize)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Put enqueues body, blocking while the queue is full. priority is ignored
// by FIFO queues.
func (q *Queue) Put(ctx context.Context, body json.RawMessage, priority int) (Message, error) {
	msg := Message{
		ID:         uuid.NewString(),
		Body:       body,
		Priority:   priority,
		EnqueuedAt: time.Now().UTC(),
	}

	var err error
	if q.prio != nil {
		err = q.prio.Put(ctx, msg, priority)
	} else {
		msg.Priority = 0
		err = q.fifo.Put(ctx, msg)
	}
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Get dequeues the next message, blocking while the queue is empty.
func (q *Queue) Get(ctx context.Context) (Message, error) {
	if q.prio != nil {
		return q.prio.Get(ctx)
	}
	return q.fifo.Get(ctx)
}

// Stats returns the queue counters.
func (q *Queue) Stats() queue.Stats {
	if q.prio != nil {
		return q.prio.Stats()
	}
	return q.fifo.Stats()
}

// Close closes the queue, waking every blocked caller.
func (q *Queue) Close() {
	if q.prio != nil {
		q.prio.Close()
		return
	}
	q.fifo.Close()
}

// Balancer is a named server pool.
type Balancer struct {
	*balancer.Balancer

	Name   string
	Config config.BalancerConfig
}

func newBalancer(cfg config.BalancerConfig) (*Balancer, error) {
	strategy, err := balancer.NewStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	servers := make([]*balancer.Server, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		srv, err := balancer.NewServer(s.ID, s.Weight)
		if err != nil {
			return nil, err
		}
		servers = append(servers, srv)
	}

	return &Balancer{
		Balancer: balancer.New(balancer.NewHealthFiltered(strategy, cfg.RequireHealthy), servers...),
		Name:     cfg.Name,
		Config:   cfg,
	}, nil
}

func sameBalancerConfig(a, b config.BalancerConfig) bool {
	return a.Name == b.Name &&
		a.Strategy == b.Strategy &&
		a.RequireHealthy == b.RequireHealthy &&
		slices.Equal(a.Servers, b.Servers)
}
