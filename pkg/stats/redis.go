package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/primitives/pkg/config"
)

// RedisStore keeps counters in Redis hashes so several server instances
// can share totals.
//
// Keys:
//
//	<prefix>ratelimit:<limiter>:total              cumulative, never expires
//	<prefix>ratelimit:<limiter>:minute:<yyyymmddhhmm>  per-minute, expires after ttl
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTTL sets the expiry of per-minute buckets. Zero disables buckets.
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = d }
}

// NewRedisStore wraps an existing client. The caller keeps ownership of rdb.
func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: config.DefaultRedisPrefix,
		ttl:    config.DefaultRedisTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisStoreFromConfig dials Redis and verifies the connection with PING.
func NewRedisStoreFromConfig(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	s := NewRedisStore(rdb, WithPrefix(cfg.Prefix), WithTTL(cfg.TTL))
	s.owned = true
	return s, nil
}

func (s *RedisStore) key(limiter string, parts ...string) string {
	return s.prefix + "ratelimit:" + limiter + ":" + strings.Join(parts, ":")
}

// Record implements Store with one pipelined round trip.
func (s *RedisStore) Record(ctx context.Context, ev Event) error {
	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.key(ev.Limiter, "total"), field, 1)

	if s.ttl > 0 {
		bucket := s.key(ev.Limiter, "minute", eventTime(ev).UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucket, field, 1)
		pipe.Expire(ctx, bucket, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record decision for %q: %w", ev.Limiter, err)
	}
	return nil
}

// Totals implements Store.
func (s *RedisStore) Totals(ctx context.Context, limiter string) (Counters, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key(limiter, "total")).Result()
	if err != nil {
		return Counters{}, fmt.Errorf("read totals for %q: %w", limiter, err)
	}

	var c Counters
	if v, ok := vals["allowed"]; ok {
		c.Allowed, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := vals["denied"]; ok {
		c.Denied, _ = strconv.ParseInt(v, 10, 64)
	}
	return c, nil
}

// Close closes the client if this store dialed it.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.rdb.Close()
}
