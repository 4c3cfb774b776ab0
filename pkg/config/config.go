package config

import "time"

// Config is the root configuration structure for the primitives server.
// It names every cache, limiter, queue, and balancer instance the server
// hosts, plus the ambient server, maintenance, stats, and telemetry settings.
type Config struct {
	// Server contains HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// Caches lists the named cache instances.
	Caches []CacheConfig `yaml:"caches"`

	// Limiters lists the named rate limiter instances.
	Limiters []LimiterConfig `yaml:"limiters"`

	// Queues lists the named bounded queues.
	Queues []QueueConfig `yaml:"queues"`

	// Balancers lists the named load balancer pools.
	Balancers []BalancerConfig `yaml:"balancers"`

	// Maintenance controls the periodic cleanup job.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Stats selects where rate limit decisions are recorded.
	Stats StatsConfig `yaml:"stats"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed the longest queue wait clients are allowed.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxConcurrent caps in-flight requests. Zero disables the cap.
	// Default: 0
	MaxConcurrent int `yaml:"max_concurrent"`

	// MaxQueueWait caps the ?timeout= a client may request on queue
	// operations.
	// Default: 30s
	MaxQueueWait time.Duration `yaml:"max_queue_wait"`
}

// CacheConfig describes one named cache.
type CacheConfig struct {
	// Name identifies the cache in URLs and metrics.
	Name string `yaml:"name"`

	// Policy is one of "lru", "lfu", "fifo", "ttl".
	// Default: "lru"
	Policy string `yaml:"policy"`

	// Capacity is the maximum number of entries (lru, lfu, fifo).
	Capacity int `yaml:"capacity"`

	// DefaultTTL is the lifetime of entries put without an explicit TTL
	// (ttl policy only).
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// LimiterConfig describes one named rate limiter.
type LimiterConfig struct {
	// Name identifies the limiter.
	Name string `yaml:"name"`

	// Algorithm is one of "token_bucket", "sliding_log", "sliding_window".
	// Default: "token_bucket"
	Algorithm string `yaml:"algorithm"`

	// Capacity is the bucket size (token_bucket).
	Capacity int64 `yaml:"capacity"`

	// RefillRate is tokens added per second (token_bucket).
	RefillRate float64 `yaml:"refill_rate"`

	// MaxRequests is the per-window maximum (sliding_log, sliding_window).
	MaxRequests int64 `yaml:"max_requests"`

	// Window is the sliding window length (sliding_log, sliding_window).
	Window time.Duration `yaml:"window"`

	// BucketSize is the counter granularity (sliding_window only).
	// Default: Window/60
	BucketSize time.Duration `yaml:"bucket_size"`

	// PerPrincipal gives each principal its own independent limiter.
	PerPrincipal bool `yaml:"per_principal"`

	// IdleTTL is how long an unused principal limiter is kept before the
	// maintenance job forgets it. Zero keeps principals forever.
	// Default: 10m
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// QueueConfig describes one named queue.
type QueueConfig struct {
	// Name identifies the queue.
	Name string `yaml:"name"`

	// MaxSize bounds the queue. Zero means unbounded.
	MaxSize int `yaml:"max_size"`

	// Priority selects a priority queue instead of FIFO.
	Priority bool `yaml:"priority"`
}

// BalancerConfig describes one named balancer pool.
type BalancerConfig struct {
	// Name identifies the balancer.
	Name string `yaml:"name"`

	// Strategy is one of "round_robin", "least_connections",
	// "weighted_round_robin", "ip_hash".
	// Default: "round_robin"
	Strategy string `yaml:"strategy"`

	// RequireHealthy fails selection when every server is unhealthy
	// instead of falling back to the full pool.
	RequireHealthy bool `yaml:"require_healthy"`

	// Servers is the backend pool.
	Servers []ServerEntry `yaml:"servers"`
}

// ServerEntry is one backend in a balancer pool.
type ServerEntry struct {
	// ID is the server identifier, typically host:port.
	ID string `yaml:"id"`

	// Weight is used by weighted_round_robin.
	// Default: 1
	Weight int `yaml:"weight"`
}

// MaintenanceConfig controls periodic cleanup.
type MaintenanceConfig struct {
	// CleanupSchedule is a cron expression for TTL cache cleanup and idle
	// principal eviction. Descriptors such as "@every 30s" are accepted.
	// Default: "@every 1m"
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

// StatsConfig selects the decision statistics backend.
type StatsConfig struct {
	// Backend is one of "none", "memory", "redis", "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Redis configures the redis backend.
	Redis RedisConfig `yaml:"redis"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Addr is host:port.
	// Default: "localhost:6379"
	Addr string `yaml:"addr"`

	// Password for AUTH. Empty disables AUTH.
	Password string `yaml:"password"`

	// DB is the database index.
	DB int `yaml:"db"`

	// Prefix namespaces every key written.
	// Default: "primitives:"
	Prefix string `yaml:"prefix"`

	// TTL expires counter hashes. Zero keeps them forever.
	// Default: 24h
	TTL time.Duration `yaml:"ttl"`
}

// SQLiteConfig contains SQLite settings.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "primitives-stats.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long writers wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// Retention is how long decision rows are kept. The maintenance job
	// deletes older rows. Zero keeps them forever.
	Retention time.Duration `yaml:"retention"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is one of "json", "text", "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`

	// RedactKeys lists attribute keys masked in logs. When omitted the
	// logging package defaults apply.
	RedactKeys []string `yaml:"redact_keys"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled serves metrics on Path.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "primitives"
	Namespace string `yaml:"namespace"`
}

// MetricsEnabled reports whether metrics are enabled, treating an unset
// value as enabled.
func (m MetricsConfig) MetricsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}
