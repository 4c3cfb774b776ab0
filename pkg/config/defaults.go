package config

import (
	"strings"
	"time"
)

// Default values used when a field is left unset.
const (
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxQueueWait    = 30 * time.Second

	DefaultCachePolicy       = "lru"
	DefaultLimiterAlgorithm  = "token_bucket"
	DefaultIdleTTL           = 10 * time.Minute
	DefaultBalancerStrategy  = "round_robin"
	DefaultServerWeight      = 1
	DefaultCleanupSchedule   = "@every 1m"
	DefaultStatsBackend      = "memory"
	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPrefix       = "primitives:"
	DefaultRedisTTL          = 24 * time.Hour
	DefaultSQLitePath        = "primitives-stats.db"
	DefaultSQLiteBusyTimeout = 5 * time.Second

	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "primitives"
)

// NewDefaultConfig returns a configuration with no instances and every
// ambient field at its default.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields of cfg in place. Fields already set are
// left alone, except that enum-like values are lower-cased.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)

	for i := range cfg.Caches {
		cfg.Caches[i].Policy = strings.ToLower(cfg.Caches[i].Policy)
		if cfg.Caches[i].Policy == "" {
			cfg.Caches[i].Policy = DefaultCachePolicy
		}
	}

	for i := range cfg.Limiters {
		l := &cfg.Limiters[i]
		l.Algorithm = strings.ToLower(l.Algorithm)
		if l.Algorithm == "" {
			l.Algorithm = DefaultLimiterAlgorithm
		}
		if l.PerPrincipal && l.IdleTTL == 0 {
			l.IdleTTL = DefaultIdleTTL
		}
	}

	for i := range cfg.Balancers {
		b := &cfg.Balancers[i]
		b.Strategy = strings.ToLower(b.Strategy)
		if b.Strategy == "" {
			b.Strategy = DefaultBalancerStrategy
		}
		for j := range b.Servers {
			if b.Servers[j].Weight == 0 {
				b.Servers[j].Weight = DefaultServerWeight
			}
		}
	}

	if cfg.Maintenance.CleanupSchedule == "" {
		cfg.Maintenance.CleanupSchedule = DefaultCleanupSchedule
	}

	applyStatsDefaults(&cfg.Stats)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxQueueWait == 0 {
		s.MaxQueueWait = DefaultMaxQueueWait
	}
}

func applyStatsDefaults(s *StatsConfig) {
	s.Backend = strings.ToLower(s.Backend)
	if s.Backend == "" {
		s.Backend = DefaultStatsBackend
	}
	if s.Redis.Addr == "" {
		s.Redis.Addr = DefaultRedisAddr
	}
	if s.Redis.Prefix == "" {
		s.Redis.Prefix = DefaultRedisPrefix
	}
	if s.Redis.TTL == 0 {
		s.Redis.TTL = DefaultRedisTTL
	}
	if s.SQLite.Path == "" {
		s.SQLite.Path = DefaultSQLitePath
	}
	if s.SQLite.BusyTimeout == 0 {
		s.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}
	if t.Metrics.Enabled == nil {
		enabled := true
		t.Metrics.Enabled = &enabled
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
}
