package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/primitives/pkg/balancer"
	"mercator-hq/primitives/pkg/cache"
	"mercator-hq/primitives/pkg/ratelimit"
	"mercator-hq/primitives/pkg/telemetry/logging"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "caches[0].capacity").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateCaches(cfg.Caches)...)
	errs = append(errs, validateLimiters(cfg.Limiters)...)
	errs = append(errs, validateQueues(cfg.Queues)...)
	errs = append(errs, validateBalancers(cfg.Balancers)...)
	errs = append(errs, validateMaintenance(&cfg.Maintenance)...)
	errs = append(errs, validateStats(&cfg.Stats)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	durations := []struct {
		field string
		value int64
	}{
		{"server.read_timeout", int64(cfg.ReadTimeout)},
		{"server.write_timeout", int64(cfg.WriteTimeout)},
		{"server.idle_timeout", int64(cfg.IdleTimeout)},
		{"server.shutdown_timeout", int64(cfg.ShutdownTimeout)},
		{"server.max_queue_wait", int64(cfg.MaxQueueWait)},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, FieldError{Field: d.field, Message: "must not be negative"})
		}
	}

	if cfg.MaxConcurrent < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_concurrent",
			Message: "max concurrent must be non-negative",
		})
	}

	return errs
}

// nameChecker reports missing and duplicate instance names.
type nameChecker struct {
	section string
	seen    map[string]int
}

func newNameChecker(section string) *nameChecker {
	return &nameChecker{section: section, seen: make(map[string]int)}
}

func (n *nameChecker) check(i int, name string) []FieldError {
	field := fmt.Sprintf("%s[%d].name", n.section, i)
	if name == "" {
		return []FieldError{{Field: field, Message: "name is required"}}
	}
	if prev, ok := n.seen[name]; ok {
		return []FieldError{{
			Field:   field,
			Message: fmt.Sprintf("duplicate name %q (also %s[%d])", name, n.section, prev),
		}}
	}
	n.seen[name] = i
	return nil
}

func validateCaches(caches []CacheConfig) []FieldError {
	var errs []FieldError
	names := newNameChecker("caches")

	for i, c := range caches {
		prefix := fmt.Sprintf("caches[%d]", i)
		errs = append(errs, names.check(i, c.Name)...)

		switch cache.Policy(strings.ToLower(c.Policy)) {
		case cache.PolicyLRU, cache.PolicyLFU, cache.PolicyFIFO:
			if c.Capacity <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".capacity",
					Message: "capacity must be positive",
				})
			}
		case cache.PolicyTTL:
			if c.DefaultTTL <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".default_ttl",
					Message: "default ttl must be positive",
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   prefix + ".policy",
				Message: fmt.Sprintf("invalid policy %q (must be lru, lfu, fifo, or ttl)", c.Policy),
			})
		}
	}

	return errs
}

func validateLimiters(limiters []LimiterConfig) []FieldError {
	var errs []FieldError
	names := newNameChecker("limiters")

	for i, l := range limiters {
		prefix := fmt.Sprintf("limiters[%d]", i)
		errs = append(errs, names.check(i, l.Name)...)

		switch ratelimit.Algorithm(strings.ToLower(l.Algorithm)) {
		case ratelimit.AlgorithmTokenBucket:
			if l.Capacity <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".capacity",
					Message: "capacity must be positive",
				})
			}
			if l.RefillRate <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".refill_rate",
					Message: "refill rate must be positive",
				})
			}
		case ratelimit.AlgorithmSlidingLog, ratelimit.AlgorithmSlidingWindow:
			if l.MaxRequests <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".max_requests",
					Message: "max requests must be positive",
				})
			}
			if l.Window <= 0 {
				errs = append(errs, FieldError{
					Field:   prefix + ".window",
					Message: "window must be positive",
				})
			}
			if l.BucketSize < 0 || (l.Window > 0 && l.BucketSize > l.Window) {
				errs = append(errs, FieldError{
					Field:   prefix + ".bucket_size",
					Message: "bucket size must be between 0 and window",
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   prefix + ".algorithm",
				Message: fmt.Sprintf("invalid algorithm %q (must be token_bucket, sliding_log, or sliding_window)", l.Algorithm),
			})
		}

		if l.IdleTTL < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".idle_ttl",
				Message: "idle ttl must not be negative",
			})
		}
	}

	return errs
}

func validateQueues(queues []QueueConfig) []FieldError {
	var errs []FieldError
	names := newNameChecker("queues")

	for i, q := range queues {
		errs = append(errs, names.check(i, q.Name)...)
		if q.MaxSize < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("queues[%d].max_size", i),
				Message: "max size must be non-negative (0 means unbounded)",
			})
		}
	}

	return errs
}

func validateBalancers(balancers []BalancerConfig) []FieldError {
	var errs []FieldError
	names := newNameChecker("balancers")

	for i, b := range balancers {
		prefix := fmt.Sprintf("balancers[%d]", i)
		errs = append(errs, names.check(i, b.Name)...)

		if _, err := balancer.NewStrategy(strings.ToLower(b.Strategy)); err != nil {
			errs = append(errs, FieldError{
				Field:   prefix + ".strategy",
				Message: fmt.Sprintf("invalid strategy %q", b.Strategy),
			})
		}

		ids := make(map[string]bool, len(b.Servers))
		for j, s := range b.Servers {
			sp := fmt.Sprintf("%s.servers[%d]", prefix, j)
			switch {
			case s.ID == "":
				errs = append(errs, FieldError{Field: sp + ".id", Message: "id is required"})
			case ids[s.ID]:
				errs = append(errs, FieldError{Field: sp + ".id", Message: fmt.Sprintf("duplicate server id %q", s.ID)})
			}
			ids[s.ID] = true

			if s.Weight < 0 {
				errs = append(errs, FieldError{Field: sp + ".weight", Message: "weight must be positive"})
			}
		}
	}

	return errs
}

func validateMaintenance(cfg *MaintenanceConfig) []FieldError {
	if _, err := cron.ParseStandard(cfg.CleanupSchedule); err != nil {
		return []FieldError{{
			Field:   "maintenance.cleanup_schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		}}
	}
	return nil
}

func validateStats(cfg *StatsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "none", "memory":
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{Field: "stats.redis.addr", Message: "address is required"})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{Field: "stats.redis.db", Message: "db must be non-negative"})
		}
		if cfg.Redis.TTL < 0 {
			errs = append(errs, FieldError{Field: "stats.redis.ttl", Message: "ttl must not be negative"})
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "stats.sqlite.path", Message: "path is required"})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{Field: "stats.sqlite.busy_timeout", Message: "busy timeout must not be negative"})
		}
		if cfg.SQLite.Retention < 0 {
			errs = append(errs, FieldError{Field: "stats.sqlite.retention", Message: "retention must not be negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "stats.backend",
			Message: fmt.Sprintf("invalid backend %q (must be none, memory, redis, or sqlite)", cfg.Backend),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !logging.ValidLevel(cfg.Logging.Level) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}
	if !logging.ValidFormat(cfg.Logging.Format) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.MetricsEnabled() && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}
