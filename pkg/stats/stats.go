// Package stats records rate limit decisions to a pluggable backend.
//
// Recording is best-effort: callers log a failed Record and carry on, the
// decision itself is never affected by the sink.
package stats

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/primitives/pkg/config"
)

// Event is one rate limit decision.
type Event struct {
	Limiter   string
	Principal string // empty for shared limiters
	Allowed   bool
	Cost      int
	At        time.Time
}

// Counters are cumulative decision totals.
type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// Total returns Allowed + Denied.
func (c Counters) Total() int64 { return c.Allowed + c.Denied }

// Store persists decision events. Implementations are safe for concurrent use.
type Store interface {
	// Record stores one decision.
	Record(ctx context.Context, ev Event) error

	// Totals returns the cumulative counters for limiter.
	Totals(ctx context.Context, limiter string) (Counters, error)

	// Close releases backend resources.
	Close() error
}

// New opens the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StatsConfig) (Store, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStoreFromConfig(ctx, cfg.Redis)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, cfg.SQLite.BusyTimeout)
	default:
		return nil, fmt.Errorf("unknown stats backend %q", cfg.Backend)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

func (Nop) Totals(context.Context, string) (Counters, error) { return Counters{}, nil }

func (Nop) Close() error { return nil }

func eventTime(ev Event) time.Time {
	if ev.At.IsZero() {
		return time.Now()
	}
	return ev.At
}

// Cleaner is implemented by stores that retain individual events.
type Cleaner interface {
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)
}
