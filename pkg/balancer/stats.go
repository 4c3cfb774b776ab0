package balancer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks selection outcomes with atomic counters.
type Stats struct {
	totalSelections atomic.Int64
	errors          atomic.Int64

	// perServer tracks selections per server ID
	perServer sync.Map // map[string]*atomic.Int64

	lastResetTime atomic.Int64 // unix nanos
}

func newStats() *Stats {
	s := &Stats{}
	s.lastResetTime.Store(time.Now().UnixNano())
	return s
}

func (s *Stats) recordSelection(id string) {
	s.totalSelections.Add(1)
	val, _ := s.perServer.LoadOrStore(id, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

func (s *Stats) recordError() {
	s.errors.Add(1)
}

// Snapshot returns a consistent-enough copy of the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		TotalSelections: s.totalSelections.Load(),
		Errors:          s.errors.Load(),
		PerServer:       make(map[string]int64),
		LastResetTime:   time.Unix(0, s.lastResetTime.Load()),
	}
	s.perServer.Range(func(key, value any) bool {
		snap.PerServer[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})
	return snap
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.totalSelections.Store(0)
	s.errors.Store(0)
	s.perServer.Range(func(key, _ any) bool {
		s.perServer.Delete(key)
		return true
	})
	s.lastResetTime.Store(time.Now().UnixNano())
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TotalSelections int64            `json:"total_selections"`
	Errors          int64            `json:"errors"`
	PerServer       map[string]int64 `json:"per_server"`
	LastResetTime   time.Time        `json:"last_reset_time"`
}
