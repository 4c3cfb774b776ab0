package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/primitives/pkg/stats"
)

// Scheduler runs registry maintenance on a cron schedule.
type Scheduler struct {
	registry *Registry
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	cleaner   stats.Cleaner
	retention time.Duration

	mu      sync.Mutex
	running bool
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithStatsRetention also deletes decision events older than retention from
// cleaner on every run. A zero retention disables this.
func WithStatsRetention(cleaner stats.Cleaner, retention time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.cleaner = cleaner
		s.retention = retention
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler creates a maintenance scheduler for reg. schedule is a
// standard cron expression or descriptor such as "@every 1m".
func NewScheduler(reg *Registry, schedule string, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		registry: reg,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "registry.scheduler")
	return s
}

// Start schedules maintenance and returns immediately. The scheduler stops
// when ctx is cancelled or Stop is called. An empty schedule disables it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("Cleanup schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("Maintenance scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce performs one maintenance pass synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) {
	res := s.registry.Cleanup()

	var pruned int
	if s.cleaner != nil && s.retention > 0 {
		n, err := s.cleaner.Cleanup(ctx, time.Now().Add(-s.retention))
		if err != nil {
			s.logger.Error("Decision log pruning failed", "error", err)
		}
		pruned = n
	}

	if res.Expired > 0 || res.Principals > 0 || pruned > 0 {
		s.logger.Info("Maintenance completed",
			"expired_entries", res.Expired,
			"idle_principals", res.Principals,
			"pruned_decisions", pruned,
		)
	} else {
		s.logger.Debug("Maintenance completed, nothing removed")
	}
}

// Stop stops the scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("Maintenance scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pass, or nil if none is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
