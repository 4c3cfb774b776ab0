// Package registry hosts the named primitive instances described by a
// configuration: caches, rate limiters, queues, and balancer pools.
//
// A Registry is built from a config.Config and can be re-applied with a new
// one. Instances whose configuration is unchanged survive a reload with
// their state intact, changed instances are rebuilt, and removed queues are
// closed so blocked callers return.
//
// The Scheduler runs the periodic maintenance that lazily-expiring
// primitives rely on: TTL cache cleanup, idle principal eviction, and
// decision-log retention.
package registry
