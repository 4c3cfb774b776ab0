package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"mercator-hq/primitives/pkg/balancer"
	"mercator-hq/primitives/pkg/cache"
	"mercator-hq/primitives/pkg/cli"
	"mercator-hq/primitives/pkg/queue"
	"mercator-hq/primitives/pkg/ratelimit"
)

// Bench components.
const (
	componentCache     = "cache"
	componentRateLimit = "ratelimit"
	componentQueue     = "queue"
	componentBalancer  = "balancer"
)

// benchOptions describes one benchmark run.
type benchOptions struct {
	Component   string
	Variant     string // cache policy, limiter algorithm, or balancer strategy
	Duration    time.Duration
	Rate        int // operations per second across all workers; 0 is unpaced
	Concurrency int
	Size        int // cache capacity, limiter capacity, queue bound, or pool size
}

var benchFlags struct {
	benchOptions
	format   string
	progress bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Drive synthetic load through one primitive",
	Long: `Run an in-process load test against a single primitive and report
throughput, latency percentiles, and outcome counts.

Components and their --variant values:
  cache      lru (default), lfu, fifo, ttl
  ratelimit  token_bucket (default), sliding_log, sliding_window
  queue      fifo (default), priority
  balancer   round_robin (default), least_connections, weighted_round_robin, ip_hash

--size sets the cache capacity, limiter capacity per second, queue bound,
or number of backends. --rate paces operations across all workers; 0 runs
as fast as possible.

Examples:
  primitives bench --component cache --variant lfu --size 1000
  primitives bench --component ratelimit --rate 2000 --size 500
  primitives bench --component balancer --variant ip_hash --concurrency 8 --format json`,
	Args: cobra.NoArgs,
	RunE: runBenchCmd,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	f := benchCmd.Flags()
	f.StringVar(&benchFlags.Component, "component", componentCache, "component: cache, ratelimit, queue, balancer")
	f.StringVar(&benchFlags.Variant, "variant", "", "policy, algorithm, or strategy (component default if empty)")
	f.DurationVar(&benchFlags.Duration, "duration", 5*time.Second, "test duration")
	f.IntVar(&benchFlags.Rate, "rate", 0, "operations per second (0 = unpaced)")
	f.IntVar(&benchFlags.Concurrency, "concurrency", 4, "concurrent workers")
	f.IntVar(&benchFlags.Size, "size", 1000, "primitive size")
	f.StringVar(&benchFlags.format, "format", "text", "output format: text, json")
	f.BoolVar(&benchFlags.progress, "progress", true, "show a progress bar (text format only)")
}

func runBenchCmd(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(benchFlags.format)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	var progress *cli.Progress
	if format == cli.FormatText && benchFlags.progress {
		progress = cli.NewProgress(cmd.ErrOrStderr(), benchFlags.Duration)
	}

	res, err := runBench(ctx, benchFlags.benchOptions, progress)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), res)
}

// benchResult summarizes a run.
type benchResult struct {
	Component   string           `json:"component"`
	Variant     string           `json:"variant"`
	Duration    time.Duration    `json:"duration_ns"`
	Ops         int64            `json:"ops"`
	Throughput  float64          `json:"ops_per_second"`
	Concurrency int              `json:"concurrency"`
	Latency     latencySummary   `json:"latency"`
	Outcomes    map[string]int64 `json:"outcomes"`
}

type latencySummary struct {
	P50 time.Duration `json:"p50_ns"`
	P95 time.Duration `json:"p95_ns"`
	P99 time.Duration `json:"p99_ns"`
	Max time.Duration `json:"max_ns"`
}

func (r *benchResult) Header() []string { return []string{"METRIC", "VALUE"} }

func (r *benchResult) Rows() [][]string {
	rows := [][]string{
		{"component", r.Component + "/" + r.Variant},
		{"duration", r.Duration.Round(time.Millisecond).String()},
		{"concurrency", strconv.Itoa(r.Concurrency)},
		{"ops", strconv.FormatInt(r.Ops, 10)},
		{"throughput", fmt.Sprintf("%.0f ops/s", r.Throughput)},
		{"latency p50", r.Latency.P50.String()},
		{"latency p95", r.Latency.P95.String()},
		{"latency p99", r.Latency.P99.String()},
		{"latency max", r.Latency.Max.String()},
	}
	keys := make([]string, 0, len(r.Outcomes))
	for k := range r.Outcomes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		rows = append(rows, []string{"outcome " + k, strconv.FormatInt(r.Outcomes[k], 10)})
	}
	return rows
}

// workload is one primitive under test. op performs a single operation
// and returns its outcome label. finish may add outcomes only known at the
// end of the run.
type workload struct {
	variant string
	op      func(ctx context.Context, worker int, seq int64) string
	finish  func(outcomes map[string]int64)
}

func runBench(ctx context.Context, opts benchOptions, progress *cli.Progress) (*benchResult, error) {
	if opts.Duration <= 0 {
		return nil, cli.NewUsageError("--duration must be positive")
	}
	if opts.Concurrency <= 0 {
		return nil, cli.NewUsageError("--concurrency must be positive")
	}
	if opts.Size <= 0 {
		return nil, cli.NewUsageError("--size must be positive")
	}
	if opts.Rate < 0 {
		return nil, cli.NewUsageError("--rate must not be negative")
	}

	w, err := newWorkload(opts)
	if err != nil {
		return nil, err
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), max(1, opts.Rate/100))
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	var (
		seq       atomic.Int64
		mu        sync.Mutex
		latencies []time.Duration
		outcomes  = make(map[string]int64)
	)

	stopProgress := startProgress(ctx, progress, &seq)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for worker := range opts.Concurrency {
		g.Go(func() error {
			local := make(map[string]int64)
			var lat []time.Duration
			for {
				if err := limiter.Wait(gctx); err != nil {
					break
				}
				if gctx.Err() != nil {
					break
				}
				n := seq.Add(1)
				t0 := time.Now()
				local[w.op(gctx, worker, n)]++
				lat = append(lat, time.Since(t0))
			}

			mu.Lock()
			latencies = append(latencies, lat...)
			for k, v := range local {
				outcomes[k] += v
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)
	stopProgress()

	if w.finish != nil {
		w.finish(outcomes)
	}

	ops := int64(len(latencies))
	return &benchResult{
		Component:   opts.Component,
		Variant:     w.variant,
		Duration:    elapsed,
		Ops:         ops,
		Throughput:  float64(ops) / elapsed.Seconds(),
		Concurrency: opts.Concurrency,
		Latency:     summarize(latencies),
		Outcomes:    outcomes,
	}, nil
}

func startProgress(ctx context.Context, progress *cli.Progress, seq *atomic.Int64) func() {
	if progress == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				progress.Update(seq.Load())
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		progress.Update(seq.Load())
		progress.Finish()
	}
}

func summarize(latencies []time.Duration) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}
	slices.Sort(latencies)
	at := func(p float64) time.Duration {
		i := int(float64(len(latencies)-1) * p)
		return latencies[i]
	}
	return latencySummary{
		P50: at(0.50),
		P95: at(0.95),
		P99: at(0.99),
		Max: latencies[len(latencies)-1],
	}
}

func newWorkload(opts benchOptions) (*workload, error) {
	switch opts.Component {
	case componentCache:
		return cacheWorkload(opts)
	case componentRateLimit:
		return rateLimitWorkload(opts)
	case componentQueue:
		return queueWorkload(opts)
	case componentBalancer:
		return balancerWorkload(opts)
	default:
		return nil, cli.NewUsageError("unknown component %q (must be cache, ratelimit, queue, or balancer)", opts.Component)
	}
}

// cacheWorkload reads keys drawn from twice the capacity through a
// read-through loader, so roughly half the lookups miss at steady state.
func cacheWorkload(opts benchOptions) (*workload, error) {
	policy := cache.Policy(defaultString(opts.Variant, string(cache.PolicyLRU)))
	c, err := cache.New[int, []byte](policy, opts.Size, time.Second)
	if err != nil {
		return nil, cli.NewUsageError("%v", err)
	}
	loader := cache.NewLoader(c, func(_ context.Context, key int) ([]byte, error) {
		return []byte(strconv.Itoa(key)), nil
	})

	keySpace := opts.Size * 2
	return &workload{
		variant: string(policy),
		op: func(ctx context.Context, _ int, _ int64) string {
			if _, err := loader.GetOrLoad(ctx, rand.IntN(keySpace)); err != nil {
				return "error"
			}
			return "ok"
		},
		finish: func(out map[string]int64) {
			st := c.Stats()
			out["hits"] = int64(st.Hits)
			out["misses"] = int64(st.Misses)
			out["evictions"] = int64(st.Evictions)
		},
	}, nil
}

// rateLimitWorkload admits Size units per second; every worker asks for
// one unit per operation.
func rateLimitWorkload(opts benchOptions) (*workload, error) {
	algo := ratelimit.Algorithm(defaultString(opts.Variant, string(ratelimit.AlgorithmTokenBucket)))
	l, err := ratelimit.New(ratelimit.Config{
		Algorithm:   algo,
		Capacity:    int64(opts.Size),
		RefillRate:  float64(opts.Size),
		MaxRequests: int64(opts.Size),
		Window:      time.Second,
	})
	if err != nil {
		return nil, cli.NewUsageError("%v", err)
	}

	return &workload{
		variant: string(algo),
		op: func(context.Context, int, int64) string {
			if l.Allow() {
				return "allowed"
			}
			return "denied"
		},
	}, nil
}

// queueWorkload alternates puts and gets with a short timeout on a queue
// bounded to Size.
func queueWorkload(opts benchOptions) (*workload, error) {
	const wait = time.Millisecond

	variant := defaultString(opts.Variant, "fifo")
	var put func(v, prio int) error
	var get func() error

	switch variant {
	case "fifo":
		q, err := queue.New[int](opts.Size)
		if err != nil {
			return nil, err
		}
		put = func(v, _ int) error { return q.PutTimeout(v, wait) }
		get = func() error { _, err := q.GetTimeout(wait); return err }
	case "priority":
		q, err := queue.NewPriority[int](opts.Size)
		if err != nil {
			return nil, err
		}
		put = func(v, prio int) error { return q.PutTimeout(v, prio, wait) }
		get = func() error { _, err := q.GetTimeout(wait); return err }
	default:
		return nil, cli.NewUsageError("unknown queue variant %q (must be fifo or priority)", variant)
	}

	label := func(ok string, err error) string {
		switch {
		case err == nil:
			return ok
		case errors.Is(err, queue.ErrTimeout):
			return "timeout"
		default:
			return "error"
		}
	}

	return &workload{
		variant: variant,
		op: func(_ context.Context, _ int, seq int64) string {
			if seq%2 == 0 {
				return label("put", put(int(seq), rand.IntN(10)))
			}
			return label("get", get())
		},
	}, nil
}

// balancerWorkload acquires and releases a backend per operation over a
// pool of Size servers with weights 1..3.
func balancerWorkload(opts benchOptions) (*workload, error) {
	name := defaultString(opts.Variant, balancer.StrategyRoundRobin)
	strategy, err := balancer.NewStrategy(name)
	if err != nil {
		return nil, cli.NewUsageError("%v", err)
	}

	servers := make([]*balancer.Server, 0, opts.Size)
	for i := range opts.Size {
		srv, err := balancer.NewServer(fmt.Sprintf("backend-%d", i), i%3+1)
		if err != nil {
			return nil, err
		}
		servers = append(servers, srv)
	}
	b := balancer.New(strategy, servers...)

	return &workload{
		variant: name,
		op: func(_ context.Context, _ int, _ int64) string {
			client := fmt.Sprintf("10.0.%d.%d", rand.IntN(256), rand.IntN(256))
			srv, err := b.Acquire(balancer.Request{ClientID: client})
			if err != nil {
				return "error"
			}
			_ = b.Release(srv.ID())
			return srv.ID()
		},
	}, nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
