package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/primitives/pkg/cli"
)

// ============================================================================
// bench
// ============================================================================

func TestRunBench_Components(t *testing.T) {
	tests := []struct {
		name         string
		opts         benchOptions
		wantVariant  string
		wantOutcomes []string
	}{
		{
			name:         "cache default",
			opts:         benchOptions{Component: componentCache, Size: 16},
			wantVariant:  "lru",
			wantOutcomes: []string{"hits", "misses", "ok"},
		},
		{
			name:         "cache lfu",
			opts:         benchOptions{Component: componentCache, Variant: "lfu", Size: 16},
			wantVariant:  "lfu",
			wantOutcomes: []string{"hits", "misses"},
		},
		{
			name:         "ratelimit sliding log",
			opts:         benchOptions{Component: componentRateLimit, Variant: "sliding_log", Size: 5},
			wantVariant:  "sliding_log",
			wantOutcomes: []string{"allowed", "denied"},
		},
		{
			name:         "queue priority",
			opts:         benchOptions{Component: componentQueue, Variant: "priority", Size: 4},
			wantVariant:  "priority",
			wantOutcomes: []string{"put"},
		},
		{
			name:         "balancer weighted",
			opts:         benchOptions{Component: componentBalancer, Variant: "weighted_round_robin", Size: 3},
			wantVariant:  "weighted_round_robin",
			wantOutcomes: []string{"backend-0", "backend-1", "backend-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Duration = 50 * time.Millisecond
			tt.opts.Concurrency = 2

			res, err := runBench(context.Background(), tt.opts, nil)
			if err != nil {
				t.Fatalf("runBench() error = %v", err)
			}
			if res.Variant != tt.wantVariant {
				t.Errorf("Variant = %q, want %q", res.Variant, tt.wantVariant)
			}
			if res.Ops == 0 {
				t.Error("Ops = 0, want some operations")
			}
			for _, k := range tt.wantOutcomes {
				if res.Outcomes[k] == 0 {
					t.Errorf("Outcomes[%q] = 0, want > 0 (outcomes %v)", k, res.Outcomes)
				}
			}
		})
	}
}

func TestRunBench_RatePacing(t *testing.T) {
	opts := benchOptions{
		Component:   componentRateLimit,
		Duration:    200 * time.Millisecond,
		Rate:        100,
		Concurrency: 4,
		Size:        1000,
	}

	res, err := runBench(context.Background(), opts, nil)
	if err != nil {
		t.Fatalf("runBench() error = %v", err)
	}
	// 100/s for 200ms plus the initial burst of 1.
	if res.Ops > 40 {
		t.Errorf("Ops = %d, want pacing to keep it near 20", res.Ops)
	}
}

func TestRunBench_InvalidOptions(t *testing.T) {
	base := benchOptions{Component: componentCache, Duration: time.Millisecond, Concurrency: 1, Size: 1}

	tests := []struct {
		name   string
		mutate func(*benchOptions)
	}{
		{"unknown component", func(o *benchOptions) { o.Component = "tree" }},
		{"unknown policy", func(o *benchOptions) { o.Variant = "mru" }},
		{"unknown queue variant", func(o *benchOptions) { o.Component = componentQueue; o.Variant = "stack" }},
		{"unknown strategy", func(o *benchOptions) { o.Component = componentBalancer; o.Variant = "random" }},
		{"zero duration", func(o *benchOptions) { o.Duration = 0 }},
		{"zero concurrency", func(o *benchOptions) { o.Concurrency = 0 }},
		{"zero size", func(o *benchOptions) { o.Size = 0 }},
		{"negative rate", func(o *benchOptions) { o.Rate = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.mutate(&opts)
			if _, err := runBench(context.Background(), opts, nil); err == nil {
				t.Error("runBench() error = nil, want error")
			}
		})
	}
}

func TestBenchResult_Rows(t *testing.T) {
	res := &benchResult{
		Component: "cache",
		Variant:   "lru",
		Duration:  time.Second,
		Ops:       10,
		Outcomes:  map[string]int64{"misses": 4, "hits": 6},
	}

	var buf bytes.Buffer
	if err := cli.NewFormatter(cli.FormatText).FormatTo(&buf, res); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	out := buf.String()
	if strings.Index(out, "outcome hits") > strings.Index(out, "outcome misses") {
		t.Errorf("outcomes not sorted:\n%s", out)
	}
	if !strings.Contains(out, "cache/lru") {
		t.Errorf("output missing component/variant:\n%s", out)
	}
}

// ============================================================================
// validate
// ============================================================================

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "primitives.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runValidateWith(t *testing.T, path, format string) (string, error) {
	t.Helper()

	prevFile, prevFormat := cfgFile, validateFlags.format
	t.Cleanup(func() { cfgFile, validateFlags.format = prevFile, prevFormat })
	cfgFile, validateFlags.format = path, format

	var buf bytes.Buffer
	validateCmd.SetOut(&buf)
	t.Cleanup(func() { validateCmd.SetOut(nil) })

	err := runValidate(validateCmd, nil)
	return buf.String(), err
}

func TestValidate_Valid(t *testing.T) {
	path := writeFile(t, `
caches:
  - name: users
    capacity: 100
limiters:
  - name: api
    capacity: 10
    refill_rate: 5
`)

	out, err := runValidateWith(t, path, "json")
	if err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}

	var summary validateSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if summary.Caches != 1 || summary.Limiters != 1 || summary.Queues != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestValidate_Invalid(t *testing.T) {
	path := writeFile(t, `
caches:
  - name: users
    capacity: 0
`)

	_, err := runValidateWith(t, path, "text")
	if err == nil {
		t.Fatal("runValidate() error = nil, want validation error")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("ExitCode = %d, want %d", code, cli.ExitConfig)
	}
	if !strings.Contains(err.Error(), "caches[0].capacity") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestValidate_BadFormat(t *testing.T) {
	_, err := runValidateWith(t, "unused.yaml", "xml")
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("ExitCode = %d, want %d (err %v)", code, cli.ExitUsage, err)
	}
}

// ============================================================================
// version and command tree
// ============================================================================

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	if !strings.HasPrefix(out, "primitives "+Version) {
		t.Errorf("output = %q, want prefix %q", out, "primitives "+Version)
	}
	if !strings.Contains(out, "Go Version:") {
		t.Errorf("output missing Go version: %q", out)
	}
}

func TestCommandTree(t *testing.T) {
	want := map[string]bool{"serve": false, "validate": false, "bench": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	if f := serveCmd.Flags().Lookup("watch"); f == nil {
		t.Error("serve --watch flag missing")
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f == nil || f.DefValue != "primitives.yaml" {
		t.Errorf("--config flag = %+v, want default primitives.yaml", f)
	}
}
