package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/primitives/pkg/cli"
	"mercator-hq/primitives/pkg/config"
	"mercator-hq/primitives/pkg/registry"
	"mercator-hq/primitives/pkg/server"
	"mercator-hq/primitives/pkg/stats"
	"mercator-hq/primitives/pkg/telemetry/health"
	"mercator-hq/primitives/pkg/telemetry/logging"
	"mercator-hq/primitives/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	watch         bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the primitives server",
	Long: `Start the HTTP server hosting every instance named in the configuration.

Instances are reloaded from the file on SIGHUP, and on every change to the
file when --watch is set. A reload that fails validation is logged and the
running instances are kept. Server, stats, and telemetry settings are only
read at startup.

Examples:
  # Start with the default config file
  primitives serve

  # Override the listen address
  primitives serve --config /etc/primitives.yaml --listen 0.0.0.0:8090

  # Hot reload instances
  primitives serve --watch`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVarP(&serveFlags.watch, "watch", "w", false, "reload instances when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Initialize(cfgFile)
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		if !logging.ValidLevel(serveFlags.logLevel) {
			return cli.NewUsageError("invalid log level %q", serveFlags.logLevel)
		}
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := cli.SetupSignalHandler(parent)
	defer stop()

	store, err := stats.New(ctx, cfg.Stats)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("failed to open stats backend: %w", err))
	}
	defer store.Close()

	reg, err := registry.New(cfg, registry.WithLogger(logger))
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer reg.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	collector.RegisterSource(reg)

	schedOpts := []registry.SchedulerOption{registry.WithSchedulerLogger(logger)}
	if cleaner, ok := store.(stats.Cleaner); ok && cfg.Stats.SQLite.Retention > 0 {
		schedOpts = append(schedOpts, registry.WithStatsRetention(cleaner, cfg.Stats.SQLite.Retention))
	}
	scheduler := registry.NewScheduler(reg, cfg.Maintenance.CleanupSchedule, schedOpts...)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer scheduler.Stop()

	srv, err := server.New(cfg, reg,
		server.WithLogger(logger),
		server.WithStats(store),
		server.WithCollector(collector),
		server.WithVersion(health.NewVersionInfo(Version, GitCommit, BuildDate)),
	)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	printBanner(cmd, cfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	apply := func(next *config.Config) {
		if err := reg.Apply(next); err != nil {
			logger.Error("failed to apply reloaded configuration", "error", err)
			return
		}
		config.SetConfig(next)
	}

	if serveFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		g.Go(func() error {
			return watcher.Watch(gctx, apply)
		})
	}

	hup, stopHup := cli.ReloadSignals()
	defer stopHup()
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				next, err := config.ReloadConfig()
				if err != nil {
					logger.Error("reload on SIGHUP failed, keeping previous configuration", "error", err)
					continue
				}
				apply(next)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Config{
		Level:      cfg.Telemetry.Logging.Level,
		Format:     cfg.Telemetry.Logging.Format,
		AddSource:  cfg.Telemetry.Logging.AddSource,
		RedactKeys: cfg.Telemetry.Logging.RedactKeys,
		Writer:     os.Stderr,
	})
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "primitives v%s\n", Version)
	fmt.Fprintf(out, "✓ Configuration loaded from %s\n", cfgFile)
	fmt.Fprintf(out, "✓ %d caches, %d limiters, %d queues, %d balancers\n",
		len(cfg.Caches), len(cfg.Limiters), len(cfg.Queues), len(cfg.Balancers))
	fmt.Fprintf(out, "✓ Stats backend: %s\n", cfg.Stats.Backend)
	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.MetricsEnabled() {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
