package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"mercator-hq/primitives/pkg/config"
	"mercator-hq/primitives/pkg/ratelimit"
	"mercator-hq/primitives/pkg/registry"
	"mercator-hq/primitives/pkg/stats"
	"mercator-hq/primitives/pkg/telemetry/health"
	"mercator-hq/primitives/pkg/telemetry/metrics"
)

// maxBodyBytes caps cache values and queue message bodies.
const maxBodyBytes = 1 << 20

// Server exposes a registry over HTTP.
type Server struct {
	config     config.ServerConfig
	metricsCfg config.MetricsConfig

	registry  *registry.Registry
	stats     stats.Store
	collector *metrics.Collector
	checker   *health.Checker
	version   health.VersionInfo
	logger    *slog.Logger
	inflight  *ratelimit.ConcurrentLimiter

	router  *mux.Router
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithStats records every limiter decision to store. The default is
// stats.Nop.
func WithStats(store stats.Store) Option {
	return func(s *Server) { s.stats = store }
}

// WithCollector sets the metrics collector. The default is a collector on
// a private Prometheus registry.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Server) { s.collector = c }
}

// WithVersion sets the build information served on /version.
func WithVersion(info health.VersionInfo) Option {
	return func(s *Server) { s.version = info }
}

// New creates a server for reg using the server and metrics sections of cfg.
func New(cfg *config.Config, reg *registry.Registry, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if reg == nil {
		return nil, errors.New("server: registry is required")
	}

	s := &Server{
		config:     cfg.Server,
		metricsCfg: cfg.Telemetry.Metrics,
		registry:   reg,
		stats:      stats.Nop{},
		logger:     slog.Default(),
		checker:    health.New(2 * time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.collector == nil {
		s.collector = metrics.NewCollector(&s.metricsCfg, nil)
	}

	if cfg.Server.MaxConcurrent > 0 {
		limiter, err := ratelimit.NewConcurrentLimiter(cfg.Server.MaxConcurrent)
		if err != nil {
			return nil, err
		}
		s.inflight = limiter
	}

	s.checker.Register("stats", func(ctx context.Context) error {
		_, err := s.stats.Totals(ctx, "")
		return err
	})

	s.router = s.setupRoutes()
	s.handler = s.wrap(s.router)
	return s, nil
}

// Handler returns the router with the full middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Checker returns the readiness checker so callers can add checks.
func (s *Server) Checker() *health.Checker {
	return s.checker
}

func (s *Server) wrap(router *mux.Router) http.Handler {
	var h http.Handler = router
	h = concurrencyMiddleware(s.inflight)(h)
	h = requestIDMiddleware(h)
	h = loggingMiddleware(s.logger, router, s.collector)(h)
	h = recoveryMiddleware(s.logger)(h)
	return h
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting primitives server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if ok {
			return err
		}
		return nil
	}
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting connections and waits up to the configured
// shutdown timeout for in-flight requests. Blocked queue operations are not
// interrupted; close the registry to release them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	srv := s.httpServer
	s.mu.Unlock()

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("primitives server stopped")
	return nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
