package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"mercator-hq/primitives/pkg/telemetry/health"
)

func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.checker.LivenessHandler()).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/ready", s.checker.ReadinessHandler()).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", health.VersionHandler(s.version)).Methods(http.MethodGet)
	if s.metricsCfg.MetricsEnabled() {
		r.Handle(s.metricsCfg.Path, s.collector.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/instances", s.handleInstances).Methods(http.MethodGet)

	r.HandleFunc("/caches/{name}", s.handleCacheStats).Methods(http.MethodGet)
	r.HandleFunc("/limiters/{name}", s.handleLimiterStats).Methods(http.MethodGet)
	r.HandleFunc("/queues/{name}", s.handleQueueStats).Methods(http.MethodGet)
	r.HandleFunc("/balancers/{name}", s.handleBalancerStats).Methods(http.MethodGet)

	caches := r.PathPrefix("/caches/{name}").Subrouter()
	caches.HandleFunc("/cleanup", s.handleCacheCleanup).Methods(http.MethodPost)
	caches.HandleFunc("/{key}", s.handleCacheGet).Methods(http.MethodGet)
	caches.HandleFunc("/{key}", s.handleCachePut).Methods(http.MethodPut)
	caches.HandleFunc("/{key}", s.handleCacheDelete).Methods(http.MethodDelete)

	limiters := r.PathPrefix("/limiters/{name}").Subrouter()
	limiters.HandleFunc("/check", s.handleLimiterCheck).Methods(http.MethodPost)
	limiters.HandleFunc("/reset", s.handleLimiterReset).Methods(http.MethodPost)

	queues := r.PathPrefix("/queues/{name}").Subrouter()
	queues.HandleFunc("/messages", s.handleQueuePut).Methods(http.MethodPost)
	queues.HandleFunc("/messages", s.handleQueueGet).Methods(http.MethodGet)

	balancers := r.PathPrefix("/balancers/{name}").Subrouter()
	balancers.HandleFunc("/next", s.handleBalancerNext).Methods(http.MethodGet)
	balancers.HandleFunc("/servers/{id}/complete", s.handleServerComplete).Methods(http.MethodPost)
	balancers.HandleFunc("/servers/{id}/health", s.handleServerHealth).Methods(http.MethodPut)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorDetail(w, http.StatusNotFound, ErrorDetail{Type: ErrorTypeNotFound, Message: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorDetail(w, http.StatusMethodNotAllowed, ErrorDetail{Type: ErrorTypeInvalidRequest, Message: r.Method + " is not allowed on " + r.URL.Path})
	})

	return r
}

func (s *Server) handleInstances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Names())
}
