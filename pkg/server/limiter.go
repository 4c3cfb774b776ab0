package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"mercator-hq/primitives/pkg/stats"
	"mercator-hq/primitives/pkg/telemetry/logging"
)

// CheckResponse is the body returned for an allowed limiter check.
type CheckResponse struct {
	Allowed      bool   `json:"allowed"`
	Limit        int64  `json:"limit"`
	Remaining    int64  `json:"remaining"`
	RetryAfterMs int64  `json:"retry_after_ms,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// LimiterStatus is the body returned by GET /limiters/{name}.
type LimiterStatus struct {
	Name         string         `json:"name"`
	Algorithm    string         `json:"algorithm"`
	PerPrincipal bool           `json:"per_principal"`
	Principals   int            `json:"principals"`
	Totals       stats.Counters `json:"totals"`
}

func (s *Server) handleLimiterCheck(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	l, err := s.registry.Limiter(name)
	if err != nil {
		writeError(w, err)
		return
	}

	principal := r.URL.Query().Get("principal")
	if l.PerPrincipal() && principal == "" {
		writeErrorDetail(w, http.StatusBadRequest, badRequest("principal", "principal is required for per-principal limiters"))
		return
	}
	cost, detail := intParam(r, "cost", 1)
	if detail == nil && cost < 0 {
		d := badRequest("cost", "cost must not be negative")
		detail = &d
	}
	if detail != nil {
		writeErrorDetail(w, http.StatusBadRequest, *detail)
		return
	}

	ctx := r.Context()
	if principal != "" {
		ctx = logging.WithPrincipal(ctx, principal)
	}

	res := l.Check(principal, cost)

	s.collector.RecordDecision(name, res.Allowed)
	ev := stats.Event{Limiter: name, Principal: principal, Allowed: res.Allowed, Cost: cost, At: time.Now()}
	if err := s.stats.Record(ctx, ev); err != nil {
		logging.FromContext(ctx, s.logger).Warn("failed to record limiter decision", "limiter", name, "error", err)
	}

	w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

	if !res.Allowed {
		if res.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res.RetryAfter)))
		}
		logging.FromContext(ctx, s.logger).Debug("limiter denied request",
			"limiter", name, "cost", cost, "reason", res.Reason)
		writeErrorDetail(w, http.StatusTooManyRequests, ErrorDetail{
			Type:    ErrorTypeRateLimitExceeded,
			Message: fmt.Sprintf("limiter %q: %s", name, res.Reason),
		})
		return
	}

	writeJSON(w, http.StatusOK, CheckResponse{
		Allowed:   true,
		Limit:     res.Limit,
		Remaining: res.Remaining,
	})
}

// retryAfterSeconds rounds d up to whole seconds for the Retry-After header.
func retryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func (s *Server) handleLimiterReset(w http.ResponseWriter, r *http.Request) {
	l, err := s.registry.Limiter(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	l.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLimiterStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	l, err := s.registry.Limiter(name)
	if err != nil {
		writeError(w, err)
		return
	}

	totals, err := s.stats.Totals(r.Context(), name)
	if err != nil {
		writeError(w, fmt.Errorf("failed to read decision totals: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, LimiterStatus{
		Name:         name,
		Algorithm:    l.Config.Algorithm,
		PerPrincipal: l.PerPrincipal(),
		Principals:   l.Principals(),
		Totals:       totals,
	})
}
