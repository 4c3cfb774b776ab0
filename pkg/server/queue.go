package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"mercator-hq/primitives/pkg/queue"
	"mercator-hq/primitives/pkg/telemetry/logging"
)

func (s *Server) handleQueuePut(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q, err := s.registry.Queue(name)
	if err != nil {
		writeError(w, err)
		return
	}

	timeout, detail := durationParam(r, "timeout", 0)
	if detail != nil {
		writeErrorDetail(w, http.StatusBadRequest, *detail)
		return
	}
	priority, detail := intParam(r, "priority", 0)
	if detail != nil {
		writeErrorDetail(w, http.StatusBadRequest, *detail)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErrorDetail(w, http.StatusRequestEntityTooLarge, badRequest("body", "message is too large"))
		return
	}
	if !json.Valid(body) {
		writeErrorDetail(w, http.StatusBadRequest, badRequest("body", "message body must be valid JSON"))
		return
	}

	ctx, cancel := s.queueContext(r.Context(), timeout)
	defer cancel()

	msg, err := q.Put(ctx, body, priority)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logging.FromContext(r.Context(), s.logger).Debug("client went away while enqueueing", "queue", name)
			return
		}
		if errors.Is(err, queue.ErrTimeout) {
			writeErrorDetail(w, http.StatusServiceUnavailable, ErrorDetail{
				Type:    ErrorTypeServiceUnavailable,
				Message: "queue is full",
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleQueueGet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	q, err := s.registry.Queue(name)
	if err != nil {
		writeError(w, err)
		return
	}

	timeout, detail := durationParam(r, "timeout", 0)
	if detail != nil {
		writeErrorDetail(w, http.StatusBadRequest, *detail)
		return
	}

	ctx, cancel := s.queueContext(r.Context(), timeout)
	defer cancel()

	msg, err := q.Get(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logging.FromContext(r.Context(), s.logger).Debug("client went away while dequeueing", "queue", name)
		case errors.Is(err, queue.ErrTimeout):
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// queueContext bounds a queue wait by the requested timeout, capped at the
// configured maximum.
func (s *Server) queueContext(parent context.Context, requested time.Duration) (context.Context, context.CancelFunc) {
	wait := s.waitFor(requested)
	if wait <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, wait)
}

func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	q, err := s.registry.Queue(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     q.Name,
		"priority": q.Config.Priority,
		"stats":    q.Stats(),
	})
}
