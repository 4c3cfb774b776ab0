package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	c, err := s.registry.Cache(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Stats())
}

func (s *Server) handleCacheGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := s.registry.Cache(vars["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	value, ok := c.Get(vars["key"])
	if !ok {
		writeErrorDetail(w, http.StatusNotFound, ErrorDetail{
			Type:    ErrorTypeNotFound,
			Message: "key not found",
			Param:   "key",
		})
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(value)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

func (s *Server) handleCachePut(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := s.registry.Cache(vars["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	ttl, detail := durationParam(r, "ttl", 0)
	if detail != nil {
		writeErrorDetail(w, http.StatusBadRequest, *detail)
		return
	}

	value, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorDetail(w, http.StatusRequestEntityTooLarge, badRequest("body", "value is too large"))
			return
		}
		writeErrorDetail(w, http.StatusBadRequest, badRequest("body", "failed to read value"))
		return
	}

	if err := c.Set(vars["key"], value, ttl); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCacheDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := s.registry.Cache(vars["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": c.Delete(vars["key"])})
}

func (s *Server) handleCacheCleanup(w http.ResponseWriter, r *http.Request) {
	c, err := s.registry.Cache(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": c.Cleanup()})
}
