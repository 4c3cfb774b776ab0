package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// durationParam parses the query parameter name as a Go duration, or as a
// bare number of seconds. A missing parameter yields def.
func durationParam(r *http.Request, name string, def time.Duration) (time.Duration, *ErrorDetail) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		raw = fmt.Sprintf("%gs", secs)
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		detail := badRequest(name, fmt.Sprintf("%s must be a non-negative duration such as 500ms or 2s", name))
		return 0, &detail
	}
	return d, nil
}

// intParam parses the query parameter name as an integer. A missing
// parameter yields def.
func intParam(r *http.Request, name string, def int) (int, *ErrorDetail) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		detail := badRequest(name, fmt.Sprintf("%s must be an integer", name))
		return 0, &detail
	}
	return n, nil
}

// boolParam parses the query parameter name as a boolean. A missing
// parameter yields false.
func boolParam(r *http.Request, name string) (bool, *ErrorDetail) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		detail := badRequest(name, fmt.Sprintf("%s must be true or false", name))
		return false, &detail
	}
	return b, nil
}

// waitFor caps a client-requested wait at the configured maximum. Zero
// requested means wait as long as allowed.
func (s *Server) waitFor(requested time.Duration) time.Duration {
	limit := s.config.MaxQueueWait
	if limit <= 0 {
		return requested
	}
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}
