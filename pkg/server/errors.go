package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"mercator-hq/primitives/pkg/balancer"
	"mercator-hq/primitives/pkg/fault"
	"mercator-hq/primitives/pkg/queue"
	"mercator-hq/primitives/pkg/registry"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Type categorizes the error. See the ErrorType constants.
	Type string `json:"type"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Param is the query or path parameter at fault, if any.
	Param string `json:"param,omitempty"`
}

// Error types.
const (
	// ErrorTypeInvalidRequest indicates a malformed request (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeNotFound indicates an unknown instance or server (404).
	ErrorTypeNotFound = "not_found"

	// ErrorTypeInvalidState indicates the operation cannot run against the
	// instance as configured (409).
	ErrorTypeInvalidState = "invalid_state"

	// ErrorTypeRateLimitExceeded indicates a denied limiter check (429).
	ErrorTypeRateLimitExceeded = "rate_limit_exceeded"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeServiceUnavailable indicates a full queue, a closed queue, or
	// an overloaded server (503).
	ErrorTypeServiceUnavailable = "service_unavailable"
)

// badRequest builds an invalid_request_error for param.
func badRequest(param, message string) ErrorDetail {
	return ErrorDetail{Type: ErrorTypeInvalidRequest, Message: message, Param: param}
}

// classify maps an operation error onto a status code and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, balancer.ErrServerNotFound):
		return http.StatusNotFound, ErrorTypeNotFound
	case errors.Is(err, fault.ErrInvalidState):
		return http.StatusConflict, ErrorTypeInvalidState
	case errors.Is(err, queue.ErrTimeout), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, ErrorTypeServiceUnavailable
	default:
		return http.StatusInternalServerError, ErrorTypeServerError
	}
}

// writeError writes err as a JSON error response.
func writeError(w http.ResponseWriter, err error) {
	status, typ := classify(err)
	writeErrorDetail(w, status, ErrorDetail{Type: typ, Message: err.Error()})
}

func writeErrorDetail(w http.ResponseWriter, status int, detail ErrorDetail) {
	writeJSON(w, status, ErrorResponse{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
