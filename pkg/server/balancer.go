package server

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gorilla/mux"

	"mercator-hq/primitives/pkg/balancer"
)

// ServerStatus describes one pool member.
type ServerStatus struct {
	ID                string `json:"id"`
	Weight            int    `json:"weight"`
	Healthy           bool   `json:"healthy"`
	ActiveConnections int64  `json:"active_connections"`
	TotalRequests     int64  `json:"total_requests"`
}

func serverStatus(srv *balancer.Server) ServerStatus {
	return ServerStatus{
		ID:                srv.ID(),
		Weight:            srv.Weight(),
		Healthy:           srv.IsHealthy(),
		ActiveConnections: srv.ActiveConnections(),
		TotalRequests:     srv.TotalRequests(),
	}
}

// BalancerStatus is the body returned by GET /balancers/{name}.
type BalancerStatus struct {
	Name     string                 `json:"name"`
	Strategy string                 `json:"strategy"`
	Servers  []ServerStatus         `json:"servers"`
	Stats    balancer.StatsSnapshot `json:"stats"`
}

// healthRequest is the body of PUT /balancers/{name}/servers/{id}/health.
type healthRequest struct {
	Healthy *bool `json:"healthy"`
}

// clientID returns ?client=, falling back to the caller's IP address.
func clientID(r *http.Request) string {
	if c := r.URL.Query().Get("client"); c != "" {
		return c
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleBalancerNext selects a server for ?client=. With ?acquire=true the
// selection also counts as a started request; pair it with /complete.
func (s *Server) handleBalancerNext(w http.ResponseWriter, r *http.Request) {
	b, err := s.registry.Balancer(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	acquire, detail := boolParam(r, "acquire")
	if detail != nil {
		writeErrorDetail(w, http.StatusBadRequest, *detail)
		return
	}

	req := balancer.Request{ClientID: clientID(r)}
	var srv *balancer.Server
	if acquire {
		srv, err = b.Acquire(req)
	} else {
		srv, err = b.Next(req)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serverStatus(srv))
}

func (s *Server) handleServerComplete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	b, err := s.registry.Balancer(vars["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := b.Release(vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleServerHealth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	b, err := s.registry.Balancer(vars["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	srv, err := b.Server(vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	var body healthRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || body.Healthy == nil {
		writeErrorDetail(w, http.StatusBadRequest, badRequest("healthy", `body must be {"healthy": true|false}`))
		return
	}

	srv.SetHealthy(*body.Healthy)
	s.logger.Info("server health changed",
		"balancer", b.Name,
		"server", srv.ID(),
		"healthy", *body.Healthy,
	)
	writeJSON(w, http.StatusOK, serverStatus(srv))
}

func (s *Server) handleBalancerStats(w http.ResponseWriter, r *http.Request) {
	b, err := s.registry.Balancer(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}

	servers := b.Servers()
	status := BalancerStatus{
		Name:     b.Name,
		Strategy: b.Strategy().Name(),
		Servers:  make([]ServerStatus, 0, len(servers)),
		Stats:    b.Stats(),
	}
	for _, srv := range servers {
		status.Servers = append(status.Servers, serverStatus(srv))
	}
	writeJSON(w, http.StatusOK, status)
}
