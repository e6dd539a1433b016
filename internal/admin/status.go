// Package admin serves a JSON status endpoint over a UNIX domain
// socket, a supplemented feature (SPEC_FULL.md) grounded on
// main/managementinterface.go's http.HandleFunc + json.Marshal
// pattern, adapted from stratux's TCP management HTTP server to a
// UNIX socket scoped to the local host.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/idaohang/genesis/internal/session"
	"github.com/idaohang/genesis/internal/station"
)

// StationStatus is one station's admitted state, as reported by
// /status.
type StationStatus struct {
	Address string `json:"address"`
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
}

// Status is the full response body of /status.
type Status struct {
	HasBase bool            `json:"has_base"`
	Base    *StationStatus  `json:"base,omitempty"`
	Rovers  []StationStatus `json:"rovers"`
}

// Server exposes registry state over HTTP-over-UNIX-socket.
type Server struct {
	Registry *station.Registry
	Log      *zap.Logger

	// MetricsRegisterer, if set, is mounted at /metrics using the
	// standard Prometheus HTTP handler.
	MetricsRegisterer prometheus.Gatherer
}

// ListenAndServe binds path and serves until the listener is closed.
func (s *Server) ListenAndServe(path string) error {
	ln, err := session.Listen(path)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	if s.MetricsRegisterer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.MetricsRegisterer, promhttp.HandlerOpts{}))
	}
	return http.Serve(ln, mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var resp Status
	if base, ok := s.Registry.Base(); ok {
		resp.HasBase = true
		resp.Base = &StationStatus{Address: base.Address, Type: base.Type.String(), Name: base.Name}
	}
	for _, rv := range s.Registry.Rovers() {
		resp.Rovers = append(resp.Rovers, StationStatus{Address: rv.Address, Type: rv.Type.String(), Name: rv.Name})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Log.Warn("failed to encode status response", zap.Error(err))
	}
}
