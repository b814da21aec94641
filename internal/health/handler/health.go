// Package handler serves liveness/readiness for Kubernetes, load balancers, and CI.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
)

// Pinger reports backing-store reachability (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server serves GET /healthz.
type Server struct {
	db Pinger
}

// NewServer returns a health server. db may be nil; the DB ping is then skipped.
func NewServer(db Pinger) *Server {
	return &Server{db: db}
}

// Healthz reports 200 when the process is serving and its database is
// reachable, 503 otherwise.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			log.Printf("health: db ping failed: %v", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
			return
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
