// Package server assembles the HTTP router: auth endpoints, health, CORS, and
// the request middleware stack.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	authhandler "votegate/internal/auth/handler"
	healthhandler "votegate/internal/health/handler"
	"votegate/internal/security"
	"votegate/internal/server/middleware"
)

// Deps holds the handlers and shared infrastructure the router needs.
type Deps struct {
	// Auth serves the login, refresh, logout, register and sessions
	// endpoints. Required.
	Auth *authhandler.AuthHandler
	// Health serves GET /healthz. Required.
	Health *healthhandler.Server
	// Tokens validates Bearer access tokens on protected routes. Required.
	Tokens *security.TokenProvider
	// AllowedOrigins is the CORS allowlist. Credentials (the refresh cookie)
	// only flow cross-origin when the origin is listed here, so "*" is never
	// used.
	AllowedOrigins []string
}

// NewRouter builds the full HTTP handler chain.
func NewRouter(deps Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.CaptureClientIP)

	deps.Auth.Register(r, middleware.RequireAuth(deps.Tokens))
	r.HandleFunc("/healthz", deps.Health.Healthz).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
