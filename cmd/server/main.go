// server runs the auth HTTP API: login, refresh rotation, logout, sessions.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"votegate/internal/audit"
	auditrepo "votegate/internal/audit/repository"
	authhandler "votegate/internal/auth/handler"
	authservice "votegate/internal/auth/service"
	"votegate/internal/config"
	"votegate/internal/db"
	healthhandler "votegate/internal/health/handler"
	"votegate/internal/security"
	"votegate/internal/server"
	"votegate/internal/server/middleware"
	tokenrepo "votegate/internal/token/repository"
	userrepo "votegate/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	signer, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), middleware.ClientIP)
	svc := authservice.NewAuthService(
		userrepo.NewPostgresRepository(conn),
		tokenrepo.NewPostgresRepository(conn),
		security.NewHasher(cfg.BcryptCost),
		tokens,
		auditLogger,
	)

	router := server.NewRouter(server.Deps{
		Auth:           authhandler.NewAuthHandler(svc, cfg.CookieSecure, cfg.RefreshTTL()),
		Health:         healthhandler.NewServer(conn),
		Tokens:         tokens,
		AllowedOrigins: cfg.CORSAllowedOriginsList(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
