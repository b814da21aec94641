// sweeper purges refresh token lineages that are fully revoked and past the
// retention horizon. Run continuously (default) or once with -once.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"votegate/internal/config"
	"votegate/internal/db"
	"votegate/internal/retention"
	tokenrepo "votegate/internal/token/repository"
)

func main() {
	once := false
	for _, arg := range os.Args[1:] {
		if arg == "-once" || arg == "--once" {
			once = true
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	sweeper := retention.NewSweeper(
		tokenrepo.NewPostgresRepository(conn),
		cfg.RetentionHorizonDuration(),
		cfg.SweepIntervalDuration(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("sweeper: shutting down...")
		cancel()
	}()

	if once {
		n, err := sweeper.SweepOnce(ctx)
		if err != nil {
			log.Fatalf("sweeper: %v", err)
		}
		log.Printf("sweeper: purged %d expired revoked token records", n)
		return
	}

	log.Printf("sweeper: horizon %s, interval %s", cfg.RetentionHorizonDuration(), cfg.SweepIntervalDuration())
	sweeper.Run(ctx)
}
