// One-shot expiry sweep for the persisted cache tiers. Intended to be run
// from cron or a scheduled job; the server exposes the same operation via
// POST /api/v1/cache/sweep.
package main

import (
	"context"
	"log"
	"time"

	"kontra/internal/config"
	"kontra/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	embRemoved, err := postgres.NewEmbeddingRepo(db).SweepExpired(ctx)
	if err != nil {
		log.Fatalf("embedding sweep failed: %v", err)
	}
	extRemoved, err := postgres.NewExtractionRepo(db).SweepExpired(ctx)
	if err != nil {
		log.Fatalf("extraction sweep failed: %v", err)
	}

	log.Printf("sweep complete: embeddings=%d extractions=%d", embRemoved, extRemoved)
}
