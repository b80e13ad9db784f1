package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kontra/internal/chunker"
	"kontra/internal/config"
	"kontra/internal/handler"
	"kontra/internal/provider"
	_ "kontra/internal/provider/openai"
	"kontra/internal/repository/postgres"
	"kontra/internal/router"
	"kontra/internal/service"
	"kontra/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	embStore := postgres.NewEmbeddingRepo(db)
	extStore := postgres.NewExtractionRepo(db)

	// Initialize document source
	docSource, err := source.NewS3Source(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize document source: %w", err)
	}

	// Initialize providers
	embedder, err := provider.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	extractor, err := provider.NewExtractor(&cfg.Extraction)
	if err != nil {
		return fmt.Errorf("failed to initialize extraction provider: %w", err)
	}

	// Initialize services
	intelSvc := service.NewIntelService(
		docSource, embStore, extStore, embedder, extractor,
		chunker.New(cfg.Chunker.TargetSize, cfg.Chunker.Overlap),
		service.NewPolicyTable(cfg.Policy.Fields),
		service.IntelConfig{
			L1MaxEntries:    cfg.Cache.L1MaxEntries,
			L1TTL:           cfg.Cache.L1TTL,
			L2TTL:           cfg.Cache.L2TTL,
			L3TTL:           cfg.Cache.L3TTL,
			ReviewThreshold: cfg.Extraction.ReviewThreshold,
			ProviderTimeout: time.Duration(cfg.Extraction.TimeoutSecs) * time.Second,
			DefaultLimit:    cfg.RAG.DefaultLimit,
		},
	)

	// Initialize handlers
	intelH := handler.NewIntelHandler(intelSvc, cfg.RAG.DefaultLimit, cfg.RAG.DefaultThreshold)
	cacheH := handler.NewCacheHandler(intelSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(intelH, cacheH, healthH, cfg.CORS.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if cfg.Sweep.Enabled {
		worker := service.NewSweepWorker(intelSvc, service.SweepConfig{Interval: cfg.Sweep.Interval})
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Start(ctx)
		}()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Printf("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	wg.Wait()

	return nil
}
