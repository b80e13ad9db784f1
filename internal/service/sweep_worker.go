package service

import (
	"context"
	"log"
	"time"
)

// SweepConfig holds settings for the background expiry sweeper.
type SweepConfig struct {
	Interval time.Duration
}

// SweepWorker periodically deletes expired rows from the persisted cache
// tiers. Expired rows already read as misses, so the sweeper is purely a
// storage-reclamation concern and is safe to leave disabled.
type SweepWorker struct {
	intel IntelService
	cfg   SweepConfig
}

// NewSweepWorker creates a new SweepWorker.
func NewSweepWorker(intel IntelService, cfg SweepConfig) *SweepWorker {
	return &SweepWorker{intel: intel, cfg: cfg}
}

// Start runs the sweep loop until ctx is canceled.
func (w *SweepWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	log.Printf("sweepWorker: started (interval=%s)", w.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("sweepWorker: shutdown complete")
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			result, err := w.intel.SweepExpired(sweepCtx)
			cancel()
			if err != nil {
				log.Printf("sweepWorker: sweep error: %v", err)
				continue
			}
			if result.Removed > 0 {
				log.Printf("sweepWorker: removed %d expired rows (embeddings=%d, extractions=%d)",
					result.Removed, result.Level2Removed, result.Level3Removed)
			}
		}
	}
}
