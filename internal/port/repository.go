package port

import (
	"context"
	"time"

	"kontra/internal/domain"
)

// EmbeddingStore is the persisted L2 cache mapping chunk fingerprint to
// embedding vector. Lookups apply lazy expiry: an expired row reads as a
// miss but is only deleted by SweepExpired.
type EmbeddingStore interface {
	// Lookup returns domain.ErrCacheMiss when no live row exists.
	Lookup(ctx context.Context, fp domain.Fingerprint) (*domain.EmbeddingRecord, error)
	// Store upserts; writing the same key twice overwrites, never duplicates.
	Store(ctx context.Context, rec *domain.EmbeddingRecord, ttl time.Duration) error
	SweepExpired(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ExtractionStore is the persisted L3 cache mapping (document fingerprint,
// extraction kind) to a structured extraction result. Same lazy-expiry
// protocol as EmbeddingStore.
type ExtractionStore interface {
	Lookup(ctx context.Context, fp domain.Fingerprint, kind domain.ExtractionKind) (*domain.ExtractionResult, error)
	Store(ctx context.Context, res *domain.ExtractionResult, ttl time.Duration) error
	SweepExpired(ctx context.Context) (int64, error)
	// Counts returns total live+expired rows and the expired subset.
	Counts(ctx context.Context) (total, expired int64, err error)
}
