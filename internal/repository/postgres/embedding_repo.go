package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"kontra/internal/domain"
	"kontra/internal/port"
)

type embeddingRepo struct {
	db *sqlx.DB
}

// NewEmbeddingRepo creates a new PostgreSQL-backed EmbeddingStore (L2).
func NewEmbeddingRepo(db *sqlx.DB) port.EmbeddingStore {
	return &embeddingRepo{db: db}
}

type embeddingRow struct {
	ChunkFingerprint string          `db:"chunk_fingerprint"`
	Vector           pgvector.Vector `db:"vector"`
	Dimension        int             `db:"dimension"`
	Model            string          `db:"model"`
	CreatedAt        time.Time       `db:"created_at"`
	ExpiresAt        time.Time       `db:"expires_at"`
}

// Lookup applies lazy expiry: an expired row reads as a miss and stays in
// place until the next sweep.
func (r *embeddingRepo) Lookup(ctx context.Context, fp domain.Fingerprint) (*domain.EmbeddingRecord, error) {
	var row embeddingRow
	err := r.db.GetContext(ctx, &row,
		`SELECT chunk_fingerprint, vector, dimension, model, created_at, expires_at
		 FROM embedding_cache
		 WHERE chunk_fingerprint = $1`, string(fp))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: embedding lookup: %v", domain.ErrCacheBackend, err)
	}
	if time.Now().After(row.ExpiresAt) {
		return nil, domain.ErrCacheMiss
	}

	return &domain.EmbeddingRecord{
		ChunkFingerprint: domain.Fingerprint(row.ChunkFingerprint),
		Vector:           row.Vector.Slice(),
		Dimension:        row.Dimension,
		Model:            row.Model,
		CreatedAt:        row.CreatedAt,
		ExpiresAt:        row.ExpiresAt,
	}, nil
}

// Store upserts the record. Concurrent writers racing on the same key both
// succeed; last write wins, and the values are equivalent because the vector
// is a deterministic function of the chunk content.
func (r *embeddingRepo) Store(ctx context.Context, rec *domain.EmbeddingRecord, ttl time.Duration) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO embedding_cache (chunk_fingerprint, vector, dimension, model, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (chunk_fingerprint) DO UPDATE SET
			vector = EXCLUDED.vector,
			dimension = EXCLUDED.dimension,
			model = EXCLUDED.model,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		string(rec.ChunkFingerprint),
		pgvector.NewVector(rec.Vector),
		len(rec.Vector),
		rec.Model,
		now,
		now.Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("%w: embedding store: %v", domain.ErrCacheBackend, err)
	}
	return nil
}

func (r *embeddingRepo) SweepExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM embedding_cache WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("%w: embedding sweep: %v", domain.ErrCacheBackend, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: embedding sweep rows: %v", domain.ErrCacheBackend, err)
	}
	return removed, nil
}

func (r *embeddingRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM embedding_cache`)
	if err != nil {
		return 0, fmt.Errorf("%w: embedding count: %v", domain.ErrCacheBackend, err)
	}
	return count, nil
}
