package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"kontra/internal/domain"
	"kontra/internal/port"
)

type extractionRepo struct {
	db *sqlx.DB
}

// NewExtractionRepo creates a new PostgreSQL-backed ExtractionStore (L3).
func NewExtractionRepo(db *sqlx.DB) port.ExtractionStore {
	return &extractionRepo{db: db}
}

func (r *extractionRepo) Lookup(ctx context.Context, fp domain.Fingerprint, kind domain.ExtractionKind) (*domain.ExtractionResult, error) {
	var res domain.ExtractionResult
	err := r.db.GetContext(ctx, &res,
		`SELECT document_fingerprint, extraction_kind, payload, confidence, status,
		        model, source_text, extracted_at, expires_at
		 FROM extraction_cache
		 WHERE document_fingerprint = $1 AND extraction_kind = $2`,
		string(fp), string(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: extraction lookup: %v", domain.ErrCacheBackend, err)
	}
	// Lazy expiry: the row is only removed by a sweep.
	if time.Now().After(res.ExpiresAt) {
		return nil, domain.ErrCacheMiss
	}
	return &res, nil
}

func (r *extractionRepo) Store(ctx context.Context, res *domain.ExtractionResult, ttl time.Duration) error {
	now := time.Now()
	expiresAt := now.Add(ttl)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_cache (
			document_fingerprint, extraction_kind, payload, confidence, status,
			model, source_text, extracted_at, expires_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (document_fingerprint, extraction_kind) DO UPDATE SET
			payload = EXCLUDED.payload,
			confidence = EXCLUDED.confidence,
			status = EXCLUDED.status,
			model = EXCLUDED.model,
			source_text = EXCLUDED.source_text,
			extracted_at = EXCLUDED.extracted_at,
			expires_at = EXCLUDED.expires_at`,
		string(res.DocumentFingerprint),
		string(res.Kind),
		[]byte(res.Payload),
		res.Confidence,
		string(res.Status),
		res.Model,
		res.SourceText,
		res.ExtractedAt,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("%w: extraction store: %v", domain.ErrCacheBackend, err)
	}
	return nil
}

func (r *extractionRepo) SweepExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM extraction_cache WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("%w: extraction sweep: %v", domain.ErrCacheBackend, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: extraction sweep rows: %v", domain.ErrCacheBackend, err)
	}
	return removed, nil
}

func (r *extractionRepo) Counts(ctx context.Context) (total, expired int64, err error) {
	row := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE expires_at < NOW())
		 FROM extraction_cache`)
	if err := row.Scan(&total, &expired); err != nil {
		return 0, 0, fmt.Errorf("%w: extraction counts: %v", domain.ErrCacheBackend, err)
	}
	return total, expired, nil
}
