package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Fingerprint is the stable content hash identifying a (text, purpose) pair.
// Two documents with identical normalized text and identical purpose are
// indistinguishable to every cache tier.
type Fingerprint string

// CacheEntry is the envelope shared by all cache tiers. ExpiresAt is always
// set for persisted entries; in-memory entries may additionally be evicted by
// size pressure before expiry.
type CacheEntry[T any] struct {
	Key         Fingerprint
	Value       T
	CreatedAt   time.Time
	ExpiresAt   time.Time
	AccessCount int64
}

// Expired reports whether the entry's TTL has passed at the given instant.
func (e *CacheEntry[T]) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// ChunkMetadata carries the stable per-chunk annotations produced by the
// chunker from the document's section structure.
type ChunkMetadata struct {
	Title         string    `json:"title,omitempty"`
	ArticleNumber string    `json:"article_number,omitempty"`
	ChunkType     ChunkType `json:"chunk_type"`
}

// Chunk is a bounded, overlapping slice of a document's normalized text.
// Chunks are immutable; re-chunking the same text reproduces the same
// boundaries, sequence numbers, and fingerprints.
type Chunk struct {
	Fingerprint Fingerprint   `json:"fingerprint"`
	DocumentID  uuid.UUID     `json:"document_id"`
	Sequence    int           `json:"sequence"`
	Text        string        `json:"text"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// EmbeddingRecord is one row of the persisted embedding cache. One row per
// unique chunk content, shared across documents containing identical text.
type EmbeddingRecord struct {
	ChunkFingerprint Fingerprint `db:"chunk_fingerprint" json:"chunk_fingerprint"`
	Vector           []float32   `db:"-" json:"-"`
	Dimension        int         `db:"dimension" json:"dimension"`
	Model            string      `db:"model" json:"model"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	ExpiresAt        time.Time   `db:"expires_at" json:"expires_at"`
}

// ExtractionResult is the structured output of an LLM extraction task,
// cached per (document fingerprint, extraction kind).
type ExtractionResult struct {
	DocumentFingerprint Fingerprint      `db:"document_fingerprint" json:"document_fingerprint"`
	Kind                ExtractionKind   `db:"extraction_kind" json:"extraction_kind"`
	Payload             json.RawMessage  `db:"payload" json:"payload"`
	Confidence          float64          `db:"confidence" json:"confidence"`
	Status              ExtractionStatus `db:"status" json:"status"`
	Model               string           `db:"model" json:"model"`
	SourceText          string           `db:"source_text" json:"source_text,omitempty"`
	ExtractedAt         time.Time        `db:"extracted_at" json:"extracted_at"`
	ExpiresAt           time.Time        `db:"expires_at" json:"expires_at"`
}

// RankedChunk is a chunk annotated with its similarity to a question.
type RankedChunk struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// FieldCorrectionPolicy is static per-field configuration driving whether a
// RAG-derived correction is auto-applied or surfaced for human review.
type FieldCorrectionPolicy struct {
	FieldName             string  `json:"field" mapstructure:"field"`
	RAGQuery              string  `json:"query" mapstructure:"query"`
	ConservativeThreshold float64 `json:"threshold" mapstructure:"threshold"`
}

// FieldCorrection is a RAG-derived candidate value for a structured field.
// AutoApplied is true only when the supporting chunk's similarity clears the
// field's conservative threshold; otherwise the candidate is a suggestion.
type FieldCorrection struct {
	FieldName      string       `json:"field"`
	CandidateValue string       `json:"candidate_value,omitempty"`
	Similarity     float64      `json:"similarity"`
	Threshold      float64      `json:"threshold"`
	AutoApplied    bool         `json:"auto_applied"`
	Source         *RankedChunk `json:"source,omitempty"`
}

// MemoryCacheStats is the operational snapshot of the in-memory tier.
// Counters reset on process restart; they are a signal, not a ledger.
type MemoryCacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// TierStats holds row counts for a persisted cache tier.
type TierStats struct {
	Count        int64 `json:"count"`
	ExpiredCount int64 `json:"expired_count,omitempty"`
}

// CacheStats aggregates statistics across all three tiers.
type CacheStats struct {
	Level1 MemoryCacheStats `json:"level1"`
	Level2 TierStats        `json:"level2"`
	Level3 TierStats        `json:"level3"`
}

// SweepResult reports how many expired rows a sweep removed per tier.
type SweepResult struct {
	Level2Removed int64 `json:"level2_removed"`
	Level3Removed int64 `json:"level3_removed"`
	Removed       int64 `json:"removed"`
}
