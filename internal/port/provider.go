package port

import (
	"context"
	"encoding/json"

	"kontra/internal/domain"
)

// ExtractionOutput is the structured result of one LLM extraction call.
type ExtractionOutput struct {
	Payload    json.RawMessage
	Confidence float64
	Model      string
}

// EmbeddingProvider abstracts the external text-embedding capability.
// Implementations retry transient failures internally and surface
// domain.ErrProviderUnavailable once retries exhaust.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model identifies the embedding model; recorded on every cached vector.
	Model() string
}

// ExtractionProvider abstracts the external LLM field-extraction capability.
// The prompt for a kind is owned by the implementation; callers never pass
// free-form prompt strings.
type ExtractionProvider interface {
	Extract(ctx context.Context, kind domain.ExtractionKind, text string) (*ExtractionOutput, error)
}
