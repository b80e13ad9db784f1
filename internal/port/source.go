package port

import (
	"context"

	"github.com/google/uuid"
)

// DocumentSource provides the normalized text of a contract document, as
// produced by the upstream conversion pipeline. Returns
// domain.ErrDocumentNotFound for unknown IDs.
type DocumentSource interface {
	GetNormalizedText(ctx context.Context, documentID uuid.UUID) (string, error)
}
