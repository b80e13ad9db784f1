package domain

// ExtractionKind identifies an independent extraction task on a document.
// Each kind carries its own prompt and expected result schema; results for
// different kinds on the same document are cached independently.
type ExtractionKind string

const (
	KindDataProtectionClauses ExtractionKind = "data-protection-clauses"
	KindPaymentTerms          ExtractionKind = "payment-terms"
	KindTerminationClauses    ExtractionKind = "termination-clauses"
)

// Valid reports whether k is a known extraction kind.
func (k ExtractionKind) Valid() bool {
	switch k {
	case KindDataProtectionClauses, KindPaymentTerms, KindTerminationClauses:
		return true
	}
	return false
}

// ExtractionStatus represents the lifecycle of an extraction task.
type ExtractionStatus string

const (
	ExtractionPending      ExtractionStatus = "pending"
	ExtractionProcessing   ExtractionStatus = "processing"
	ExtractionCompleted    ExtractionStatus = "completed"
	ExtractionFailed       ExtractionStatus = "failed"
	ExtractionManualReview ExtractionStatus = "manual_review"
)

// ChunkType classifies a chunk of contract text.
type ChunkType string

const (
	ChunkTypeClause  ChunkType = "clause"
	ChunkTypeTable   ChunkType = "table"
	ChunkTypeText    ChunkType = "text"
	ChunkTypePartial ChunkType = "partial"
)

// Fingerprint purposes. The question and chunk purposes share the embedding
// cache table; the extraction purposes key the result cache.
const (
	PurposeChunk    = "chunk"
	PurposeQuestion = "question"
)
