package service

import (
	"math"
	"sort"

	"kontra/internal/domain"
)

// cosineSimilarity returns the cosine of the angle between a and b, or 0 for
// mismatched dimensions or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankChunks sorts candidates by similarity descending, drops entries below
// threshold, and truncates to limit. Identical scores are tie-broken by
// chunk sequence ascending, then document ID, so ranking is deterministic.
func rankChunks(candidates []domain.RankedChunk, limit int, threshold float64) []domain.RankedChunk {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Chunk.Sequence != b.Chunk.Sequence {
			return a.Chunk.Sequence < b.Chunk.Sequence
		}
		return a.Chunk.DocumentID.String() < b.Chunk.DocumentID.String()
	})

	ranked := make([]domain.RankedChunk, 0, limit)
	for _, c := range candidates {
		if c.Similarity < threshold {
			break
		}
		ranked = append(ranked, c)
		if len(ranked) == limit {
			break
		}
	}
	return ranked
}
