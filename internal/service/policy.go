package service

import (
	"fmt"

	"kontra/internal/domain"
)

// PolicyTable is the static per-field correction policy lookup. It is built
// once at startup from configuration and never mutated at runtime.
type PolicyTable struct {
	fields map[string]domain.FieldCorrectionPolicy
}

// NewPolicyTable builds the lookup from configured field policies.
func NewPolicyTable(policies []domain.FieldCorrectionPolicy) *PolicyTable {
	fields := make(map[string]domain.FieldCorrectionPolicy, len(policies))
	for _, p := range policies {
		fields[p.FieldName] = p
	}
	return &PolicyTable{fields: fields}
}

// Get returns the policy for a field, or domain.ErrUnknownField.
func (t *PolicyTable) Get(fieldName string) (domain.FieldCorrectionPolicy, error) {
	p, ok := t.fields[fieldName]
	if !ok {
		return domain.FieldCorrectionPolicy{}, fmt.Errorf("%w: %s", domain.ErrUnknownField, fieldName)
	}
	return p, nil
}

// Apply decides whether a RAG-derived candidate clears the field's
// conservative threshold. Below threshold the candidate is attached as a
// suggestion only, never silently applied.
func (t *PolicyTable) Apply(policy domain.FieldCorrectionPolicy, candidate *domain.RankedChunk) domain.FieldCorrection {
	correction := domain.FieldCorrection{
		FieldName: policy.FieldName,
		Threshold: policy.ConservativeThreshold,
	}
	if candidate == nil {
		return correction
	}
	correction.CandidateValue = candidate.Chunk.Text
	correction.Similarity = candidate.Similarity
	correction.Source = candidate
	correction.AutoApplied = candidate.Similarity >= policy.ConservativeThreshold
	return correction
}
