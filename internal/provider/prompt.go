package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"kontra/internal/domain"
)

// PromptSpec is the tagged prompt variant for one extraction kind. Each spec
// names the top-level keys the provider must return, so adapter code can
// validate provider output before it ever reaches a cache tier.
type PromptSpec struct {
	Kind         domain.ExtractionKind
	Subject      string
	Fields       string
	RequiredKeys []string
}

var promptSpecs = map[domain.ExtractionKind]PromptSpec{
	domain.KindDataProtectionClauses: {
		Kind:    domain.KindDataProtectionClauses,
		Subject: "data protection and privacy clauses",
		Fields: `{
  "clauses": [
    {
      "article": "",
      "summary": "",
      "obligations": [""],
      "data_categories": [""]
    }
  ],
  "processor_role": "",
  "dpo_contact": "",
  "sub_processors_allowed": false
}`,
		RequiredKeys: []string{"clauses", "processor_role"},
	},
	domain.KindPaymentTerms: {
		Kind:    domain.KindPaymentTerms,
		Subject: "payment terms",
		Fields: `{
  "contract_value": 0,
  "currency": "",
  "payment_due_days": 0,
  "late_payment_interest": "",
  "payment_schedule": [
    {"milestone": "", "amount": 0, "due": ""}
  ]
}`,
		RequiredKeys: []string{"contract_value", "currency", "payment_due_days"},
	},
	domain.KindTerminationClauses: {
		Kind:    domain.KindTerminationClauses,
		Subject: "termination clauses",
		Fields: `{
  "notice_period": "",
  "termination_for_cause": [""],
  "auto_renewal": false,
  "renewal_term": ""
}`,
		RequiredKeys: []string{"notice_period"},
	},
}

// SpecFor returns the prompt spec for a kind, or
// domain.ErrUnknownExtractionKind.
func SpecFor(kind domain.ExtractionKind) (PromptSpec, error) {
	spec, ok := promptSpecs[kind]
	if !ok {
		return PromptSpec{}, fmt.Errorf("%w: %s", domain.ErrUnknownExtractionKind, kind)
	}
	return spec, nil
}

// Build renders the full extraction prompt for this kind.
func (s PromptSpec) Build() string {
	return `You are a contract analysis assistant. Analyze the provided contract text and extract all ` + s.Subject + ` into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- Extract every relevant clause; do not skip, summarize away, or omit any.
- Quote article and section numbers exactly as they appear in the text.
- If a field is not present in the contract, use empty string for text, 0 for numbers, and false for booleans.

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation.

Return two top-level keys: "data" and "confidence".

The "data" object must follow this schema:
` + s.Fields + `

The "confidence" value is a single float between 0.0 and 1.0 expressing your overall confidence in the extracted data. Use a low value when the contract text is ambiguous or clauses are only partially present.`
}

// ValidatePayload checks that a provider's data object carries every
// required top-level key for the kind. Invalid output is rejected before it
// can be cached.
func (s PromptSpec) ValidatePayload(payload json.RawMessage) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return fmt.Errorf("extraction payload is not a JSON object: %w", err)
	}
	var missing []string
	for _, key := range s.RequiredKeys {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("extraction payload for %s missing keys: %s", s.Kind, strings.Join(missing, ", "))
	}
	return nil
}
