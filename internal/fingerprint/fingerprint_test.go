package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kontra/internal/domain"
	"kontra/internal/fingerprint"
)

func TestCompute_Deterministic(t *testing.T) {
	a, err := fingerprint.Compute("Artikel 5: Datenschutz gilt.", "data-protection-clauses")
	assert.NoError(t, err)
	b, err := fingerprint.Compute("Artikel 5: Datenschutz gilt.", "data-protection-clauses")
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, string(a), 64)
}

func TestCompute_DifferentPurposesDiffer(t *testing.T) {
	a, err := fingerprint.Compute("same text", "payment-terms")
	assert.NoError(t, err)
	b, err := fingerprint.Compute("same text", "termination-clauses")
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCompute_DifferentTextsDiffer(t *testing.T) {
	a, err := fingerprint.Compute("text one", "chunk")
	assert.NoError(t, err)
	b, err := fingerprint.Compute("text two", "chunk")
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCompute_SeparatorUnambiguous(t *testing.T) {
	// ("ab", "c") and ("b", "ca") must not collide even though the
	// concatenated bytes would without a separator.
	a, err := fingerprint.Compute("ab", "c")
	assert.NoError(t, err)
	b, err := fingerprint.Compute("b", "ca")
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCompute_InvalidUTF8(t *testing.T) {
	_, err := fingerprint.Compute(string([]byte{0xff, 0xfe}), "chunk")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = fingerprint.Compute("ok", string([]byte{0xc3, 0x28}))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
