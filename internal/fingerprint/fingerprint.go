// Package fingerprint derives stable cache keys from document text.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"kontra/internal/domain"
)

// Compute returns the fingerprint of a (normalized text, purpose) pair:
// SHA-256 over the UTF-8 bytes of purpose || NUL || text. The NUL separator
// keeps (purpose, text) pairs unambiguous. Deterministic and side-effect free.
func Compute(normalizedText, purpose string) (domain.Fingerprint, error) {
	if !utf8.ValidString(normalizedText) {
		return "", fmt.Errorf("%w: text is not valid UTF-8", domain.ErrInvalidInput)
	}
	if !utf8.ValidString(purpose) {
		return "", fmt.Errorf("%w: purpose is not valid UTF-8", domain.ErrInvalidInput)
	}

	h := sha256.New()
	h.Write([]byte(purpose))
	h.Write([]byte{0x00})
	h.Write([]byte(normalizedText))
	return domain.Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}
