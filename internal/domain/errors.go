package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input encoding")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrUnknownExtractionKind = errors.New("unknown extraction kind")
	ErrUnknownField          = errors.New("unknown correction field")
	ErrProviderUnavailable   = errors.New("provider unavailable after retries")
	ErrCacheBackend          = errors.New("cache backend unreachable")
	ErrCacheMiss             = errors.New("cache miss")
)
