package provider

import (
	"fmt"

	"kontra/internal/config"
	"kontra/internal/port"
)

// EmbedderFactory creates an EmbeddingProvider from a provider config.
type EmbedderFactory func(cfg *config.ProviderConfig) (port.EmbeddingProvider, error)

// ExtractorFactory creates an ExtractionProvider from an extraction config.
type ExtractorFactory func(cfg *config.ExtractionConfig) (port.ExtractionProvider, error)

// registries of provider factories, populated by init() in each provider
// package or explicitly via the Register functions.
var (
	embedders  = map[string]EmbedderFactory{}
	extractors = map[string]ExtractorFactory{}
)

// RegisterEmbedder registers an embedding provider factory by name.
func RegisterEmbedder(name string, factory EmbedderFactory) {
	embedders[name] = factory
}

// RegisterExtractor registers an extraction provider factory by name.
func RegisterExtractor(name string, factory ExtractorFactory) {
	extractors[name] = factory
}

// NewEmbedder creates an EmbeddingProvider using the registered factory.
func NewEmbedder(cfg *config.ProviderConfig) (port.EmbeddingProvider, error) {
	factory, ok := embedders[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewExtractor creates an ExtractionProvider using the registered factory.
func NewExtractor(cfg *config.ExtractionConfig) (port.ExtractionProvider, error) {
	factory, ok := extractors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
