package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmbeddingProvider is a mock implementation of port.EmbeddingProvider.
type MockEmbeddingProvider struct {
	mock.Mock
}

func (m *MockEmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbeddingProvider) Model() string {
	args := m.Called()
	return args.String(0)
}
