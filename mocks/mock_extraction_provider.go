package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kontra/internal/domain"
	"kontra/internal/port"
)

// MockExtractionProvider is a mock implementation of port.ExtractionProvider.
type MockExtractionProvider struct {
	mock.Mock
}

func (m *MockExtractionProvider) Extract(ctx context.Context, kind domain.ExtractionKind, text string) (*port.ExtractionOutput, error) {
	args := m.Called(ctx, kind, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractionOutput), args.Error(1)
}
