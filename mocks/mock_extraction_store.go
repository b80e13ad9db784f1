package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"kontra/internal/domain"
)

// MockExtractionStore is a mock implementation of port.ExtractionStore.
type MockExtractionStore struct {
	mock.Mock
}

func (m *MockExtractionStore) Lookup(ctx context.Context, fp domain.Fingerprint, kind domain.ExtractionKind) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, fp, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockExtractionStore) Store(ctx context.Context, res *domain.ExtractionResult, ttl time.Duration) error {
	args := m.Called(ctx, res, ttl)
	return args.Error(0)
}

func (m *MockExtractionStore) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExtractionStore) Counts(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}
