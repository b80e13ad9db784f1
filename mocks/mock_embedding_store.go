package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"kontra/internal/domain"
)

// MockEmbeddingStore is a mock implementation of port.EmbeddingStore.
type MockEmbeddingStore struct {
	mock.Mock
}

func (m *MockEmbeddingStore) Lookup(ctx context.Context, fp domain.Fingerprint) (*domain.EmbeddingRecord, error) {
	args := m.Called(ctx, fp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmbeddingRecord), args.Error(1)
}

func (m *MockEmbeddingStore) Store(ctx context.Context, rec *domain.EmbeddingRecord, ttl time.Duration) error {
	args := m.Called(ctx, rec, ttl)
	return args.Error(0)
}

func (m *MockEmbeddingStore) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEmbeddingStore) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
