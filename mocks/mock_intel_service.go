package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"kontra/internal/domain"
)

// MockIntelService is a mock implementation of service.IntelService.
type MockIntelService struct {
	mock.Mock
}

func (m *MockIntelService) GetOrExtract(ctx context.Context, documentID uuid.UUID, kind domain.ExtractionKind) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, documentID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockIntelService) AnswerQuestion(ctx context.Context, question string, documentIDs []uuid.UUID, limit int, threshold float64) ([]domain.RankedChunk, error) {
	args := m.Called(ctx, question, documentIDs, limit, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RankedChunk), args.Error(1)
}

func (m *MockIntelService) SuggestFieldCorrection(ctx context.Context, fieldName string, documentIDs []uuid.UUID) (*domain.FieldCorrection, error) {
	args := m.Called(ctx, fieldName, documentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FieldCorrection), args.Error(1)
}

func (m *MockIntelService) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheStats), args.Error(1)
}

func (m *MockIntelService) ClearMemoryCache() {
	m.Called()
}

func (m *MockIntelService) SweepExpired(ctx context.Context) (*domain.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepResult), args.Error(1)
}
