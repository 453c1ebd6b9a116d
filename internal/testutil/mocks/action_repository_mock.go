package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/puzzlereplay/internal/models"
)

// MockActionRepository is a mock implementation of repository.ActionRepository
type MockActionRepository struct {
	mock.Mock
}

func (m *MockActionRepository) Append(ctx context.Context, action models.Action) (*models.Action, error) {
	args := m.Called(ctx, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Action), args.Error(1)
}

func (m *MockActionRepository) ListByReplay(ctx context.Context, replayID string) ([]models.Action, error) {
	args := m.Called(ctx, replayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Action), args.Error(1)
}

func (m *MockActionRepository) ApplyCompression(ctx context.Context, replayID string, rewrites []models.StateRewrite) error {
	args := m.Called(ctx, replayID, rewrites)
	return args.Error(0)
}
