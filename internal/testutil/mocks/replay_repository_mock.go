package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/puzzlereplay/internal/models"
)

// MockReplayRepository is a mock implementation of repository.ReplayRepository
type MockReplayRepository struct {
	mock.Mock
}

func (m *MockReplayRepository) Insert(ctx context.Context, replay models.Replay) error {
	args := m.Called(ctx, replay)
	return args.Error(0)
}

func (m *MockReplayRepository) Get(ctx context.Context, id string) (*models.Replay, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Replay), args.Error(1)
}

func (m *MockReplayRepository) GetByShareCode(ctx context.Context, code string) (*models.Replay, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Replay), args.Error(1)
}

func (m *MockReplayRepository) Update(ctx context.Context, replay models.Replay) error {
	args := m.Called(ctx, replay)
	return args.Error(0)
}

func (m *MockReplayRepository) List(ctx context.Context, filter models.ReplayFilter) ([]models.Replay, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Replay), args.Error(1)
}

func (m *MockReplayRepository) Count(ctx context.Context, filter models.ReplayFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockReplayRepository) ListPublicByPuzzle(ctx context.Context, puzzleID string, limit, offset int) ([]models.Replay, error) {
	args := m.Called(ctx, puzzleID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Replay), args.Error(1)
}

func (m *MockReplayRepository) CountPublicByPuzzle(ctx context.Context, puzzleID string) (int, error) {
	args := m.Called(ctx, puzzleID)
	return args.Int(0), args.Error(1)
}

func (m *MockReplayRepository) ListByPuzzle(ctx context.Context, puzzleID string) ([]models.Replay, error) {
	args := m.Called(ctx, puzzleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Replay), args.Error(1)
}

func (m *MockReplayRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Replay, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Replay), args.Error(1)
}

func (m *MockReplayRepository) ListArchiveCandidates(ctx context.Context, cutoff time.Time, limit int) ([]models.Replay, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Replay), args.Error(1)
}
