package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/puzzlereplay/internal/models"
)

// MockAnalyticRepository is a mock implementation of repository.AnalyticRepository
type MockAnalyticRepository struct {
	mock.Mock
}

func (m *MockAnalyticRepository) Insert(ctx context.Context, record models.AnalyticRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAnalyticRepository) ListByReplay(ctx context.Context, replayID, metricType string) ([]models.AnalyticRecord, error) {
	args := m.Called(ctx, replayID, metricType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AnalyticRecord), args.Error(1)
}

func (m *MockAnalyticRepository) CountViews(ctx context.Context, replayID string) (int, error) {
	args := m.Called(ctx, replayID)
	return args.Int(0), args.Error(1)
}

func (m *MockAnalyticRepository) TopReplaysByViews(ctx context.Context, puzzleID string, limit int) ([]models.ReplayViewCount, error) {
	args := m.Called(ctx, puzzleID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReplayViewCount), args.Error(1)
}

func (m *MockAnalyticRepository) EffectivenessSummary(ctx context.Context, puzzleID string) (*models.LearningEffectivenessSummary, error) {
	args := m.Called(ctx, puzzleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LearningEffectivenessSummary), args.Error(1)
}

func (m *MockAnalyticRepository) CommonStrategies(ctx context.Context, puzzleID string, limit int) ([]models.StrategySummary, error) {
	args := m.Called(ctx, puzzleID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StrategySummary), args.Error(1)
}

func (m *MockAnalyticRepository) DifficultyRatings(ctx context.Context, puzzleID string) ([]models.RatingVote, error) {
	args := m.Called(ctx, puzzleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RatingVote), args.Error(1)
}

func (m *MockAnalyticRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}
