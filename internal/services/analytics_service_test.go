package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/services"
	"github.com/vytor/puzzlereplay/internal/testutil/mocks"
)

type AnalyticsServiceSuite struct {
	suite.Suite
	analytics *mocks.MockAnalyticRepository
	replays   *mocks.MockReplayRepository
	svc       services.AnalyticsService
}

func (s *AnalyticsServiceSuite) SetupTest() {
	s.analytics = new(mocks.MockAnalyticRepository)
	s.replays = new(mocks.MockReplayRepository)
	s.svc = services.NewAnalyticsService(s.analytics, s.replays)
}

func (s *AnalyticsServiceSuite) captureInsert() *models.AnalyticRecord {
	captured := &models.AnalyticRecord{}
	s.analytics.On("Insert", mock.Anything, mock.AnythingOfType("models.AnalyticRecord")).
		Run(func(args mock.Arguments) { *captured = args.Get(1).(models.AnalyticRecord) }).
		Return(nil)
	return captured
}

func (s *AnalyticsServiceSuite) TestRecordView_AnonymousDefault() {
	captured := s.captureInsert()

	record, err := s.svc.RecordView(context.Background(), "replay-1", "")
	s.Require().NoError(err)

	s.Assert().Equal(models.MetricView, record.MetricType)
	s.Assert().Equal("anonymous", captured.MetricValue["viewer_user_id"])
	s.Assert().NotEmpty(captured.ID)
}

func (s *AnalyticsServiceSuite) TestRecordLearningEffectiveness_ComputesImprovement() {
	captured := s.captureInsert()

	_, err := s.svc.RecordLearningEffectiveness(context.Background(), "replay-1", 40, 70)
	s.Require().NoError(err)

	s.Assert().Equal(models.MetricLearningEffectiveness, captured.MetricType)
	s.Assert().Equal(30.0, captured.MetricValue["improvement"])
	s.Assert().Equal(75.0, captured.MetricValue["improvement_rate"])
}

func (s *AnalyticsServiceSuite) TestRecordLearningEffectiveness_ZeroBeforeScore() {
	captured := s.captureInsert()

	_, err := s.svc.RecordLearningEffectiveness(context.Background(), "replay-1", 0, 50)
	s.Require().NoError(err)
	s.Assert().Equal(0.0, captured.MetricValue["improvement_rate"])
}

func (s *AnalyticsServiceSuite) TestRecordDifficultyRating_Bounds() {
	for _, rating := range []int{0, 6, -1} {
		_, err := s.svc.RecordDifficultyRating(context.Background(), "replay-1", rating)
		s.Require().Error(err, "rating %d", rating)
		s.Assert().Equal(errors.ErrCodeValidation, err.(*errors.AppError).Code)
	}

	captured := s.captureInsert()
	_, err := s.svc.RecordDifficultyRating(context.Background(), "replay-1", 4)
	s.Require().NoError(err)
	s.Assert().Equal(4, captured.MetricValue["rating"])
	s.Assert().Equal(1, captured.MetricValue["votes"])
}

func (s *AnalyticsServiceSuite) TestDifficultyFeedback_Histogram() {
	s.analytics.On("DifficultyRatings", mock.Anything, "puzzle-1").Return([]models.RatingVote{
		{Rating: 4, Votes: 1},
		{Rating: 4, Votes: 1},
		{Rating: 2, Votes: 1},
	}, nil)

	feedback, err := s.svc.DifficultyFeedback(context.Background(), "puzzle-1")
	s.Require().NoError(err)

	s.Assert().Equal(3, feedback.VoteCount)
	s.Assert().Equal(2, feedback.Distribution[4])
	s.Assert().Equal(1, feedback.Distribution[2])
	s.Assert().Equal(0, feedback.Distribution[5])
	s.Assert().InDelta(3.33, feedback.AverageRating, 0.01)
}

func (s *AnalyticsServiceSuite) TestDifficultyFeedback_Empty() {
	s.analytics.On("DifficultyRatings", mock.Anything, "puzzle-1").Return([]models.RatingVote{}, nil)

	feedback, err := s.svc.DifficultyFeedback(context.Background(), "puzzle-1")
	s.Require().NoError(err)
	s.Assert().Zero(feedback.VoteCount)
	s.Assert().Zero(feedback.AverageRating)
	s.Assert().Empty(feedback.Distribution)
}

func (s *AnalyticsServiceSuite) TestCompletionAnalytics() {
	score1, score2 := 80.0, 60.0
	s.replays.On("ListByPuzzle", mock.Anything, "puzzle-1").Return([]models.Replay{
		{IsCompleted: true, IsSolved: true, TotalDuration: 4000, ScoreEarned: &score1},
		{IsCompleted: true, IsSolved: false, TotalDuration: 6000, ScoreEarned: &score2},
		{IsCompleted: false},
		{IsCompleted: false},
	}, nil)

	out, err := s.svc.CompletionAnalytics(context.Background(), "puzzle-1")
	s.Require().NoError(err)

	s.Assert().Equal(4, out.TotalReplays)
	s.Assert().Equal(2, out.CompletedReplays)
	s.Assert().Equal(1, out.SolvedReplays)
	s.Assert().Equal(50.0, out.CompletionRate)
	s.Assert().Equal(25.0, out.SolveRate)
	s.Assert().Equal(int64(5000), out.AverageTime)
	s.Assert().Equal(70.0, out.AverageScore)
}

func (s *AnalyticsServiceSuite) TestPlayerLearningProgress() {
	s40, s70, s90, s20 := 40.0, 70.0, 90.0, 20.0
	now := time.Now().UTC()
	// Newest first, mirroring the repository ordering.
	s.replays.On("ListByUser", mock.Anything, "user-1", 10).Return([]models.Replay{
		{PuzzleID: "p1", PuzzleTitle: "One", ScoreEarned: &s90, CreatedAt: now},
		{PuzzleID: "p2", PuzzleTitle: "Two", ScoreEarned: &s20, CreatedAt: now.Add(-time.Hour)},
		{PuzzleID: "p1", PuzzleTitle: "One", ScoreEarned: &s70, CreatedAt: now.Add(-2 * time.Hour)},
		{PuzzleID: "p1", PuzzleTitle: "One", ScoreEarned: &s40, CreatedAt: now.Add(-3 * time.Hour)},
		{PuzzleID: "p3", PuzzleTitle: "Three", CreatedAt: now.Add(-4 * time.Hour)},
	}, nil)

	progress, err := s.svc.PlayerLearningProgress(context.Background(), "user-1", 10)
	s.Require().NoError(err)

	// p3 has no scored attempts and is dropped; p1 sorts first on improvement.
	s.Require().Len(progress, 2)
	s.Assert().Equal("p1", progress[0].PuzzleID)
	s.Assert().Equal(40.0, progress[0].FirstAttemptScore)
	s.Assert().Equal(90.0, progress[0].BestScore)
	s.Assert().Equal(50.0, progress[0].Improvement)
	s.Assert().Equal(3, progress[0].Attempts)
	s.Assert().Equal(now, progress[0].LastAttemptAt)

	s.Assert().Equal("p2", progress[1].PuzzleID)
	s.Assert().Zero(progress[1].Improvement)
}

func (s *AnalyticsServiceSuite) TestCleanupOldAnalytics() {
	s.analytics.On("DeleteOlderThan", mock.Anything, mock.AnythingOfType("time.Time")).Return(7, nil)

	deleted, err := s.svc.CleanupOldAnalytics(context.Background(), 90*24*time.Hour)
	s.Require().NoError(err)
	s.Assert().Equal(7, deleted)
}

func TestAnalyticsServiceSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceSuite))
}
