package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/services"
	"github.com/vytor/puzzlereplay/internal/testutil/mocks"
)

type ComparisonServiceSuite struct {
	suite.Suite
	replays   *mocks.MockReplayRepository
	actions   *mocks.MockActionRepository
	analytics *mocks.MockAnalyticRepository
	svc       services.ComparisonService
}

func (s *ComparisonServiceSuite) SetupTest() {
	s.replays = new(mocks.MockReplayRepository)
	s.actions = new(mocks.MockActionRepository)
	s.analytics = new(mocks.MockAnalyticRepository)
	compression := services.NewCompressionService(s.replays, s.actions)
	s.svc = services.NewComparisonService(s.replays, s.analytics, compression)
}

func (s *ComparisonServiceSuite) stubReplay(replay *models.Replay, actions []models.Action) {
	s.replays.On("Get", mock.Anything, replay.ID).Return(replay, nil)
	s.actions.On("ListByReplay", mock.Anything, replay.ID).Return(actions, nil)
}

func moveAction(seq int, move string) models.Action {
	return models.Action{
		SequenceNumber: seq,
		ActionType:     models.ActionMove,
		ActionData:     models.State{"move": move},
	}
}

func (s *ComparisonServiceSuite) TestCompareReplays_Improvement() {
	score1, score2 := 75.0, 90.0
	original := &models.Replay{
		ID:            "orig",
		TotalDuration: 10000,
		ScoreEarned:   &score1,
		HintsUsed:     2,
		MovesCount:    4,
		UndosCount:    1,
		Efficiency:    75,
	}
	updated := &models.Replay{
		ID:            "new",
		TotalDuration: 8000,
		ScoreEarned:   &score2,
		HintsUsed:     1,
		MovesCount:    3,
		UndosCount:    0,
		Efficiency:    90,
	}
	s.stubReplay(original, []models.Action{
		moveAction(0, "a"), moveAction(1, "b"), moveAction(2, "x"), moveAction(3, "c"),
	})
	s.stubReplay(updated, []models.Action{
		moveAction(0, "a"), moveAction(1, "b"), moveAction(2, "c"),
	})
	s.analytics.On("Insert", mock.Anything, mock.AnythingOfType("models.AnalyticRecord")).Return(nil)

	comparison, err := s.svc.CompareReplays(context.Background(), "orig", "new")
	s.Require().NoError(err)

	s.Assert().Equal(int64(2000), comparison.Timing.TimeSavings)
	s.Assert().Equal(20.0, comparison.Timing.TimeSavingsPercentage)
	s.Assert().Equal(15.0, comparison.Performance.ScoreImprovement)
	s.Assert().Equal(20.0, comparison.Performance.ScoreImprovementPercentage)
	s.Assert().Equal(1, comparison.Performance.HintsReduction)
	s.Assert().Equal(15.0, comparison.Performance.EfficiencyGain)

	// The extra "x" move in the original is the only divergence.
	s.Assert().Equal(1, comparison.ActionDifferences.TotalDifferenceCount)
	s.Assert().Equal(1, comparison.ActionDifferences.RemovedActions)

	s.Assert().True(comparison.Learning.StrategyImprovement)
	s.Assert().True(comparison.Learning.MistakesReduced)
	s.Assert().Equal(17.5, comparison.Learning.OptimizationLevel)

	summary := s.svc.Summary(comparison)
	s.Assert().True(summary.Improved)
	s.Assert().Contains(summary.ImprovementAreas, "Score increased")
	s.Assert().Contains(summary.ImprovementAreas, "Required fewer hints")
	s.Assert().Contains(summary.ImprovementAreas, "Solved faster")
	s.Assert().Contains(summary.ImprovementAreas, "Made fewer mistakes")
	s.Assert().Empty(summary.AreasForImprovement)

	s.analytics.AssertCalled(s.T(), "Insert", mock.Anything, mock.AnythingOfType("models.AnalyticRecord"))
}

func (s *ComparisonServiceSuite) TestCompareReplays_SelfComparison() {
	score := 50.0
	replay := &models.Replay{
		ID:            "same",
		TotalDuration: 5000,
		ScoreEarned:   &score,
		MovesCount:    2,
		Efficiency:    50,
	}
	s.stubReplay(replay, []models.Action{moveAction(0, "a"), moveAction(1, "b")})
	s.analytics.On("Insert", mock.Anything, mock.AnythingOfType("models.AnalyticRecord")).Return(nil)

	comparison, err := s.svc.CompareReplays(context.Background(), "same", "same")
	s.Require().NoError(err)

	s.Assert().Zero(comparison.ActionDifferences.TotalDifferenceCount)
	s.Assert().Zero(comparison.Timing.TimeSavings)
	s.Assert().Zero(comparison.Performance.ScoreImprovement)
	s.Assert().Zero(comparison.Learning.OptimizationLevel)
	s.Assert().False(comparison.Learning.StrategyImprovement)

	summary := s.svc.Summary(comparison)
	s.Assert().False(summary.Improved)
}

func (s *ComparisonServiceSuite) TestCompareReplays_ZeroDurationOriginal() {
	original := &models.Replay{ID: "orig", TotalDuration: 0}
	updated := &models.Replay{ID: "new", TotalDuration: 3000}
	s.stubReplay(original, nil)
	s.stubReplay(updated, nil)
	s.analytics.On("Insert", mock.Anything, mock.AnythingOfType("models.AnalyticRecord")).Return(nil)

	comparison, err := s.svc.CompareReplays(context.Background(), "orig", "new")
	s.Require().NoError(err)
	s.Assert().Zero(comparison.Timing.TimeSavingsPercentage)
	s.Assert().Equal(int64(-3000), comparison.Timing.TimeSavings)
}

func (s *ComparisonServiceSuite) TestCompareReplays_MissingReplay() {
	s.replays.On("Get", mock.Anything, "orig").Return(nil, nil)

	_, err := s.svc.CompareReplays(context.Background(), "orig", "new")
	s.Require().Error(err)
	s.Assert().True(errors.IsNotFound(err))
}

func (s *ComparisonServiceSuite) TestCompareReplays_AnalyticFailureIgnored() {
	replay := &models.Replay{ID: "same", MovesCount: 1}
	s.stubReplay(replay, []models.Action{moveAction(0, "a")})
	s.analytics.On("Insert", mock.Anything, mock.AnythingOfType("models.AnalyticRecord")).
		Return(context.DeadlineExceeded)

	_, err := s.svc.CompareReplays(context.Background(), "same", "same")
	s.Require().NoError(err)
}

func (s *ComparisonServiceSuite) TestCompareSummary_Regressions() {
	score1, score2 := 90.0, 60.0
	original := &models.Replay{ID: "orig", TotalDuration: 5000, ScoreEarned: &score1, UndosCount: 0, MovesCount: 2, Efficiency: 90}
	updated := &models.Replay{ID: "new", TotalDuration: 9000, ScoreEarned: &score2, UndosCount: 3, MovesCount: 5, Efficiency: 60}
	s.stubReplay(original, nil)
	s.stubReplay(updated, nil)
	s.analytics.On("Insert", mock.Anything, mock.AnythingOfType("models.AnalyticRecord")).Return(nil)

	summary, err := s.svc.CompareSummary(context.Background(), "orig", "new")
	s.Require().NoError(err)

	s.Assert().False(summary.Improved)
	s.Assert().Contains(summary.AreasForImprovement, "Score decreased")
	s.Assert().Contains(summary.AreasForImprovement, "Took longer to solve")
	s.Assert().Contains(summary.AreasForImprovement, "More mistakes made")
}

func TestComparisonServiceSuite(t *testing.T) {
	suite.Run(t, new(ComparisonServiceSuite))
}
