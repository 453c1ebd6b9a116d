package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/puzzlereplay/internal/align"
	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/repository"
)

// ComparisonService diffs two replays of the same puzzle
type ComparisonService interface {
	CompareReplays(ctx context.Context, originalID, newID string) (*models.Comparison, error)
	// CompareSummary runs a fresh comparison and reduces it to improvement
	// and regression tags.
	CompareSummary(ctx context.Context, originalID, newID string) (*models.ComparisonSummary, error)
	// Summary reduces an existing comparison to improvement and regression tags.
	Summary(comparison *models.Comparison) models.ComparisonSummary
}

type comparisonService struct {
	replays     repository.ReplayRepository
	analytics   repository.AnalyticRepository
	compression CompressionService
}

// NewComparisonService creates a new ComparisonService
func NewComparisonService(replays repository.ReplayRepository, analytics repository.AnalyticRepository, compression CompressionService) ComparisonService {
	return &comparisonService{
		replays:     replays,
		analytics:   analytics,
		compression: compression,
	}
}

func (s *comparisonService) CompareReplays(ctx context.Context, originalID, newID string) (*models.Comparison, error) {
	log := logger.FromContext(ctx).WithPrefix("comparison")
	log.Debug("comparing replays: original=%s, new=%s", originalID, newID)

	original, err := s.getReplay(ctx, "original replay", originalID)
	if err != nil {
		return nil, err
	}
	updated, err := s.getReplay(ctx, "new replay", newID)
	if err != nil {
		return nil, err
	}

	// Comparison always runs over full snapshots, whether or not the logs
	// were delta-compressed in storage.
	originalActions, err := s.compression.DecompressReplay(ctx, originalID)
	if err != nil {
		return nil, err
	}
	newActions, err := s.compression.DecompressReplay(ctx, newID)
	if err != nil {
		return nil, err
	}

	comparison := &models.Comparison{
		OriginalReplayID:  originalID,
		NewReplayID:       newID,
		ActionDifferences: align.Differences(originalActions, newActions),
		Timing:            compareTiming(original, updated),
		Performance:       comparePerformance(original, updated),
	}
	comparison.Learning = deriveLearning(original, updated, comparison.Performance)

	s.recordComparison(ctx, comparison)

	log.Info("comparison done: differences=%d, optimization=%.2f",
		comparison.ActionDifferences.TotalDifferenceCount, comparison.Learning.OptimizationLevel)
	return comparison, nil
}

func (s *comparisonService) getReplay(ctx context.Context, label, id string) (*models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("comparison")

	replay, err := s.replays.Get(ctx, id)
	if err != nil {
		log.Error("failed to get %s: %v", label, err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError(label, id)
	}
	return replay, nil
}

func compareTiming(original, updated *models.Replay) models.TimingComparison {
	t := models.TimingComparison{
		OriginalDuration: original.TotalDuration,
		NewDuration:      updated.TotalDuration,
		TimeSavings:      original.TotalDuration - updated.TotalDuration,
	}
	if original.TotalDuration > 0 {
		t.TimeSavingsPercentage = round2(float64(t.TimeSavings) / float64(original.TotalDuration) * 100)
	}
	return t
}

func comparePerformance(original, updated *models.Replay) models.PerformanceComparison {
	p := models.PerformanceComparison{
		OriginalScore:  scoreOf(original),
		NewScore:       scoreOf(updated),
		HintsReduction: original.HintsUsed - updated.HintsUsed,
		EfficiencyGain: round2(updated.Efficiency - original.Efficiency),
	}
	p.ScoreImprovement = round2(p.NewScore - p.OriginalScore)
	if p.OriginalScore > 0 {
		p.ScoreImprovementPercentage = round2(p.ScoreImprovement / p.OriginalScore * 100)
	}
	return p
}

func deriveLearning(original, updated *models.Replay, perf models.PerformanceComparison) models.LearningMetrics {
	optimization := (perf.ScoreImprovementPercentage + perf.EfficiencyGain) / 2
	optimization = math.Min(100, math.Max(0, optimization))

	return models.LearningMetrics{
		OptimizationLevel:   round2(optimization),
		StrategyImprovement: original.MovesCount > 0 && updated.MovesCount < original.MovesCount,
		MistakesReduced:     updated.UndosCount < original.UndosCount,
		AverageMoveDuration: models.MoveDurationComparison{
			Original: averageMoveDuration(original),
			New:      averageMoveDuration(updated),
			Change:   averageMoveDuration(updated) - averageMoveDuration(original),
		},
	}
}

func averageMoveDuration(r *models.Replay) int64 {
	moves := r.MovesCount
	if moves < 1 {
		moves = 1
	}
	return int64(math.Round(float64(r.TotalDuration) / float64(moves)))
}

func scoreOf(r *models.Replay) float64 {
	if r.ScoreEarned == nil {
		return 0
	}
	return *r.ScoreEarned
}

// recordComparison appends a COMPARISON_METRIC analytic for the new replay.
// Failures are logged only; the comparison result is already computed.
func (s *comparisonService) recordComparison(ctx context.Context, c *models.Comparison) {
	log := logger.FromContext(ctx).WithPrefix("comparison")

	record := models.AnalyticRecord{
		ID:         uuid.NewString(),
		ReplayID:   c.NewReplayID,
		MetricType: models.MetricComparison,
		MetricValue: models.State{
			"original_replay_id": c.OriginalReplayID,
			"optimization_level": c.Learning.OptimizationLevel,
			"time_savings":       c.Timing.TimeSavings,
			"score_improvement":  c.Performance.ScoreImprovement,
		},
		RecordedAt: time.Now().UTC(),
	}
	if err := s.analytics.Insert(ctx, record); err != nil {
		log.Warn("failed to record comparison metric: %v", err)
	}
}

func (s *comparisonService) CompareSummary(ctx context.Context, originalID, newID string) (*models.ComparisonSummary, error) {
	comparison, err := s.CompareReplays(ctx, originalID, newID)
	if err != nil {
		return nil, err
	}
	summary := s.Summary(comparison)
	return &summary, nil
}

func (s *comparisonService) Summary(comparison *models.Comparison) models.ComparisonSummary {
	var improvements, regressions []string

	if comparison.Performance.ScoreImprovement > 0 {
		improvements = append(improvements, "Score increased")
	} else {
		regressions = append(regressions, "Score decreased")
	}

	// Hint usage has no symmetric regression tag.
	if comparison.Performance.HintsReduction > 0 {
		improvements = append(improvements, "Required fewer hints")
	}

	if comparison.Timing.TimeSavings > 0 {
		improvements = append(improvements, "Solved faster")
	} else {
		regressions = append(regressions, "Took longer to solve")
	}

	if comparison.Learning.MistakesReduced {
		improvements = append(improvements, "Made fewer mistakes")
	} else {
		regressions = append(regressions, "More mistakes made")
	}

	return models.ComparisonSummary{
		Improved:            comparison.Learning.OptimizationLevel > 0 && len(improvements) > len(regressions),
		ImprovementAreas:    improvements,
		AreasForImprovement: regressions,
	}
}
