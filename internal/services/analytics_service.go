package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/repository"
)

// AnalyticsService records observations about replays and aggregates them.
// Records are append-only; every aggregate is computed fresh on read.
type AnalyticsService interface {
	RecordView(ctx context.Context, replayID, viewerUserID string) (*models.AnalyticRecord, error)
	RecordLearningEffectiveness(ctx context.Context, replayID string, beforeScore, afterScore float64) (*models.AnalyticRecord, error)
	RecordStrategyPattern(ctx context.Context, replayID, pattern string, successRate float64) (*models.AnalyticRecord, error)
	RecordDifficultyRating(ctx context.Context, replayID string, rating int) (*models.AnalyticRecord, error)

	ReplayAnalytics(ctx context.Context, replayID, metricType string) ([]models.AnalyticRecord, error)
	ViewCount(ctx context.Context, replayID string) (int, error)
	TopReplaysByViews(ctx context.Context, puzzleID string, limit int) ([]models.ReplayViewCount, error)
	LearningEffectivenessSummary(ctx context.Context, puzzleID string) (*models.LearningEffectivenessSummary, error)
	CommonStrategies(ctx context.Context, puzzleID string, limit int) ([]models.StrategySummary, error)
	DifficultyFeedback(ctx context.Context, puzzleID string) (*models.DifficultyFeedback, error)
	CompletionAnalytics(ctx context.Context, puzzleID string) (*models.CompletionAnalytics, error)
	PlayerLearningProgress(ctx context.Context, userID string, limit int) ([]models.LearningProgress, error)

	CleanupOldAnalytics(ctx context.Context, maxAge time.Duration) (int, error)
}

type analyticsService struct {
	analytics repository.AnalyticRepository
	replays   repository.ReplayRepository
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(analytics repository.AnalyticRepository, replays repository.ReplayRepository) AnalyticsService {
	return &analyticsService{analytics: analytics, replays: replays}
}

func (s *analyticsService) record(ctx context.Context, replayID, metricType string, value models.State) (*models.AnalyticRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("analytics")

	record := models.AnalyticRecord{
		ID:          uuid.NewString(),
		ReplayID:    replayID,
		MetricType:  metricType,
		MetricValue: value,
		RecordedAt:  time.Now().UTC(),
	}
	if err := s.analytics.Insert(ctx, record); err != nil {
		log.Error("failed to record %s: %v", metricType, err)
		return nil, errors.NewInternalError(err)
	}
	return &record, nil
}

func (s *analyticsService) RecordView(ctx context.Context, replayID, viewerUserID string) (*models.AnalyticRecord, error) {
	if viewerUserID == "" {
		viewerUserID = "anonymous"
	}
	return s.record(ctx, replayID, models.MetricView, models.State{
		"viewer_user_id": viewerUserID,
		"viewed_at":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *analyticsService) RecordLearningEffectiveness(ctx context.Context, replayID string, beforeScore, afterScore float64) (*models.AnalyticRecord, error) {
	improvement := afterScore - beforeScore
	improvementRate := 0.0
	if beforeScore > 0 {
		improvementRate = round2(improvement / beforeScore * 100)
	}
	return s.record(ctx, replayID, models.MetricLearningEffectiveness, models.State{
		"before_score":     beforeScore,
		"after_score":      afterScore,
		"improvement":      improvement,
		"improvement_rate": improvementRate,
	})
}

func (s *analyticsService) RecordStrategyPattern(ctx context.Context, replayID, pattern string, successRate float64) (*models.AnalyticRecord, error) {
	return s.record(ctx, replayID, models.MetricStrategyPattern, models.State{
		"pattern":      pattern,
		"frequency":    1,
		"success_rate": successRate,
	})
}

func (s *analyticsService) RecordDifficultyRating(ctx context.Context, replayID string, rating int) (*models.AnalyticRecord, error) {
	if rating < 1 || rating > 5 {
		return nil, errors.NewValidationError("rating", "must be between 1 and 5")
	}
	return s.record(ctx, replayID, models.MetricDifficultyRating, models.State{
		"rating": rating,
		"votes":  1,
	})
}

func (s *analyticsService) ReplayAnalytics(ctx context.Context, replayID, metricType string) ([]models.AnalyticRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("analytics")

	records, err := s.analytics.ListByReplay(ctx, replayID, metricType)
	if err != nil {
		log.Error("failed to list analytics: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return records, nil
}

func (s *analyticsService) ViewCount(ctx context.Context, replayID string) (int, error) {
	count, err := s.analytics.CountViews(ctx, replayID)
	if err != nil {
		return 0, errors.NewInternalError(err)
	}
	return count, nil
}

func (s *analyticsService) TopReplaysByViews(ctx context.Context, puzzleID string, limit int) ([]models.ReplayViewCount, error) {
	out, err := s.analytics.TopReplaysByViews(ctx, puzzleID, limit)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return out, nil
}

func (s *analyticsService) LearningEffectivenessSummary(ctx context.Context, puzzleID string) (*models.LearningEffectivenessSummary, error) {
	summary, err := s.analytics.EffectivenessSummary(ctx, puzzleID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return summary, nil
}

func (s *analyticsService) CommonStrategies(ctx context.Context, puzzleID string, limit int) ([]models.StrategySummary, error) {
	out, err := s.analytics.CommonStrategies(ctx, puzzleID, limit)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return out, nil
}

func (s *analyticsService) DifficultyFeedback(ctx context.Context, puzzleID string) (*models.DifficultyFeedback, error) {
	log := logger.FromContext(ctx).WithPrefix("analytics")

	votes, err := s.analytics.DifficultyRatings(ctx, puzzleID)
	if err != nil {
		log.Error("failed to load difficulty ratings: %v", err)
		return nil, errors.NewInternalError(err)
	}

	feedback := &models.DifficultyFeedback{Distribution: map[int]int{}}
	if len(votes) == 0 {
		return feedback, nil
	}

	for i := 1; i <= 5; i++ {
		feedback.Distribution[i] = 0
	}
	totalRating := 0
	for _, v := range votes {
		rating := int(math.Round(v.Rating))
		feedback.Distribution[rating] += v.Votes
		totalRating += rating * v.Votes
		feedback.VoteCount += v.Votes
	}
	if feedback.VoteCount > 0 {
		feedback.AverageRating = round2(float64(totalRating) / float64(feedback.VoteCount))
	}
	return feedback, nil
}

func (s *analyticsService) CompletionAnalytics(ctx context.Context, puzzleID string) (*models.CompletionAnalytics, error) {
	log := logger.FromContext(ctx).WithPrefix("analytics")

	replays, err := s.replays.ListByPuzzle(ctx, puzzleID)
	if err != nil {
		log.Error("failed to list replays for puzzle %s: %v", puzzleID, err)
		return nil, errors.NewInternalError(err)
	}

	out := &models.CompletionAnalytics{TotalReplays: len(replays)}
	var totalTime, timedCount int64
	var totalScore float64
	var scoredCount int
	for _, r := range replays {
		if r.IsCompleted {
			out.CompletedReplays++
		}
		if r.IsSolved {
			out.SolvedReplays++
		}
		if r.IsCompleted && r.TotalDuration > 0 {
			totalTime += r.TotalDuration
			timedCount++
		}
		if r.IsCompleted && r.ScoreEarned != nil {
			totalScore += *r.ScoreEarned
			scoredCount++
		}
	}

	if out.TotalReplays > 0 {
		out.CompletionRate = round2(float64(out.CompletedReplays) / float64(out.TotalReplays) * 100)
		out.SolveRate = round2(float64(out.SolvedReplays) / float64(out.TotalReplays) * 100)
	}
	if timedCount > 0 {
		out.AverageTime = int64(math.Round(float64(totalTime) / float64(timedCount)))
	}
	if scoredCount > 0 {
		out.AverageScore = round2(totalScore / float64(scoredCount))
	}
	return out, nil
}

func (s *analyticsService) PlayerLearningProgress(ctx context.Context, userID string, limit int) ([]models.LearningProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("analytics")
	if limit <= 0 {
		limit = 10
	}

	// Most recent first; grouping below relies on this order.
	replays, err := s.replays.ListByUser(ctx, userID, limit)
	if err != nil {
		log.Error("failed to list replays for user: %v", err)
		return nil, errors.NewInternalError(err)
	}

	type puzzleGroup struct {
		title  string
		scores []float64
		latest time.Time
	}
	groups := make(map[string]*puzzleGroup)
	var order []string
	for _, r := range replays {
		g, ok := groups[r.PuzzleID]
		if !ok {
			g = &puzzleGroup{title: r.PuzzleTitle, latest: r.CreatedAt}
			groups[r.PuzzleID] = g
			order = append(order, r.PuzzleID)
		}
		if r.ScoreEarned != nil {
			g.scores = append(g.scores, *r.ScoreEarned)
		}
	}

	var progress []models.LearningProgress
	for _, puzzleID := range order {
		g := groups[puzzleID]
		if len(g.scores) == 0 {
			continue
		}
		// Scores arrive newest-first, so the earliest attempt is last.
		first := g.scores[len(g.scores)-1]
		best := g.scores[0]
		for _, s := range g.scores[1:] {
			if s > best {
				best = s
			}
		}
		progress = append(progress, models.LearningProgress{
			PuzzleID:          puzzleID,
			PuzzleTitle:       g.title,
			FirstAttemptScore: first,
			BestScore:         best,
			Improvement:       best - first,
			Attempts:          len(g.scores),
			LastAttemptAt:     g.latest,
		})
	}

	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Improvement > progress[j].Improvement
	})
	return progress, nil
}

func (s *analyticsService) CleanupOldAnalytics(ctx context.Context, maxAge time.Duration) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("analytics")

	cutoff := time.Now().UTC().Add(-maxAge)
	deleted, err := s.analytics.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error("failed to clean up analytics: %v", err)
		return 0, errors.NewInternalError(err)
	}
	log.Info("cleaned up %d analytic records older than %s", deleted, cutoff.Format(time.RFC3339))
	return deleted, nil
}
