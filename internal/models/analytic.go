package models

import "time"

// Metric types
const (
	MetricView                  = "VIEW"
	MetricLearningEffectiveness = "LEARNING_EFFECTIVENESS"
	MetricStrategyPattern       = "STRATEGY_PATTERN"
	MetricDifficultyRating      = "DIFFICULTY_RATING"
	MetricComparison            = "COMPARISON_METRIC"
)

// AnalyticRecord is one append-only observation about a replay. Records are
// never updated; aggregation is always computed on read.
type AnalyticRecord struct {
	ID          string    `json:"id"`
	ReplayID    string    `json:"replay_id"`
	MetricType  string    `json:"metric_type"`
	MetricValue State     `json:"metric_value"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// ReplayViewCount pairs a replay with its analytic view count.
type ReplayViewCount struct {
	ReplayID  string `json:"replay_id"`
	ViewCount int    `json:"view_count"`
}

// LearningEffectivenessSummary aggregates effectiveness records for a puzzle.
type LearningEffectivenessSummary struct {
	AverageImprovement float64 `json:"average_improvement"`
	TotalViews         int     `json:"total_views"`
}

// StrategySummary is one strategy pattern ranked by how often it was recorded.
type StrategySummary struct {
	Pattern     string  `json:"pattern"`
	Frequency   int     `json:"frequency"`
	SuccessRate float64 `json:"success_rate"`
}

// RatingVote is one difficulty-rating observation with its vote weight.
type RatingVote struct {
	Rating float64 `json:"rating"`
	Votes  int     `json:"votes"`
}

// DifficultyFeedback summarizes player difficulty ratings for a puzzle.
type DifficultyFeedback struct {
	AverageRating float64     `json:"average_rating"`
	VoteCount     int         `json:"vote_count"`
	Distribution  map[int]int `json:"distribution"` // 1-5 histogram
}

// CompletionAnalytics summarizes completion outcomes over all replays of a puzzle.
type CompletionAnalytics struct {
	TotalReplays     int     `json:"total_replays"`
	CompletedReplays int     `json:"completed_replays"`
	SolvedReplays    int     `json:"solved_replays"`
	CompletionRate   float64 `json:"completion_rate"` // percent
	SolveRate        float64 `json:"solve_rate"`      // percent
	AverageTime      int64   `json:"average_time"`    // milliseconds
	AverageScore     float64 `json:"average_score"`
}

// LearningProgress tracks a player's first-attempt vs best-attempt score on a puzzle.
type LearningProgress struct {
	PuzzleID          string    `json:"puzzle_id"`
	PuzzleTitle       string    `json:"puzzle_title"`
	FirstAttemptScore float64   `json:"first_attempt_score"`
	BestScore         float64   `json:"best_score"`
	Improvement       float64   `json:"improvement"`
	Attempts          int       `json:"attempts"`
	LastAttemptAt     time.Time `json:"last_attempt_at"`
}
