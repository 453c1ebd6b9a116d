package models

// Change types for aligned action differences
const (
	ChangeInserted = "inserted"
	ChangeRemoved  = "removed"
	ChangeModified = "modified"
)

// ActionSummary is the reportable slice of an action inside a difference entry.
type ActionSummary struct {
	Type string `json:"type"`
	Data State  `json:"data,omitempty"`
}

// ActionDifference is one aligned position where the two replays diverge.
// SequenceNumber is the 0-based index into the original sequence for removed
// and modified entries, and into the new sequence for inserted entries.
type ActionDifference struct {
	SequenceNumber int            `json:"sequence_number"`
	ChangeType     string         `json:"change_type"`
	OriginalAction *ActionSummary `json:"original_action,omitempty"`
	NewAction      *ActionSummary `json:"new_action,omitempty"`
}

// ActionDifferences aggregates the aligned diff of two action sequences.
type ActionDifferences struct {
	TotalDifferenceCount int                `json:"total_difference_count"`
	InsertedActions      int                `json:"inserted_actions"`
	RemovedActions       int                `json:"removed_actions"`
	ModifiedActions      int                `json:"modified_actions"`
	Details              []ActionDifference `json:"details"`
}

// TimingComparison quantifies duration changes between two replays.
type TimingComparison struct {
	OriginalDuration      int64   `json:"original_duration"`
	NewDuration           int64   `json:"new_duration"`
	TimeSavings           int64   `json:"time_savings"`
	TimeSavingsPercentage float64 `json:"time_savings_percentage"`
}

// PerformanceComparison quantifies score and hint changes.
type PerformanceComparison struct {
	OriginalScore              float64 `json:"original_score"`
	NewScore                   float64 `json:"new_score"`
	ScoreImprovement           float64 `json:"score_improvement"`
	ScoreImprovementPercentage float64 `json:"score_improvement_percentage"`
	HintsReduction             int     `json:"hints_reduction"`
	EfficiencyGain             float64 `json:"efficiency_gain"`
}

// MoveDurationComparison reports average per-move durations in milliseconds.
type MoveDurationComparison struct {
	Original int64 `json:"original"`
	New      int64 `json:"new"`
	Change   int64 `json:"change"`
}

// LearningMetrics derives learning signals from a comparison.
type LearningMetrics struct {
	OptimizationLevel   float64                `json:"optimization_level"` // 0-100
	StrategyImprovement bool                   `json:"strategy_improvement"`
	MistakesReduced     bool                   `json:"mistakes_reduced"`
	AverageMoveDuration MoveDurationComparison `json:"average_move_duration"`
}

// Comparison is the full result of diffing two replays of the same puzzle.
type Comparison struct {
	OriginalReplayID  string                `json:"original_replay_id"`
	NewReplayID       string                `json:"new_replay_id"`
	ActionDifferences ActionDifferences     `json:"action_differences"`
	Timing            TimingComparison      `json:"timing_comparison"`
	Performance       PerformanceComparison `json:"performance_comparison"`
	Learning          LearningMetrics       `json:"learning_metrics"`
}

// ComparisonSummary reduces a comparison to human-readable tags.
type ComparisonSummary struct {
	Improved            bool     `json:"improved"`
	ImprovementAreas    []string `json:"improvement_areas"`
	AreasForImprovement []string `json:"areas_for_improvement"`
}
