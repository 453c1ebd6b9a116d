package models

import "time"

// PlaybackMetadata is the replay header returned with playback data.
type PlaybackMetadata struct {
	ReplayID         string     `json:"replay_id"`
	PuzzleTitle      string     `json:"puzzle_title"`
	PuzzleCategory   string     `json:"puzzle_category"`
	PuzzleDifficulty string     `json:"puzzle_difficulty"`
	PlayerUserID     string     `json:"player_user_id"`
	IsSolved         bool       `json:"is_solved"`
	TotalDuration    int64      `json:"total_duration"`
	ActiveTime       int64      `json:"active_time"`
	MovesCount       int        `json:"moves_count"`
	HintsUsed        int        `json:"hints_used"`
	ScoreEarned      *float64   `json:"score_earned"`
	Efficiency       float64    `json:"efficiency"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	InitialState     State      `json:"initial_state"`
	FinalState       State      `json:"final_state,omitempty"`
}

// Playback is a replay's metadata plus its full, ordered, delta-decoded actions.
type Playback struct {
	Metadata     PlaybackMetadata `json:"metadata"`
	Actions      []Action         `json:"actions"`
	TotalActions int              `json:"total_actions"`
}

// CompressionStats estimates archival savings for a replay's action log.
type CompressionStats struct {
	Original   int64   `json:"original"`
	Compressed int64   `json:"compressed"`
	Ratio      float64 `json:"ratio"`   // percent of original
	Savings    float64 `json:"savings"` // percent saved
}
