package models

import "time"

// Share permissions
const (
	PermissionPrivate    = "private"
	PermissionSharedLink = "shared_link"
	PermissionPublic     = "public"
)

// Archive statuses
const (
	ArchiveStatusActive   = "active"
	ArchiveStatusArchived = "archived"
	ArchiveStatusDeleted  = "deleted"
)

// Action types
const (
	ActionMove        = "MOVE"
	ActionHintUsed    = "HINT_USED"
	ActionStateChange = "STATE_CHANGE"
	ActionUndo        = "UNDO"
	ActionSubmission  = "SUBMISSION"
	ActionPause       = "PAUSE"
	ActionResume      = "RESUME"
)

// ValidActionType reports whether t is one of the recognized action types.
func ValidActionType(t string) bool {
	switch t {
	case ActionMove, ActionHintUsed, ActionStateChange, ActionUndo, ActionSubmission, ActionPause, ActionResume:
		return true
	}
	return false
}

// ValidPermission reports whether p is one of the share permissions.
func ValidPermission(p string) bool {
	switch p {
	case PermissionPrivate, PermissionSharedLink, PermissionPublic:
		return true
	}
	return false
}

// Replay is one recorded attempt at solving a puzzle.
type Replay struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	PuzzleID         string     `json:"puzzle_id"`
	PuzzleTitle      string     `json:"puzzle_title"`
	PuzzleCategory   string     `json:"puzzle_category"`
	PuzzleDifficulty string     `json:"puzzle_difficulty"` // "easy", "medium", "hard", "expert"
	IsCompleted      bool       `json:"is_completed"`
	IsSolved         bool       `json:"is_solved"`
	TotalDuration    int64      `json:"total_duration"` // milliseconds
	ActiveTime       int64      `json:"active_time"`    // milliseconds, excludes pauses
	PausedTime       int64      `json:"paused_time"`    // milliseconds
	MovesCount       int        `json:"moves_count"`
	HintsUsed        int        `json:"hints_used"`
	UndosCount       int        `json:"undos_count"`
	StateChanges     int        `json:"state_changes"`
	ScoreEarned      *float64   `json:"score_earned"`
	MaxScorePossible *float64   `json:"max_score_possible"`
	Efficiency       float64    `json:"efficiency"` // 0-100, scoreEarned/maxScorePossible*100
	InitialState     State      `json:"initial_state"`
	FinalState       State      `json:"final_state,omitempty"`
	Metadata         State      `json:"metadata,omitempty"`
	Permission       string     `json:"permission"`
	ShareCode        string     `json:"share_code,omitempty"`
	ShareExpiredAt   *time.Time `json:"share_expired_at,omitempty"`
	ViewCount        int        `json:"view_count"`
	LastViewedAt     *time.Time `json:"last_viewed_at,omitempty"`
	IsCompressed     bool       `json:"is_compressed"`
	StorageSize      int64      `json:"storage_size"`
	ArchiveStatus    string     `json:"archive_status"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// ActionMetadata carries optional caller-supplied context for an action.
type ActionMetadata struct {
	Duration            int64  `json:"duration,omitempty"` // milliseconds, used for PAUSE
	PerceivedDifficulty int    `json:"perceived_difficulty,omitempty"`
	Confidence          int    `json:"confidence,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// Action is one atomic, ordered event within a replay. Actions are immutable
// once persisted; the compression engine is the only writer of state_after
// after the fact, and it rewrites snapshots without changing their meaning.
type Action struct {
	ID             string          `json:"id"`
	ReplayID       string          `json:"replay_id"`
	SequenceNumber int             `json:"sequence_number"`
	ActionType     string          `json:"action_type"`
	Timestamp      int64           `json:"timestamp"` // milliseconds from replay start
	ActionData     State           `json:"action_data,omitempty"`
	StateBefore    State           `json:"state_before,omitempty"`
	StateAfter     State           `json:"state_after,omitempty"`
	Metadata       *ActionMetadata `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// StateRewrite replaces one action's stored state_after snapshot during
// delta compression.
type StateRewrite struct {
	ActionID   string
	StateAfter State
}

// ReplayFilter narrows replay listings.
type ReplayFilter struct {
	UserID      string
	PuzzleID    string
	IsCompleted *bool
	IsSolved    *bool
	Page        int
	Limit       int
}

// CreateReplayRequest starts a new replay session.
type CreateReplayRequest struct {
	PuzzleID         string `json:"puzzle_id"`
	PuzzleTitle      string `json:"puzzle_title"`
	PuzzleCategory   string `json:"puzzle_category"`
	PuzzleDifficulty string `json:"puzzle_difficulty"`
	InitialState     State  `json:"initial_state,omitempty"`
	Metadata         State  `json:"metadata,omitempty"`
}

// RecordActionRequest appends one action to a replay.
type RecordActionRequest struct {
	ActionType  string          `json:"action_type"`
	Timestamp   int64           `json:"timestamp"`
	ActionData  State           `json:"action_data,omitempty"`
	StateBefore State           `json:"state_before,omitempty"`
	StateAfter  State           `json:"state_after,omitempty"`
	Metadata    *ActionMetadata `json:"metadata,omitempty"`
}

// CompleteReplayRequest finishes a replay session.
type CompleteReplayRequest struct {
	IsSolved         bool     `json:"is_solved"`
	TotalDuration    int64    `json:"total_duration"`
	ActiveTime       int64    `json:"active_time,omitempty"`
	ScoreEarned      *float64 `json:"score_earned,omitempty"`
	MaxScorePossible *float64 `json:"max_score_possible,omitempty"`
	FinalState       State    `json:"final_state,omitempty"`
}

// ShareReplayRequest changes a replay's visibility.
type ShareReplayRequest struct {
	Permission     string     `json:"permission"`
	ShareExpiredAt *time.Time `json:"share_expired_at,omitempty"`
}
