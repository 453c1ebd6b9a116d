package repository

import (
	"context"
	"time"

	"github.com/vytor/puzzlereplay/internal/models"
)

// ReplayRepository handles replay data access
type ReplayRepository interface {
	Insert(ctx context.Context, replay models.Replay) error
	Get(ctx context.Context, id string) (*models.Replay, error)
	GetByShareCode(ctx context.Context, code string) (*models.Replay, error)
	Update(ctx context.Context, replay models.Replay) error
	List(ctx context.Context, filter models.ReplayFilter) ([]models.Replay, error)
	Count(ctx context.Context, filter models.ReplayFilter) (int, error)
	ListPublicByPuzzle(ctx context.Context, puzzleID string, limit, offset int) ([]models.Replay, error)
	CountPublicByPuzzle(ctx context.Context, puzzleID string) (int, error)
	ListByPuzzle(ctx context.Context, puzzleID string) ([]models.Replay, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Replay, error)
	ListArchiveCandidates(ctx context.Context, cutoff time.Time, limit int) ([]models.Replay, error)
}

// ActionRepository handles the append-only action log
type ActionRepository interface {
	// Append assigns the next sequence number and inserts the action in a
	// single transaction, returning the stored action.
	Append(ctx context.Context, action models.Action) (*models.Action, error)
	ListByReplay(ctx context.Context, replayID string) ([]models.Action, error)
	// ApplyCompression rewrites the state_after snapshots of a replay's
	// actions and flips the replay's is_compressed flag in one transaction,
	// so a crash can never leave a replay half-delta-encoded. Only the
	// compression engine uses this.
	ApplyCompression(ctx context.Context, replayID string, rewrites []models.StateRewrite) error
}

// AnalyticRepository handles append-only analytic records and their aggregates
type AnalyticRepository interface {
	Insert(ctx context.Context, record models.AnalyticRecord) error
	ListByReplay(ctx context.Context, replayID, metricType string) ([]models.AnalyticRecord, error)
	CountViews(ctx context.Context, replayID string) (int, error)
	TopReplaysByViews(ctx context.Context, puzzleID string, limit int) ([]models.ReplayViewCount, error)
	EffectivenessSummary(ctx context.Context, puzzleID string) (*models.LearningEffectivenessSummary, error)
	CommonStrategies(ctx context.Context, puzzleID string, limit int) ([]models.StrategySummary, error)
	DifficultyRatings(ctx context.Context, puzzleID string) ([]models.RatingVote, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
