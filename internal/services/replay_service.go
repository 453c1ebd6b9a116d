package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/repository"
)

// ReplayService handles recording sessions, playback, and sharing
type ReplayService interface {
	CreateReplay(ctx context.Context, userID string, req models.CreateReplayRequest) (*models.Replay, error)
	GetReplay(ctx context.Context, replayID string) (*models.Replay, error)
	RecordAction(ctx context.Context, replayID string, req models.RecordActionRequest) (*models.Action, error)
	CompleteReplay(ctx context.Context, replayID string, req models.CompleteReplayRequest) (*models.Replay, error)
	GetPlayback(ctx context.Context, replayID string) (*models.Playback, error)
	ListUserReplays(ctx context.Context, userID string, filter models.ReplayFilter) ([]models.Replay, int, error)
	ListPublicReplays(ctx context.Context, puzzleID string, page, limit int) ([]models.Replay, int, error)
	ShareReplay(ctx context.Context, replayID, requesterID string, req models.ShareReplayRequest) (*models.Replay, error)
	GetSharedReplay(ctx context.Context, shareCode string) (*models.Replay, error)
	DeleteReplay(ctx context.Context, replayID, requesterID string) error
}

type replayService struct {
	replays     repository.ReplayRepository
	actions     repository.ActionRepository
	compression CompressionService
}

// NewReplayService creates a new ReplayService
func NewReplayService(replays repository.ReplayRepository, actions repository.ActionRepository, compression CompressionService) ReplayService {
	return &replayService{
		replays:     replays,
		actions:     actions,
		compression: compression,
	}
}

func (s *replayService) CreateReplay(ctx context.Context, userID string, req models.CreateReplayRequest) (*models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")
	log.Debug("creating replay: user_id=%s, puzzle_id=%s", userID, req.PuzzleID)

	if userID == "" {
		return nil, errors.NewValidationError("user_id", "must not be empty")
	}
	if req.PuzzleID == "" {
		return nil, errors.NewValidationError("puzzle_id", "must not be empty")
	}

	initial := req.InitialState
	if initial == nil {
		initial = models.State{}
	}

	replay := models.Replay{
		ID:               uuid.NewString(),
		UserID:           userID,
		PuzzleID:         req.PuzzleID,
		PuzzleTitle:      req.PuzzleTitle,
		PuzzleCategory:   req.PuzzleCategory,
		PuzzleDifficulty: req.PuzzleDifficulty,
		InitialState:     initial,
		Metadata:         req.Metadata,
		Permission:       models.PermissionPrivate,
		ArchiveStatus:    models.ArchiveStatusActive,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.replays.Insert(ctx, replay); err != nil {
		log.Error("failed to insert replay: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("replay created: id=%s, puzzle_id=%s", replay.ID, replay.PuzzleID)
	return &replay, nil
}

func (s *replayService) GetReplay(ctx context.Context, replayID string) (*models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError("replay", replayID)
	}
	return replay, nil
}

func (s *replayService) RecordAction(ctx context.Context, replayID string, req models.RecordActionRequest) (*models.Action, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")
	log.Debug("recording action: replay_id=%s, type=%s", replayID, req.ActionType)

	if !models.ValidActionType(req.ActionType) {
		return nil, errors.NewValidationError("action_type", "unknown action type")
	}

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError("replay", replayID)
	}
	if replay.IsCompleted {
		return nil, errors.NewInvalidStateError("cannot record actions on a completed replay")
	}

	action := models.Action{
		ID:          uuid.NewString(),
		ReplayID:    replayID,
		ActionType:  req.ActionType,
		Timestamp:   req.Timestamp,
		ActionData:  req.ActionData,
		StateBefore: req.StateBefore,
		StateAfter:  req.StateAfter,
		Metadata:    req.Metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if action.ActionData == nil {
		action.ActionData = models.State{}
	}

	stored, err := s.actions.Append(ctx, action)
	if err != nil {
		log.Error("failed to append action: %v", err)
		return nil, errors.NewInternalError(err)
	}

	// Every recorded action counts as a move; specialized counters come on
	// top of that.
	replay.MovesCount++
	switch req.ActionType {
	case models.ActionHintUsed:
		replay.HintsUsed++
	case models.ActionUndo:
		replay.UndosCount++
	case models.ActionStateChange:
		replay.StateChanges++
	case models.ActionPause:
		if req.Metadata != nil && req.Metadata.Duration > 0 {
			replay.PausedTime += req.Metadata.Duration
		}
	}
	now := time.Now().UTC()
	replay.LastViewedAt = &now

	if err := s.replays.Update(ctx, *replay); err != nil {
		log.Error("failed to update replay metrics: %v", err)
		return nil, errors.NewInternalError(err)
	}

	return stored, nil
}

func (s *replayService) CompleteReplay(ctx context.Context, replayID string, req models.CompleteReplayRequest) (*models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")
	log.Debug("completing replay: id=%s, solved=%t", replayID, req.IsSolved)

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError("replay", replayID)
	}
	if replay.IsCompleted {
		return nil, errors.NewInvalidStateError("replay is already completed")
	}

	now := time.Now().UTC()
	replay.IsCompleted = true
	replay.IsSolved = req.IsSolved
	replay.TotalDuration = req.TotalDuration
	replay.ActiveTime = req.ActiveTime
	if replay.ActiveTime == 0 {
		replay.ActiveTime = req.TotalDuration
	}
	replay.ScoreEarned = req.ScoreEarned
	replay.MaxScorePossible = req.MaxScorePossible
	if req.FinalState != nil {
		replay.FinalState = req.FinalState
	}
	replay.CompletedAt = &now

	replay.Efficiency = 0
	if req.ScoreEarned != nil && req.MaxScorePossible != nil && *req.MaxScorePossible > 0 {
		replay.Efficiency = round2(*req.ScoreEarned / *req.MaxScorePossible * 100)
	}

	if err := s.replays.Update(ctx, *replay); err != nil {
		log.Error("failed to complete replay: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("replay completed: id=%s, solved=%t, efficiency=%.2f", replay.ID, replay.IsSolved, replay.Efficiency)
	return replay, nil
}

func (s *replayService) GetPlayback(ctx context.Context, replayID string) (*models.Playback, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")
	log.Debug("building playback: id=%s", replayID)

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError("replay", replayID)
	}

	// DecompressReplay returns the stored actions untouched when the replay
	// was never compressed.
	actions, err := s.compression.DecompressReplay(ctx, replayID)
	if err != nil {
		return nil, err
	}

	return &models.Playback{
		Metadata: models.PlaybackMetadata{
			ReplayID:         replay.ID,
			PuzzleTitle:      replay.PuzzleTitle,
			PuzzleCategory:   replay.PuzzleCategory,
			PuzzleDifficulty: replay.PuzzleDifficulty,
			PlayerUserID:     replay.UserID,
			IsSolved:         replay.IsSolved,
			TotalDuration:    replay.TotalDuration,
			ActiveTime:       replay.ActiveTime,
			MovesCount:       replay.MovesCount,
			HintsUsed:        replay.HintsUsed,
			ScoreEarned:      replay.ScoreEarned,
			Efficiency:       replay.Efficiency,
			CompletedAt:      replay.CompletedAt,
			InitialState:     replay.InitialState,
			FinalState:       replay.FinalState,
		},
		Actions:      actions,
		TotalActions: len(actions),
	}, nil
}

func (s *replayService) ListUserReplays(ctx context.Context, userID string, filter models.ReplayFilter) ([]models.Replay, int, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")

	filter.UserID = userID
	replays, err := s.replays.List(ctx, filter)
	if err != nil {
		log.Error("failed to list replays: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.replays.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count replays: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return replays, total, nil
}

func (s *replayService) ListPublicReplays(ctx context.Context, puzzleID string, page, limit int) ([]models.Replay, int, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	replays, err := s.replays.ListPublicByPuzzle(ctx, puzzleID, limit, (page-1)*limit)
	if err != nil {
		log.Error("failed to list public replays: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.replays.CountPublicByPuzzle(ctx, puzzleID)
	if err != nil {
		log.Error("failed to count public replays: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return replays, total, nil
}

func (s *replayService) ShareReplay(ctx context.Context, replayID, requesterID string, req models.ShareReplayRequest) (*models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")
	log.Debug("sharing replay: id=%s, permission=%s", replayID, req.Permission)

	if !models.ValidPermission(req.Permission) {
		return nil, errors.NewValidationError("permission", "unknown permission")
	}

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError("replay", replayID)
	}
	if replay.UserID != requesterID {
		return nil, errors.NewForbiddenError("only the replay owner can change its visibility")
	}

	replay.Permission = req.Permission
	replay.ShareExpiredAt = req.ShareExpiredAt
	switch req.Permission {
	case models.PermissionSharedLink:
		code, err := generateShareCode()
		if err != nil {
			return nil, errors.NewInternalError(err)
		}
		replay.ShareCode = code
	default:
		// Private and public replays carry no link code; public replays are
		// discoverable by puzzle instead.
		replay.ShareCode = ""
	}

	if err := s.replays.Update(ctx, *replay); err != nil {
		log.Error("failed to update share settings: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("replay shared: id=%s, permission=%s", replay.ID, replay.Permission)
	return replay, nil
}

func (s *replayService) GetSharedReplay(ctx context.Context, shareCode string) (*models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay")
	log.Debug("resolving share code")

	replay, err := s.replays.GetByShareCode(ctx, shareCode)
	if err != nil {
		log.Error("failed to resolve share code: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError("shared replay", shareCode)
	}
	if replay.ShareExpiredAt != nil && replay.ShareExpiredAt.Before(time.Now().UTC()) {
		return nil, errors.NewExpiredError("share link has expired")
	}
	if replay.Permission == models.PermissionPrivate {
		return nil, errors.NewInvalidStateError("replay is no longer shared")
	}

	now := time.Now().UTC()
	replay.ViewCount++
	replay.LastViewedAt = &now
	if err := s.replays.Update(ctx, *replay); err != nil {
		// The view still succeeds; losing one count increment is acceptable.
		log.Warn("failed to record view: %v", err)
	}

	return replay, nil
}

func (s *replayService) DeleteReplay(ctx context.Context, replayID, requesterID string) error {
	log := logger.FromContext(ctx).WithPrefix("replay")
	log.Debug("deleting replay: id=%s", replayID)

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return errors.NewInternalError(err)
	}
	if replay == nil {
		return errors.NewNotFoundError("replay", replayID)
	}
	if replay.UserID != requesterID {
		return errors.NewForbiddenError("only the replay owner can delete it")
	}

	// Soft delete keeps the action log for audit; listings exclude deleted
	// replays.
	replay.ArchiveStatus = models.ArchiveStatusDeleted
	if err := s.replays.Update(ctx, *replay); err != nil {
		log.Error("failed to delete replay: %v", err)
		return errors.NewInternalError(err)
	}

	log.Info("replay deleted: id=%s", replay.ID)
	return nil
}

// generateShareCode returns 12 random bytes base64url-encoded (16 chars,
// 96 bits of entropy).
func generateShareCode() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
