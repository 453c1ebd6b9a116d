package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/vytor/puzzlereplay/internal/delta"
	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/repository"
)

// CompressionService handles delta compression and archival of replay logs
type CompressionService interface {
	// CompressReplay rewrites the replay's state_after snapshots as deltas
	// against the previous snapshot. Idempotent: a no-op when the replay is
	// already compressed.
	CompressReplay(ctx context.Context, replayID string) error
	// DecompressReplay returns the replay's actions with full state_after
	// snapshots reconstructed. Read-only; stored rows are untouched.
	DecompressReplay(ctx context.Context, replayID string) ([]models.Action, error)
	// ArchiveReplay compresses the replay, gzips a summary record of it, and
	// persists the resulting size. Returns the archived size in bytes.
	ArchiveReplay(ctx context.Context, replayID string) (int64, error)
	// CompressionStats estimates the archival savings for a replay's log.
	CompressionStats(ctx context.Context, replayID string) (*models.CompressionStats, error)
	// ArchiveOldReplays archives completed, still-active replays created
	// before now-maxAge, up to limit of them, and returns how many succeeded.
	ArchiveOldReplays(ctx context.Context, maxAge time.Duration, limit int) (int, error)
}

type compressionService struct {
	replays repository.ReplayRepository
	actions repository.ActionRepository

	// Per-replay locks serialize compression and archival so two maintenance
	// runs cannot rewrite the same log concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCompressionService creates a new CompressionService
func NewCompressionService(replays repository.ReplayRepository, actions repository.ActionRepository) CompressionService {
	return &compressionService{
		replays: replays,
		actions: actions,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *compressionService) lockReplay(replayID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[replayID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[replayID] = m
	}
	return m
}

func (s *compressionService) CompressReplay(ctx context.Context, replayID string) error {
	m := s.lockReplay(replayID)
	m.Lock()
	defer m.Unlock()
	return s.compressLocked(ctx, replayID)
}

func (s *compressionService) compressLocked(ctx context.Context, replayID string) error {
	log := logger.FromContext(ctx).WithPrefix("compression")
	log.Debug("compressing replay: id=%s", replayID)

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return errors.NewInternalError(err)
	}
	if replay == nil {
		return errors.NewNotFoundError("replay", replayID)
	}
	if replay.IsCompressed {
		log.Debug("replay already compressed, skipping")
		return nil
	}

	actions, err := s.actions.ListByReplay(ctx, replayID)
	if err != nil {
		log.Error("failed to list actions: %v", err)
		return errors.NewInternalError(err)
	}

	rewrites := make([]models.StateRewrite, 0, len(actions))
	prev := replay.InitialState
	for _, a := range actions {
		if a.StateAfter == nil {
			continue
		}
		rewrites = append(rewrites, models.StateRewrite{
			ActionID:   a.ID,
			StateAfter: delta.Diff(prev, a.StateAfter),
		})
		// The next delta is computed against the full snapshot, not the
		// delta that replaces it.
		prev = a.StateAfter
	}

	if err := s.actions.ApplyCompression(ctx, replayID, rewrites); err != nil {
		log.Error("failed to persist compressed states: %v", err)
		return errors.NewInternalError(err)
	}

	log.Info("replay compressed: id=%s, actions=%d, rewritten=%d", replayID, len(actions), len(rewrites))
	return nil
}

func (s *compressionService) DecompressReplay(ctx context.Context, replayID string) ([]models.Action, error) {
	log := logger.FromContext(ctx).WithPrefix("compression")

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError("replay", replayID)
	}

	actions, err := s.actions.ListByReplay(ctx, replayID)
	if err != nil {
		log.Error("failed to list actions: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if !replay.IsCompressed {
		return actions, nil
	}

	current := replay.InitialState
	for i := range actions {
		if actions[i].StateAfter == nil {
			continue
		}
		current = delta.Apply(current, actions[i].StateAfter)
		actions[i].StateAfter = current
	}
	return actions, nil
}

// archiveRecord is the gzipped summary written for an archived replay.
type archiveRecord struct {
	ReplayID      string          `json:"replay_id"`
	UserID        string          `json:"user_id"`
	PuzzleID      string          `json:"puzzle_id"`
	IsSolved      bool            `json:"is_solved"`
	TotalDuration int64           `json:"total_duration"`
	MovesCount    int             `json:"moves_count"`
	ScoreEarned   *float64        `json:"score_earned,omitempty"`
	InitialState  models.State    `json:"initial_state,omitempty"`
	Actions       []archiveAction `json:"actions"`
}

type archiveAction struct {
	Seq   int                    `json:"seq"`
	Type  string                 `json:"type"`
	Ts    int64                  `json:"ts"`
	Data  models.State           `json:"data,omitempty"`
	Meta  *models.ActionMetadata `json:"meta,omitempty"`
	State models.State           `json:"state,omitempty"`
}

func (s *compressionService) ArchiveReplay(ctx context.Context, replayID string) (int64, error) {
	m := s.lockReplay(replayID)
	m.Lock()
	defer m.Unlock()

	log := logger.FromContext(ctx).WithPrefix("compression")
	log.Debug("archiving replay: id=%s", replayID)

	if err := s.compressLocked(ctx, replayID); err != nil {
		return 0, err
	}

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return 0, errors.NewInternalError(err)
	}
	if replay == nil {
		return 0, errors.NewNotFoundError("replay", replayID)
	}

	actions, err := s.actions.ListByReplay(ctx, replayID)
	if err != nil {
		log.Error("failed to list actions: %v", err)
		return 0, errors.NewInternalError(err)
	}

	record := archiveRecord{
		ReplayID:      replay.ID,
		UserID:        replay.UserID,
		PuzzleID:      replay.PuzzleID,
		IsSolved:      replay.IsSolved,
		TotalDuration: replay.TotalDuration,
		MovesCount:    replay.MovesCount,
		ScoreEarned:   replay.ScoreEarned,
		InitialState:  replay.InitialState,
		Actions:       make([]archiveAction, len(actions)),
	}
	for i, a := range actions {
		record.Actions[i] = archiveAction{
			Seq:   a.SequenceNumber,
			Type:  a.ActionType,
			Ts:    a.Timestamp,
			Data:  a.ActionData,
			Meta:  a.Metadata,
			State: a.StateAfter,
		}
	}

	size, err := gzippedSize(record)
	if err != nil {
		log.Error("failed to encode archive record: %v", err)
		return 0, errors.NewInternalError(err)
	}

	replay.StorageSize = size
	if err := s.replays.Update(ctx, *replay); err != nil {
		log.Error("failed to persist storage size: %v", err)
		return 0, errors.NewInternalError(err)
	}

	log.Info("replay archived: id=%s, size=%d bytes", replayID, size)
	return size, nil
}

func (s *compressionService) CompressionStats(ctx context.Context, replayID string) (*models.CompressionStats, error) {
	log := logger.FromContext(ctx).WithPrefix("compression")

	replay, err := s.replays.Get(ctx, replayID)
	if err != nil {
		log.Error("failed to get replay: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if replay == nil {
		return nil, errors.NewNotFoundError("replay", replayID)
	}

	actions, err := s.actions.ListByReplay(ctx, replayID)
	if err != nil {
		log.Error("failed to list actions: %v", err)
		return nil, errors.NewInternalError(err)
	}

	raw, err := json.Marshal(actions)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := gz.Close(); err != nil {
		return nil, errors.NewInternalError(err)
	}

	stats := &models.CompressionStats{
		Original:   int64(len(raw)),
		Compressed: int64(buf.Len()),
	}
	if stats.Original > 0 {
		stats.Ratio = round2(float64(stats.Compressed) / float64(stats.Original) * 100)
		stats.Savings = round2(100 - stats.Ratio)
	}
	return stats, nil
}

func (s *compressionService) ArchiveOldReplays(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("compression")

	cutoff := time.Now().UTC().Add(-maxAge)
	candidates, err := s.replays.ListArchiveCandidates(ctx, cutoff, limit)
	if err != nil {
		log.Error("failed to list archive candidates: %v", err)
		return 0, errors.NewInternalError(err)
	}
	log.Info("archiving old replays: candidates=%d, cutoff=%s", len(candidates), cutoff.Format(time.RFC3339))

	archived := 0
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return archived, err
		}

		// One bad replay must not stop the batch.
		if _, err := s.ArchiveReplay(ctx, candidate.ID); err != nil {
			log.Warn("failed to archive replay %s: %v", candidate.ID, err)
			continue
		}

		replay, err := s.replays.Get(ctx, candidate.ID)
		if err != nil || replay == nil {
			log.Warn("failed to reload replay %s after archive: %v", candidate.ID, err)
			continue
		}
		replay.ArchiveStatus = models.ArchiveStatusArchived
		if err := s.replays.Update(ctx, *replay); err != nil {
			log.Warn("failed to mark replay %s archived: %v", candidate.ID, err)
			continue
		}
		archived++
	}

	log.Info("archive batch finished: archived=%d of %d", archived, len(candidates))
	return archived, nil
}

func gzippedSize(record archiveRecord) (int64, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return 0, err
	}
	if err := gz.Close(); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
