package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/repository"
)

const replayColumns = `id, user_id, puzzle_id, puzzle_title, puzzle_category, puzzle_difficulty,
	is_completed, is_solved, total_duration, active_time, paused_time,
	moves_count, hints_used, undos_count, state_changes,
	score_earned, max_score_possible, efficiency,
	initial_state, final_state, metadata,
	permission, share_code, share_expired_at, view_count, last_viewed_at,
	is_compressed, storage_size, archive_status, created_at, completed_at`

var replayColumnList = []string{
	"id", "user_id", "puzzle_id", "puzzle_title", "puzzle_category", "puzzle_difficulty",
	"is_completed", "is_solved", "total_duration", "active_time", "paused_time",
	"moves_count", "hints_used", "undos_count", "state_changes",
	"score_earned", "max_score_possible", "efficiency",
	"initial_state", "final_state", "metadata",
	"permission", "share_code", "share_expired_at", "view_count", "last_viewed_at",
	"is_compressed", "storage_size", "archive_status", "created_at", "completed_at",
}

type replayRepository struct {
	db *sql.DB
}

// NewReplayRepository creates a new ReplayRepository implementation
func NewReplayRepository(db *sql.DB) repository.ReplayRepository {
	return &replayRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReplay(row rowScanner) (*models.Replay, error) {
	var r models.Replay
	var (
		scoreEarned, maxScore sql.NullFloat64
		initialState          sql.NullString
		finalState            sql.NullString
		metadata              sql.NullString
		shareCode             sql.NullString
		shareExpiredAt        sql.NullTime
		lastViewedAt          sql.NullTime
		completedAt           sql.NullTime
	)

	err := row.Scan(
		&r.ID, &r.UserID, &r.PuzzleID, &r.PuzzleTitle, &r.PuzzleCategory, &r.PuzzleDifficulty,
		&r.IsCompleted, &r.IsSolved, &r.TotalDuration, &r.ActiveTime, &r.PausedTime,
		&r.MovesCount, &r.HintsUsed, &r.UndosCount, &r.StateChanges,
		&scoreEarned, &maxScore, &r.Efficiency,
		&initialState, &finalState, &metadata,
		&r.Permission, &shareCode, &shareExpiredAt, &r.ViewCount, &lastViewedAt,
		&r.IsCompressed, &r.StorageSize, &r.ArchiveStatus, &r.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if scoreEarned.Valid {
		v := scoreEarned.Float64
		r.ScoreEarned = &v
	}
	if maxScore.Valid {
		v := maxScore.Float64
		r.MaxScorePossible = &v
	}
	if r.InitialState, err = parseState(initialState); err != nil {
		return nil, err
	}
	if r.FinalState, err = parseState(finalState); err != nil {
		return nil, err
	}
	if r.Metadata, err = parseState(metadata); err != nil {
		return nil, err
	}
	if shareCode.Valid {
		r.ShareCode = shareCode.String
	}
	if shareExpiredAt.Valid {
		t := shareExpiredAt.Time
		r.ShareExpiredAt = &t
	}
	if lastViewedAt.Valid {
		t := lastViewedAt.Time
		r.LastViewedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		r.CompletedAt = &t
	}
	return &r, nil
}

func (r *replayRepository) Insert(ctx context.Context, replay models.Replay) error {
	log := logger.FromContext(ctx).WithPrefix("replay_repo")
	log.Debug("inserting replay: id=%s, puzzle_id=%s", replay.ID, replay.PuzzleID)

	initialState, err := stateText(replay.InitialState)
	if err != nil {
		return err
	}
	finalState, err := nullableStateText(replay.FinalState)
	if err != nil {
		return err
	}
	metadata, err := stateText(replay.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO puzzle_replays (`+replayColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		replay.ID, replay.UserID, replay.PuzzleID, replay.PuzzleTitle, replay.PuzzleCategory, replay.PuzzleDifficulty,
		replay.IsCompleted, replay.IsSolved, replay.TotalDuration, replay.ActiveTime, replay.PausedTime,
		replay.MovesCount, replay.HintsUsed, replay.UndosCount, replay.StateChanges,
		replay.ScoreEarned, replay.MaxScorePossible, replay.Efficiency,
		initialState, finalState, metadata,
		replay.Permission, nullString(replay.ShareCode), replay.ShareExpiredAt, replay.ViewCount, replay.LastViewedAt,
		replay.IsCompressed, replay.StorageSize, replay.ArchiveStatus, replay.CreatedAt, replay.CompletedAt,
	)
	if err != nil {
		log.Error("failed to insert replay: %v", err)
	}
	return err
}

func (r *replayRepository) Get(ctx context.Context, id string) (*models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay_repo")

	row := r.db.QueryRowContext(ctx, `SELECT `+replayColumns+` FROM puzzle_replays WHERE id = ?`, id)
	replay, err := scanReplay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("replay not found: id=%s", id)
			return nil, nil
		}
		log.Error("failed to get replay: %v", err)
		return nil, err
	}
	return replay, nil
}

func (r *replayRepository) GetByShareCode(ctx context.Context, code string) (*models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay_repo")

	row := r.db.QueryRowContext(ctx, `SELECT `+replayColumns+` FROM puzzle_replays WHERE share_code = ?`, code)
	replay, err := scanReplay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no replay for share code")
			return nil, nil
		}
		log.Error("failed to get replay by share code: %v", err)
		return nil, err
	}
	return replay, nil
}

func (r *replayRepository) Update(ctx context.Context, replay models.Replay) error {
	log := logger.FromContext(ctx).WithPrefix("replay_repo")
	log.Debug("updating replay: id=%s", replay.ID)

	initialState, err := stateText(replay.InitialState)
	if err != nil {
		return err
	}
	finalState, err := nullableStateText(replay.FinalState)
	if err != nil {
		return err
	}
	metadata, err := stateText(replay.Metadata)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE puzzle_replays SET
	is_completed = ?, is_solved = ?,
	total_duration = ?, active_time = ?, paused_time = ?,
	moves_count = ?, hints_used = ?, undos_count = ?, state_changes = ?,
	score_earned = ?, max_score_possible = ?, efficiency = ?,
	initial_state = ?, final_state = ?, metadata = ?,
	permission = ?, share_code = ?, share_expired_at = ?, view_count = ?, last_viewed_at = ?,
	is_compressed = ?, storage_size = ?, archive_status = ?, completed_at = ?
WHERE id = ?
`,
		replay.IsCompleted, replay.IsSolved,
		replay.TotalDuration, replay.ActiveTime, replay.PausedTime,
		replay.MovesCount, replay.HintsUsed, replay.UndosCount, replay.StateChanges,
		replay.ScoreEarned, replay.MaxScorePossible, replay.Efficiency,
		initialState, finalState, metadata,
		replay.Permission, nullString(replay.ShareCode), replay.ShareExpiredAt, replay.ViewCount, replay.LastViewedAt,
		replay.IsCompressed, replay.StorageSize, replay.ArchiveStatus, replay.CompletedAt,
		replay.ID,
	)
	if err != nil {
		log.Error("failed to update replay: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func applyReplayFilter(query squirrel.SelectBuilder, filter models.ReplayFilter) squirrel.SelectBuilder {
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.PuzzleID != "" {
		query = query.Where(squirrel.Eq{"puzzle_id": filter.PuzzleID})
	}
	if filter.IsCompleted != nil {
		query = query.Where(squirrel.Eq{"is_completed": *filter.IsCompleted})
	}
	if filter.IsSolved != nil {
		query = query.Where(squirrel.Eq{"is_solved": *filter.IsSolved})
	}
	// Logically deleted replays never show up in listings.
	return query.Where(squirrel.NotEq{"archive_status": models.ArchiveStatusDeleted})
}

func (r *replayRepository) List(ctx context.Context, filter models.ReplayFilter) ([]models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay_repo")
	log.Debug("listing replays: user_id=%s, puzzle_id=%s", filter.UserID, filter.PuzzleID)

	query := applyReplayFilter(sqlBuilder.Select(replayColumnList...).From("puzzle_replays"), filter).
		OrderBy("created_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query = query.Limit(uint64(limit)).Offset(uint64((page - 1) * limit))

	return r.queryReplays(ctx, query)
}

func (r *replayRepository) Count(ctx context.Context, filter models.ReplayFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("replay_repo")

	query := applyReplayFilter(sqlBuilder.Select("COUNT(*)").From("puzzle_replays"), filter)
	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count replays: %v", err)
		return 0, err
	}
	return count, nil
}

func publicByPuzzle(query squirrel.SelectBuilder, puzzleID string) squirrel.SelectBuilder {
	return query.
		Where(squirrel.Eq{"puzzle_id": puzzleID}).
		Where(squirrel.Eq{"permission": models.PermissionPublic}).
		Where(squirrel.Eq{"is_completed": true}).
		Where(squirrel.NotEq{"archive_status": models.ArchiveStatusDeleted}).
		Where(squirrel.Or{
			squirrel.Eq{"share_expired_at": nil},
			squirrel.Gt{"share_expired_at": time.Now().UTC()},
		})
}

func (r *replayRepository) ListPublicByPuzzle(ctx context.Context, puzzleID string, limit, offset int) ([]models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay_repo")
	log.Debug("listing public replays: puzzle_id=%s", puzzleID)

	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	query := publicByPuzzle(sqlBuilder.Select(replayColumnList...).From("puzzle_replays"), puzzleID).
		OrderBy("view_count DESC", "created_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset))

	return r.queryReplays(ctx, query)
}

func (r *replayRepository) CountPublicByPuzzle(ctx context.Context, puzzleID string) (int, error) {
	query := publicByPuzzle(sqlBuilder.Select("COUNT(*)").From("puzzle_replays"), puzzleID)
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count)
	return count, err
}

func (r *replayRepository) ListByPuzzle(ctx context.Context, puzzleID string) ([]models.Replay, error) {
	query := sqlBuilder.Select(replayColumnList...).From("puzzle_replays").
		Where(squirrel.Eq{"puzzle_id": puzzleID}).
		Where(squirrel.NotEq{"archive_status": models.ArchiveStatusDeleted}).
		OrderBy("created_at DESC")
	return r.queryReplays(ctx, query)
}

func (r *replayRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Replay, error) {
	if limit <= 0 {
		limit = 50
	}
	query := sqlBuilder.Select(replayColumnList...).From("puzzle_replays").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.NotEq{"archive_status": models.ArchiveStatusDeleted}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	return r.queryReplays(ctx, query)
}

func (r *replayRepository) ListArchiveCandidates(ctx context.Context, cutoff time.Time, limit int) ([]models.Replay, error) {
	if limit <= 0 {
		limit = 100
	}
	query := sqlBuilder.Select(replayColumnList...).From("puzzle_replays").
		Where(squirrel.Eq{"archive_status": models.ArchiveStatusActive}).
		Where(squirrel.Eq{"is_completed": true}).
		Where(squirrel.Lt{"created_at": cutoff}).
		OrderBy("created_at ASC").
		Limit(uint64(limit))
	return r.queryReplays(ctx, query)
}

func (r *replayRepository) queryReplays(ctx context.Context, query squirrel.SelectBuilder) ([]models.Replay, error) {
	log := logger.FromContext(ctx).WithPrefix("replay_repo")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query replays: %v", err)
		return nil, err
	}
	defer rows.Close()

	var replays []models.Replay
	for rows.Next() {
		replay, err := scanReplay(rows)
		if err != nil {
			log.Error("failed to scan replay row: %v", err)
			return nil, err
		}
		replays = append(replays, *replay)
	}
	log.Debug("found %d replays", len(replays))
	return replays, rows.Err()
}
