package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/repository"
)

type analyticRepository struct {
	db *sql.DB
}

// NewAnalyticRepository creates a new AnalyticRepository implementation
func NewAnalyticRepository(db *sql.DB) repository.AnalyticRepository {
	return &analyticRepository{db: db}
}

func (r *analyticRepository) Insert(ctx context.Context, record models.AnalyticRecord) error {
	log := logger.FromContext(ctx).WithPrefix("analytic_repo")
	log.Debug("inserting analytic: replay_id=%s, type=%s", record.ReplayID, record.MetricType)

	metricValue, err := stateText(record.MetricValue)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO replay_analytics (id, replay_id, metric_type, metric_value, recorded_at)
VALUES (?, ?, ?, ?, ?)
`, record.ID, record.ReplayID, record.MetricType, metricValue, record.RecordedAt)
	if err != nil {
		log.Error("failed to insert analytic: %v", err)
	}
	return err
}

func (r *analyticRepository) ListByReplay(ctx context.Context, replayID, metricType string) ([]models.AnalyticRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("analytic_repo")

	query := sqlBuilder.Select("id", "replay_id", "metric_type", "metric_value", "recorded_at").
		From("replay_analytics").
		Where("replay_id = ?", replayID).
		OrderBy("recorded_at DESC")
	if metricType != "" {
		query = query.Where("metric_type = ?", metricType)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list analytics: %v", err)
		return nil, err
	}
	defer rows.Close()

	var records []models.AnalyticRecord
	for rows.Next() {
		var rec models.AnalyticRecord
		var metricValue sql.NullString
		if err := rows.Scan(&rec.ID, &rec.ReplayID, &rec.MetricType, &metricValue, &rec.RecordedAt); err != nil {
			log.Error("failed to scan analytic row: %v", err)
			return nil, err
		}
		if rec.MetricValue, err = parseState(metricValue); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *analyticRepository) CountViews(ctx context.Context, replayID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM replay_analytics WHERE replay_id = ? AND metric_type = ?
`, replayID, models.MetricView).Scan(&count)
	return count, err
}

func (r *analyticRepository) TopReplaysByViews(ctx context.Context, puzzleID string, limit int) ([]models.ReplayViewCount, error) {
	log := logger.FromContext(ctx).WithPrefix("analytic_repo")
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT a.replay_id, COUNT(*) AS view_count
FROM replay_analytics a
JOIN puzzle_replays r ON r.id = a.replay_id
WHERE r.puzzle_id = ? AND a.metric_type = ?
GROUP BY a.replay_id
ORDER BY view_count DESC
LIMIT ?
`, puzzleID, models.MetricView, limit)
	if err != nil {
		log.Error("failed to query top replays: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.ReplayViewCount
	for rows.Next() {
		var vc models.ReplayViewCount
		if err := rows.Scan(&vc.ReplayID, &vc.ViewCount); err != nil {
			return nil, err
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

func (r *analyticRepository) EffectivenessSummary(ctx context.Context, puzzleID string) (*models.LearningEffectivenessSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("analytic_repo")

	var summary models.LearningEffectivenessSummary
	err := r.db.QueryRowContext(ctx, `
SELECT
	COALESCE(AVG(CASE WHEN a.metric_type = ? THEN CAST(json_extract(a.metric_value, '$.improvement') AS REAL) END), 0),
	COUNT(CASE WHEN a.metric_type = ? THEN 1 END)
FROM replay_analytics a
JOIN puzzle_replays r ON r.id = a.replay_id
WHERE r.puzzle_id = ? AND a.metric_type IN (?, ?)
`,
		models.MetricLearningEffectiveness, models.MetricView,
		puzzleID, models.MetricLearningEffectiveness, models.MetricView,
	).Scan(&summary.AverageImprovement, &summary.TotalViews)
	if err != nil {
		log.Error("failed to query effectiveness summary: %v", err)
		return nil, err
	}
	return &summary, nil
}

func (r *analyticRepository) CommonStrategies(ctx context.Context, puzzleID string, limit int) ([]models.StrategySummary, error) {
	log := logger.FromContext(ctx).WithPrefix("analytic_repo")
	if limit <= 0 {
		limit = 5
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT
	json_extract(metric_value, '$.pattern') AS pattern,
	COUNT(*) AS frequency,
	COALESCE(AVG(CAST(json_extract(metric_value, '$.success_rate') AS REAL)), 0) AS avg_success_rate
FROM replay_analytics
WHERE metric_type = ?
  AND replay_id IN (SELECT id FROM puzzle_replays WHERE puzzle_id = ?)
  AND json_extract(metric_value, '$.pattern') IS NOT NULL
GROUP BY pattern
ORDER BY frequency DESC
LIMIT ?
`, models.MetricStrategyPattern, puzzleID, limit)
	if err != nil {
		log.Error("failed to query strategies: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.StrategySummary
	for rows.Next() {
		var s models.StrategySummary
		if err := rows.Scan(&s.Pattern, &s.Frequency, &s.SuccessRate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *analyticRepository) DifficultyRatings(ctx context.Context, puzzleID string) ([]models.RatingVote, error) {
	log := logger.FromContext(ctx).WithPrefix("analytic_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT
	CAST(json_extract(metric_value, '$.rating') AS REAL),
	CAST(COALESCE(json_extract(metric_value, '$.votes'), 1) AS INTEGER)
FROM replay_analytics
WHERE metric_type = ?
  AND replay_id IN (SELECT id FROM puzzle_replays WHERE puzzle_id = ?)
`, models.MetricDifficultyRating, puzzleID)
	if err != nil {
		log.Error("failed to query ratings: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.RatingVote
	for rows.Next() {
		var v models.RatingVote
		if err := rows.Scan(&v.Rating, &v.Votes); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *analyticRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("analytic_repo")

	res, err := r.db.ExecContext(ctx, `DELETE FROM replay_analytics WHERE recorded_at < ?`, cutoff)
	if err != nil {
		log.Error("failed to delete old analytics: %v", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Debug("deleted %d analytic records older than %s", n, cutoff)
	return int(n), nil
}
