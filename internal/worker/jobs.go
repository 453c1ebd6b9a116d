package worker

import (
	"context"
	"time"

	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/services"
)

// ArchiveReplaysJob compresses and archives completed replays past the
// retention age.
type ArchiveReplaysJob struct {
	Compression services.CompressionService
	MaxAge      time.Duration
	Limit       int
}

func (j *ArchiveReplaysJob) Name() string { return "archive-replays" }

func (j *ArchiveReplaysJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	archived, err := j.Compression.ArchiveOldReplays(ctx, j.MaxAge, j.Limit)
	if err != nil {
		return err
	}
	log.Info("archived %d replays", archived)
	return nil
}

// CleanupAnalyticsJob deletes analytic records past the retention age.
type CleanupAnalyticsJob struct {
	Analytics services.AnalyticsService
	MaxAge    time.Duration
}

func (j *CleanupAnalyticsJob) Name() string { return "cleanup-analytics" }

func (j *CleanupAnalyticsJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	deleted, err := j.Analytics.CleanupOldAnalytics(ctx, j.MaxAge)
	if err != nil {
		return err
	}
	log.Info("deleted %d expired analytic records", deleted)
	return nil
}
