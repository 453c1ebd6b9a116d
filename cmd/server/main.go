package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/puzzlereplay/internal/api"
	"github.com/vytor/puzzlereplay/internal/config"
	"github.com/vytor/puzzlereplay/internal/db"
	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/repository/sqlite"
	"github.com/vytor/puzzlereplay/internal/services"
	"github.com/vytor/puzzlereplay/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Puzzle Replay Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("maintenance_worker_count=%d", cfg.MaintenanceWorkerCount)
	log.Debug("maintenance_queue_size=%d", cfg.MaintenanceQueueSize)
	log.Debug("maintenance_interval_minutes=%d", cfg.MaintenanceInterval)
	log.Debug("archive_after_days=%d", cfg.ArchiveAfterDays)
	log.Debug("archive_batch_limit=%d", cfg.ArchiveBatchLimit)
	log.Debug("analytics_retention_days=%d", cfg.AnalyticsRetentionDays)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Initialize repositories
	replayRepo := sqlite.NewReplayRepository(database.DB)
	actionRepo := sqlite.NewActionRepository(database.DB)
	analyticRepo := sqlite.NewAnalyticRepository(database.DB)

	// Initialize services
	compressionService := services.NewCompressionService(replayRepo, actionRepo)
	replayService := services.NewReplayService(replayRepo, actionRepo, compressionService)
	comparisonService := services.NewComparisonService(replayRepo, analyticRepo, compressionService)
	analyticsService := services.NewAnalyticsService(analyticRepo, replayRepo)

	// Initialize maintenance worker pool
	maintenancePool := worker.NewPool(cfg.MaintenanceWorkerCount, cfg.MaintenanceQueueSize)

	srv := &api.Server{
		DB:              database,
		MaintenancePool: maintenancePool,
		Replays:         replayService,
		Compression:     compressionService,
		Comparison:      comparisonService,
		Analytics:       analyticsService,
	}

	ctx, cancel := context.WithCancel(context.Background())
	maintenancePool.Start(ctx)

	// Periodic maintenance: archive old replays, expire old analytics.
	if cfg.MaintenanceInterval > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.MaintenanceInterval) * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					maintenancePool.Submit(&worker.ArchiveReplaysJob{
						Compression: compressionService,
						MaxAge:      time.Duration(cfg.ArchiveAfterDays) * 24 * time.Hour,
						Limit:       cfg.ArchiveBatchLimit,
					})
					maintenancePool.Submit(&worker.CleanupAnalyticsJob{
						Analytics: analyticsService,
						MaxAge:    time.Duration(cfg.AnalyticsRetentionDays) * 24 * time.Hour,
					})
				}
			}
		}()
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping maintenance scheduler")
	cancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping maintenance pool")
	maintenancePool.Stop()

	log.Info("===========================================")
	log.Info("Puzzle Replay Server Stopped")
	log.Info("===========================================")
}
