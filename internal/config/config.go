package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                   string
	DBPath                 string
	LogLevel               string
	MaintenanceWorkerCount int
	MaintenanceQueueSize   int
	MaintenanceInterval    int // minutes between maintenance runs, 0 disables
	ArchiveAfterDays       int
	ArchiveBatchLimit      int
	AnalyticsRetentionDays int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                   envOr("ADDR", ":8080"),
		DBPath:                 envOr("DB_PATH", "file:puzzlereplay.db"),
		LogLevel:               envOr("LOG_LEVEL", "INFO"),
		MaintenanceWorkerCount: envIntOr("MAINTENANCE_WORKER_COUNT", 2),
		MaintenanceQueueSize:   envIntOr("MAINTENANCE_QUEUE_SIZE", 32),
		MaintenanceInterval:    envIntOr("MAINTENANCE_INTERVAL_MINUTES", 60),
		ArchiveAfterDays:       envIntOr("ARCHIVE_AFTER_DAYS", 90),
		ArchiveBatchLimit:      envIntOr("ARCHIVE_BATCH_LIMIT", 100),
		AnalyticsRetentionDays: envIntOr("ANALYTICS_RETENTION_DAYS", 90),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
