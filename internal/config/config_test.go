package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/puzzlereplay/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "file:puzzlereplay.db", cfg.DBPath)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 2, cfg.MaintenanceWorkerCount)
	assert.Equal(t, 32, cfg.MaintenanceQueueSize)
	assert.Equal(t, 90, cfg.ArchiveAfterDays)
	assert.Equal(t, 90, cfg.AnalyticsRetentionDays)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ARCHIVE_AFTER_DAYS", "30")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 30, cfg.ArchiveAfterDays)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("MAINTENANCE_WORKER_COUNT", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 2, cfg.MaintenanceWorkerCount)
}
