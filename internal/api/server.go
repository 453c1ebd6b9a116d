package api

import (
	"github.com/vytor/puzzlereplay/internal/db"
	"github.com/vytor/puzzlereplay/internal/services"
	"github.com/vytor/puzzlereplay/internal/worker"
)

type Server struct {
	DB              *db.DB
	MaintenancePool *worker.Pool
	Replays         services.ReplayService
	Compression     services.CompressionService
	Comparison      services.ComparisonService
	Analytics       services.AnalyticsService
}
