package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(userMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/replays", func(r chi.Router) {
		r.Post("/", s.handleCreateReplay)
		r.Get("/", s.handleListReplays)

		r.Post("/compare", s.handleCompareReplays)
		r.Get("/compare/{originalID}/{newID}/summary", s.handleComparisonSummary)

		r.Get("/puzzle/{puzzleID}/public", s.handleListPublicReplays)
		r.Get("/shared/{shareCode}", s.handleGetSharedReplay)

		r.Route("/{replayID}", func(r chi.Router) {
			r.Get("/", s.handleGetReplay)
			r.Delete("/", s.handleDeleteReplay)
			r.Post("/actions", s.handleRecordAction)
			r.Patch("/complete", s.handleCompleteReplay)
			r.Get("/playback", s.handleGetPlayback)
			r.Patch("/share", s.handleShareReplay)
			r.Patch("/compress", s.handleCompressReplay)
			r.Patch("/archive", s.handleArchiveReplay)
			r.Get("/compression-stats", s.handleCompressionStats)
			r.Get("/analytics", s.handleReplayAnalytics)
			r.Post("/difficulty-rating", s.handleRecordDifficultyRating)
			r.Post("/learning-effectiveness", s.handleRecordLearningEffectiveness)
			r.Post("/strategy-pattern", s.handleRecordStrategyPattern)
		})
	})

	r.Route("/api/analytics", func(r chi.Router) {
		r.Get("/puzzles/{puzzleID}/completion", s.handleCompletionAnalytics)
		r.Get("/puzzles/{puzzleID}/top-replays", s.handleTopReplays)
		r.Get("/puzzles/{puzzleID}/learning-effectiveness", s.handleLearningEffectivenessSummary)
		r.Get("/puzzles/{puzzleID}/strategies", s.handleCommonStrategies)
		r.Get("/puzzles/{puzzleID}/difficulty-feedback", s.handleDifficultyFeedback)
		r.Get("/users/{userID}/progress", s.handleLearningProgress)
	})

	return r
}
