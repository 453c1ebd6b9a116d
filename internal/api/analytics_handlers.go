package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/models"
)

func (s *Server) handleReplayAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	if _, err := s.viewableReplay(r, replayID, userID); err != nil {
		handleError(w, r, err)
		return
	}

	records, err := s.Analytics.ReplayAnalytics(r.Context(), replayID, r.URL.Query().Get("metric_type"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"analytics": records})
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

func (s *Server) handleRecordDifficultyRating(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())
	replayID := chi.URLParam(r, "replayID")

	var req ratingRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	// Owners and learners viewing a public replay may rate it.
	replay, err := s.Replays.GetReplay(r.Context(), replayID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if replay.Permission != models.PermissionPublic && replay.UserID != userID {
		handleError(w, r, errors.NewForbiddenError("you cannot rate this replay"))
		return
	}

	record, err := s.Analytics.RecordDifficultyRating(r.Context(), replayID, req.Rating)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

type effectivenessRequest struct {
	BeforeScore *float64 `json:"before_score"`
	AfterScore  *float64 `json:"after_score"`
}

func (s *Server) handleRecordLearningEffectiveness(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	var req effectivenessRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.BeforeScore == nil || req.AfterScore == nil {
		handleError(w, r, errors.NewValidationError("body", "before_score and after_score are required"))
		return
	}

	record, err := s.Analytics.RecordLearningEffectiveness(r.Context(), replayID, *req.BeforeScore, *req.AfterScore)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

type strategyRequest struct {
	Pattern     string  `json:"pattern"`
	SuccessRate float64 `json:"success_rate"`
}

func (s *Server) handleRecordStrategyPattern(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	var req strategyRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Pattern == "" {
		handleError(w, r, errors.NewValidationError("pattern", "must not be empty"))
		return
	}

	record, err := s.Analytics.RecordStrategyPattern(r.Context(), replayID, req.Pattern, req.SuccessRate)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (s *Server) handleCompletionAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := s.Analytics.CompletionAnalytics(r.Context(), chi.URLParam(r, "puzzleID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleTopReplays(w http.ResponseWriter, r *http.Request) {
	out, err := s.Analytics.TopReplaysByViews(r.Context(), chi.URLParam(r, "puzzleID"), queryInt(r, "limit", 10))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"replays": out})
}

func (s *Server) handleLearningEffectivenessSummary(w http.ResponseWriter, r *http.Request) {
	out, err := s.Analytics.LearningEffectivenessSummary(r.Context(), chi.URLParam(r, "puzzleID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCommonStrategies(w http.ResponseWriter, r *http.Request) {
	out, err := s.Analytics.CommonStrategies(r.Context(), chi.URLParam(r, "puzzleID"), queryInt(r, "limit", 5))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"strategies": out})
}

func (s *Server) handleDifficultyFeedback(w http.ResponseWriter, r *http.Request) {
	out, err := s.Analytics.DifficultyFeedback(r.Context(), chi.URLParam(r, "puzzleID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleLearningProgress(w http.ResponseWriter, r *http.Request) {
	out, err := s.Analytics.PlayerLearningProgress(r.Context(), chi.URLParam(r, "userID"), queryInt(r, "limit", 10))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"progress": out})
}
