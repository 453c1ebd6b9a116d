package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/puzzlereplay/internal/errors"
	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
)

// requireUser returns the caller identity or a FORBIDDEN error.
func requireUser(r *http.Request) (string, error) {
	userID := userFromContext(r.Context())
	if userID == "" {
		return "", errors.NewForbiddenError("user ID required")
	}
	return userID, nil
}

// ownedReplay loads a replay and verifies the caller owns it.
func (s *Server) ownedReplay(r *http.Request, replayID, userID string) (*models.Replay, error) {
	replay, err := s.Replays.GetReplay(r.Context(), replayID)
	if err != nil {
		return nil, err
	}
	if replay.UserID != userID {
		return nil, errors.NewForbiddenError("you do not own this replay")
	}
	return replay, nil
}

// viewableReplay loads a replay the caller may read: their own or a public one.
func (s *Server) viewableReplay(r *http.Request, replayID, userID string) (*models.Replay, error) {
	replay, err := s.Replays.GetReplay(r.Context(), replayID)
	if err != nil {
		return nil, err
	}
	if replay.UserID != userID && replay.Permission != models.PermissionPublic {
		return nil, errors.NewForbiddenError("you do not have access to this replay")
	}
	return replay, nil
}

func (s *Server) handleCreateReplay(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req models.CreateReplayRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	replay, err := s.Replays.CreateReplay(r.Context(), userID, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, replay)
}

func (s *Server) handleRecordAction(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	if _, err := s.ownedReplay(r, replayID, userID); err != nil {
		handleError(w, r, err)
		return
	}

	var req models.RecordActionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	action, err := s.Replays.RecordAction(r.Context(), replayID, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, action)
}

func (s *Server) handleCompleteReplay(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	if _, err := s.ownedReplay(r, replayID, userID); err != nil {
		handleError(w, r, err)
		return
	}

	var req models.CompleteReplayRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	replay, err := s.Replays.CompleteReplay(r.Context(), replayID, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, replay)
}

func (s *Server) handleGetReplay(w http.ResponseWriter, r *http.Request) {
	userID := userFromContext(r.Context())
	replayID := chi.URLParam(r, "replayID")

	replay, err := s.viewableReplay(r, replayID, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, replay)
}

func (s *Server) handleGetPlayback(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID := userFromContext(r.Context())
	replayID := chi.URLParam(r, "replayID")

	if _, err := s.viewableReplay(r, replayID, userID); err != nil {
		handleError(w, r, err)
		return
	}

	// Playback counts as a view; recording it must not block the response.
	if _, err := s.Analytics.RecordView(r.Context(), replayID, userID); err != nil {
		log.Warn("failed to record playback view: %v", err)
	}

	playback, err := s.Replays.GetPlayback(r.Context(), replayID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, playback)
}

func (s *Server) handleListReplays(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	filter := models.ReplayFilter{
		PuzzleID:    r.URL.Query().Get("puzzle_id"),
		IsCompleted: queryBool(r, "is_completed"),
		IsSolved:    queryBool(r, "is_solved"),
		Page:        queryInt(r, "page", 1),
		Limit:       queryInt(r, "limit", 20),
	}

	replays, total, err := s.Replays.ListUserReplays(r.Context(), userID, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"replays": replays,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

func (s *Server) handleListPublicReplays(w http.ResponseWriter, r *http.Request) {
	puzzleID := chi.URLParam(r, "puzzleID")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	replays, total, err := s.Replays.ListPublicReplays(r.Context(), puzzleID, page, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"replays": replays,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (s *Server) handleShareReplay(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	var req models.ShareReplayRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	replay, err := s.Replays.ShareReplay(r.Context(), replayID, userID, req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, replay)
}

func (s *Server) handleGetSharedReplay(w http.ResponseWriter, r *http.Request) {
	shareCode := chi.URLParam(r, "shareCode")

	replay, err := s.Replays.GetSharedReplay(r.Context(), shareCode)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, replay)
}

func (s *Server) handleCompressReplay(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	if _, err := s.ownedReplay(r, replayID, userID); err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.Compression.CompressReplay(r.Context(), replayID); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "replay compressed"})
}

func (s *Server) handleArchiveReplay(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	if _, err := s.ownedReplay(r, replayID, userID); err != nil {
		handleError(w, r, err)
		return
	}

	size, err := s.Compression.ArchiveReplay(r.Context(), replayID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "replay archived",
		"storage_size": size,
	})
}

func (s *Server) handleCompressionStats(w http.ResponseWriter, r *http.Request) {
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

	stats, err := s.Compression.CompressionStats(r.Context(), replayID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDeleteReplay(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	replayID := chi.URLParam(r, "replayID")

	if err := s.Replays.DeleteReplay(r.Context(), replayID, userID); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "replay deleted"})
}
