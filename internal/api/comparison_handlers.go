package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/puzzlereplay/internal/errors"
)

type compareRequest struct {
	OriginalReplayID string `json:"original_replay_id"`
	NewReplayID      string `json:"new_replay_id"`
}

// verifyComparable checks the caller owns at least one of the two replays.
func (s *Server) verifyComparable(r *http.Request, originalID, newID, userID string) error {
	original, err := s.Replays.GetReplay(r.Context(), originalID)
	if err != nil {
		return err
	}
	updated, err := s.Replays.GetReplay(r.Context(), newID)
	if err != nil {
		return err
	}
	if original.UserID != userID && updated.UserID != userID {
		return errors.NewForbiddenError("you can only compare your own replays")
	}
	return nil
}

func (s *Server) handleCompareReplays(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.OriginalReplayID == "" || req.NewReplayID == "" {
		handleError(w, r, errors.NewValidationError("body", "original_replay_id and new_replay_id are required"))
		return
	}

	if err := s.verifyComparable(r, req.OriginalReplayID, req.NewReplayID, userID); err != nil {
		handleError(w, r, err)
		return
	}

	comparison, err := s.Comparison.CompareReplays(r.Context(), req.OriginalReplayID, req.NewReplayID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, comparison)
}

func (s *Server) handleComparisonSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	originalID := chi.URLParam(r, "originalID")
	newID := chi.URLParam(r, "newID")

	if err := s.verifyComparable(r, originalID, newID, userID); err != nil {
		handleError(w, r, err)
		return
	}

	summary, err := s.Comparison.CompareSummary(r.Context(), originalID, newID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
