package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ScoreRequest increments the (competition, team) ledger entry.
// Negative deltas are allowed for corrections and negative marking.
type ScoreRequest struct {
	Delta int `json:"delta"`
}

// ScoreResponse is the ledger entry after the increment.
type ScoreResponse struct {
	CompetitionID string `json:"competitionId"`
	TeamID        string `json:"teamId"`
	Score         int    `json:"score"`
}

// handleAddScore is the single score mutation endpoint: one
// authoritative ledger keyed by (competition, team).
func handleAddScore(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := chi.URLParam(r, "id")
		teamID := chi.URLParam(r, "teamID")

		var req ScoreRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Delta == 0 {
			writeError(w, http.StatusBadRequest, "delta must be non-zero")
			return
		}

		ok, err := store.IsParticipant(r.Context(), compID, teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "team is not in this competition")
			return
		}

		score, err := store.AddScore(r.Context(), compID, teamID, req.Delta)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ScoreResponse{
			CompetitionID: compID,
			TeamID:        teamID,
			Score:         score,
		})
	}
}
