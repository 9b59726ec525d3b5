package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/interschool/quizbowl/internal/bracket"
)

// AdvanceResponse is returned after a successful stage transition.
type AdvanceResponse struct {
	CurrentStage string      `json:"currentStage"`
	Groups       []GroupItem `json:"groups"`
}

// ContestedResponse is returned (HTTP 400) when the cutoff is blocked
// by a tie straddling the boundary; the caller must retry with an
// explicit manual selection.
type ContestedResponse struct {
	RequiresManualSelection bool               `json:"requiresManualSelection"`
	TiedTeams               []bracket.Standing `json:"tiedTeams"`
	CurrentlyAdvancing      []bracket.Standing `json:"currentlyAdvancing"`
	AvailableSlots          int                `json:"availableSlots"`
}

// ManualSelectionRequest supplies the full advancing team set when a
// tie made automatic selection impossible.
type ManualSelectionRequest struct {
	SelectedTeamIDs []string `json:"selectedTeamIds"`
}

// priorStage is the stage a competition must be in before advancing to
// target.
func priorStage(target bracket.Stage) bracket.Stage {
	if target == bracket.StageFinal {
		return bracket.StageSemiFinal
	}
	return bracket.StageGroup
}

// handleAdvance ranks the competition's teams and either performs the
// cutover to target or reports a contested cutoff.
func handleAdvance(store Store, locker Locker, target bracket.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := chi.URLParam(r, "id")

		release, ok, err := locker.Acquire(r.Context(), compID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "another stage operation is in progress")
			return
		}
		defer release()

		comp, err := store.GetCompetition(r.Context(), compID)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "competition not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if comp.CurrentStage != string(priorStage(target)) {
			writeError(w, http.StatusConflict,
				fmt.Sprintf("competition is at stage %s, expected %s", comp.CurrentStage, priorStage(target)))
			return
		}

		standings, err := store.Standings(r.Context(), compID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		n := bracket.RequiredTeams(target)
		if len(standings) < n {
			writeError(w, http.StatusConflict,
				fmt.Sprintf("need at least %d teams to advance, have %d", n, len(standings)))
			return
		}

		res := bracket.ResolveCutoff(standings, n)
		if !res.Clean {
			writeJSON(w, http.StatusBadRequest, ContestedResponse{
				RequiresManualSelection: true,
				TiedTeams:               res.Tied,
				CurrentlyAdvancing:      res.Advancing,
				AvailableSlots:          res.OpenSlots,
			})
			return
		}

		ids := make([]string, len(res.Selected))
		for i, st := range res.Selected {
			ids[i] = st.TeamID
		}

		groups, err := store.AdvanceStage(r.Context(), compID, ids, target)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, AdvanceResponse{CurrentStage: string(target), Groups: groups})
	}
}

// handleAdvanceManual performs the cutover with a caller-supplied team
// set, for cutoffs the tie resolver could not decide.
func handleAdvanceManual(store Store, locker Locker, target bracket.Stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := chi.URLParam(r, "id")

		var req ManualSelectionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		n := bracket.RequiredTeams(target)
		if len(req.SelectedTeamIDs) != n {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("exactly %d team ids are required, got %d", n, len(req.SelectedTeamIDs)))
			return
		}
		seen := make(map[string]bool, n)
		for _, id := range req.SelectedTeamIDs {
			if seen[id] {
				writeError(w, http.StatusBadRequest, "duplicate team id "+id)
				return
			}
			seen[id] = true
		}

		release, ok, err := locker.Acquire(r.Context(), compID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "another stage operation is in progress")
			return
		}
		defer release()

		comp, err := store.GetCompetition(r.Context(), compID)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "competition not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if comp.CurrentStage != string(priorStage(target)) {
			writeError(w, http.StatusConflict,
				fmt.Sprintf("competition is at stage %s, expected %s", comp.CurrentStage, priorStage(target)))
			return
		}

		for _, teamID := range req.SelectedTeamIDs {
			ok, err := store.IsParticipant(r.Context(), compID, teamID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if !ok {
				writeError(w, http.StatusBadRequest, "team "+teamID+" is not in this competition")
				return
			}
		}

		groups, err := store.AdvanceStage(r.Context(), compID, req.SelectedTeamIDs, target)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, AdvanceResponse{CurrentStage: string(target), Groups: groups})
	}
}

// handleResetCompetition rolls a competition all the way back to a
// fresh group stage.
func handleResetCompetition(store Store, locker Locker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := chi.URLParam(r, "id")

		release, ok, err := locker.Acquire(r.Context(), compID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "another stage operation is in progress")
			return
		}
		defer release()

		err = store.ResetCompetition(r.Context(), compID)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "competition not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		comp, err := store.GetCompetition(r.Context(), compID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, comp)
	}
}
