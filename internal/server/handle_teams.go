package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// TeamItem is a team with its school, current stage, and the
// read-through projection of its global score.
type TeamItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SchoolID   string `json:"schoolId"`
	SchoolName string `json:"schoolName"`
	Stage      string `json:"stage"`
	TotalScore int    `json:"totalScore"`
	GroupID    string `json:"groupId,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// TeamRequest is the request body for creating/updating a team.
type TeamRequest struct {
	Name     string `json:"name"`
	SchoolID string `json:"schoolId"`
}

// BulkTeamsRequest creates one team per name under a school.
type BulkTeamsRequest struct {
	Names []string `json:"names"`
}

// TeamScoreResponse is the projection of a team's global score.
type TeamScoreResponse struct {
	TeamID     string `json:"teamId"`
	TotalScore int    `json:"totalScore"`
}

func (req *TeamRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.SchoolID = strings.TrimSpace(req.SchoolID)
	if req.Name == "" {
		return "name is required"
	}
	if req.SchoolID == "" {
		return "schoolId is required"
	}
	return ""
}

func (req *BulkTeamsRequest) validate() string {
	cleaned := req.Names[:0]
	for _, name := range req.Names {
		name = strings.TrimSpace(name)
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	req.Names = cleaned
	if len(req.Names) == 0 {
		return "at least one team name is required"
	}
	return ""
}

func handleListTeams(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := store.ListTeams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

func handleCreateTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		team, err := store.CreateTeam(r.Context(), req)
		if err == ErrNotFound {
			writeError(w, http.StatusBadRequest, "school not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, team)
	}
}

// handleBulkCreateTeams is the single canonical bulk-create endpoint:
// POST /api/schools/{id}/teams with a list of team names.
func handleBulkCreateTeams(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkTeamsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		teams, err := store.CreateTeamsForSchool(r.Context(), chi.URLParam(r, "id"), req.Names)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "school not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, teams)
	}
}

func handleGetTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, err := store.GetTeam(r.Context(), chi.URLParam(r, "id"))
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, team)
	}
}

func handleUpdateTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		team, err := store.UpdateTeam(r.Context(), chi.URLParam(r, "id"), req)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, team)
	}
}

func handleDeleteTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteTeam(r.Context(), chi.URLParam(r, "id"))
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleTeamScore(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		total, err := store.TeamTotalScore(r.Context(), id)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, TeamScoreResponse{TeamID: id, TotalScore: total})
	}
}
