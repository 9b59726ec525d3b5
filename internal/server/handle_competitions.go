package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/interschool/quizbowl/internal/bracket"
)

// CompetitionSummary is returned in the list endpoint.
type CompetitionSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	CurrentStage string `json:"currentStage"`
	CurrentPhase string `json:"currentPhase"`
	TeamCount    int    `json:"teamCount"`
	CreatedAt    string `json:"createdAt"`
}

// CompetitionDetail is the full competition with standings and groups.
type CompetitionDetail struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Status       string            `json:"status"`
	CurrentStage string            `json:"currentStage"`
	CurrentPhase string            `json:"currentPhase"`
	Teams        []CompetitionTeam `json:"teams"`
	Groups       []GroupItem       `json:"groups"`
	CreatedAt    string            `json:"createdAt"`
}

// CompetitionTeam is one participant with its competition-scoped score.
type CompetitionTeam struct {
	TeamID     string `json:"teamId"`
	Name       string `json:"name"`
	SchoolName string `json:"schoolName"`
	Stage      string `json:"stage"`
	Score      int    `json:"score"`
}

// GroupItem is a group of three teams at one stage.
type GroupItem struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Stage        string            `json:"stage"`
	RoundsPlayed int               `json:"roundsPlayed"`
	Teams        []CompetitionTeam `json:"teams"`
	CreatedAt    string            `json:"createdAt"`
}

// CompetitionRequest is the request body for creating a competition.
type CompetitionRequest struct {
	Name    string   `json:"name"`
	TeamIDs []string `json:"teamIds"`
}

// GroupDef names a group and its member teams.
type GroupDef struct {
	Name    string   `json:"name"`
	TeamIDs []string `json:"teamIds"`
}

// GroupsRequest is the request body for manual group creation.
type GroupsRequest struct {
	Groups []GroupDef `json:"groups"`
}

func (req *CompetitionRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if len(req.TeamIDs) != bracket.CompetitionSize {
		return fmt.Sprintf("a competition needs exactly %d teams, got %d", bracket.CompetitionSize, len(req.TeamIDs))
	}
	seen := make(map[string]bool, len(req.TeamIDs))
	for _, id := range req.TeamIDs {
		if seen[id] {
			return "duplicate team id " + id
		}
		seen[id] = true
	}
	return ""
}

func (req *GroupsRequest) validate() string {
	if len(req.Groups) == 0 {
		return "at least one group is required"
	}
	seen := make(map[string]bool)
	for i, g := range req.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Sprintf("group %d needs a name", i+1)
		}
		if len(g.TeamIDs) != bracket.GroupSize {
			return fmt.Sprintf("group %q needs exactly %d teams, got %d", g.Name, bracket.GroupSize, len(g.TeamIDs))
		}
		for _, id := range g.TeamIDs {
			if seen[id] {
				return "team " + id + " appears in more than one group"
			}
			seen[id] = true
		}
	}
	return ""
}

func handleListCompetitions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comps, err := store.ListCompetitions(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, comps)
	}
}

func handleCreateCompetition(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompetitionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		missing, err := store.MissingTeams(r.Context(), req.TeamIDs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if len(missing) > 0 {
			writeError(w, http.StatusBadRequest, "unknown team id "+missing[0])
			return
		}

		comp, err := store.CreateCompetition(r.Context(), req.Name, req.TeamIDs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, comp)
	}
}

func handleGetCompetition(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		comp, err := store.GetCompetition(r.Context(), chi.URLParam(r, "id"))
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "competition not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, comp)
	}
}

func handleDeleteCompetition(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteCompetition(r.Context(), chi.URLParam(r, "id"))
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "competition not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleCreateGroups replaces the competition's group-stage groups
// with explicitly chosen three-team groups.
func handleCreateGroups(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := chi.URLParam(r, "id")

		var req GroupsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		comp, err := store.GetCompetition(r.Context(), compID)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "competition not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if comp.CurrentStage != string(bracket.StageGroup) {
			writeError(w, http.StatusConflict, "groups can only be redrawn at the group stage")
			return
		}

		for _, g := range req.Groups {
			for _, teamID := range g.TeamIDs {
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
		}

		groups, err := store.ReplaceGroups(r.Context(), compID, bracket.StageGroup, req.Groups)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, groups)
	}
}

// handleAutoGroups shuffles the 18 participants into six groups of
// three.
func handleAutoGroups(store Store, smp *sampler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := chi.URLParam(r, "id")

		comp, err := store.GetCompetition(r.Context(), compID)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "competition not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if comp.CurrentStage != string(bracket.StageGroup) {
			writeError(w, http.StatusConflict, "groups can only be redrawn at the group stage")
			return
		}

		ids, err := store.ParticipantIDs(r.Context(), compID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if len(ids)%bracket.GroupSize != 0 {
			writeError(w, http.StatusConflict, "participant count is not a multiple of three")
			return
		}

		shuffled := smp.sample(ids, len(ids))
		defs := make([]GroupDef, 0, len(shuffled)/bracket.GroupSize)
		for i, members := range bracket.Partition(shuffled, bracket.GroupSize) {
			defs = append(defs, GroupDef{Name: groupName(bracket.StageGroup, i), TeamIDs: members})
		}

		groups, err := store.ReplaceGroups(r.Context(), compID, bracket.StageGroup, defs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, groups)
	}
}
