package server

import (
	"net/http"
	"testing"
)

// scoreAll applies one delta per team, index-aligned with teamIDs.
func scoreAll(t *testing.T, store *SQLiteStore, compID string, teamIDs []string, deltas []int) {
	t.Helper()
	for i, id := range teamIDs {
		if deltas[i] == 0 {
			continue
		}
		if _, err := store.AddScore(t.Context(), compID, id, deltas[i]); err != nil {
			t.Fatalf("scoring team %d: %v", i, err)
		}
	}
}

// distinctScores gives every team a unique score, descending with
// index, so cutoffs are never contested.
func distinctScores(n int) []int {
	deltas := make([]int, n)
	for i := range deltas {
		deltas[i] = 100 - i
	}
	return deltas
}

func TestAdvanceToSemiFinalClean(t *testing.T) {
	r, store, login := testRouter(t)
	cookies := login()
	compID, ids := seedCompetition(t, store)
	scoreAll(t, store, compID, ids, distinctScores(18))

	w := doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/semi-final", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[AdvanceResponse](t, w)
	if resp.CurrentStage != "semi_final" {
		t.Errorf("expected stage semi_final, got %q", resp.CurrentStage)
	}
	if len(resp.Groups) != 3 {
		t.Fatalf("expected 3 semi-final groups, got %d", len(resp.Groups))
	}
	for _, g := range resp.Groups {
		if len(g.Teams) != 3 {
			t.Errorf("group %q: expected 3 teams, got %d", g.Name, len(g.Teams))
		}
	}

	comp, err := store.GetCompetition(t.Context(), compID)
	if err != nil {
		t.Fatalf("getting competition: %v", err)
	}
	if comp.CurrentStage != "semi_final" || comp.CurrentPhase != "semi_final" {
		t.Errorf("competition markers not updated: stage=%q phase=%q", comp.CurrentStage, comp.CurrentPhase)
	}
	if comp.Status != "ongoing" {
		t.Errorf("expected status ongoing, got %q", comp.Status)
	}

	advanced, eliminated := 0, 0
	for _, tm := range comp.Teams {
		switch tm.Stage {
		case "semi_final":
			advanced++
			if tm.Score != 0 {
				t.Errorf("advancing team %s should have score reset, got %d", tm.TeamID, tm.Score)
			}
		case "eliminated":
			eliminated++
		default:
			t.Errorf("team %s at unexpected stage %q", tm.TeamID, tm.Stage)
		}
	}
	if advanced != 9 || eliminated != 9 {
		t.Errorf("expected 9 advanced and 9 eliminated, got %d/%d", advanced, eliminated)
	}
}

func TestAdvanceContestedCutoff(t *testing.T) {
	r, store, login := testRouter(t)
	cookies := login()
	compID, ids := seedCompetition(t, store)

	// Ranks 1-8 are distinct; ranks 9-11 share a score, so the last
	// slot is contested three ways.
	deltas := make([]int, 18)
	for i := 0; i < 8; i++ {
		deltas[i] = 100 - i
	}
	deltas[8], deltas[9], deltas[10] = 50, 50, 50
	for i := 11; i < 18; i++ {
		deltas[i] = 10
	}
	scoreAll(t, store, compID, ids, deltas)

	w := doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/semi-final", nil, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[ContestedResponse](t, w)
	if !resp.RequiresManualSelection {
		t.Error("expected requiresManualSelection")
	}
	if len(resp.TiedTeams) != 3 {
		t.Errorf("expected 3 tied teams, got %d", len(resp.TiedTeams))
	}
	if len(resp.CurrentlyAdvancing) != 8 {
		t.Errorf("expected 8 advancing, got %d", len(resp.CurrentlyAdvancing))
	}
	if resp.AvailableSlots != 1 {
		t.Errorf("expected 1 open slot, got %d", resp.AvailableSlots)
	}

	// Nothing moved.
	comp, _ := store.GetCompetition(t.Context(), compID)
	if comp.CurrentStage != "group" {
		t.Errorf("contested cutoff must not change stage, got %q", comp.CurrentStage)
	}
}

func TestAdvanceManualSelection(t *testing.T) {
	r, store, login := testRouter(t)
	cookies := login()
	compID, ids := seedCompetition(t, store)

	deltas := make([]int, 18)
	for i := 0; i < 8; i++ {
		deltas[i] = 100 - i
	}
	deltas[8], deltas[9] = 50, 50
	for i := 10; i < 18; i++ {
		deltas[i] = 10
	}
	scoreAll(t, store, compID, ids, deltas)

	// Resolve the two-way tie by hand: first 8 plus team 9.
	selected := append(append([]string{}, ids[:8]...), ids[9])
	w := doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/semi-final/manual",
		ManualSelectionRequest{SelectedTeamIDs: selected}, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[AdvanceResponse](t, w)
	if resp.CurrentStage != "semi_final" {
		t.Errorf("expected stage semi_final, got %q", resp.CurrentStage)
	}

	team, _ := store.GetTeam(t.Context(), ids[8])
	if team.Stage != "eliminated" {
		t.Errorf("unselected tied team should be eliminated, got %q", team.Stage)
	}
}

func TestAdvanceManualWrongCount(t *testing.T) {
	r, store, login := testRouter(t)
	cookies := login()
	compID, ids := seedCompetition(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/semi-final/manual",
		ManualSelectionRequest{SelectedTeamIDs: ids[:5]}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdvanceManualNonParticipant(t *testing.T) {
	r, store, login := testRouter(t)
	cookies := login()
	compID, ids := seedCompetition(t, store)
	outsider := seedTeams(t, store, 1)[0]

	selected := append(append([]string{}, ids[:8]...), outsider)
	w := doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/semi-final/manual",
		ManualSelectionRequest{SelectedTeamIDs: selected}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdvanceSkippingStageBlocked(t *testing.T) {
	r, store, login := testRouter(t)
	cookies := login()
	compID, ids := seedCompetition(t, store)
	scoreAll(t, store, compID, ids, distinctScores(18))

	// Straight from group to final is not allowed.
	w := doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/final", nil, cookies)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdvanceToFinal(t *testing.T) {
	r, store, login := testRouter(t)
	cookies := login()
	compID, ids := seedCompetition(t, store)
	scoreAll(t, store, compID, ids, distinctScores(18))

	w := doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/semi-final", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("semi-final: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	semis := decodeBody[AdvanceResponse](t, w)

	// Score the nine semi-finalists distinctly.
	for i, g := range semis.Groups {
		for j, tm := range g.Teams {
			if _, err := store.AddScore(t.Context(), compID, tm.TeamID, 90-i*10-j); err != nil {
				t.Fatalf("scoring semi-finalist: %v", err)
			}
		}
	}

	w = doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/final", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("final: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[AdvanceResponse](t, w)
	if resp.CurrentStage != "final" {
		t.Errorf("expected stage final, got %q", resp.CurrentStage)
	}
	if len(resp.Groups) != 1 {
		t.Fatalf("expected a single final group, got %d", len(resp.Groups))
	}
	if resp.Groups[0].Name != "Final" || len(resp.Groups[0].Teams) != 3 {
		t.Errorf("unexpected final group: %+v", resp.Groups[0])
	}
}

func TestResetCompetition(t *testing.T) {
	r, store, login := testRouter(t)
	cookies := login()
	compID, ids := seedCompetition(t, store)
	scoreAll(t, store, compID, ids, distinctScores(18))

	w := doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/advance/semi-final", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("advance: expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/competitions/"+compID+"/reset", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	comp := decodeBody[CompetitionDetail](t, w)
	if comp.Status != "draft" || comp.CurrentStage != "group" || comp.CurrentPhase != "league" {
		t.Errorf("reset markers wrong: status=%q stage=%q phase=%q", comp.Status, comp.CurrentStage, comp.CurrentPhase)
	}
	if len(comp.Groups) != 0 {
		t.Errorf("expected no groups after reset, got %d", len(comp.Groups))
	}
	for _, tm := range comp.Teams {
		if tm.Stage != "group" {
			t.Errorf("team %s should be back at group, got %q", tm.TeamID, tm.Stage)
		}
		if tm.Score != 0 {
			t.Errorf("team %s score should be zeroed, got %d", tm.TeamID, tm.Score)
		}
	}
}

func TestAdvanceUnknownCompetition(t *testing.T) {
	r, _, login := testRouter(t)
	cookies := login()

	w := doJSON(t, r, http.MethodPost, "/api/competitions/no-such-id/advance/semi-final", nil, cookies)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
