package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "QuizBowl API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the inter-school quiz competition admin tool.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/schools
	listSchools, _ := r.NewOperationContext(http.MethodGet, "/api/schools")
	listSchools.SetSummary("List schools")
	listSchools.SetDescription("Returns all schools with team counts.")
	listSchools.AddRespStructure([]School{}, openapi.WithHTTPStatus(http.StatusOK))
	listSchools.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listSchools)

	// POST /api/schools
	createSchool, _ := r.NewOperationContext(http.MethodPost, "/api/schools")
	createSchool.SetSummary("Create school")
	createSchool.SetDescription("Creates a school. Name must be unique.")
	createSchool.AddReqStructure(SchoolRequest{})
	createSchool.AddRespStructure(School{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSchool.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createSchool.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createSchool)

	// GET /api/schools/{id}
	getSchool, _ := r.NewOperationContext(http.MethodGet, "/api/schools/{id}")
	getSchool.SetSummary("Get school")
	getSchool.AddRespStructure(School{}, openapi.WithHTTPStatus(http.StatusOK))
	getSchool.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSchool)

	// PUT /api/schools/{id}
	updateSchool, _ := r.NewOperationContext(http.MethodPut, "/api/schools/{id}")
	updateSchool.SetSummary("Update school")
	updateSchool.AddReqStructure(SchoolRequest{})
	updateSchool.AddRespStructure(School{}, openapi.WithHTTPStatus(http.StatusOK))
	updateSchool.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateSchool.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	updateSchool.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(updateSchool)

	// DELETE /api/schools/{id}
	deleteSchool, _ := r.NewOperationContext(http.MethodDelete, "/api/schools/{id}")
	deleteSchool.SetSummary("Delete school")
	deleteSchool.SetDescription("Deletes a school. Blocked while teams reference it.")
	deleteSchool.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteSchool.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	deleteSchool.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteSchool)

	// POST /api/schools/{id}/teams
	bulkTeams, _ := r.NewOperationContext(http.MethodPost, "/api/schools/{id}/teams")
	bulkTeams.SetSummary("Bulk create teams")
	bulkTeams.SetDescription("Creates several teams under one school in a single transaction.")
	bulkTeams.AddReqStructure(BulkTeamsRequest{})
	bulkTeams.AddRespStructure([]TeamItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	bulkTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	bulkTeams.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(bulkTeams)

	// GET /api/teams
	listTeams, _ := r.NewOperationContext(http.MethodGet, "/api/teams")
	listTeams.SetSummary("List teams")
	listTeams.SetDescription("Returns all teams with school names, stages, and total scores.")
	listTeams.AddRespStructure([]TeamItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listTeams)

	// POST /api/teams
	createTeam, _ := r.NewOperationContext(http.MethodPost, "/api/teams")
	createTeam.SetSummary("Create team")
	createTeam.AddReqStructure(TeamRequest{})
	createTeam.AddRespStructure(TeamItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createTeam)

	// GET /api/teams/{id}
	getTeam, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{id}")
	getTeam.SetSummary("Get team")
	getTeam.AddRespStructure(TeamItem{}, openapi.WithHTTPStatus(http.StatusOK))
	getTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTeam)

	// PUT /api/teams/{id}
	updateTeam, _ := r.NewOperationContext(http.MethodPut, "/api/teams/{id}")
	updateTeam.SetSummary("Update team")
	updateTeam.AddReqStructure(TeamRequest{})
	updateTeam.AddRespStructure(TeamItem{}, openapi.WithHTTPStatus(http.StatusOK))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateTeam)

	// DELETE /api/teams/{id}
	deleteTeam, _ := r.NewOperationContext(http.MethodDelete, "/api/teams/{id}")
	deleteTeam.SetSummary("Delete team")
	deleteTeam.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteTeam)

	// GET /api/teams/{id}/score
	teamScore, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{id}/score")
	teamScore.SetSummary("Team total score")
	teamScore.SetDescription("Returns the team's score summed across all competitions.")
	teamScore.AddRespStructure(TeamScoreResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	teamScore.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(teamScore)

	// GET /api/questions
	listQuestions, _ := r.NewOperationContext(http.MethodGet, "/api/questions")
	listQuestions.SetSummary("List questions")
	listQuestions.SetDescription("Returns the question bank. Filterable by type, phase, and category.")
	listQuestions.AddRespStructure([]QuestionItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listQuestions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(listQuestions)

	// POST /api/questions
	createQuestion, _ := r.NewOperationContext(http.MethodPost, "/api/questions")
	createQuestion.SetSummary("Create question")
	createQuestion.AddReqStructure(QuestionRequest{})
	createQuestion.AddRespStructure(QuestionItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createQuestion)

	// POST /api/questions/reset
	resetUsage, _ := r.NewOperationContext(http.MethodPost, "/api/questions/reset")
	resetUsage.SetSummary("Reset question usage")
	resetUsage.SetDescription("Clears the global used flag on questions matching the optional type/phase filter. With global=true it also forgets per-competition usage.")
	resetUsage.AddReqStructure(UsageResetRequest{})
	resetUsage.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	resetUsage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(resetUsage)

	// GET /api/questions/{id}
	getQuestion, _ := r.NewOperationContext(http.MethodGet, "/api/questions/{id}")
	getQuestion.SetSummary("Get question")
	getQuestion.AddRespStructure(QuestionItem{}, openapi.WithHTTPStatus(http.StatusOK))
	getQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getQuestion)

	// PUT /api/questions/{id}
	updateQuestion, _ := r.NewOperationContext(http.MethodPut, "/api/questions/{id}")
	updateQuestion.SetSummary("Update question")
	updateQuestion.AddReqStructure(QuestionRequest{})
	updateQuestion.AddRespStructure(QuestionItem{}, openapi.WithHTTPStatus(http.StatusOK))
	updateQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateQuestion)

	// DELETE /api/questions/{id}
	deleteQuestion, _ := r.NewOperationContext(http.MethodDelete, "/api/questions/{id}")
	deleteQuestion.SetSummary("Delete question")
	deleteQuestion.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteQuestion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteQuestion)

	// GET /api/competitions
	listComps, _ := r.NewOperationContext(http.MethodGet, "/api/competitions")
	listComps.SetSummary("List competitions")
	listComps.AddRespStructure([]CompetitionSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listComps)

	// POST /api/competitions
	createComp, _ := r.NewOperationContext(http.MethodPost, "/api/competitions")
	createComp.SetSummary("Create competition")
	createComp.SetDescription("Creates a competition with exactly 18 registered teams.")
	createComp.AddReqStructure(CompetitionRequest{})
	createComp.AddRespStructure(CompetitionDetail{}, openapi.WithHTTPStatus(http.StatusCreated))
	createComp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createComp)

	// GET /api/competitions/{id}
	getComp, _ := r.NewOperationContext(http.MethodGet, "/api/competitions/{id}")
	getComp.SetSummary("Get competition")
	getComp.SetDescription("Returns the competition with per-team scores and current groups.")
	getComp.AddRespStructure(CompetitionDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getComp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getComp)

	// DELETE /api/competitions/{id}
	deleteComp, _ := r.NewOperationContext(http.MethodDelete, "/api/competitions/{id}")
	deleteComp.SetSummary("Delete competition")
	deleteComp.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteComp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteComp)

	// POST /api/competitions/{id}/groups
	createGroups, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/groups")
	createGroups.SetSummary("Create groups manually")
	createGroups.SetDescription("Replaces the group-stage groups with explicitly chosen three-team groups.")
	createGroups.AddReqStructure(GroupsRequest{})
	createGroups.AddRespStructure([]GroupItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createGroups.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createGroups.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createGroups)

	// POST /api/competitions/{id}/groups/auto
	autoGroups, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/groups/auto")
	autoGroups.SetSummary("Draw groups randomly")
	autoGroups.SetDescription("Shuffles the 18 participants into six groups of three.")
	autoGroups.AddRespStructure([]GroupItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	autoGroups.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(autoGroups)

	// POST /api/competitions/{id}/advance/semi-final
	advanceSemi, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/advance/semi-final")
	advanceSemi.SetSummary("Advance to semi-final")
	advanceSemi.SetDescription("Promotes the top 9 teams. Returns 400 with tie details when the cutoff is contested.")
	advanceSemi.AddRespStructure(AdvanceResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	advanceSemi.AddRespStructure(ContestedResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	advanceSemi.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	advanceSemi.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(advanceSemi)

	// POST /api/competitions/{id}/advance/semi-final/manual
	advanceSemiManual, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/advance/semi-final/manual")
	advanceSemiManual.SetSummary("Advance to semi-final with manual selection")
	advanceSemiManual.SetDescription("Promotes a caller-supplied set of exactly 9 teams after a contested cutoff.")
	advanceSemiManual.AddReqStructure(ManualSelectionRequest{})
	advanceSemiManual.AddRespStructure(AdvanceResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	advanceSemiManual.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	advanceSemiManual.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(advanceSemiManual)

	// POST /api/competitions/{id}/advance/final
	advanceFinal, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/advance/final")
	advanceFinal.SetSummary("Advance to final")
	advanceFinal.SetDescription("Promotes the top 3 teams. Returns 400 with tie details when the cutoff is contested.")
	advanceFinal.AddRespStructure(AdvanceResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	advanceFinal.AddRespStructure(ContestedResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	advanceFinal.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(advanceFinal)

	// POST /api/competitions/{id}/advance/final/manual
	advanceFinalManual, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/advance/final/manual")
	advanceFinalManual.SetSummary("Advance to final with manual selection")
	advanceFinalManual.AddReqStructure(ManualSelectionRequest{})
	advanceFinalManual.AddRespStructure(AdvanceResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	advanceFinalManual.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	advanceFinalManual.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(advanceFinalManual)

	// POST /api/competitions/{id}/reset
	resetComp, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/reset")
	resetComp.SetSummary("Reset competition")
	resetComp.SetDescription("Rolls the competition back to a fresh group stage: scores zeroed, groups cleared, teams restored.")
	resetComp.AddRespStructure(CompetitionDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	resetComp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	resetComp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(resetComp)

	// POST /api/competitions/{id}/questions
	fetchQuestions, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/questions")
	fetchQuestions.SetSummary("Draw questions")
	fetchQuestions.SetDescription("Draws up to count unseen questions of a type, preferring globally-unused ones, and marks them used. Query params: type (required), phase, count.")
	fetchQuestions.AddRespStructure(RotationResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	fetchQuestions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	fetchQuestions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(fetchQuestions)

	// POST /api/competitions/{id}/questions/reset
	resetCompUsage, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/questions/reset")
	resetCompUsage.SetSummary("Reset competition question usage")
	resetCompUsage.SetDescription("Forgets this competition's question usage, optionally for one type only. Global used flags are untouched.")
	resetCompUsage.AddReqStructure(CompetitionUsageResetRequest{})
	resetCompUsage.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	resetCompUsage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(resetCompUsage)

	// POST /api/competitions/{id}/teams/{teamID}/score
	addScore, _ := r.NewOperationContext(http.MethodPost, "/api/competitions/{id}/teams/{teamID}/score")
	addScore.SetSummary("Add score")
	addScore.SetDescription("Applies a signed score delta to a team within a competition.")
	addScore.AddReqStructure(ScoreRequest{})
	addScore.AddRespStructure(ScoreResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	addScore.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	addScore.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(addScore)

	// GET /api/settings
	getSettings, _ := r.NewOperationContext(http.MethodGet, "/api/settings")
	getSettings.SetSummary("Get settings")
	getSettings.SetDescription("Returns the round defaults per question type.")
	getSettings.AddRespStructure(Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSettings)

	// PUT /api/settings
	updateSettings, _ := r.NewOperationContext(http.MethodPut, "/api/settings")
	updateSettings.SetSummary("Update settings")
	updateSettings.AddReqStructure(Settings{})
	updateSettings.AddRespStructure(Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	updateSettings.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(updateSettings)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
