package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/interschool/quizbowl/internal/bracket"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, rdb *redis.Client, store Store, locker Locker, smp *sampler, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("QuizBowl API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	r.Post("/api/admin/login", handleAdminLogin(store))
	r.Post("/api/admin/logout", handleAdminLogout(store))

	// Everything else requires an admin session.
	r.Route("/api", func(r chi.Router) {
		r.Use(adminAuthMiddleware(store))

		r.Get("/admin/me", handleAdminMe())

		r.Route("/schools", func(r chi.Router) {
			r.Get("/", handleListSchools(store))
			r.Post("/", handleCreateSchool(store))
			r.Get("/{id}", handleGetSchool(store))
			r.Put("/{id}", handleUpdateSchool(store))
			r.Delete("/{id}", handleDeleteSchool(store))
			r.Post("/{id}/teams", handleBulkCreateTeams(store))
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", handleListTeams(store))
			r.Post("/", handleCreateTeam(store))
			r.Get("/{id}", handleGetTeam(store))
			r.Put("/{id}", handleUpdateTeam(store))
			r.Delete("/{id}", handleDeleteTeam(store))
			r.Get("/{id}/score", handleTeamScore(store))
		})

		r.Route("/questions", func(r chi.Router) {
			r.Get("/", handleListQuestions(store))
			r.Post("/", handleCreateQuestion(store))
			r.Post("/reset", handleResetQuestionUsage(store))
			r.Get("/{id}", handleGetQuestion(store))
			r.Put("/{id}", handleUpdateQuestion(store))
			r.Delete("/{id}", handleDeleteQuestion(store))
		})

		r.Route("/competitions", func(r chi.Router) {
			r.Get("/", handleListCompetitions(store))
			r.Post("/", handleCreateCompetition(store))
			r.Get("/{id}", handleGetCompetition(store))
			r.Delete("/{id}", handleDeleteCompetition(store))

			r.Post("/{id}/groups", handleCreateGroups(store))
			r.Post("/{id}/groups/auto", handleAutoGroups(store, smp))

			r.Post("/{id}/advance/semi-final", handleAdvance(store, locker, bracket.StageSemiFinal))
			r.Post("/{id}/advance/semi-final/manual", handleAdvanceManual(store, locker, bracket.StageSemiFinal))
			r.Post("/{id}/advance/final", handleAdvance(store, locker, bracket.StageFinal))
			r.Post("/{id}/advance/final/manual", handleAdvanceManual(store, locker, bracket.StageFinal))
			r.Post("/{id}/reset", handleResetCompetition(store, locker))

			r.Post("/{id}/questions", handleFetchQuestions(store, smp))
			r.Post("/{id}/questions/reset", handleResetCompetitionUsage(store))

			r.Post("/{id}/teams/{teamID}/score", handleAddScore(store))
		})

		r.Get("/settings", handleGetSettings(store))
		r.Put("/settings", handleUpdateSettings(store))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
