package server

import (
	"context"
	"errors"

	"github.com/interschool/quizbowl/internal/bracket"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a uniqueness or referential violation the
	// caller should surface as HTTP 409.
	ErrConflict = errors.New("conflict")
)

type adminSession struct {
	AdminID string
	Email   string
}

var errNoAdminSession = errors.New("no valid admin session")

// QuestionFilter narrows question queries and bulk usage resets.
// Empty fields match everything.
type QuestionFilter struct {
	Type     string
	Phase    string
	Category string
}

type Store interface {
	// Admin accounts and cookie sessions.
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CountAdmins(ctx context.Context) (int, error)
	CreateAdmin(ctx context.Context, email, passwordHash string) error
	CreateAdminSession(ctx context.Context, adminID string) (string, error)
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error

	ListSchools(ctx context.Context) ([]School, error)
	CreateSchool(ctx context.Context, req SchoolRequest) (School, error)
	GetSchool(ctx context.Context, id string) (School, error)
	UpdateSchool(ctx context.Context, id string, req SchoolRequest) (School, error)
	DeleteSchool(ctx context.Context, id string) error
	SchoolHasTeams(ctx context.Context, id string) (bool, error)

	ListTeams(ctx context.Context) ([]TeamItem, error)
	CreateTeam(ctx context.Context, req TeamRequest) (TeamItem, error)
	CreateTeamsForSchool(ctx context.Context, schoolID string, names []string) ([]TeamItem, error)
	GetTeam(ctx context.Context, id string) (TeamItem, error)
	UpdateTeam(ctx context.Context, id string, req TeamRequest) (TeamItem, error)
	DeleteTeam(ctx context.Context, id string) error
	TeamTotalScore(ctx context.Context, id string) (int, error)
	MissingTeams(ctx context.Context, ids []string) ([]string, error)

	ListQuestions(ctx context.Context, f QuestionFilter) ([]QuestionItem, error)
	CreateQuestion(ctx context.Context, req QuestionRequest) (QuestionItem, error)
	GetQuestion(ctx context.Context, id string) (QuestionItem, error)
	UpdateQuestion(ctx context.Context, id string, req QuestionRequest) (QuestionItem, error)
	DeleteQuestion(ctx context.Context, id string) error
	ResetQuestionUsage(ctx context.Context, f QuestionFilter, global bool) (int64, error)

	ListCompetitions(ctx context.Context) ([]CompetitionSummary, error)
	CreateCompetition(ctx context.Context, name string, teamIDs []string) (CompetitionDetail, error)
	GetCompetition(ctx context.Context, id string) (CompetitionDetail, error)
	DeleteCompetition(ctx context.Context, id string) error
	ParticipantIDs(ctx context.Context, competitionID string) ([]string, error)
	IsParticipant(ctx context.Context, competitionID, teamID string) (bool, error)

	ReplaceGroups(ctx context.Context, competitionID string, stage bracket.Stage, groups []GroupDef) ([]GroupItem, error)
	ListGroups(ctx context.Context, competitionID string) ([]GroupItem, error)

	Standings(ctx context.Context, competitionID string) ([]bracket.Standing, error)
	AdvanceStage(ctx context.Context, competitionID string, teamIDs []string, stage bracket.Stage) ([]GroupItem, error)
	ResetCompetition(ctx context.Context, competitionID string) error
	AddScore(ctx context.Context, competitionID, teamID string, delta int) (int, error)

	CandidateQuestions(ctx context.Context, competitionID, qtype, phase string, globallyUnused bool) ([]string, error)
	MarkQuestionsUsed(ctx context.Context, competitionID string, questionIDs []string) error
	QuestionsByIDs(ctx context.Context, ids []string) ([]QuestionItem, error)
	ResetCompetitionUsage(ctx context.Context, competitionID, qtype string) (int64, error)

	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, s Settings) (Settings, error)
}
