package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/interschool/quizbowl/internal/database"
	"github.com/interschool/quizbowl/internal/migrations"
)

const (
	testAdminEmail    = "admin@quizbowl.local"
	testAdminPassword = "changeme"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	// An in-memory database exists per connection; keep the pool at one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

// testRouter builds the full route tree against a fresh in-memory
// database with a seeded admin, and returns a login helper.
func testRouter(t *testing.T) (*chi.Mux, *SQLiteStore, func() []*http.Cookie) {
	t.Helper()

	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	logger := discardLogger()

	if err := SeedAdmin(context.Background(), logger, store, testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	r := chi.NewRouter()
	addRoutes(r, logger, db, nil, store, NewMemoryLocker(), newSampler(42), "")

	login := func() []*http.Cookie {
		w := doJSON(t, r, http.MethodPost, "/api/admin/login",
			AdminLoginRequest{Email: testAdminEmail, Password: testAdminPassword}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
		}
		return w.Result().Cookies()
	}

	return r, store, login
}

// doJSON performs a request with an optional JSON body and cookies.
func doJSON(t *testing.T, r http.Handler, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

// seedSchool creates a school with a unique name and code.
func seedSchool(t *testing.T, store *SQLiteStore, name string) School {
	t.Helper()
	school, err := store.CreateSchool(context.Background(), SchoolRequest{
		Name: name,
		Code: "C-" + name,
	})
	if err != nil {
		t.Fatalf("creating school %q: %v", name, err)
	}
	return school
}

var schoolSeq atomic.Int64

// seedTeams creates n teams under a fresh school. School names are
// sequenced so repeated fixtures never trip the uniqueness constraint.
func seedTeams(t *testing.T, store *SQLiteStore, n int) []string {
	t.Helper()
	school := seedSchool(t, store, fmt.Sprintf("School-%d", schoolSeq.Add(1)))

	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Team %02d", i+1)
	}
	teams, err := store.CreateTeamsForSchool(context.Background(), school.ID, names)
	if err != nil {
		t.Fatalf("creating teams: %v", err)
	}

	ids := make([]string, len(teams))
	for i, tm := range teams {
		ids[i] = tm.ID
	}
	return ids
}

// seedCompetition creates 18 teams and a competition containing them.
func seedCompetition(t *testing.T, store *SQLiteStore) (string, []string) {
	t.Helper()
	ids := seedTeams(t, store, 18)
	comp, err := store.CreateCompetition(context.Background(), "Nationals", ids)
	if err != nil {
		t.Fatalf("creating competition: %v", err)
	}
	return comp.ID, ids
}

// seedQuestion inserts one question of the given type and phase.
func seedQuestion(t *testing.T, store *SQLiteStore, qtype, phase string) QuestionItem {
	t.Helper()
	req := QuestionRequest{
		Text:          "What is the capital of France?",
		Type:          qtype,
		Phase:         phase,
		Points:        10,
		Options:       []string{"Paris", "Lyon", "Nice", "Lille"},
		CorrectAnswer: json.RawMessage(`"Paris"`),
	}
	if qtype == "media" || qtype == "visual_rapid_fire" {
		req.MediaURL = "https://cdn.example.com/q.png"
		req.MediaKind = "image"
	}
	q, err := store.CreateQuestion(context.Background(), req)
	if err != nil {
		t.Fatalf("creating question: %v", err)
	}
	return q
}
