package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/interschool/quizbowl/internal/bracket"
)

// QuestionItem is a question-bank entry. CorrectAnswer is a scalar for
// mcq/media/buzzer questions and an array for sequence/rapid-fire.
type QuestionItem struct {
	ID                 string          `json:"id"`
	Text               string          `json:"text"`
	Type               string          `json:"type"`
	Options            []string        `json:"options"`
	CorrectAnswer      json.RawMessage `json:"correctAnswer"`
	MediaURL           string          `json:"mediaUrl,omitempty"`
	MediaKind          string          `json:"mediaKind,omitempty"`
	Difficulty         string          `json:"difficulty,omitempty"`
	Category           string          `json:"category,omitempty"`
	Points             int             `json:"points"`
	Phase              string          `json:"phase"`
	IsUsed             bool            `json:"isUsed"`
	UsedInCompetitions []string        `json:"usedInCompetitions,omitempty"`
	CreatedAt          string          `json:"createdAt"`
}

// QuestionRequest is the request body for creating/updating a question.
type QuestionRequest struct {
	Text          string          `json:"text"`
	Type          string          `json:"type"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	MediaURL      string          `json:"mediaUrl"`
	MediaKind     string          `json:"mediaKind"`
	Difficulty    string          `json:"difficulty"`
	Category      string          `json:"category"`
	Points        int             `json:"points"`
	Phase         string          `json:"phase"`
}

// UsageResetRequest is the request body for POST /api/questions/reset.
type UsageResetRequest struct {
	Type   string `json:"type"`
	Phase  string `json:"phase"`
	Global bool   `json:"global"`
}

func (req *QuestionRequest) validate() string {
	req.Text = strings.TrimSpace(req.Text)
	req.Type = strings.TrimSpace(req.Type)
	req.Phase = strings.TrimSpace(req.Phase)
	if req.Text == "" {
		return "text is required"
	}
	if !bracket.ValidQuestionType(bracket.QuestionType(req.Type)) {
		return "type must be mcq, media, buzzer, rapid_fire, sequence, or visual_rapid_fire"
	}
	if req.Phase == "" {
		req.Phase = string(bracket.PhaseLeague)
	}
	if !bracket.ValidPhase(bracket.Phase(req.Phase)) {
		return "phase must be league, semi_final, or final"
	}
	if req.Points <= 0 {
		req.Points = 10
	}

	switch bracket.QuestionType(req.Type) {
	case bracket.TypeMCQ:
		if len(req.Options) < 2 {
			return "mcq questions need at least two options"
		}
		if len(req.CorrectAnswer) == 0 {
			return "correctAnswer is required"
		}
	case bracket.TypeMedia, bracket.TypeVisualRapidFire:
		if strings.TrimSpace(req.MediaURL) == "" {
			return "mediaUrl is required for media questions"
		}
		if strings.TrimSpace(req.MediaKind) == "" {
			return "mediaKind is required for media questions"
		}
	}
	return ""
}

func handleListQuestions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := QuestionFilter{
			Type:     r.URL.Query().Get("type"),
			Phase:    r.URL.Query().Get("phase"),
			Category: r.URL.Query().Get("category"),
		}
		if f.Type != "" && !bracket.ValidQuestionType(bracket.QuestionType(f.Type)) {
			writeError(w, http.StatusBadRequest, "invalid question type")
			return
		}
		if f.Phase != "" && !bracket.ValidPhase(bracket.Phase(f.Phase)) {
			writeError(w, http.StatusBadRequest, "invalid phase")
			return
		}

		questions, err := store.ListQuestions(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, questions)
	}
}

func handleCreateQuestion(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuestionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		q, err := store.CreateQuestion(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

func handleGetQuestion(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuestion(r.Context(), chi.URLParam(r, "id"))
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func handleUpdateQuestion(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuestionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		q, err := store.UpdateQuestion(r.Context(), chi.URLParam(r, "id"), req)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func handleDeleteQuestion(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteQuestion(r.Context(), chi.URLParam(r, "id"))
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleResetQuestionUsage bulk-clears the global is_used flag on
// questions matching the optional type/phase filter; with global=true
// it also forgets all per-competition usage of those questions.
func handleResetQuestionUsage(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The body is optional: an empty POST clears every question.
		var req UsageResetRequest
		if err := readJSON(r, &req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Type != "" && !bracket.ValidQuestionType(bracket.QuestionType(req.Type)) {
			writeError(w, http.StatusBadRequest, "invalid question type")
			return
		}
		if req.Phase != "" && !bracket.ValidPhase(bracket.Phase(req.Phase)) {
			writeError(w, http.StatusBadRequest, "invalid phase")
			return
		}

		n, err := store.ResetQuestionUsage(r.Context(), QuestionFilter{Type: req.Type, Phase: req.Phase}, req.Global)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"reset": n})
	}
}
