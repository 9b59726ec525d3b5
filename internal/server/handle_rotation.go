package server

import (
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/interschool/quizbowl/internal/bracket"
)

const (
	defaultFetchCount = 1
	maxFetchCount     = 50
)

// sampler wraps a rand source behind a mutex so concurrent handlers
// can share it. Tests construct it with a fixed seed.
type sampler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newSampler(seed int64) *sampler {
	return &sampler{rnd: rand.New(rand.NewSource(seed))}
}

func (s *sampler) sample(ids []string, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bracket.Sample(s.rnd, ids, n)
}

// RotationResponse carries the drawn questions. Exhausted means no
// eligible question was left for this competition/type/phase.
type RotationResponse struct {
	Questions []QuestionItem `json:"questions"`
	Exhausted bool           `json:"exhausted"`
}

// CompetitionUsageResetRequest undoes per-competition usage marking,
// optionally for one question type only.
type CompetitionUsageResetRequest struct {
	Type string `json:"type"`
}

// handleFetchQuestions draws up to count unseen questions for a
// competition. Pass one prefers globally-unused questions; pass two
// falls back to anything this competition hasn't consumed. Returned
// questions are immediately marked used along both dimensions.
func handleFetchQuestions(store Store, smp *sampler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := chi.URLParam(r, "id")

		qtype := strings.TrimSpace(r.URL.Query().Get("type"))
		phase := strings.TrimSpace(r.URL.Query().Get("phase"))
		if !bracket.ValidQuestionType(bracket.QuestionType(qtype)) {
			writeError(w, http.StatusBadRequest, "invalid question type")
			return
		}
		// Tie-break rounds draw from every phase.
		if phase == string(bracket.PhaseTieBreaker) {
			phase = ""
		} else if phase != "" && !bracket.ValidPhase(bracket.Phase(phase)) {
			writeError(w, http.StatusBadRequest, "invalid phase")
			return
		}

		count := defaultFetchCount
		if raw := r.URL.Query().Get("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "count must be a positive integer")
				return
			}
			count = n
		}
		if count > maxFetchCount {
			count = maxFetchCount
		}

		if _, err := store.GetCompetition(r.Context(), compID); err != nil {
			if err == ErrNotFound {
				writeError(w, http.StatusNotFound, "competition not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		fresh, err := store.CandidateQuestions(r.Context(), compID, qtype, phase, true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		picked := smp.sample(fresh, count)

		if len(picked) < count {
			fallback, err := store.CandidateQuestions(r.Context(), compID, qtype, phase, false)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			chosen := make(map[string]bool, len(picked))
			for _, id := range picked {
				chosen[id] = true
			}
			remaining := fallback[:0:0]
			for _, id := range fallback {
				if !chosen[id] {
					remaining = append(remaining, id)
				}
			}
			picked = append(picked, smp.sample(remaining, count-len(picked))...)
		}

		if len(picked) == 0 {
			writeJSON(w, http.StatusOK, RotationResponse{Questions: []QuestionItem{}, Exhausted: true})
			return
		}

		if err := store.MarkQuestionsUsed(r.Context(), compID, picked); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		questions, err := store.QuestionsByIDs(r.Context(), picked)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, RotationResponse{Questions: questions})
	}
}

// handleResetCompetitionUsage removes this competition from the usage
// set of matching questions; their global used flag is untouched.
func handleResetCompetitionUsage(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compID := chi.URLParam(r, "id")

		// The body is optional: an empty POST resets every type.
		var req CompetitionUsageResetRequest
		if err := readJSON(r, &req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Type != "" && !bracket.ValidQuestionType(bracket.QuestionType(req.Type)) {
			writeError(w, http.StatusBadRequest, "invalid question type")
			return
		}

		if _, err := store.GetCompetition(r.Context(), compID); err != nil {
			if err == ErrNotFound {
				writeError(w, http.StatusNotFound, "competition not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		n, err := store.ResetCompetitionUsage(r.Context(), compID, req.Type)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"reset": n})
	}
}
