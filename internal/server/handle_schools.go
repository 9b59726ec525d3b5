package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// School is the full school record with its team count.
type School struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
	ContactEmail string `json:"contactEmail"`
	TeamCount    int    `json:"teamCount"`
	CreatedAt    string `json:"createdAt"`
}

// SchoolRequest is the request body for creating/updating a school.
type SchoolRequest struct {
	Name         string `json:"name"`
	Code         string `json:"code"`
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
	ContactEmail string `json:"contactEmail"`
}

func (req *SchoolRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.TrimSpace(req.Code)
	req.ContactName = strings.TrimSpace(req.ContactName)
	req.ContactPhone = strings.TrimSpace(req.ContactPhone)
	req.ContactEmail = strings.TrimSpace(req.ContactEmail)
	if req.Name == "" {
		return "name is required"
	}
	if req.Code == "" {
		return "code is required"
	}
	return ""
}

func handleListSchools(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schools, err := store.ListSchools(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, schools)
	}
}

func handleCreateSchool(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SchoolRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		school, err := store.CreateSchool(r.Context(), req)
		if err == ErrConflict {
			writeError(w, http.StatusConflict, "a school with that name or code already exists")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, school)
	}
}

func handleGetSchool(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		school, err := store.GetSchool(r.Context(), chi.URLParam(r, "id"))
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "school not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, school)
	}
}

func handleUpdateSchool(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SchoolRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		school, err := store.UpdateSchool(r.Context(), chi.URLParam(r, "id"), req)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "school not found")
			return
		}
		if err == ErrConflict {
			writeError(w, http.StatusConflict, "a school with that name or code already exists")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, school)
	}
}

func handleDeleteSchool(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		hasTeams, err := store.SchoolHasTeams(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if hasTeams {
			writeError(w, http.StatusConflict, "cannot delete a school with existing teams")
			return
		}

		err = store.DeleteSchool(r.Context(), id)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "school not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
