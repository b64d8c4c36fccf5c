package http

import (
	"net/http"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

type categoryResponse struct {
	ID          int64     `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:          c.ID,
		ProfileID:   c.ProfileID,
		Kind:        string(c.Kind),
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type categoryRequest struct {
	ProfileID   int64  `json:"profile_id"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// handleListCategories filters by profile_id (required) and kind (optional).
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	profileID, err := queryInt64(r, "profile_id")
	if err != nil || profileID == 0 {
		writeValidationError(w, "profile_id is required")
		return
	}

	kind := core.TransactionKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeValidationError(w, "invalid kind")
		return
	}

	categories, err := s.queries().ListCategories(r.Context(), storage.ListCategoriesParams{
		ProfileID: profileID,
		Kind:      kind,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	candidate := core.Category{
		ProfileID:   req.ProfileID,
		Kind:        core.TransactionKind(req.Kind),
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		Color:       sanitizeInput(req.Color),
	}
	if err := candidate.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.queries().GetProfile(r.Context(), req.ProfileID); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.queries().CreateCategory(r.Context(), storage.CreateCategoryParams{
		ProfileID:   candidate.ProfileID,
		Kind:        candidate.Kind,
		Name:        candidate.Name,
		Description: candidate.Description,
		Color:       candidate.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	category, err := s.queries().GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

// handleUpdateCategory rewrites name, description, and color. Kind and
// profile are fixed at creation; moving a category would silently reclassify
// its transactions.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	existing, err := s.queries().GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	candidate := existing
	candidate.Name = sanitizeInput(req.Name)
	candidate.Description = sanitizeInput(req.Description)
	candidate.Color = sanitizeInput(req.Color)
	if err := candidate.Validate(); err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.queries().UpdateCategory(r.Context(), storage.UpdateCategoryParams{
		ID:          id,
		Name:        candidate.Name,
		Description: candidate.Description,
		Color:       candidate.Color,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(updated))
}

// handleDeleteCategory removes the category; its transactions survive with
// a cleared category reference.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.queries().DeleteCategory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}
