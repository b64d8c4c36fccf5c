package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

type profileResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProfileResponse(p core.Profile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type profileRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.queries().ListProfiles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	candidate := core.Profile{
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
	}
	if err := candidate.Validate(); err != nil {
		writeError(w, err)
		return
	}

	// The first profile becomes active automatically so the ledger is
	// usable before anyone calls activate.
	_, err := s.queries().GetActiveProfile(r.Context())
	makeActive := errors.Is(err, core.ErrNotFound)
	if err != nil && !makeActive {
		writeError(w, err)
		return
	}

	created, err := s.queries().CreateProfile(r.Context(), storage.CreateProfileParams{
		Name:        candidate.Name,
		Description: candidate.Description,
		Active:      makeActive,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(created))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	profile, err := s.queries().GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	candidate := core.Profile{
		ID:          id,
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
	}
	if err := candidate.Validate(); err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.queries().UpdateProfile(r.Context(), storage.UpdateProfileParams{
		ID:          id,
		Name:        candidate.Name,
		Description: candidate.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(updated))
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.queries().DeleteProfile(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

// handleActivateProfile makes one profile active and all others inactive in
// a single transaction.
func (s *Server) handleActivateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	var activated core.Profile
	err = s.repo.WithTx(r.Context(), func(q *storage.Queries) error {
		if err := q.DeactivateAllProfiles(r.Context()); err != nil {
			return err
		}
		var err error
		activated, err = q.ActivateProfile(r.Context(), id)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(activated))
}

// handleActiveProfile returns the currently active profile; the server, not
// the client, is the source of truth for which profile is selected.
func (s *Server) handleActiveProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.queries().GetActiveProfile(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}
