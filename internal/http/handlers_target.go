package http

import (
	"net/http"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

type targetResponse struct {
	ID                int64     `json:"id"`
	ProfileID         int64     `json:"profile_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	TargetCents       int64     `json:"target_cents"`
	Target            string    `json:"target"`
	AccumulatedCents  int64     `json:"accumulated_cents"`
	Accumulated       string    `json:"accumulated"`
	AllocationPercent int64     `json:"allocation_percent"`
	StartDate         string    `json:"start_date"`
	TargetDate        string    `json:"target_date"`
	Active            bool      `json:"active"`
	Progress          float64   `json:"progress"`
	DaysRemaining     int       `json:"days_remaining"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toTargetResponse(st core.SavingsTarget, now time.Time) targetResponse {
	return targetResponse{
		ID:                st.ID,
		ProfileID:         st.ProfileID,
		Name:              st.Name,
		Description:       st.Description,
		TargetCents:       st.Target.Cents,
		Target:            st.Target.String(),
		AccumulatedCents:  st.Accumulated.Cents,
		Accumulated:       st.Accumulated.String(),
		AllocationPercent: st.AllocationPercent,
		StartDate:         st.StartDate.Format("2006-01-02"),
		TargetDate:        st.TargetDate.Format("2006-01-02"),
		Active:            st.Active,
		Progress:          st.Progress(),
		DaysRemaining:     st.DaysRemaining(now),
		CreatedAt:         st.CreatedAt,
		UpdatedAt:         st.UpdatedAt,
	}
}

type targetRequest struct {
	ProfileID         int64  `json:"profile_id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Target            string `json:"target"`
	AllocationPercent int64  `json:"allocation_percent"`
	StartDate         string `json:"start_date"`
	TargetDate        string `json:"target_date"`
	Active            *bool  `json:"active"`
}

func (req targetRequest) toDomain() (core.SavingsTarget, error) {
	cents, err := core.ParseDecimalToCents(req.Target)
	if err != nil {
		return core.SavingsTarget{}, err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return core.SavingsTarget{}, err
	}
	end, err := parseDate(req.TargetDate)
	if err != nil {
		return core.SavingsTarget{}, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return core.SavingsTarget{
		ProfileID:         req.ProfileID,
		Name:              sanitizeInput(req.Name),
		Description:       sanitizeInput(req.Description),
		Target:            core.Money{Cents: cents},
		AllocationPercent: req.AllocationPercent,
		StartDate:         start,
		TargetDate:        end,
		Active:            active,
	}, nil
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	profileID, err := queryInt64(r, "profile_id")
	if err != nil || profileID == 0 {
		writeValidationError(w, "profile_id is required")
		return
	}

	targets, err := s.queries().ListSavingsTargets(r.Context(), profileID)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now()
	out := make([]targetResponse, 0, len(targets))
	for _, st := range targets {
		out = append(out, toTargetResponse(st, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	st, err := req.toDomain()
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if err := st.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.queries().GetProfile(r.Context(), st.ProfileID); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.queries().CreateSavingsTarget(r.Context(), storage.CreateSavingsTargetParams{
		ProfileID:         st.ProfileID,
		Name:              st.Name,
		Description:       st.Description,
		TargetCents:       st.Target.Cents,
		AllocationPercent: st.AllocationPercent,
		StartDate:         st.StartDate.Time,
		TargetDate:        st.TargetDate.Time,
		Active:            st.Active,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, toTargetResponse(created, time.Now()))
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	st, err := s.queries().GetSavingsTarget(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTargetResponse(st, time.Now()))
}

// handleUpdateTarget changes the target definition. The accumulated balance
// is owned by the allocation engine and cannot be set here.
func (s *Server) handleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	var req targetRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	existing, err := s.queries().GetSavingsTarget(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	st, err := req.toDomain()
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	st.ProfileID = existing.ProfileID
	if err := st.Validate(); err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.queries().UpdateSavingsTarget(r.Context(), storage.UpdateSavingsTargetParams{
		ID:                id,
		Name:              st.Name,
		Description:       st.Description,
		TargetCents:       st.Target.Cents,
		AllocationPercent: st.AllocationPercent,
		StartDate:         st.StartDate.Time,
		TargetDate:        st.TargetDate.Time,
		Active:            st.Active,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, toTargetResponse(updated, time.Now()))
}

func (s *Server) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.queries().DeleteSavingsTarget(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}
