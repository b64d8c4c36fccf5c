package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
	"github.com/tygerearth-labs/finacial-tracker/internal/services"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

type transactionResponse struct {
	ID          int64     `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	CategoryID  int64     `json:"category_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		ProfileID:   t.ProfileID,
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.String(),
		Description: t.Description,
		Date:        t.Date.Format("2006-01-02"),
		CategoryID:  t.CategoryID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// transactionRequest uses a string amount so clients send "1234.56" (or
// "1234,56") and never deal in cents.
type transactionRequest struct {
	ProfileID   int64  `json:"profile_id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	CategoryID  int64  `json:"category_id"`
}

func (req transactionRequest) toInput() (services.TransactionInput, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return services.TransactionInput{}, err
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return services.TransactionInput{}, err
	}

	return services.TransactionInput{
		ProfileID:   req.ProfileID,
		Kind:        core.TransactionKind(req.Kind),
		Amount:      core.Money{Cents: cents},
		Description: sanitizeInput(req.Description),
		Date:        date,
		CategoryID:  req.CategoryID,
	}, nil
}

// handleListTransactions filters by profile_id (required), kind, year,
// month, and limit.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
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

	params := storage.ListTransactionsParams{ProfileID: profileID, Kind: kind}

	if r.URL.Query().Get("year") != "" || r.URL.Query().Get("month") != "" {
		year, month, err := parseYearMonth(r)
		if err != nil {
			writeValidationError(w, err.Error())
			return
		}
		if month == 0 {
			params.From = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
			params.To = params.From.AddDate(1, 0, 0)
		} else {
			params.From = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
			params.To = params.From.AddDate(0, 1, 0)
		}
	}

	limit, err := queryInt64(r, "limit")
	if err != nil || limit < 0 {
		writeValidationError(w, "invalid limit")
		return
	}
	params.Limit = limit

	transactions, err := s.transactions.List(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	created, err := s.transactions.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	atomic.AddInt64(&s.metrics.transactionsWritten, 1)
	s.invalidateViews()
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

type allocationResponse struct {
	ID          int64  `json:"id"`
	TargetID    int64  `json:"target_id"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type transactionDetailResponse struct {
	transactionResponse
	Category    string               `json:"category"`
	Allocations []allocationResponse `json:"allocations"`
}

// handleGetTransaction returns the row with its category name and the
// allocations it produced.
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	t, err := s.queries().GetTransactionWithCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	allocations, err := s.queries().ListAllocationsByTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	detail := transactionDetailResponse{
		transactionResponse: toTransactionResponse(t.Transaction),
		Category:            t.CategoryName,
		Allocations:         make([]allocationResponse, 0, len(allocations)),
	}
	for _, a := range allocations {
		detail.Allocations = append(detail.Allocations, allocationResponse{
			ID:          a.ID,
			TargetID:    a.TargetID,
			AmountCents: a.Amount.Cents,
			Amount:      a.Amount.String(),
		})
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	updated, err := s.transactions.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}

	atomic.AddInt64(&s.metrics.transactionsWritten, 1)
	s.invalidateViews()
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	if err := s.transactions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	atomic.AddInt64(&s.metrics.transactionsWritten, 1)
	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}
