package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/core"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors onto the API's status codes: 404 for missing
// rows, 409 for name collisions, 422 for validation failures, 500 otherwise.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, core.ErrNameTaken):
		status = http.StatusConflict
		message = err.Error()
	case isValidationErr(err):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func isValidationErr(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidKind,
		core.ErrEmptyName,
		core.ErrInvalidColor,
		core.ErrInvalidPercent,
		core.ErrMissingCategory,
		core.ErrMissingProfile,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// writeValidationError reports request-shape problems (bad JSON, bad dates)
// that never reach the domain layer.
func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: message})
}

// pathID parses the {id} segment of the matched route.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// queryInt64 parses an optional integer query parameter, 0 when absent.
func queryInt64(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: parsedTime}, nil
}

// parseYearMonth extracts year and month from query parameters. Year
// defaults to the current year; month 0 means the whole year.
func parseYearMonth(r *http.Request) (year, month int, err error) {
	year = time.Now().Year()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil || year < 1970 || year > 9999 {
			return 0, 0, errors.New("invalid year")
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		month, err = strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return 0, 0, errors.New("invalid month")
		}
	}
	return year, month, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}
