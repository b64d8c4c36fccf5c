package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tygerearth-labs/finacial-tracker/internal/allocation"
	"github.com/tygerearth-labs/finacial-tracker/internal/log"
	"github.com/tygerearth-labs/finacial-tracker/internal/report"
	"github.com/tygerearth-labs/finacial-tracker/internal/services"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	engine := allocation.NewEngine(logger)
	svc := services.NewTransactionService(repo, engine, nil)
	reports := report.NewService(repo.Queries(), logger)

	srv := NewServer(":0", repo, svc, reports, logger)
	t.Cleanup(func() { srv.cacheManager.Stop(); srv.rateLimiter.stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(buf)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func createProfileHTTP(t *testing.T, srv *Server, name string) profileResponse {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/profiles", map[string]any{"name": name})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create profile status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decodeResponse[profileResponse](t, rr)
}

func createCategoryHTTP(t *testing.T, srv *Server, profileID int64, kind, name string) categoryResponse {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/categories", map[string]any{
		"profile_id": profileID, "kind": kind, "name": name, "color": "#22c55e",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create category status=%d body=%s", rr.Code, rr.Body.String())
	}
	return decodeResponse[categoryResponse](t, rr)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestProfileLifecycle(t *testing.T) {
	srv := newTestServer(t)

	first := createProfileHTTP(t, srv, "personal")
	if !first.Active {
		t.Fatalf("first profile should be active")
	}

	// Duplicate name conflicts.
	rr := doJSON(t, srv, http.MethodPost, "/api/profiles", map[string]any{"name": "personal"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status=%d body=%s", rr.Code, rr.Body.String())
	}

	second := createProfileHTTP(t, srv, "business")
	if second.Active {
		t.Fatalf("second profile should not steal active")
	}

	rr = doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/profiles/%d/activate", second.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("activate status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/profiles/active", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("active status=%d", rr.Code)
	}
	active := decodeResponse[profileResponse](t, rr)
	if active.ID != second.ID {
		t.Fatalf("active profile id=%d, want %d", active.ID, second.ID)
	}

	rr = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/profiles/%d", first.ID), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/profiles/%d", first.ID), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get deleted status=%d", rr.Code)
	}
}

func TestCreateTransactionAllocates(t *testing.T) {
	srv := newTestServer(t)
	profile := createProfileHTTP(t, srv, "personal")
	salary := createCategoryHTTP(t, srv, profile.ID, "INCOME", "Salary")

	rr := doJSON(t, srv, http.MethodPost, "/api/targets", map[string]any{
		"profile_id":         profile.ID,
		"name":               "Emergency fund",
		"target":             "10000.00",
		"allocation_percent": 10,
		"start_date":         "2026-01-01",
		"target_date":        "2026-12-31",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create target status=%d body=%s", rr.Code, rr.Body.String())
	}
	target := decodeResponse[targetResponse](t, rr)

	rr = doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"profile_id":  profile.ID,
		"kind":        "INCOME",
		"amount":      "1000.00",
		"description": "April salary",
		"date":        "2026-04-01",
		"category_id": salary.ID,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction status=%d body=%s", rr.Code, rr.Body.String())
	}
	tx := decodeResponse[transactionResponse](t, rr)
	if tx.AmountCents != 100_000 {
		t.Fatalf("amount_cents=%d, want 100000", tx.AmountCents)
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/targets/%d", target.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get target status=%d", rr.Code)
	}
	got := decodeResponse[targetResponse](t, rr)
	if got.AccumulatedCents != 10_000 {
		t.Fatalf("accumulated_cents=%d, want 10000", got.AccumulatedCents)
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get transaction status=%d", rr.Code)
	}
	detail := decodeResponse[transactionDetailResponse](t, rr)
	if detail.Category != "Salary" {
		t.Fatalf("category=%q, want Salary", detail.Category)
	}
	if len(detail.Allocations) != 1 || detail.Allocations[0].TargetID != target.ID || detail.Allocations[0].AmountCents != 10_000 {
		t.Fatalf("allocations=%+v", detail.Allocations)
	}
}

func TestTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	profile := createProfileHTTP(t, srv, "personal")
	salary := createCategoryHTTP(t, srv, profile.ID, "INCOME", "Salary")

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"bad kind", map[string]any{
			"profile_id": profile.ID, "kind": "TRANSFER", "amount": "10.00",
			"description": "x", "date": "2026-04-01", "category_id": salary.ID,
		}, http.StatusUnprocessableEntity},
		{"bad amount", map[string]any{
			"profile_id": profile.ID, "kind": "INCOME", "amount": "abc",
			"description": "x", "date": "2026-04-01", "category_id": salary.ID,
		}, http.StatusUnprocessableEntity},
		{"unknown profile", map[string]any{
			"profile_id": int64(999), "kind": "INCOME", "amount": "10.00",
			"description": "x", "date": "2026-04-01", "category_id": salary.ID,
		}, http.StatusUnprocessableEntity},
		{"kind mismatch", map[string]any{
			"profile_id": profile.ID, "kind": "EXPENSE", "amount": "10.00",
			"description": "x", "date": "2026-04-01", "category_id": salary.ID,
		}, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/transactions", tc.body)
			if rr.Code != tc.want {
				t.Fatalf("status=%d, want %d (body=%s)", rr.Code, tc.want, rr.Body.String())
			}
		})
	}
}

func TestListTransactionsFilters(t *testing.T) {
	srv := newTestServer(t)
	profile := createProfileHTTP(t, srv, "personal")
	salary := createCategoryHTTP(t, srv, profile.ID, "INCOME", "Salary")
	food := createCategoryHTTP(t, srv, profile.ID, "EXPENSE", "Food")

	seed := []map[string]any{
		{"profile_id": profile.ID, "kind": "INCOME", "amount": "1000.00", "description": "salary", "date": "2026-04-01", "category_id": salary.ID},
		{"profile_id": profile.ID, "kind": "EXPENSE", "amount": "55.50", "description": "groceries", "date": "2026-04-10", "category_id": food.ID},
		{"profile_id": profile.ID, "kind": "EXPENSE", "amount": "20.00", "description": "lunch", "date": "2026-03-15", "category_id": food.ID},
	}
	for _, body := range seed {
		if rr := doJSON(t, srv, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
			t.Fatalf("seed status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions?profile_id=%d", profile.ID), nil)
	if got := len(decodeResponse[[]transactionResponse](t, rr)); got != 3 {
		t.Fatalf("unfiltered len=%d, want 3", got)
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions?profile_id=%d&kind=EXPENSE", profile.ID), nil)
	if got := len(decodeResponse[[]transactionResponse](t, rr)); got != 2 {
		t.Fatalf("kind filter len=%d, want 2", got)
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions?profile_id=%d&year=2026&month=4", profile.ID), nil)
	if got := len(decodeResponse[[]transactionResponse](t, rr)); got != 2 {
		t.Fatalf("month filter len=%d, want 2", got)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing profile_id status=%d", rr.Code)
	}
}

func TestDashboardUsesCache(t *testing.T) {
	srv := newTestServer(t)
	profile := createProfileHTTP(t, srv, "personal")

	rr := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/dashboard?profile_id=%d", profile.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/dashboard?profile_id=%d", profile.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("cached dashboard status=%d", rr.Code)
	}
	if srv.metrics.cacheHits == 0 {
		t.Fatalf("expected a cache hit on the second read")
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard?profile_id=999", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown profile status=%d", rr.Code)
	}
}

func TestReportCSV(t *testing.T) {
	srv := newTestServer(t)
	profile := createProfileHTTP(t, srv, "personal")
	food := createCategoryHTTP(t, srv, profile.ID, "EXPENSE", "Food")

	rr := doJSON(t, srv, http.MethodPost, "/api/transactions", map[string]any{
		"profile_id": profile.ID, "kind": "EXPENSE", "amount": "12.50",
		"description": "coffee", "date": "2026-04-02", "category_id": food.ID,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("seed status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/report?profile_id=%d&year=2026&month=4&format=csv", profile.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("csv report status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content-type=%q", ct)
	}
	body := rr.Body.String()
	for _, want := range []string{"period,2026-04", "coffee", "12.50"} {
		if !strings.Contains(body, want) {
			t.Fatalf("csv missing %q:\n%s", want, body)
		}
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/report?profile_id=%d&format=xml", profile.ID), nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad format status=%d", rr.Code)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/profiles", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	createProfileHTTP(t, srv, "personal")

	rr := doJSON(t, srv, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"http_requests_total", "transactions_written_total", "uptime_seconds"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
