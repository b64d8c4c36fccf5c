package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseYearMonth(t *testing.T) {
	cases := []struct {
		query     string
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"year=2026&month=4", 2026, 4, false},
		{"year=2026", 2026, 0, false},
		{"", time.Now().Year(), 0, false},
		{"year=12", 0, 0, true},
		{"month=13", 0, 0, true},
		{"month=abc", 0, 0, true},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/report?"+tc.query, nil)
		year, month, err := parseYearMonth(req)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.query)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.query, err)
		}
		if year != tc.wantYear || month != tc.wantMonth {
			t.Fatalf("%q: got %d-%d, want %d-%d", tc.query, year, month, tc.wantYear, tc.wantMonth)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  hello  ", "hello"},
		{"line\x00break", "linebreak"},
		{"keep\ttabs\nand newlines", "keep\ttabs\nand newlines"},
		{"\x1b[31mred\x1b[0m", "[31mred[0m"},
	}
	for _, tc := range cases {
		if got := sanitizeInput(tc.in); got != tc.want {
			t.Fatalf("sanitizeInput(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPathID(t *testing.T) {
	mux := http.NewServeMux()
	var got int64
	var gotErr error
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = pathID(r)
	})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/42", nil))
	if gotErr != nil || got != 42 {
		t.Fatalf("pathID=%d err=%v", got, gotErr)
	}

	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/zero", nil))
	if gotErr == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}
