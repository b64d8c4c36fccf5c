package http

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tygerearth-labs/finacial-tracker/internal/report"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	profileID, err := queryInt64(r, "profile_id")
	if err != nil || profileID == 0 {
		writeValidationError(w, "profile_id is required")
		return
	}

	params := report.DashboardParams{ProfileID: profileID}
	if r.URL.Query().Get("year") != "" || r.URL.Query().Get("month") != "" {
		params.Year, params.Month, err = parseYearMonth(r)
		if err != nil {
			writeValidationError(w, err.Error())
			return
		}
	}

	key := fmt.Sprintf("dashboard:%d:%d:%d", profileID, params.Year, params.Month)
	if cached, ok := s.dashboardCache.Get(key); ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		writeJSON(w, http.StatusOK, cached)
		return
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	dash, err := s.reports.Dashboard(r.Context(), params, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	s.dashboardCache.Set(key, dash)
	writeJSON(w, http.StatusOK, dash)
}

// handleReport serves a period report as JSON, or as a CSV download with
// format=csv.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	profileID, err := queryInt64(r, "profile_id")
	if err != nil || profileID == 0 {
		writeValidationError(w, "profile_id is required")
		return
	}

	year, month, err := parseYearMonth(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "csv":
	default:
		writeValidationError(w, "invalid format")
		return
	}

	params := report.PeriodParams{ProfileID: profileID, Year: year, Month: month}

	key := fmt.Sprintf("report:%d:%d:%d", profileID, year, month)
	rep, ok := s.reportCache.Get(key)
	if ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
	} else {
		atomic.AddInt64(&s.metrics.cacheMisses, 1)
		rep, err = s.reports.Period(r.Context(), params, time.Now())
		if err != nil {
			writeError(w, err)
			return
		}
		s.reportCache.Set(key, rep)
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "report-"+rep.Period+".csv"))
		if err := report.WriteCSV(w, rep); err != nil {
			s.logger.Error("write csv report", "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, rep)
}
