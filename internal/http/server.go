// Package http exposes the JSON API: profile, category, transaction, and
// savings target CRUD plus the dashboard and report views.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tygerearth-labs/finacial-tracker/internal/cache"
	"github.com/tygerearth-labs/finacial-tracker/internal/log"
	"github.com/tygerearth-labs/finacial-tracker/internal/report"
	"github.com/tygerearth-labs/finacial-tracker/internal/services"
	"github.com/tygerearth-labs/finacial-tracker/internal/storage"
)

type appMetrics struct {
	totalRequests       int64
	transactionsWritten int64
	cacheHits           int64
	cacheMisses         int64
	startedAt           time.Time
}

type Server struct {
	http.Server

	repo         *storage.SQLiteRepository
	transactions *services.TransactionService
	reports      *report.Service

	rateLimiter    *rateLimiter
	dashboardCache *cache.LRUCache[report.Dashboard]
	reportCache    *cache.LRUCache[report.Report]
	cacheManager   *cache.Manager

	logger     *log.Logger
	structured *log.StructuredLogger
	metrics    appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, repo *storage.SQLiteRepository, transactions *services.TransactionService, reports *report.Service, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		repo:           repo,
		transactions:   transactions,
		reports:        reports,
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRUCache[report.Dashboard](100, 5*time.Minute),
		reportCache:    cache.NewLRUCache[report.Report](200, 5*time.Minute),
		cacheManager:   cache.NewManager(),
		logger:         logger.WithComponent(log.ComponentHTTP),
		metrics:        appMetrics{startedAt: time.Now()},
	}
	s.structured = log.NewStructuredLogger(s.logger)

	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/profiles", s.withMiddleware(s.handleListProfiles))
	mux.HandleFunc("POST /api/profiles", s.withMiddleware(s.handleCreateProfile))
	mux.HandleFunc("GET /api/profiles/active", s.withMiddleware(s.handleActiveProfile))
	mux.HandleFunc("GET /api/profiles/{id}", s.withMiddleware(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profiles/{id}", s.withMiddleware(s.handleUpdateProfile))
	mux.HandleFunc("DELETE /api/profiles/{id}", s.withMiddleware(s.handleDeleteProfile))
	mux.HandleFunc("PATCH /api/profiles/{id}/activate", s.withMiddleware(s.handleActivateProfile))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories/{id}", s.withMiddleware(s.handleGetCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withMiddleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/targets", s.withMiddleware(s.handleListTargets))
	mux.HandleFunc("POST /api/targets", s.withMiddleware(s.handleCreateTarget))
	mux.HandleFunc("GET /api/targets/{id}", s.withMiddleware(s.handleGetTarget))
	mux.HandleFunc("PUT /api/targets/{id}", s.withMiddleware(s.handleUpdateTarget))
	mux.HandleFunc("DELETE /api/targets/{id}", s.withMiddleware(s.handleDeleteTarget))

	mux.HandleFunc("GET /api/dashboard", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /api/report", s.withMiddleware(s.handleReport))

	return s
}

func (s *Server) queries() *storage.Queries {
	return s.repo.Queries()
}

// invalidateViews drops cached dashboard and report responses after any
// write, so reads never serve stale aggregates.
func (s *Server) invalidateViews() {
	s.dashboardCache.Purge()
	s.reportCache.Purge()
}

// withMiddleware adds request IDs, rate limiting on writes, security
// headers, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.totalRequests, 1)

		clientIP := extractClientIP(r)
		requestID := uuid.NewString()

		ctx := context.WithValue(r.Context(), log.LoggerContextKey, s.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		s.structured.LogHTTPStart(ctx, r, clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Request-ID", requestID)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics exposes counters in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", atomic.LoadInt64(&s.metrics.totalRequests))

	fmt.Fprintf(w, "# HELP transactions_written_total Ledger writes since start\n")
	fmt.Fprintf(w, "# TYPE transactions_written_total counter\n")
	fmt.Fprintf(w, "transactions_written_total %d\n\n", atomic.LoadInt64(&s.metrics.transactionsWritten))

	fmt.Fprintf(w, "# HELP view_cache_hits_total Dashboard and report cache hits\n")
	fmt.Fprintf(w, "# TYPE view_cache_hits_total counter\n")
	fmt.Fprintf(w, "view_cache_hits_total %d\n\n", atomic.LoadInt64(&s.metrics.cacheHits))

	fmt.Fprintf(w, "# HELP view_cache_misses_total Dashboard and report cache misses\n")
	fmt.Fprintf(w, "# TYPE view_cache_misses_total counter\n")
	fmt.Fprintf(w, "view_cache_misses_total %d\n\n", atomic.LoadInt64(&s.metrics.cacheMisses))

	fmt.Fprintf(w, "# HELP view_cache_entries Current cached view entries\n")
	fmt.Fprintf(w, "# TYPE view_cache_entries gauge\n")
	fmt.Fprintf(w, "view_cache_entries{type=\"dashboard\"} %d\n", s.dashboardCache.Size())
	fmt.Fprintf(w, "view_cache_entries{type=\"report\"} %d\n\n", s.reportCache.Size())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", s.rateLimiter.totalHits())

	fmt.Fprintf(w, "# HELP rate_limit_active_clients Clients currently tracked\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n\n", s.rateLimiter.activeClients())

	fmt.Fprintf(w, "# HELP uptime_seconds Seconds since the server started\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %d\n", int64(time.Since(s.metrics.startedAt).Seconds()))
}

// Shutdown stops the cleanup goroutines, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
