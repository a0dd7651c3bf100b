package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hisab/internal/auth"
	"hisab/internal/core"
	applog "hisab/internal/log"
	"hisab/internal/middleware/ratelimit"
	"hisab/internal/middleware/security"
	"hisab/internal/middleware/trace"
	"hisab/internal/services"
	"hisab/internal/wordpress"
)

// WordPress is the part of the WordPress client the handlers call.
type WordPress interface {
	Login(ctx context.Context, username, password string) (wordpress.LoginResult, error)
	CurrentUser(ctx context.Context, s wordpress.Session) (wordpress.User, error)
	Ping(ctx context.Context) error
	ListTransactions(ctx context.Context, s wordpress.Session) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, s wordpress.Session, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, s wordpress.Session, id int64) error
	ListDebtLoans(ctx context.Context, s wordpress.Session) ([]core.DebtLoanItem, error)
	CreateDebtLoan(ctx context.Context, s wordpress.Session, item core.DebtLoanItem) (core.DebtLoanItem, error)
	UpdateDebtLoanStatus(ctx context.Context, s wordpress.Session, id int64, status core.DebtStatus) (core.DebtLoanItem, error)
}

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Metrics is the Prometheus surface the server feeds and exposes.
type Metrics interface {
	ObserveHTTP(route, method string, code int, d time.Duration)
	RateLimited()
	Handler() http.Handler
}

// Deps are the collaborators wired in by cmd/hisab. Metrics, Store and
// Reports are optional.
type Deps struct {
	WordPress WordPress
	Verifier  *auth.Verifier
	Finance   *services.FinanceService
	Shares    *services.ShareService
	Reports   *services.ReportService
	Store     Pinger
	Metrics   Metrics
	Logger    *applog.Logger

	RateLimitPerMinute int
	CookieSecure       bool
	TrustedProxies     []string
}

// Server wraps http.Server with the API routes and their middleware.
type Server struct {
	http.Server

	deps     Deps
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	now      func() time.Time
}

const readyTimeout = 3 * time.Second

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.WordPress == nil || deps.Verifier == nil || deps.Finance == nil || deps.Shares == nil {
		return nil, errors.New("http: WordPress, Verifier, Finance and Shares are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("http: %w", err)
		}
	}

	limitCfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}
	if deps.Metrics != nil {
		limitCfg.Recorder = deps.Metrics
	}

	s := &Server{
		deps:     deps,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(limitCfg),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		now:      time.Now,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.deps.Metrics != nil {
		mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	}

	// Public
	s.handle(mux, "POST /api/auth/login", s.handleLogin)
	s.handle(mux, "POST /api/auth/logout", s.handleLogout)
	s.handle(mux, "GET /api/share/{token}", s.handleViewShare)
	s.handle(mux, "GET /api/categories/defaults", s.handleDefaultCategories)

	// Authenticated
	s.handleAuthed(mux, "GET /api/transactions", s.handleListTransactions)
	s.handleAuthed(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.handleAuthed(mux, "DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	s.handleAuthed(mux, "GET /api/dashboard", s.handleDashboard)
	s.handleAuthed(mux, "GET /api/finance/summary", s.handleSummary)
	s.handleAuthed(mux, "GET /api/finance/monthly", s.handleMonthly)
	s.handleAuthed(mux, "GET /api/finance/categories", s.handleCategories)

	s.handleAuthed(mux, "GET /api/debts", s.handleListDebts)
	s.handleAuthed(mux, "POST /api/debts", s.handleCreateDebt)
	s.handleAuthed(mux, "PATCH /api/debts/{id}/status", s.handleUpdateDebtStatus)
	s.handleAuthed(mux, "GET /api/debts/share", s.handleListShares)
	s.handleAuthed(mux, "POST /api/debts/share", s.handleIssueShare)
	s.handleAuthed(mux, "DELETE /api/debts/share/{token}", s.handleRevokeShare)

	s.handleAuthed(mux, "GET /api/reports/statement.pdf", s.handleStatement)
	s.handleAuthed(mux, "POST /api/reports/export", s.handleExport)
}

// middleware builds the outer chain. Rate limiting only covers the API.
func (s *Server) middleware(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})(next)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})

	return applog.Middleware(s.logger)(
		s.tracer.Middleware(
			applog.RequestIDMiddleware(trace.RequestID)(
				s.detector.Middleware(
					security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)))))
}

// handle registers a route and observes it under its pattern.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.observe(pattern, h))
}

// handleAuthed registers a route that requires a verified WordPress token.
func (s *Server) handleAuthed(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	authed := auth.Middleware(s.deps.Verifier, func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, r, err)
	})(h)
	mux.Handle(pattern, s.observe(pattern, authed))
}

func (s *Server) observe(route string, next http.Handler) http.Handler {
	if s.deps.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.deps.Metrics.ObserveHTTP(route, r.Method, rw.status, time.Since(start))
	})
}

// statusRecorder captures the status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Shutdown stops accepting requests and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports whether WordPress and the share store answer.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := map[string]string{}
	ready := true
	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			ready = false
			checks[name] = err.Error()
			s.logger.WarnContext(ctx, "Readiness check failed", "check", name, applog.FieldError, err)
			return
		}
		checks[name] = "ok"
	}
	check("wordpress", s.deps.WordPress)
	check("share_store", s.deps.Store)

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}
