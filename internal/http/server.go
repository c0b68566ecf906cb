package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fxdesk/internal/core"
	applog "fxdesk/internal/log"
	"fxdesk/internal/middleware/ratelimit"
	"fxdesk/internal/middleware/security"
	"fxdesk/internal/middleware/trace"
	"fxdesk/internal/services"
)

// TransactionService is the write side the API needs.
type TransactionService interface {
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Update(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error)
	Delete(ctx context.Context, id int64) (core.Transaction, error)
}

// ReportService builds summaries and serves transaction snapshots.
type ReportService interface {
	Generate(ctx context.Context, req services.ReportRequest) (services.Report, error)
	Transactions(ctx context.Context, branchID string) ([]core.Transaction, error)
}

// Pinger is checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Ready and Logger may be nil.
type Options struct {
	Addr         string
	Transactions TransactionService
	Reports      ReportService
	Ready        Pinger
	Logger       *applog.Logger
	RateLimit    ratelimit.Config
}

type Server struct {
	http.Server

	transactions TransactionService
	reports      ReportService
	ready        Pinger
	logger       *applog.Logger
	validate     *Validator
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	clientIP     *security.ClientIP
	startedAt    time.Time
}

// NewServer builds the API server and its router.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	clientIP := security.NewClientIP()

	s := &Server{
		transactions: opts.Transactions,
		reports:      opts.Reports,
		ready:        opts.Ready,
		logger:       logger.WithComponent(applog.ComponentHTTP),
		validate:     NewValidator(),
		limiter:      ratelimit.NewLimiter(opts.RateLimit),
		tracer:       trace.NewMiddleware(logger, clientIP.Extract),
		clientIP:     clientIP,
		startedAt:    time.Now(),
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Handler)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Get("/transactions/currencies", s.handleCurrencies)
		r.Get("/transactions/{id}", s.handleGetTransaction)
		r.Get("/reports/summary", s.handleReportSummary)
		r.Get("/reports/summary.xlsx", s.handleReportXLSX)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.Middleware(s.clientIP.Extract, s.onRateLimited))
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/transactions", s.handleCreateTransaction)
			r.Put("/transactions/{id}", s.handleUpdateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)
			r.Post("/quote", s.handleQuote)
		})
	})
	return r
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
