package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"smartwallet/internal/analytics"
	"smartwallet/internal/export"
	"smartwallet/internal/ledger"
	wlog "smartwallet/internal/log"
	"smartwallet/internal/middleware/ratelimit"
	"smartwallet/internal/middleware/security"
	"smartwallet/internal/middleware/trace"
	"smartwallet/internal/services"
)

// Deps are the collaborators the handlers read from and write to.
type Deps struct {
	Ledger    *ledger.Ledger
	Engine    *analytics.Engine
	Allocator *services.GoalAllocator
	// Exporter renders /api/export.csv. A CSV-only exporter is used when nil.
	Exporter *export.Exporter
	// Limiter throttles mutations per client; nil disables it.
	Limiter *ratelimit.Limiter
	// Ready reports whether the storage backend is reachable.
	Ready           func(ctx context.Context) error
	DefaultCurrency string
	Logger          *slog.Logger
}

type Server struct {
	http.Server
	deps   Deps
	trace  *trace.Middleware
	logger *slog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Exporter == nil {
		deps.Exporter = export.NewExporter(nil, deps.Logger)
	}
	if deps.DefaultCurrency == "" {
		deps.DefaultCurrency = "MRU"
	}

	s := &Server{
		deps:   deps,
		trace:  trace.NewMiddleware(security.ClientIP, deps.Logger),
		logger: deps.Logger.With("component", wlog.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("PUT /api/budgets/{category}", s.handleSetBudget)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/allocate", s.handleAllocate)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/chart", s.handleChart)
	mux.HandleFunc("GET /api/categories", handleCategories)
	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)

	mux.HandleFunc("GET /api/preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /api/preferences", s.handleSetPreferences)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	var handler http.Handler = mux
	if deps.Limiter != nil {
		handler = deps.Limiter.Middleware(security.ClientIP)(handler)
	}
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.trace.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Metrics returns the request counters of the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.deps.Limiter != nil {
			s.deps.Limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ready", "version": s.deps.Ledger.Version()}
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, wlog.ErrorTypeStorage, "storage unavailable").Write(w)
			return
		}
	}
	if err := s.deps.Ledger.LastPersistError(); err != nil {
		body["persistWarning"] = err.Error()
	}
	NewJSONResponse().Body(body).Write(w)
}
