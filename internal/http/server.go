package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetbot/internal/chat"
	"budgetbot/internal/core"
	applog "budgetbot/internal/log"
	"budgetbot/internal/middleware/ratelimit"
	"budgetbot/internal/middleware/security"
	"budgetbot/internal/middleware/trace"
	"budgetbot/internal/planstore"
	"budgetbot/internal/services"
)

// ChatEngine is implemented by chat.Engine.
type ChatEngine interface {
	Reply(ctx context.Context, sessionID, text string) string
	Reset(ctx context.Context, sessionID string) string
	ApplyText(ctx context.Context, text string) chat.BatchReply
}

// PlanSource is implemented by cache.PlanCache.
type PlanSource interface {
	Get(ctx context.Context, force bool) (*core.Document, error)
}

// BudgetUpdater is implemented by services.BudgetService.
type BudgetUpdater interface {
	Apply(ctx context.Context, source services.Source, req core.UpdateRequest) (*services.Outcome, error)
	ReplaceDocument(ctx context.Context, doc *core.Document) (*core.Document, error)
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Engine  ChatEngine
	Plans   PlanSource
	Store   planstore.Store
	Budget  BudgetUpdater
	Logger  *applog.Logger
	Limiter *ratelimit.Limiter
	// Backend is reported by the file-info endpoint.
	Backend string
}

type Server struct {
	http.Server
	engine  ChatEngine
	plans   PlanSource
	store   planstore.Store
	budget  BudgetUpdater
	logger  *applog.Logger
	limiter *ratelimit.Limiter
	ips     *security.IPExtractor
	tracer  *trace.Middleware
	backend string

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(ratelimit.DefaultRequestsPerMinute)
	}

	s := &Server{
		engine:  deps.Engine,
		plans:   deps.Plans,
		store:   deps.Store,
		budget:  deps.Budget,
		logger:  logger.WithComponent(applog.ComponentHTTP),
		limiter: limiter,
		ips:     security.NewIPExtractor(),
		backend: deps.Backend,
	}
	s.tracer = trace.NewMiddleware(logger, s.ips.ClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.Handle("POST /api/chatbot/chat", s.limited(s.handleChat))
	mux.Handle("POST /api/chatbot/reset", s.limited(s.handleReset))
	mux.Handle("GET /api/chatbot/current_budget", s.limited(s.handleCurrentBudget))

	mux.Handle("POST /api/budget/update", s.limited(s.handleBatchUpdate))
	mux.Handle("POST /api/budget/update-category", s.limited(s.handleUpdateCategory))
	mux.Handle("GET /api/budget/plan", s.limited(s.handleGetPlan))
	mux.Handle("PUT /api/budget/plan", s.limited(s.handlePutPlan))
	mux.Handle("GET /api/budget/file-info", s.limited(s.handleFileInfo))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = applog.Middleware(s.logger, trace.RequestIDFromRequest)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// limited applies the per-client rate limit to an API handler.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	return s.limiter.Middleware(s.ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.ips.ClientIP(r),
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
	})(h)
}

// Shutdown gracefully shuts down the server once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		m := s.tracer.GetMetrics()
		s.logger.Info("HTTP server shutting down",
			"total_requests", m.TotalRequests,
			"avg_response_ms", m.AverageResponseTime.Milliseconds(),
			"rate_limited", s.limiter.GetMetrics().TotalHits)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
