// Package http serves the read-only dashboard API over the ledger.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// Rendered charts are served from memory until they expire; ledger writes
// made in the meantime show up only after chartCacheTTL.
const (
	chartCacheSize = 32
	chartCacheTTL  = 30 * time.Second
)

// Dashboard is the read side of the ledger service used by the API.
type Dashboard interface {
	Clock() core.Clock
	CurrentPeriod() core.Period
	Dashboard(ctx context.Context, period core.Period, recent int) (services.Dashboard, error)
	BudgetReport(ctx context.Context, period core.Period) (analytics.BudgetReport, error)
	SpendingAnalysis(ctx context.Context, period core.Period) (services.SpendingAnalysis, error)
	List(ctx context.Context, f analytics.ListFilter) ([]core.Transaction, error)
}

type Server struct {
	http.Server
	svc         Dashboard
	logger      *applog.Logger
	rateLimiter *rateLimiter
	charts      *cache.LRU[[]byte]
	caches      *cache.Manager
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures the routes and returns a ready-to-run server.
func NewServer(addr string, svc Dashboard, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:         svc,
		logger:      logger,
		rateLimiter: newRateLimiter(60, time.Minute),
		charts:      cache.NewLRU[[]byte](chartCacheSize, chartCacheTTL),
		caches:      cache.NewManager(logger),
		started:     time.Now(),
	}
	s.caches.Register(s.charts)
	s.caches.Start(time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/budgets", s.handleBudgets)
	mux.HandleFunc("GET /api/transactions/recent", s.handleRecent)
	mux.HandleFunc("GET /api/charts/spending.png", s.handleSpendingChart)
	mux.HandleFunc("GET /api/charts/budgets.png", s.handleBudgetChart)

	var h http.Handler = mux
	h = s.withRateLimit(h)
	h = withSecurityHeaders(h)
	h = applog.AccessLog(h)
	h = applog.RequestIDMiddleware(requestID)(h)
	h = applog.Middleware(logger)(h)
	s.Handler = h

	return s
}

// Shutdown stops the background sweeps and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.caches.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// requestID keeps a sane caller-provided ID and mints one otherwise.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" && len(id) <= 64 {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}
