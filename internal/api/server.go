// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	handler "github.com/newthinker/crossover/internal/api/handler/api"
	"github.com/newthinker/crossover/internal/api/job"
	"github.com/newthinker/crossover/internal/api/middleware"
	"github.com/newthinker/crossover/internal/api/response"
	"github.com/newthinker/crossover/internal/metrics"
	"go.uber.org/zap"
)

// Server represents the HTTP server for the backtest API
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	jobs       *job.Store
	stop       context.CancelFunc
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	APIKey         string        // empty disables auth
	RequestTimeout time.Duration // synchronous endpoints; 0 means none
	JobTimeout     time.Duration
	MetricsPath    string // empty disables /metrics
}

// Dependencies holds the services the handlers call.
type Dependencies struct {
	Service handler.Service
	Jobs    *job.Store
	Metrics *metrics.Registry // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Service == nil {
		return nil, fmt.Errorf("server requires a service")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Jobs == nil {
		deps.Jobs = job.NewStore(100, time.Hour, nil)
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
		jobs:   deps.Jobs,
	}
	s.setupRoutes(cfg, deps)

	var h http.Handler = mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.RequestTimeout <= 0 {
		s.httpServer.WriteTimeout = 0
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)
	protect := func(h http.HandlerFunc) http.Handler {
		return auth(withTimeout(cfg.RequestTimeout, h))
	}

	backtests := handler.NewBacktestHandler(deps.Service)
	optimize := handler.NewOptimizeHandler(deps.Service)
	montecarlo := handler.NewMonteCarloHandler(deps.Service)
	market := handler.NewMarketHandler(deps.Service)
	jobs := handler.NewJobsHandler(deps.Service, deps.Jobs, cfg.JobTimeout, s.logger.Named("jobs"))

	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.Handle("GET /api/market", protect(market.Get))
	s.mux.Handle("POST /api/backtest", protect(backtests.Run))
	s.mux.Handle("GET /api/results", protect(backtests.Results))
	s.mux.Handle("GET /api/results/{id}", protect(backtests.Result))
	s.mux.Handle("DELETE /api/results/{id}", protect(backtests.DeleteResult))
	s.mux.Handle("POST /api/optimize", protect(optimize.Run))
	s.mux.Handle("POST /api/montecarlo", protect(montecarlo.Run))

	s.mux.Handle("POST /api/jobs/{kind}", auth(http.HandlerFunc(jobs.Create)))
	s.mux.Handle("GET /api/jobs", auth(http.HandlerFunc(jobs.List)))
	s.mux.Handle("GET /api/jobs/{id}", auth(http.HandlerFunc(jobs.GetStatus)))

	if deps.Metrics != nil && cfg.MetricsPath != "" {
		s.mux.Handle("GET "+cfg.MetricsPath, deps.Metrics.Handler())
	}
}

// withTimeout bounds the request context of synchronous endpoints.
func withTimeout(d time.Duration, next http.HandlerFunc) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and the job pruner. It blocks until the
// server stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	go s.pruneJobs(ctx, time.Minute)

	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.stop != nil {
		s.stop()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) pruneJobs(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.jobs.Prune(); n > 0 {
				s.logger.Debug("expired jobs pruned", zap.Int("count", n))
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
