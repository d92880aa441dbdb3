// Package server provides the HTTP API for job-fit analyses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/echiveai-alt/funnytime2-sub001/internal/server/middleware"
	"github.com/echiveai-alt/funnytime2-sub001/internal/server/ratelimit"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/echiveai-alt/funnytime2-sub001/internal/usage"
)

// Analyzer runs one analysis for an authenticated user
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error)
}

// UsageReader returns a user's quota snapshot
type UsageReader interface {
	Get(ctx context.Context, userID string) (usage.Usage, error)
}

// RequestMetrics records served requests
type RequestMetrics interface {
	ObserveRequest(method, path string, status int, d time.Duration)
}

// Config holds server configuration
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// DefaultConfig returns timeouts sized for two completion calls per request
func DefaultConfig() Config {
	return Config{
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    300 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxBodyBytes:    1 << 20,
	}
}

// Deps are the server's collaborators. Usage, Limiter, Metrics, MetricsHandler,
// Health and Logger are optional.
type Deps struct {
	Analyzer       Analyzer
	Tokens         middleware.TokenValidator
	Usage          UsageReader
	Limiter        *ratelimit.Limiter
	Metrics        RequestMetrics
	MetricsHandler http.Handler
	Health         func(ctx context.Context) error
	Logger         *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg        Config
	deps       Deps
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server
}

// New creates a new server instance
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	s := &Server{cfg: cfg, deps: deps, logger: logger}

	auth := middleware.AuthMiddleware(deps.Tokens)

	mux := http.NewServeMux()
	mux.Handle("POST /analyses", auth(http.HandlerFunc(s.handleAnalyze)))
	mux.Handle("POST /analyses/stream", auth(http.HandlerFunc(s.handleAnalyzeStream)))
	mux.Handle("GET /usage", auth(http.HandlerFunc(s.handleUsage)))
	mux.HandleFunc("GET /health", s.handleHealth)
	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}

	s.handler = middleware.RequestID(s.withLogging(s.withCORS(s.withRateLimit(mux))))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.deps.Limiter != nil {
		s.deps.Limiter.Stop()
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit throttles per client IP and endpoint
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.deps.Limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.deps.Limiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.logger.Warn("rate limit exceeded",
				"request_id", middleware.GetRequestID(r.Context()), "path", r.URL.Path, "limit", info.Limit)
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds()+0.5)))
			}
			s.jsonResponse(w, http.StatusTooManyRequests, ErrorBody{Error: ErrorDetail{
				Code:      CodeRateLimited,
				Message:   "rate limit exceeded, try again later",
				Retryable: true,
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request with its id and records request metrics
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.logger.Info("request completed",
			"request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
		if s.deps.Metrics != nil {
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			s.deps.Metrics.ObserveRequest(r.Method, route, rec.status, elapsed)
		}
	})
}

// statusRecorder captures the response status and keeps streaming working
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes the error envelope with the status for its code
func (s *Server) errorResponse(w http.ResponseWriter, detail ErrorDetail) {
	s.jsonResponse(w, HTTPStatus(detail.Code), ErrorBody{Error: detail})
}

// clientID uses the remote IP. Forwarded headers are not trusted.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}
