// Package api serves atmosphere evaluations, drag profiles and space
// weather status over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/star/msisgo/internal/auth"
	"github.com/star/msisgo/internal/drag"
	"github.com/star/msisgo/internal/health"
	"github.com/star/msisgo/internal/httputil"
	"github.com/star/msisgo/internal/metrics"
	"github.com/star/msisgo/internal/msis"
	"github.com/star/msisgo/internal/spaceweather"
)

// SpaceWeatherConfig holds space weather ingestion settings.
type SpaceWeatherConfig struct {
	EnableFetch bool
	SourceURL   string
	CacheDir    string
	MaxFiles    int
	MaxAge      time.Duration
}

// Config holds HTTP server configuration.
type Config struct {
	Addr              string
	Auth              auth.Config
	TrustProxy        bool // read client IPs from X-Forwarded-For / X-Real-IP
	DragMaxConcurrent int  // concurrent drag requests per client IP
	SpaceWeather      SpaceWeatherConfig
}

// Deps are the components the handlers call into.
type Deps struct {
	Evaluator *msis.Evaluator
	Store     *spaceweather.Store
	Profiler  *drag.Profiler
	Fetcher   *spaceweather.Fetcher
	Cache     *spaceweather.Cache
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(deps.Store.Loaded))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/atmosphere", atmosphereHandler(deps.Evaluator))
	mux.HandleFunc("GET /api/v1/atmosphere/at", atmosphereAtHandler(deps.Evaluator, deps.Store))

	limiter := newClientLimiter(cfg.DragMaxConcurrent)
	mux.HandleFunc("POST /api/v1/drag", dragHandler(logger, deps.Profiler, deps.Evaluator.Name(), limiter, cfg.TrustProxy))

	mux.HandleFunc("GET /api/v1/spaceweather/metadata", metadataHandler(deps.Store, cfg.SpaceWeather))
	mux.HandleFunc("POST /api/v1/spaceweather/fetch", fetchHandler(logger, deps, cfg.SpaceWeather))

	// Build middleware chain: metrics -> request id -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.Auth)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = requestIDMiddleware(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

type ctxKey int

const requestIDKey ctxKey = iota

// maxRequestIDLen bounds client-supplied request IDs.
const maxRequestIDLen = 128

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDMiddleware reuses a sane X-Request-ID from the client or mints a
// UUID, and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
