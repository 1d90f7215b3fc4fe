package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/launchdash/internal/auth"
	"github.com/star/launchdash/internal/dashboard"
	"github.com/star/launchdash/internal/health"
	"github.com/star/launchdash/internal/httputil"
	"github.com/star/launchdash/internal/metrics"
	"github.com/star/launchdash/internal/render"
)

// Config holds HTTP server settings.
type Config struct {
	Addr string `yaml:"addr"`
	// TrustProxy makes client IPs come from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `yaml:"trust_proxy"`
	// RenderMaxConcurrentPerIP caps in-flight chart renders per client.
	RenderMaxConcurrentPerIP int `yaml:"render_max_concurrent_per_ip"`
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server for the dashboard app. webFS
// holds the frontend files served at the root.
func NewServer(cfg Config, logger *slog.Logger, authCfg auth.Config, app *dashboard.App, renderer *render.Renderer, ready *health.Readiness, webFS fs.FS) *Server {
	mux := http.NewServeMux()
	limiter := newRenderLimiter(cfg.RenderMaxConcurrentPerIP)

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", ready.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/layout", layoutHandler(app))
	mux.HandleFunc("POST /api/v1/update", updateHandler(logger, app, renderer, limiter, cfg.TrustProxy))
	mux.HandleFunc("GET /api/v1/charts/{component}", chartHandler(logger, app, renderer, limiter, cfg.TrustProxy))
	mux.HandleFunc("GET /api/v1/dataset/metadata", metadataHandler(app))
	mux.Handle("GET /", http.FileServer(http.FS(webFS)))

	// Build middleware chain: metrics -> request id -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger, cfg.TrustProxy)(handler)
	handler = httputil.RequestID(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
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
				"request_id", httputil.RequestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
