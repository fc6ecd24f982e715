package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/supla-lite/suplad/internal/logger"
	"github.com/supla-lite/suplad/pkg/metrics"
	"github.com/supla-lite/suplad/pkg/server/state"
)

// NewRouter creates and configures the chi router with all middleware
// and routes.
//
// Routes:
//   - GET /api/{version}/user-icons: icon lookup by content id
//   - GET /health: liveness probe
//   - GET /metrics: Prometheus exposition (404 when metrics are off)
//
// Everything else answers with the JSON not-found body.
func NewRouter(st *state.State) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.NotFound(notFound)

	// The version path element is accepted but not interpreted; icon
	// ids are stable across protocol versions.
	r.Get("/api/{version}/user-icons", userIcons(st))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "suplad",
		})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// requestLogger logs requests using the internal logger: start at DEBUG,
// completion with status and duration at INFO.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
