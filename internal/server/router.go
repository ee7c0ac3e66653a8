// internal/server/router.go
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grantmatch/internal/common/logger"
	"grantmatch/internal/ratelimit"
)

// NewRouter wires the API routes with their middleware chain. Health and
// metrics probes bypass admission control so monitoring keeps working while
// clients are being throttled.
func NewRouter(handlers *Handlers, limiter *ratelimit.Limiter, log logger.Logger) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/matches/search", handlers.handleSearch)
	api.HandleFunc("/diagnostics/cache-stats", handlers.handleCacheStats)
	api.HandleFunc("/diagnostics/cache-invalidate", handlers.handleCacheInvalidate)

	limited := rateLimitMiddleware(limiter, log, api)

	root := http.NewServeMux()
	root.Handle("/matches/", limited)
	root.Handle("/diagnostics/", limited)
	root.Handle("/metrics", promhttp.Handler())
	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	return requestIDMiddleware(loggingMiddleware(log, root))
}
