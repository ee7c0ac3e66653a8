// internal/server/middleware.go
package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "grantmatch/internal/common/errors"
	"grantmatch/internal/common/logger"
	"grantmatch/internal/ratelimit"
)

type contextKey string

const requestIDKey contextKey = "requestId"

// requestIDFrom returns the request id stored by requestIDMiddleware, or ""
// when the middleware did not run.
func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestIDMiddleware assigns every request a correlation id, honoring an
// inbound X-Request-ID so ids survive proxy hops.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// loggingMiddleware emits one structured line per completed request.
func loggingMiddleware(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request completed", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  requestIDFrom(r.Context()),
		})
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// rateLimitMiddleware runs sliding-window admission control per client.
// Rejections carry a Retry-After hint and are never counted against the
// client's quota.
func rateLimitMiddleware(limiter *ratelimit.Limiter, log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIdentity(r)
		decision := limiter.Admit(clientID)
		if !decision.Allowed {
			log.Warn("request rejected by rate limiter", map[string]interface{}{
				"clientId":   clientID,
				"path":       r.URL.Path,
				"retryAfter": decision.RetryAfterSeconds(),
				"requestId":  requestIDFrom(r.Context()),
			})
			writeError(w, apperrors.NewRateLimitedError(decision.RetryAfterSeconds()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIdentity resolves the rate-limit bucket for a request: explicit
// client id header, then forwarded address, then socket peer. The limiter
// maps an empty identity to its shared unknown bucket.
func clientIdentity(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the originating client.
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
