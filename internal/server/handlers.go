// internal/server/handlers.go
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"grantmatch/internal/cache"
	apperrors "grantmatch/internal/common/errors"
	"grantmatch/internal/common/logger"
	"grantmatch/internal/common/observability"
	"grantmatch/internal/models"
)

// maxBodyBytes bounds request bodies so a hostile payload cannot exhaust
// memory before validation runs.
const maxBodyBytes = 1 << 20

// Matcher is the orchestrator surface the handlers need.
type Matcher interface {
	FindMatches(ctx context.Context, req *models.SearchRequest) (*models.RankedResults, error)
	InvalidateProfile(ctx context.Context, profileID string)
	CacheStatistics() cache.Statistics
}

// Handlers holds the API endpoint implementations.
type Handlers struct {
	matcher Matcher
	obs     *observability.Observability
	logger  logger.Logger
}

func NewHandlers(matcher Matcher, obs *observability.Observability, log logger.Logger) *Handlers {
	return &Handlers{
		matcher: matcher,
		obs:     obs,
		logger:  log.WithFields(map[string]interface{}{"component": "handlers"}),
	}
}

type searchMetadata struct {
	ProcessingTimeMs int64  `json:"processingTimeMs"`
	FromCache        bool   `json:"fromCache"`
	SearchStrategy   string `json:"searchStrategy"`
}

type searchResponse struct {
	Matches    []models.MatchResult `json:"matches"`
	TotalCount int                  `json:"totalCount"`
	Metadata   searchMetadata       `json:"metadata"`
}

// handleSearch serves POST /matches/search.
func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperrors.NewValidationFailedError("unable to read request body"))
		return
	}

	if err := ValidateSearchRequest(body); err != nil {
		writeError(w, err)
		return
	}

	var req models.SearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, apperrors.NewValidationFailedError("malformed JSON body"))
		return
	}

	results, err := h.matcher.FindMatches(r.Context(), &req)
	if err != nil {
		if h.obs != nil {
			h.obs.RecordSearch(r.Context(), "error")
		}
		h.logError(r, err)
		writeError(w, err)
		return
	}

	if h.obs != nil {
		h.obs.RecordSearch(r.Context(), "ok")
		h.obs.RecordSearchDuration(r.Context(), results.ProcessingTime, "ok")
	}

	respondJSON(w, http.StatusOK, searchResponse{
		Matches:    results.Matches,
		TotalCount: results.TotalCount,
		Metadata: searchMetadata{
			ProcessingTimeMs: results.ProcessingTime.Milliseconds(),
			FromCache:        results.FromCache,
			SearchStrategy:   results.SearchStrategy,
		},
	})
}

// handleCacheStats serves GET /diagnostics/cache-stats.
func (h *Handlers) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	respondJSON(w, http.StatusOK, h.matcher.CacheStatistics())
}

type invalidateRequest struct {
	ProfileID string `json:"profileId"`
}

// handleCacheInvalidate serves POST /diagnostics/cache-invalidate. Drops
// every cached result for one profile, for use when a profile changes.
func (h *Handlers) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req invalidateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidationFailedError("malformed JSON body"))
		return
	}
	if req.ProfileID == "" {
		writeError(w, apperrors.NewValidationFailedError("profileId is required"))
		return
	}

	h.matcher.InvalidateProfile(r.Context(), req.ProfileID)
	h.logger.Info("cache invalidated", map[string]interface{}{
		"profileId": req.ProfileID,
	})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"profileId": req.ProfileID,
	})
}

func (h *Handlers) logError(r *http.Request, err error) {
	std := apperrors.AsStandard(err)
	fields := map[string]interface{}{
		"path":      r.URL.Path,
		"code":      std.Code,
		"details":   std.Details,
		"requestId": requestIDFrom(r.Context()),
	}
	if std.Code == apperrors.ErrCodeInternal {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}

// writeError maps an error onto the HTTP response. Internal errors go out
// opaque: the cause is logged, never returned to the client.
func writeError(w http.ResponseWriter, err error) {
	std := apperrors.AsStandard(err)
	status := apperrors.HTTPStatus(std.Code)

	if std.Code == apperrors.ErrCodeRateLimited {
		if retryAfter, ok := std.Metadata["retryAfterSeconds"].(int); ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
	}

	out := *std
	if out.Code == apperrors.ErrCodeInternal {
		out.Details = ""
	}

	respondJSON(w, status, map[string]interface{}{"error": &out})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	respondJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
		"error": apperrors.NewValidationFailedError("method not allowed"),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}
