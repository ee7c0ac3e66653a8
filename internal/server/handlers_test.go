package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantmatch/internal/cache"
	apperrors "grantmatch/internal/common/errors"
	"grantmatch/internal/common/logger"
	"grantmatch/internal/models"
	"grantmatch/internal/ratelimit"
)

type stubMatcher struct {
	results     *models.RankedResults
	err         error
	invalidated []string
}

func (m *stubMatcher) FindMatches(ctx context.Context, req *models.SearchRequest) (*models.RankedResults, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *stubMatcher) InvalidateProfile(ctx context.Context, profileID string) {
	m.invalidated = append(m.invalidated, profileID)
}

func (m *stubMatcher) CacheStatistics() cache.Statistics {
	return cache.Statistics{Hits: 7, Misses: 3, CurrentEntries: 4, HitRate: 0.7}
}

func testRouter(matcher Matcher, limiter *ratelimit.Limiter) http.Handler {
	log := logger.NewNoOpLogger()
	if limiter == nil {
		limiter = ratelimit.NewDefault(1000, 5000)
	}
	return NewRouter(NewHandlers(matcher, nil, log), limiter, log)
}

func TestHandleSearch_Success(t *testing.T) {
	matcher := &stubMatcher{results: &models.RankedResults{
		Matches: []models.MatchResult{
			{OpportunityID: "opp-1", CompositeScore: 0.82, MeetsAllRequirements: true, UnmetRequirements: []string{}},
		},
		TotalCount:     1,
		FromCache:      true,
		SearchStrategy: "cached",
		ProcessingTime: 42 * time.Millisecond,
	}}
	router := testRouter(matcher, nil)

	req := httptest.NewRequest(http.MethodPost, "/matches/search",
		strings.NewReader(`{"profileId": "p1", "limit": 10}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Matches    []models.MatchResult `json:"matches"`
		TotalCount int                  `json:"totalCount"`
		Metadata   struct {
			ProcessingTimeMs int64  `json:"processingTimeMs"`
			FromCache        bool   `json:"fromCache"`
			SearchStrategy   string `json:"searchStrategy"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "opp-1", resp.Matches[0].OpportunityID)
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, int64(42), resp.Metadata.ProcessingTimeMs)
	assert.True(t, resp.Metadata.FromCache)
	assert.Equal(t, "cached", resp.Metadata.SearchStrategy)
}

func TestHandleSearch_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing profileId", body: `{"limit": 10}`},
		{name: "empty profileId", body: `{"profileId": ""}`},
		{name: "negative offset", body: `{"profileId": "p1", "offset": -1}`},
		{name: "similarity above one", body: `{"profileId": "p1", "minSimilarity": 1.5}`},
		{name: "unknown field", body: `{"profileId": "p1", "unexpected": true}`},
		{name: "not json", body: `not json at all`},
	}

	matcher := &stubMatcher{results: &models.RankedResults{}}
	router := testRouter(matcher, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/matches/search", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), string(apperrors.ErrCodeValidationFailed))
		})
	}
}

func TestHandleSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{
			name:       "profile not found",
			err:        apperrors.NewProfileNotFoundError("ghost"),
			wantStatus: http.StatusNotFound,
			wantCode:   apperrors.ErrCodeProfileNotFound,
		},
		{
			name:       "search unavailable",
			err:        apperrors.NewSearchUnavailableError(assert.AnError),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.ErrCodeSearchUnavailable,
		},
		{
			name:       "search timeout",
			err:        apperrors.NewSearchTimeoutError(),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.ErrCodeSearchTimeout,
		},
		{
			name:       "unknown error is opaque internal",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(&stubMatcher{err: tt.err}, nil)

			req := httptest.NewRequest(http.MethodPost, "/matches/search",
				strings.NewReader(`{"profileId": "p1"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), string(tt.wantCode))
		})
	}
}

func TestHandleSearch_InternalErrorDetailsRedacted(t *testing.T) {
	router := testRouter(&stubMatcher{err: assert.AnError}, nil)

	req := httptest.NewRequest(http.MethodPost, "/matches/search",
		strings.NewReader(`{"profileId": "p1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestHandleSearch_MethodNotAllowed(t *testing.T) {
	router := testRouter(&stubMatcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/matches/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestRateLimit_RejectsWithRetryAfter(t *testing.T) {
	limiter := ratelimit.NewDefault(1, 5)
	router := testRouter(&stubMatcher{results: &models.RankedResults{}}, limiter)

	first := httptest.NewRequest(http.MethodPost, "/matches/search",
		strings.NewReader(`{"profileId": "p1"}`))
	first.Header.Set("X-Client-ID", "client-a")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/matches/search",
		strings.NewReader(`{"profileId": "p1"}`))
	second.Header.Set("X-Client-ID", "client-a")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, second)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), string(apperrors.ErrCodeRateLimited))
}

func TestRateLimit_ClientsAreIndependent(t *testing.T) {
	limiter := ratelimit.NewDefault(1, 5)
	router := testRouter(&stubMatcher{results: &models.RankedResults{}}, limiter)

	for _, client := range []string{"client-a", "client-b"} {
		req := httptest.NewRequest(http.MethodPost, "/matches/search",
			strings.NewReader(`{"profileId": "p1"}`))
		req.Header.Set("X-Client-ID", client)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "client %s should have its own window", client)
	}
}

func TestRateLimit_HealthzExempt(t *testing.T) {
	limiter := ratelimit.NewDefault(1, 5)
	router := testRouter(&stubMatcher{results: &models.RankedResults{}}, limiter)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestHandleCacheStats(t *testing.T) {
	router := testRouter(&stubMatcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/diagnostics/cache-stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats cache.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(7), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.InDelta(t, 0.7, stats.HitRate, 1e-9)
}

func TestHandleCacheInvalidate(t *testing.T) {
	matcher := &stubMatcher{}
	router := testRouter(matcher, nil)

	req := httptest.NewRequest(http.MethodPost, "/diagnostics/cache-invalidate",
		strings.NewReader(`{"profileId": "p1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"p1"}, matcher.invalidated)
}

func TestHandleCacheInvalidate_RequiresProfileID(t *testing.T) {
	matcher := &stubMatcher{}
	router := testRouter(matcher, nil)

	req := httptest.NewRequest(http.MethodPost, "/diagnostics/cache-invalidate",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, matcher.invalidated)
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	router := testRouter(&stubMatcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
