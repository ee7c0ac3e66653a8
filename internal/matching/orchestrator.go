// internal/matching/orchestrator.go
package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	apperrors "grantmatch/internal/common/errors"
	"grantmatch/internal/common/logger"
	"grantmatch/internal/common/metrics"
	"grantmatch/internal/cache"
	"grantmatch/internal/models"
	"grantmatch/internal/search"
	"grantmatch/internal/store"
)

// Strategy tags reported in search metadata.
const (
	StrategyVector = "vector_knn"
	StrategyCached = "cached"
)

// Options bound and default incoming requests.
type Options struct {
	DefaultLimit         int
	MaxLimit             int
	DefaultMinSimilarity float64
	CandidatePoolSize    int
	SearchTimeout        time.Duration
	ResultTTL            time.Duration
}

// Orchestrator composes candidate retrieval, eligibility, scoring and the
// cache into one ranked, paginated search.
type Orchestrator struct {
	searcher search.CandidateSearcher
	profiles store.ProfileStore
	cache    *cache.Store
	opts     Options
	logger   logger.Logger
	now      func() time.Time
}

func NewOrchestrator(searcher search.CandidateSearcher, profiles store.ProfileStore, cacheStore *cache.Store, opts Options, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		searcher: searcher,
		profiles: profiles,
		cache:    cacheStore,
		opts:     opts,
		logger:   log.WithFields(map[string]interface{}{"component": "orchestrator"}),
		now:      time.Now,
	}
}

// cachedPayload is the serialized cache value for one fingerprint.
type cachedPayload struct {
	Matches    []models.MatchResult `json:"matches"`
	TotalCount int                  `json:"totalCount"`
}

// FindMatches runs the full pipeline: fingerprint, cache lookup, candidate
// retrieval, per-candidate eligibility and scoring, request-level filtering,
// deterministic ordering and pagination.
func (o *Orchestrator) FindMatches(ctx context.Context, req *models.SearchRequest) (*models.RankedResults, error) {
	started := o.now()
	o.normalize(req)

	key := Fingerprint(req)

	payload, fromCache, err := o.cache.GetOrCreate(ctx, key, func(fctx context.Context) ([]byte, error) {
		result, err := o.computeMatches(fctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	}, o.opts.ResultTTL, 0)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error", StrategyVector).Inc()
		return nil, err
	}

	var cached cachedPayload
	if err := json.Unmarshal(payload, &cached); err != nil {
		metrics.SearchesTotal.WithLabelValues("error", StrategyVector).Inc()
		return nil, apperrors.NewInternalError(fmt.Errorf("decode cached result: %w", err))
	}

	strategy := StrategyVector
	if fromCache {
		strategy = StrategyCached
	}
	elapsed := o.now().Sub(started)
	metrics.SearchesTotal.WithLabelValues("ok", strategy).Inc()
	metrics.SearchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())

	o.logger.Info("search complete", map[string]interface{}{
		"profileId":  req.ProfileID,
		"matches":    len(cached.Matches),
		"totalCount": cached.TotalCount,
		"fromCache":  fromCache,
		"durationMs": elapsed.Milliseconds(),
	})

	return &models.RankedResults{
		Matches:        cached.Matches,
		TotalCount:     cached.TotalCount,
		FromCache:      fromCache,
		SearchStrategy: strategy,
		ProcessingTime: elapsed,
	}, nil
}

// InvalidateProfile drops every cached result for the profile. Called when a
// profile changes so stale rankings do not outlive their inputs.
func (o *Orchestrator) InvalidateProfile(ctx context.Context, profileID string) {
	o.cache.RemoveByPattern(ctx, "match:"+profileID+":*")
}

// CacheStatistics exposes the cache counters for diagnostics.
func (o *Orchestrator) CacheStatistics() cache.Statistics {
	return o.cache.Statistics()
}

func (o *Orchestrator) computeMatches(ctx context.Context, req *models.SearchRequest) (*cachedPayload, error) {
	profile, err := o.profiles.GetByID(ctx, req.ProfileID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewProfileNotFoundError(req.ProfileID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, o.opts.SearchTimeout)
	defer cancel()

	candidates, err := o.searcher.Search(searchCtx, search.Query{
		Profile:       profile,
		MinSimilarity: req.MinSimilarity,
		Limit:         o.opts.CandidatePoolSize,
	})
	if err != nil {
		if errors.Is(searchCtx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewSearchTimeoutError()
		}
		return nil, apperrors.NewSearchUnavailableError(err)
	}

	now := o.now()
	matches := make([]models.MatchResult, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		// Similarity floor is an eligibility pre-filter, not a ranking factor.
		if c.Similarity < req.MinSimilarity {
			continue
		}
		if !matchesFilters(&c.Opportunity, &req.Filters) {
			continue
		}
		matches = append(matches, CalculateScore(profile, &c.Opportunity, c.Similarity, now))
	}

	sortMatches(matches)

	total := len(matches)
	matches = paginate(matches, req.Offset, req.Limit)

	return &cachedPayload{Matches: matches, TotalCount: total}, nil
}

func (o *Orchestrator) normalize(req *models.SearchRequest) {
	if req.Limit <= 0 {
		req.Limit = o.opts.DefaultLimit
	}
	if req.Limit > o.opts.MaxLimit {
		req.Limit = o.opts.MaxLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.MinSimilarity <= 0 {
		req.MinSimilarity = o.opts.DefaultMinSimilarity
	}
}

// matchesFilters applies the request-level filters by exact match.
func matchesFilters(o *models.Opportunity, f *models.Filters) bool {
	if f.MinAwardAmount != nil && o.AwardAmount < *f.MinAwardAmount {
		return false
	}
	if f.MaxAwardAmount != nil && o.AwardAmount > *f.MaxAwardAmount {
		return false
	}
	if f.DeadlineAfter != nil && o.Deadline.Before(*f.DeadlineAfter) {
		return false
	}
	if f.DeadlineBefore != nil && o.Deadline.After(*f.DeadlineBefore) {
		return false
	}
	if f.EssayRequired != nil && o.EssayRequired != *f.EssayRequired {
		return false
	}
	return true
}

// sortMatches orders by composite score descending, ties broken by award
// amount descending, then opportunity id ascending: a deterministic total
// order so identical searches return identical pages.
func sortMatches(matches []models.MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].CompositeScore != matches[j].CompositeScore {
			return matches[i].CompositeScore > matches[j].CompositeScore
		}
		if matches[i].AwardAmount != matches[j].AwardAmount {
			return matches[i].AwardAmount > matches[j].AwardAmount
		}
		return matches[i].OpportunityID < matches[j].OpportunityID
	})
}

func paginate(matches []models.MatchResult, offset, limit int) []models.MatchResult {
	if offset >= len(matches) {
		return []models.MatchResult{}
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end]
}
