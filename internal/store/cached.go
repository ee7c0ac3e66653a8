// internal/store/cached.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grantmatch/internal/cache"
	"grantmatch/internal/models"
)

// CachedProfiles decorates a ProfileStore with a read-through cache. Entries
// use a sliding expiry so active profiles stay warm, bounded by an absolute
// cap so a stale profile cannot live forever.
type CachedProfiles struct {
	inner ProfileStore
	cache *cache.Store
	slide time.Duration
	cap   time.Duration
}

func NewCachedProfiles(inner ProfileStore, cacheStore *cache.Store, slide, cap time.Duration) *CachedProfiles {
	return &CachedProfiles{
		inner: inner,
		cache: cacheStore,
		slide: slide,
		cap:   cap,
	}
}

func (s *CachedProfiles) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	payload, _, err := s.cache.GetOrCreate(ctx, profileKey(id), func(fctx context.Context) ([]byte, error) {
		p, err := s.inner.GetByID(fctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	}, s.cap, s.slide)
	if err != nil {
		return nil, err
	}

	var p models.Profile
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &p, nil
}

// Invalidate drops the cached copy so the next read hits the inner store.
func (s *CachedProfiles) Invalidate(ctx context.Context, id string) {
	s.cache.Remove(ctx, profileKey(id))
}

func profileKey(id string) string {
	return "profile:" + id
}
