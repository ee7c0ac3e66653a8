// Package cache implements the hybrid get-or-create cache backing match
// results: a bounded local LRU tier plus an optional shared remote tier.
package cache

import (
	"context"
	"path"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"grantmatch/internal/common/logger"
	"grantmatch/internal/common/metrics"
)

// Factory computes the value for a key on a cache miss.
type Factory func(ctx context.Context) ([]byte, error)

// Statistics is a point-in-time snapshot of cache counters.
type Statistics struct {
	Hits           int64   `json:"hits"`
	Misses         int64   `json:"misses"`
	Evictions      int64   `json:"evictions"`
	CurrentEntries int     `json:"currentEntries"`
	HitRate        float64 `json:"hitRate"`
}

// RemoteTier is the optional shared cache tier. Implementations must be safe
// for concurrent use. All failures are degradable: the store logs and falls
// back to local-only operation.
type RemoteTier interface {
	Get(ctx context.Context, key string) (value []byte, ttl time.Duration, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, keys ...string) error
	RemoveByPattern(ctx context.Context, pattern string) error
	Clear(ctx context.Context) error
}

type entry struct {
	mu          sync.Mutex
	value       []byte
	createdAt   time.Time
	absExpiry   time.Time     // zero = no absolute expiry
	slideTTL    time.Duration // zero = no sliding expiry
	slideExpiry time.Time
}

// expired reports whether the entry is past either expiry at instant now.
func (e *entry) expired(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.absExpiry.IsZero() && !now.Before(e.absExpiry) {
		return true
	}
	if e.slideTTL > 0 && !now.Before(e.slideExpiry) {
		return true
	}
	return false
}

// touch extends the sliding window. The absolute expiry is the hard ceiling.
func (e *entry) touch(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.slideTTL <= 0 {
		return
	}
	next := now.Add(e.slideTTL)
	if !e.absExpiry.IsZero() && next.After(e.absExpiry) {
		next = e.absExpiry
	}
	e.slideExpiry = next
}

type inflightCall struct {
	done chan struct{}
	val  []byte
	err  error
}

// Store is the hybrid cache. Safe for concurrent use; callers need no
// external synchronization.
type Store struct {
	local  *lru.Cache[string, *entry]
	remote RemoteTier
	log    logger.Logger

	flightMu sync.Mutex
	inflight map[string]*inflightCall

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	now func() time.Time
}

// New creates a Store with a local tier bounded to maxEntries. remote may be
// nil for single-instance deployments.
func New(maxEntries int, remote RemoteTier, log logger.Logger) (*Store, error) {
	local, err := lru.New[string, *entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Store{
		local:    local,
		remote:   remote,
		log:      log.WithFields(map[string]interface{}{"component": "cache"}),
		inflight: make(map[string]*inflightCall),
		now:      time.Now,
	}, nil
}

// GetOrCreate returns the cached value for key, computing it with factory on
// a miss. At most one factory invocation runs per key within the process;
// concurrent callers for the same key wait for the in-flight result. A
// waiter whose context is cancelled returns early, but the shared
// computation runs to completion for the remaining waiters.
func (s *Store) GetOrCreate(ctx context.Context, key string, factory Factory, absTTL, slideTTL time.Duration) ([]byte, bool, error) {
	if val, ok := s.lookup(ctx, key, absTTL, slideTTL); ok {
		return val, true, nil
	}

	s.flightMu.Lock()
	if call, ok := s.inflight[key]; ok {
		s.flightMu.Unlock()
		select {
		case <-call.done:
			return call.val, false, call.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	call := &inflightCall{done: make(chan struct{})}
	s.inflight[key] = call
	s.flightMu.Unlock()

	// Detach from the initiating request so a per-request cancellation does
	// not starve the other waiters sharing this computation.
	go func() {
		call.val, call.err = factory(context.WithoutCancel(ctx))
		if call.err == nil {
			s.store(ctx, key, call.val, absTTL, slideTTL)
		}

		s.flightMu.Lock()
		delete(s.inflight, key)
		s.flightMu.Unlock()
		close(call.done)
	}()

	select {
	case <-call.done:
		return call.val, false, call.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Get returns the cached value for key, if present and unexpired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	return s.lookupRaw(ctx, key)
}

// Set stores value under key in both tiers.
func (s *Store) Set(ctx context.Context, key string, value []byte, absTTL, slideTTL time.Duration) {
	s.store(ctx, key, value, absTTL, slideTTL)
}

// Remove deletes key from both tiers.
func (s *Store) Remove(ctx context.Context, key string) {
	s.local.Remove(key)
	if s.remote != nil {
		if err := s.remote.Remove(ctx, key); err != nil {
			s.log.Warn("remote cache remove failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}
}

// RemoveByPattern deletes every key matching the glob pattern (prefix/glob
// match over keys, e.g. "match:profile-1:*").
func (s *Store) RemoveByPattern(ctx context.Context, pattern string) {
	for _, key := range s.local.Keys() {
		if matched, err := path.Match(pattern, key); err == nil && matched {
			s.local.Remove(key)
		}
	}
	if s.remote != nil {
		if err := s.remote.RemoveByPattern(ctx, pattern); err != nil {
			s.log.Warn("remote cache pattern remove failed", map[string]interface{}{
				"pattern": pattern,
				"error":   err,
			})
		}
	}
}

// Clear empties both tiers. Counters are preserved.
func (s *Store) Clear(ctx context.Context) {
	s.local.Purge()
	if s.remote != nil {
		if err := s.remote.Clear(ctx); err != nil {
			s.log.Warn("remote cache clear failed", map[string]interface{}{
				"error": err,
			})
		}
	}
}

// Statistics returns a race-free snapshot of the cache counters.
func (s *Store) Statistics() Statistics {
	hits := s.hits.Load()
	misses := s.misses.Load()
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Statistics{
		Hits:           hits,
		Misses:         misses,
		Evictions:      s.evictions.Load(),
		CurrentEntries: s.local.Len(),
		HitRate:        hitRate,
	}
}

// lookup checks the local then the remote tier, counting a hit or a miss.
// Remote hits are re-populated into the local tier with the remote's
// remaining TTL as the absolute expiry.
func (s *Store) lookup(ctx context.Context, key string, absTTL, slideTTL time.Duration) ([]byte, bool) {
	now := s.now()

	if e, ok := s.local.Get(key); ok {
		if !e.expired(now) {
			e.touch(now)
			s.recordHit()
			return e.value, true
		}
		s.local.Remove(key)
	}

	if s.remote != nil {
		val, remaining, ok, err := s.remote.Get(ctx, key)
		if err != nil {
			s.log.Warn("remote cache read failed, degrading to local tier", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		} else if ok {
			if remaining <= 0 || remaining > absTTL {
				remaining = absTTL
			}
			s.storeLocal(key, val, remaining, slideTTL)
			s.recordHit()
			return val, true
		}
	}

	s.recordMiss()
	return nil, false
}

// lookupRaw is lookup without knowledge of the caller's TTLs, used by Get.
func (s *Store) lookupRaw(ctx context.Context, key string) ([]byte, bool) {
	now := s.now()

	if e, ok := s.local.Get(key); ok {
		if !e.expired(now) {
			e.touch(now)
			s.recordHit()
			return e.value, true
		}
		s.local.Remove(key)
	}

	if s.remote != nil {
		val, remaining, ok, err := s.remote.Get(ctx, key)
		if err == nil && ok {
			if remaining > 0 {
				s.storeLocal(key, val, remaining, 0)
			}
			s.recordHit()
			return val, true
		}
		if err != nil {
			s.log.Warn("remote cache read failed, degrading to local tier", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}

	s.recordMiss()
	return nil, false
}

func (s *Store) store(ctx context.Context, key string, value []byte, absTTL, slideTTL time.Duration) {
	s.storeLocal(key, value, absTTL, slideTTL)

	if s.remote != nil {
		if err := s.remote.Set(ctx, key, value, absTTL); err != nil {
			s.log.Warn("remote cache write failed, entry is local-only", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}
}

func (s *Store) storeLocal(key string, value []byte, absTTL, slideTTL time.Duration) {
	now := s.now()
	e := &entry{
		value:     value,
		createdAt: now,
		slideTTL:  slideTTL,
	}
	if absTTL > 0 {
		e.absExpiry = now.Add(absTTL)
	}
	e.touch(now)

	if evicted := s.local.Add(key, e); evicted {
		s.evictions.Add(1)
		metrics.CacheOperations.WithLabelValues("eviction").Inc()
	}
	metrics.CacheEntries.Set(float64(s.local.Len()))
}

func (s *Store) recordHit() {
	s.hits.Add(1)
	metrics.CacheOperations.WithLabelValues("hit").Inc()
}

func (s *Store) recordMiss() {
	s.misses.Add(1)
	metrics.CacheOperations.WithLabelValues("miss").Inc()
}
