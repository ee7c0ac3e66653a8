// Package ratelimit implements sliding-window admission control keyed by
// client identity.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"grantmatch/internal/common/metrics"
)

// UnknownClient is the fallback bucket when no identity can be resolved.
// Unidentifiable traffic degrades to shared limiting instead of bypassing it.
const UnknownClient = "unknown"

// Window is one admission horizon: at most Limit requests per Duration.
type Window struct {
	Duration time.Duration
	Limit    int
}

// Decision is the result of an admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is the time until the oldest counted request ages out of
	// the shortest violated window. Zero when Allowed.
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds for the
// Retry-After response header.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// clientState holds one client's request history behind its own lock, so
// admission checks for one client never block another.
type clientState struct {
	mu sync.Mutex
	// timestamps is time-ordered, pruned to the longest window on each check.
	timestamps []time.Time
	lastSeen   time.Time
}

// Limiter admits or rejects requests against every configured window
// simultaneously. Safe for concurrent use.
type Limiter struct {
	windows []Window
	longest time.Duration

	mu      sync.RWMutex // guards the clients map only
	clients map[string]*clientState

	now func() time.Time
}

// New creates a Limiter. Windows are checked together: a request is admitted
// only if it fits within every window.
func New(windows ...Window) *Limiter {
	longest := time.Duration(0)
	for _, w := range windows {
		if w.Duration > longest {
			longest = w.Duration
		}
	}
	return &Limiter{
		windows: windows,
		longest: longest,
		clients: make(map[string]*clientState),
		now:     time.Now,
	}
}

// NewDefault creates a Limiter with the standard per-minute and
// per-five-minute horizons.
func NewDefault(perMinute, perFiveMinute int) *Limiter {
	return New(
		Window{Duration: time.Minute, Limit: perMinute},
		Window{Duration: 5 * time.Minute, Limit: perFiveMinute},
	)
}

// Admit records and admits the request unless any window is already full.
// Rejected requests are not counted against the client.
func (l *Limiter) Admit(clientID string) Decision {
	if clientID == "" {
		clientID = UnknownClient
	}
	now := l.now()
	state := l.clientFor(clientID)

	state.mu.Lock()
	defer state.mu.Unlock()
	state.lastSeen = now

	// Prune anything older than the longest horizon.
	horizon := now.Add(-l.longest)
	pruned := state.timestamps[:0]
	for _, ts := range state.timestamps {
		if ts.After(horizon) {
			pruned = append(pruned, ts)
		}
	}
	state.timestamps = pruned

	retryAfter := time.Duration(0)
	for _, w := range l.windows {
		cutoff := now.Add(-w.Duration)
		count := 0
		oldest := time.Time{}
		for _, ts := range state.timestamps {
			if ts.After(cutoff) {
				if oldest.IsZero() {
					oldest = ts
				}
				count++
			}
		}
		if count >= w.Limit {
			wait := oldest.Add(w.Duration).Sub(now)
			if retryAfter == 0 || wait < retryAfter {
				retryAfter = wait
			}
		}
	}

	if retryAfter > 0 {
		metrics.RateLimitRejections.Inc()
		return Decision{Allowed: false, RetryAfter: retryAfter}
	}

	state.timestamps = append(state.timestamps, now)
	return Decision{Allowed: true}
}

func (l *Limiter) clientFor(clientID string) *clientState {
	l.mu.RLock()
	state, ok := l.clients[clientID]
	l.mu.RUnlock()
	if ok {
		return state
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if state, ok = l.clients[clientID]; ok {
		return state
	}
	state = &clientState{}
	l.clients[clientID] = state
	return state
}

// GC drops state for clients idle longer than the longest horizon, bounding
// memory under churny client populations. Returns the number removed.
func (l *Limiter) GC() int {
	now := l.now()
	cutoff := now.Add(-l.longest)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, state := range l.clients {
		state.mu.Lock()
		idle := state.lastSeen.Before(cutoff)
		state.mu.Unlock()
		if idle {
			delete(l.clients, id)
			removed++
		}
	}
	return removed
}

// RunGC runs GC on the given interval until stop is closed.
func (l *Limiter) RunGC(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.GC()
		case <-stop:
			return
		}
	}
}
