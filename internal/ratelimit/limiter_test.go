package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(perMinute, perFiveMinute int) (*Limiter, *time.Time) {
	l := NewDefault(perMinute, perFiveMinute)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestAdmit_AllowsUpToLimitWithinMinute(t *testing.T) {
	l, clock := newTestLimiter(5, 100)

	for i := 0; i < 5; i++ {
		d := l.Admit("client-a")
		assert.True(t, d.Allowed, "request %d should be admitted", i+1)
		*clock = clock.Add(time.Second)
	}

	d := l.Admit("client-a")
	assert.False(t, d.Allowed, "request over the per-minute limit must be rejected")
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}

func TestAdmit_ResumesAfterWindowRollsOver(t *testing.T) {
	l, clock := newTestLimiter(3, 100)

	for i := 0; i < 3; i++ {
		require.True(t, l.Admit("client-a").Allowed)
	}
	require.False(t, l.Admit("client-a").Allowed)

	// Just past the minute boundary the oldest request ages out.
	*clock = clock.Add(time.Minute + time.Millisecond)
	assert.True(t, l.Admit("client-a").Allowed)
}

func TestAdmit_RetryAfterTracksOldestRequest(t *testing.T) {
	l, clock := newTestLimiter(2, 100)

	require.True(t, l.Admit("c").Allowed) // t=0
	*clock = clock.Add(20 * time.Second)
	require.True(t, l.Admit("c").Allowed) // t=20s

	*clock = clock.Add(10 * time.Second) // t=30s
	d := l.Admit("c")
	require.False(t, d.Allowed)
	// Oldest counted request (t=0) ages out of the 1m window at t=60s.
	assert.Equal(t, 30*time.Second, d.RetryAfter)
	assert.Equal(t, 30, d.RetryAfterSeconds())
}

func TestAdmit_LongerHorizonAlsoEnforced(t *testing.T) {
	l, clock := newTestLimiter(10, 12)

	// Spread requests so the per-minute window never fills but the
	// five-minute one does.
	admitted := 0
	for i := 0; i < 12; i++ {
		if l.Admit("c").Allowed {
			admitted++
		}
		*clock = clock.Add(10 * time.Second)
	}
	require.Equal(t, 12, admitted)

	d := l.Admit("c")
	assert.False(t, d.Allowed, "five-minute horizon must reject even when the minute horizon has room")
}

func TestAdmit_RejectedRequestsNotCounted(t *testing.T) {
	l, clock := newTestLimiter(2, 100)

	require.True(t, l.Admit("c").Allowed)
	require.True(t, l.Admit("c").Allowed)
	for i := 0; i < 10; i++ {
		require.False(t, l.Admit("c").Allowed)
	}

	// Both counted requests age out together; hammering while limited must
	// not have extended the window.
	*clock = clock.Add(time.Minute + time.Millisecond)
	assert.True(t, l.Admit("c").Allowed)
}

func TestAdmit_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, 100)

	require.True(t, l.Admit("client-a").Allowed)
	require.False(t, l.Admit("client-a").Allowed)
	assert.True(t, l.Admit("client-b").Allowed, "client-b must not share client-a's window")
}

func TestAdmit_EmptyClientFallsBackToUnknownBucket(t *testing.T) {
	l, _ := newTestLimiter(1, 100)

	require.True(t, l.Admit("").Allowed)
	d := l.Admit("")
	assert.False(t, d.Allowed, "anonymous requests share the unknown bucket")

	l.mu.RLock()
	_, ok := l.clients[UnknownClient]
	l.mu.RUnlock()
	assert.True(t, ok)
}

func TestGC_DropsIdleClients(t *testing.T) {
	l, clock := newTestLimiter(10, 100)

	l.Admit("stale")
	*clock = clock.Add(6 * time.Minute)
	l.Admit("fresh")

	removed := l.GC()
	assert.Equal(t, 1, removed)

	l.mu.RLock()
	defer l.mu.RUnlock()
	_, staleOK := l.clients["stale"]
	_, freshOK := l.clients["fresh"]
	assert.False(t, staleOK)
	assert.True(t, freshOK)
}

func TestAdmit_ConcurrentClients(t *testing.T) {
	l := NewDefault(1000, 5000)

	var wg sync.WaitGroup
	for c := 0; c < 8; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			id := fmt.Sprintf("client-%d", c)
			for i := 0; i < 200; i++ {
				l.Admit(id)
			}
		}(c)
	}
	wg.Wait()

	// Every client stayed under its limits, so all requests were recorded.
	l.mu.RLock()
	defer l.mu.RUnlock()
	assert.Len(t, l.clients, 8)
	for _, state := range l.clients {
		assert.Len(t, state.timestamps, 200)
	}
}
