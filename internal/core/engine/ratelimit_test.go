package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2)
	limiter.Clock = func() time.Time { return now }

	require.True(t, limiter.Reserve())
	require.True(t, limiter.Reserve())

	require.False(t, limiter.Reserve())
	require.Equal(t, 2, limiter.InWindow())

	// Reservations never exceed the limit inside one window.
	now = now.Add(59 * time.Second)
	require.False(t, limiter.Reserve())

	// Oldest admissions leave the window and free slots.
	now = now.Add(2 * time.Second)
	require.True(t, limiter.Reserve())
	require.Equal(t, 1, limiter.InWindow())
}

func TestRateLimiterWaitTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1)
	limiter.Clock = func() time.Time { return now }

	require.True(t, limiter.Reserve())

	now = now.Add(20 * time.Second)
	require.Equal(t, 40*time.Second, limiter.WaitTime())
}

func TestRateLimiterWaitTimeEmptyWindow(t *testing.T) {
	limiter := NewRateLimiter(5)
	require.Equal(t, emptyWindowWait, limiter.WaitTime())
}

func TestRateLimiterDeniedReservationsLeaveNoTrace(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1)
	limiter.Clock = func() time.Time { return now }

	require.True(t, limiter.Reserve())
	for i := 0; i < 10; i++ {
		require.False(t, limiter.Reserve())
	}
	require.Equal(t, 1, limiter.InWindow())
}

func TestRateLimiterReleaseFreesSlot(t *testing.T) {
	limiter := NewRateLimiter(1)

	require.True(t, limiter.Reserve())
	require.False(t, limiter.Reserve())

	limiter.Release()
	require.Equal(t, 0, limiter.InWindow())
	require.True(t, limiter.Reserve())
}

func TestRateLimiterReleaseEmptyWindowIsNoop(t *testing.T) {
	limiter := NewRateLimiter(1)
	limiter.Release()
	require.Equal(t, 0, limiter.InWindow())
}

func TestRateLimiterConcurrentReserve(t *testing.T) {
	limiter := NewRateLimiter(3)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Reserve() {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(3), admitted.Load())
	require.Equal(t, 3, limiter.InWindow())
}
