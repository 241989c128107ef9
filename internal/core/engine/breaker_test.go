package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(3, time.Minute)
	b.Clock = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		b.OnFailure()
		require.Equal(t, BreakerClosed, b.State())
		require.True(t, b.Allow())
	}

	b.OnFailure()
	require.Equal(t, BreakerOpen, b.State())
	require.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute)

	b.OnFailure()
	b.OnFailure()
	b.OnSuccess()
	require.Equal(t, 0, b.Failures())

	// Two more failures must not open it: the counter restarted.
	b.OnFailure()
	b.OnFailure()
	require.Equal(t, BreakerClosed, b.State())
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(1, time.Minute)
	b.Clock = func() time.Time { return now }

	b.OnFailure()
	require.Equal(t, BreakerOpen, b.State())
	require.False(t, b.Allow())

	// Cooldown elapsed: exactly one trial call passes.
	now = now.Add(time.Minute)
	require.True(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())
	require.False(t, b.Allow())

	b.OnSuccess()
	require.Equal(t, BreakerClosed, b.State())
	require.Equal(t, 0, b.Failures())
	require.True(t, b.Allow())
}

func TestBreakerReleaseReturnsTrialToOpen(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(1, time.Minute)
	b.Clock = func() time.Time { return now }

	b.OnFailure()
	now = now.Add(time.Minute)
	require.True(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())

	// An abandoned trial goes back to open, never a dead end; the elapsed
	// cooldown lets the next caller start a fresh trial at once.
	b.Release()
	require.Equal(t, BreakerOpen, b.State())
	require.True(t, b.Allow())
	require.Equal(t, BreakerHalfOpen, b.State())
}

func TestBreakerReleaseOutsideTrialIsNoop(t *testing.T) {
	b := NewCircuitBreaker(2, time.Minute)
	b.Release()
	require.Equal(t, BreakerClosed, b.State())
	require.True(t, b.Allow())
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(1, time.Minute)
	b.Clock = func() time.Time { return now }

	b.OnFailure()
	now = now.Add(time.Minute)
	require.True(t, b.Allow())

	// Failed trial restarts the recovery timer.
	b.OnFailure()
	require.Equal(t, BreakerOpen, b.State())

	now = now.Add(30 * time.Second)
	require.False(t, b.Allow())

	now = now.Add(30 * time.Second)
	require.True(t, b.Allow())
}
