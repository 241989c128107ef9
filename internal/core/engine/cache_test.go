package engine

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheTTLExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewResponseCache(10)
	cache.Clock = func() time.Time { return now }

	cache.Set("k", json.RawMessage(`{"v":1}`), time.Minute)

	value, ok := cache.Get("k", 0)
	require.True(t, ok)
	require.JSONEq(t, `{"v":1}`, string(value))

	// Past the TTL the entry is treated as absent and removed.
	now = now.Add(time.Minute + time.Second)
	_, ok = cache.Get("k", 0)
	require.False(t, ok)
	require.Equal(t, 0, cache.Len())
}

func TestCacheMaxAgeOverride(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewResponseCache(10)
	cache.Clock = func() time.Time { return now }

	cache.Set("k", json.RawMessage(`1`), time.Hour)

	now = now.Add(10 * time.Minute)

	// Stored TTL still valid, but the caller demands fresher data.
	_, ok := cache.Get("k", 5*time.Minute)
	require.False(t, ok)
	require.Equal(t, 0, cache.Len())
}

func TestCacheLRUEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewResponseCache(3)
	cache.Clock = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("k%d", i), json.RawMessage(`1`), time.Hour)
		now = now.Add(time.Second)
	}

	// Touch k0 so k1 becomes least recently used.
	_, ok := cache.Get("k0", 0)
	require.True(t, ok)
	now = now.Add(time.Second)

	cache.Set("k3", json.RawMessage(`1`), time.Hour)

	require.Equal(t, 3, cache.Len())
	_, ok = cache.Get("k1", 0)
	require.False(t, ok)
	_, ok = cache.Get("k0", 0)
	require.True(t, ok)
	_, ok = cache.Get("k3", 0)
	require.True(t, ok)
}

func TestCacheSetOverwritesExisting(t *testing.T) {
	cache := NewResponseCache(2)

	cache.Set("k", json.RawMessage(`1`), time.Hour)
	cache.Set("k", json.RawMessage(`2`), time.Hour)

	require.Equal(t, 1, cache.Len())
	value, ok := cache.Get("k", 0)
	require.True(t, ok)
	require.Equal(t, `2`, string(value))
}

func TestCacheZeroTTLIsNoop(t *testing.T) {
	cache := NewResponseCache(2)
	cache.Set("k", json.RawMessage(`1`), 0)
	require.Equal(t, 0, cache.Len())
}

func TestCacheStatus(t *testing.T) {
	cache := NewResponseCache(2)

	cache.Set("a", json.RawMessage(`1`), time.Hour)
	_, _ = cache.Get("a", 0)
	_, _ = cache.Get("missing", 0)

	status := cache.Status()
	require.Equal(t, 1, status.Size)
	require.Equal(t, 2, status.Capacity)
	require.Equal(t, int64(1), status.Hits)
	require.Equal(t, int64(1), status.Misses)
	require.InDelta(t, 0.5, status.HitRate, 1e-9)
}
