package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bizlens/bizlens/internal/core"
)

func TestCacheKeyDeterministic(t *testing.T) {
	a := core.RequestSpec{
		Service: "maps",
		Path:    "/search",
		Method:  "get",
		Params:  map[string]string{"q": "cafe", "limit": "5", "radius": "2km"},
		Body:    map[string]any{"filters": []any{"open_now"}, "zoom": 12},
	}
	b := core.RequestSpec{
		Service: "maps",
		Path:    "/search",
		Method:  "GET",
		Params:  map[string]string{"radius": "2km", "limit": "5", "q": "cafe"},
		Body:    map[string]any{"zoom": 12, "filters": []any{"open_now"}},
	}

	require.Equal(t, CacheKey(a), CacheKey(b))
}

func TestCacheKeyDiscriminates(t *testing.T) {
	base := core.RequestSpec{Service: "maps", Path: "/search", Params: map[string]string{"q": "cafe"}}

	variants := []core.RequestSpec{
		{Service: "reviews", Path: "/search", Params: map[string]string{"q": "cafe"}},
		{Service: "maps", Path: "/lookup", Params: map[string]string{"q": "cafe"}},
		{Service: "maps", Path: "/search", Method: "POST", Params: map[string]string{"q": "cafe"}},
		{Service: "maps", Path: "/search", Params: map[string]string{"q": "bar"}},
		{Service: "maps", Path: "/search", Params: map[string]string{"q": "cafe"}, Body: map[string]any{"x": 1}},
	}

	seen := map[string]bool{CacheKey(base): true}
	for _, spec := range variants {
		key := CacheKey(spec)
		require.False(t, seen[key], "collision for %+v", spec)
		seen[key] = true
	}
}

func TestCacheKeyIgnoresTTL(t *testing.T) {
	a := core.RequestSpec{Service: "maps", Path: "/x"}
	b := core.RequestSpec{Service: "maps", Path: "/x", CacheTTL: time.Hour}
	require.Equal(t, CacheKey(a), CacheKey(b))
}
