package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/bizlens/bizlens/internal/core"
)

// CacheKey derives a deterministic key for a request: identical service,
// path, method, params, and body always map to the same key regardless of
// map iteration order.
func CacheKey(spec core.RequestSpec) string {
	h := sha256.New()
	_, _ = io.WriteString(h, spec.Service)
	_, _ = io.WriteString(h, "\x00")
	_, _ = io.WriteString(h, spec.Path)
	_, _ = io.WriteString(h, "\x00")
	_, _ = io.WriteString(h, strings.ToUpper(spec.Method))
	_, _ = io.WriteString(h, "\x00")

	keys := make([]string, 0, len(spec.Params))
	for k := range spec.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = io.WriteString(h, k)
		_, _ = io.WriteString(h, "=")
		_, _ = io.WriteString(h, spec.Params[k])
		_, _ = io.WriteString(h, "&")
	}

	if len(spec.Body) > 0 {
		// encoding/json sorts map keys, so this is canonical.
		if encoded, err := json.Marshal(spec.Body); err == nil {
			_, _ = h.Write(encoded)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
