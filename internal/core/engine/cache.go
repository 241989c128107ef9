package engine

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"

	"github.com/bizlens/bizlens/internal/core"
)

// cacheEntry is one stored response. Entries live in both the key map and
// the recency list; the list back is always the least recently used entry.
type cacheEntry struct {
	key       string
	value     json.RawMessage
	createdAt time.Time
	ttl       time.Duration
}

// ResponseCache is a bounded TTL cache with least-recently-used eviction.
//
// It is an in-process optimization only; nothing survives a restart. Hit and
// miss counters feed the status report and carry no correctness weight.
type ResponseCache struct {
	mu        sync.Mutex
	capacity  int
	entries   map[string]*list.Element
	order     *list.List
	hits      int64
	misses    int64
	evictions int64

	Clock func() time.Time
}

// NewResponseCache builds a cache holding at most capacity entries.
func NewResponseCache(capacity int) *ResponseCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ResponseCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached value for key if it is younger than both its stored
// TTL and the caller-supplied maxAge (0 means no override). An entry found
// expired is removed on this access.
func (c *ResponseCache) Get(key string, maxAge time.Duration) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := el.Value.(*cacheEntry)
	now := c.now()
	age := now.Sub(entry.createdAt)
	if age > entry.ttl || (maxAge > 0 && age > maxAge) {
		c.remove(el)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return entry.value, true
}

// Set stores value under key with the given TTL, evicting least recently
// used entries first when over capacity. A TTL of zero or less is a no-op.
func (c *ResponseCache) Set(key string, value json.RawMessage, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.value = value
		entry.createdAt = now
		entry.ttl = ttl
		c.order.MoveToFront(el)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest)
		c.evictions++
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		createdAt: now,
		ttl:       ttl,
	}
	c.entries[key] = c.order.PushFront(entry)
}

// Len returns the current number of entries.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Status reports cache occupancy and hit statistics.
func (c *ResponseCache) Status() core.CacheStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := core.CacheStatus{
		Size:      len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		status.HitRate = float64(c.hits) / float64(total)
	}
	return status
}

// remove drops an entry from both structures. Callers hold the mutex.
func (c *ResponseCache) remove(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.order.Remove(el)
}

func (c *ResponseCache) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
