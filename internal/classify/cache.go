package classify

import (
	"sync"

	"github.com/switchyardhq/switchyard/internal/event"
)

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int     `json:"hits"`
	Misses  int     `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// resultCache memoizes classification results keyed by content fingerprint.
// Entries never expire; Clear is the only eviction path.
type resultCache struct {
	mu      sync.Mutex
	entries map[string]event.ClassificationResult
	hits    int
	misses  int
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]event.ClassificationResult)}
}

func (c *resultCache) Get(key string) (event.ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return res, ok
}

func (c *resultCache) Put(key string, res event.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = res
}

func (c *resultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]event.ClassificationResult)
}

func (c *resultCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := CacheStats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	return stats
}
