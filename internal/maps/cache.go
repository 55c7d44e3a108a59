package maps

import (
	"sync"
	"time"
)

type cachedMatrix struct {
	resp      *MatrixResponse
	fetchedAt time.Time
}

// matrixCache keeps distance-matrix answers for ttl. A zero ttl disables it.
type matrixCache struct {
	mu      sync.RWMutex
	entries map[string]cachedMatrix
	ttl     time.Duration
}

func newMatrixCache(ttl time.Duration) *matrixCache {
	return &matrixCache{entries: make(map[string]cachedMatrix), ttl: ttl}
}

func (c *matrixCache) Get(key string) *MatrixResponse {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.fetchedAt) > c.ttl {
		return nil
	}
	return entry.resp
}

func (c *matrixCache) Set(key string, resp *MatrixResponse) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cachedMatrix{resp: resp, fetchedAt: time.Now()}
}
