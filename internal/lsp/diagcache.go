package lsp

import (
	"sync"
	"time"
)

// diagCacheMaxAge is how long a cached diagnostics result may live before the
// periodic sweep evicts it.
const diagCacheMaxAge = time.Hour

// diagCacheSweepInterval is how often the background sweep runs.
const diagCacheSweepInterval = 30 * time.Minute

type diagEntry struct {
	content     string
	diagnostics []lspDiagnostic
	computedAt  time.Time
}

// diagCache memoizes diagnostics per resolved file path. A hit requires the
// exact same content bytes; any edit, including whitespace, is a miss. Entries
// are only advisory, eviction can never change a published result.
type diagCache struct {
	mu      sync.Mutex
	entries map[string]diagEntry
}

func newDiagCache() *diagCache {
	return &diagCache{entries: make(map[string]diagEntry)}
}

func (c *diagCache) get(path, content string) ([]lspDiagnostic, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[path]
	if !ok || entry.content != content {
		return nil, false
	}
	return entry.diagnostics, true
}

func (c *diagCache) put(path, content string, diagnostics []lspDiagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = diagEntry{
		content:     content,
		diagnostics: diagnostics,
		computedAt:  time.Now(),
	}
}

func (c *diagCache) remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// sweep evicts entries older than maxAge and reports how many were removed.
func (c *diagCache) sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for path, entry := range c.entries {
		if entry.computedAt.Before(cutoff) {
			delete(c.entries, path)
			removed++
		}
	}
	return removed
}

func (c *diagCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
