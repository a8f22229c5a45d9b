// Package templatecache deduplicates classification work within a single
// scan run: once a template fingerprint has been classified, later
// messages sharing that fingerprint reuse the result instead of making a
// second rules/LLM pass. The cache is scoped to one scan and discarded
// when it ends — it is not a persistent store.
package templatecache

import (
	"sync"

	"github.com/ignite/fleetwatch/internal/domain"
)

// Cache is a scan-scoped fingerprint-to-classification map. Safe for
// concurrent use by the pipeline's worker pool.
type Cache struct {
	mu   sync.RWMutex
	data map[string]domain.Classification

	hits   int
	misses int
}

// New returns an empty cache ready for one scan run.
func New() *Cache {
	return &Cache{data: make(map[string]domain.Classification)}
}

// Get looks up a fingerprint. A hit returns the cached classification with
// its source suffixed "_dedup"; the underlying entry is left untouched so
// repeated hits keep returning the original source tier.
func (c *Cache) Get(fingerprint string) (domain.Classification, bool) {
	c.mu.RLock()
	cl, ok := c.data[fingerprint]
	c.mu.RUnlock()

	if !ok {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return domain.Classification{}, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return cl.AsDedup(), true
}

// Put records the classification that should be served for future hits on
// this fingerprint. Classifications already marked dedup are stored as-is
// so the cache never nests "_dedup" suffixes.
func (c *Cache) Put(fingerprint string, cl domain.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[fingerprint]; !exists {
		c.data[fingerprint] = cl
	}
}

// Stats reports hit/miss/size counters for end-of-scan logging.
type Stats struct {
	Hits   int
	Misses int
	Size   int
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: len(c.data)}
}
