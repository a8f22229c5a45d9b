package mailprovider

import (
	"sync"
	"time"
)

// ttlCache is a process-local TTL cache used to memoize account-list,
// mailbox-list, and per-email lookups within and across scan sweeps.
// Mutating calls (CreateAccount, UpdatePassword) invalidate the entries
// they make stale.
type ttlCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	store map[string]cacheEntry
}

type cacheEntry struct {
	value   interface{}
	storedAt time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:   ttl,
		now:   time.Now,
		store: make(map[string]cacheEntry),
	}
}

func (c *ttlCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.store[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.store, key)
		return nil, false
	}
	return entry.value, true
}

func (c *ttlCache) set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = cacheEntry{value: value, storedAt: c.now()}
}

func (c *ttlCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

func (c *ttlCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]cacheEntry)
}
