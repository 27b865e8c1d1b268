package client

import (
	"sync"
	"time"

	"github.com/peopledeck/peopledeck/internal/models"
)

// pageCache keeps successful pages keyed by request signature. Entries expire
// after the TTL; on overflow the cache first purges expired entries, then
// evicts by insertion order (approximate LRU, oldest-inserted first).
type pageCache struct {
	mu       sync.Mutex
	entries  map[string]pageEntry
	order    []string
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

type pageEntry struct {
	page      *models.Page
	fetchedAt time.Time
}

func newPageCache(ttl time.Duration, capacity int) *pageCache {
	return &pageCache{
		entries:  make(map[string]pageEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

func (c *pageCache) get(sig string) (*models.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[sig]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) > c.ttl {
		c.remove(sig)
		return nil, false
	}
	return e.page, true
}

func (c *pageCache) put(sig string, page *models.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[sig]; ok {
		c.entries[sig] = pageEntry{page: page, fetchedAt: c.now()}
		return
	}

	if len(c.entries) >= c.capacity {
		c.purgeExpired()
	}
	for len(c.entries) >= c.capacity && len(c.order) > 0 {
		c.remove(c.order[0])
	}

	c.entries[sig] = pageEntry{page: page, fetchedAt: c.now()}
	c.order = append(c.order, sig)
}

func (c *pageCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *pageCache) purgeExpired() {
	cutoff := c.now().Add(-c.ttl)
	for sig, e := range c.entries {
		if e.fetchedAt.Before(cutoff) {
			c.remove(sig)
		}
	}
}

func (c *pageCache) remove(sig string) {
	delete(c.entries, sig)
	for i, s := range c.order {
		if s == sig {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
