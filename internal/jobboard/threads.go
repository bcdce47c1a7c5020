package jobboard

import (
	"sync"
	"time"
)

type threadEntry struct {
	threadID string
	touched  time.Time
}

// ThreadCache is the find-or-create map of per-author moderation threads.
// It is bounded both by TTL and by capacity: stale entries expire lazily
// and the least recently touched entry makes room when the cap is hit.
type ThreadCache struct {
	mu sync.Mutex

	ttl      time.Duration
	capacity int
	entries  map[string]threadEntry
}

func NewThreadCache(ttl time.Duration, capacity int) *ThreadCache {
	return &ThreadCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  map[string]threadEntry{},
	}
}

func (c *ThreadCache) Get(authorID string, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[authorID]
	if !ok {
		return "", false
	}
	if now.Sub(e.touched) > c.ttl {
		delete(c.entries, authorID)
		return "", false
	}

	e.touched = now
	c.entries[authorID] = e
	return e.threadID, true
}

func (c *ThreadCache) Put(authorID, threadID string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[authorID]; !ok && len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[authorID] = threadEntry{threadID: threadID, touched: now}
}

func (c *ThreadCache) evictOldest() {
	var oldest string
	var oldestAt time.Time
	for author, e := range c.entries {
		if oldest == "" || e.touched.Before(oldestAt) {
			oldest = author
			oldestAt = e.touched
		}
	}
	if oldest != "" {
		delete(c.entries, oldest)
	}
}

func (c *ThreadCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
