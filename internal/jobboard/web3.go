package jobboard

import (
	"sync"
	"time"
)

// offenderRecord tracks one author's escalation state. The record is live
// while less than base×Count has passed since Last; after that it counts as
// expired and the next offense starts over at 1.
type offenderRecord struct {
	Count int
	Last  time.Time
}

// OffenderCache holds escalating cooldowns for authors who posted banned
// content. Per-author transitions: clean → flagged(1) → flagged(2) → …,
// back to clean only once the scaled cooldown elapses untouched.
type OffenderCache struct {
	mu sync.Mutex

	base    time.Duration
	records map[string]offenderRecord
}

func NewOffenderCache(base time.Duration) *OffenderCache {
	return &OffenderCache{
		base:    base,
		records: map[string]offenderRecord{},
	}
}

// Active returns the current offense count if the author is inside a live
// cooldown window. Expired records are dropped on the way.
func (c *OffenderCache) Active(authorID string, now time.Time) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[authorID]
	if !ok {
		return 0, false
	}
	if c.expired(rec, now) {
		delete(c.records, authorID)
		return 0, false
	}
	return rec.Count, true
}

// Record registers an offense: increments a live record, otherwise starts a
// fresh one at 1. Returns the new count.
func (c *OffenderCache) Record(authorID string, now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.records[authorID]
	if !ok || c.expired(rec, now) {
		rec = offenderRecord{}
	}

	rec.Count++
	rec.Last = now
	c.records[authorID] = rec
	return rec.Count
}

// Cooldown is the timeout duration matching an offense count.
func (c *OffenderCache) Cooldown(count int) time.Duration {
	return c.base * time.Duration(count)
}

func (c *OffenderCache) Forget(authorID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, authorID)
}

func (c *OffenderCache) expired(rec offenderRecord, now time.Time) bool {
	return now.Sub(rec.Last) >= c.Cooldown(rec.Count)
}
