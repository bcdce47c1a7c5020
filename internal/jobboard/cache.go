package jobboard

import (
	"context"
	"sync"
	"time"

	"jobwarden/internal/core"
)

const loadPageSize = 100

// PostCache is the ordered store of recently accepted job posts. Entries are
// kept sorted ascending by CreatedAt; frequency eviction always removes a
// prefix. The event pipeline mutates it sequentially, but the HTTP API reads
// snapshots from other goroutines, hence the mutex.
type PostCache struct {
	mu sync.Mutex

	window time.Duration // frequency window, the 7-day class
	bias   time.Duration // forward-looking grace applied to "now" on append

	posts []StoredPost
}

func NewPostCache(window, bias time.Duration) *PostCache {
	return &PostCache{window: window, bias: bias}
}

// Load bootstraps the cache from channel history, paging backward until a
// message older than the frequency window shows up or the channel runs out.
// Messages authored by the bot itself are skipped.
func (c *PostCache) Load(ctx context.Context, src core.MessageSource, channelID, botID string, now time.Time) error {
	var collected []StoredPost
	before := ""

paging:
	for {
		page, err := src.RecentMessages(ctx, channelID, loadPageSize, before)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		for _, msg := range page {
			if now.Sub(msg.Timestamp) > c.window {
				break paging
			}
			before = msg.ID
			if msg.AuthorBot || msg.AuthorID == botID {
				continue
			}
			collected = append(collected, storedFromMessage(msg))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Pages arrive newest first; the cache is oldest first.
	for i := len(collected) - 1; i >= 0; i-- {
		c.insert(collected[i])
	}
	return nil
}

func storedFromMessage(msg core.Message) StoredPost {
	posts := Parse(msg.Content)
	primary := posts[0]
	for _, p := range posts {
		if p.Type() == TypeHiring {
			primary = p
			break
		}
	}

	return StoredPost{
		AuthorID:    msg.AuthorID,
		ChannelID:   msg.ChannelID,
		MessageID:   msg.ID,
		CreatedAt:   msg.Timestamp,
		Type:        primary.Type(),
		Tags:        primary.Tags,
		Description: primary.Description,
	}
}

// Append inserts a post in CreatedAt order and evicts every entry whose age
// exceeds the frequency window. The eviction clock runs ahead by the grace
// bias, so a weekly window effectively opens about a quarter day early.
func (c *PostCache) Append(now time.Time, p StoredPost) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.insert(p)

	cutoff := now.Add(c.bias).Add(-c.window)
	i := 0
	for i < len(c.posts) && c.posts[i].CreatedAt.Before(cutoff) {
		i++
	}
	c.posts = c.posts[i:]
}

// insert keeps ascending CreatedAt order. Callers append in arrival order,
// so this walks back at most a step or two.
func (c *PostCache) insert(p StoredPost) {
	i := len(c.posts)
	for i > 0 && c.posts[i-1].CreatedAt.After(p.CreatedAt) {
		i--
	}
	c.posts = append(c.posts, StoredPost{})
	copy(c.posts[i+1:], c.posts[i:])
	c.posts[i] = p
}

// ByAuthor returns the author's newest entry still inside the frequency
// window. Eviction only runs on append, so on a quiet board an entry can
// outlive the window without being removed; such an entry must not count
// against its author.
func (c *PostCache) ByAuthor(authorID string, now time.Time) (StoredPost, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(c.bias).Add(-c.window)
	for i := len(c.posts) - 1; i >= 0; i-- {
		p := c.posts[i]
		if p.AuthorID == authorID && !p.CreatedAt.Before(cutoff) {
			return p, true
		}
	}
	return StoredPost{}, false
}

// GetByMessage looks up the entry for a message without removing it.
func (c *PostCache) GetByMessage(messageID string) (StoredPost, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.posts {
		if p.MessageID == messageID {
			return p, true
		}
	}
	return StoredPost{}, false
}

func (c *PostCache) Contains(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.posts {
		if p.MessageID == messageID {
			return true
		}
	}
	return false
}

// RemoveByMessage removes the entry for a specific message, wherever it sits.
func (c *PostCache) RemoveByMessage(messageID string) (StoredPost, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, p := range c.posts {
		if p.MessageID == messageID {
			c.posts = append(c.posts[:i], c.posts[i+1:]...)
			return p, true
		}
	}
	return StoredPost{}, false
}

// PurgeAuthor removes all entries for an author and reports how many.
func (c *PostCache) PurgeAuthor(authorID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.posts[:0]
	removed := 0
	for _, p := range c.posts {
		if p.AuthorID == authorID {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	c.posts = kept
	return removed
}

// AgedForHire lists for-hire entries older than maxAge, oldest first.
// Hiring posts are never eligible; they only leave through the frequency
// window or explicit removal.
func (c *PostCache) AgedForHire(now time.Time, maxAge time.Duration) []StoredPost {
	c.mu.Lock()
	defer c.mu.Unlock()

	var aged []StoredPost
	for _, p := range c.posts {
		if now.Sub(p.CreatedAt) <= maxAge {
			break
		}
		if p.Type == TypeForHire {
			aged = append(aged, p)
		}
	}
	return aged
}

// Snapshot returns copies of the cached posts split by type.
func (c *PostCache) Snapshot() (hiring, forHire []StoredPost) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.posts {
		if p.Type == TypeHiring {
			hiring = append(hiring, p)
		} else {
			forHire = append(forHire, p)
		}
	}
	return hiring, forHire
}

func (c *PostCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.posts)
}
