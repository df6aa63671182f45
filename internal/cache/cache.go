package cache

import (
	"sync"
	"time"

	"github.com/newscope/news-scraper/backend/internal/models"
)

type entry struct {
	key string
	ts  time.Time
}

type item struct {
	ts       time.Time
	articles []models.Article
}

// Cache keeps a fixed-size set of recently served search results, keyed by
// the full filter set of the request that produced them.
type Cache struct {
	mu       sync.Mutex
	items    map[string]item
	order    []entry
	capacity int
	ttl      time.Duration
}

// New creates a cache with the provided capacity and ttl.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		items:    make(map[string]item, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get returns the cached result set for key when it is still inside the
// ttl window.
func (c *Cache) Get(key string) ([]models.Article, bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok {
		if now.Sub(it.ts) <= c.ttl {
			return it.articles, true
		}
	}
	return nil, false
}

// Set stores a result set, evicting expired and over-capacity entries.
func (c *Cache) Set(key string, articles []models.Article) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{ts: now, articles: articles}
	c.order = append(c.order, entry{key: key, ts: now})
	c.compact(now)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.items) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if it, ok := c.items[oldest.key]; ok {
			if it.ts == oldest.ts {
				delete(c.items, oldest.key)
			}
		}
	}
}
