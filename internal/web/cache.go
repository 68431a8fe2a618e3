package web

import (
	"sync"
	"time"

	"famcal/internal/model"
)

// weekEntry is a computed week with its conflicts.
type weekEntry struct {
	week      model.WeekView
	conflicts []model.Conflict
	updatedAt time.Time
}

// weekCache keeps computed weeks keyed by their Monday for a short TTL.
type weekCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]weekEntry
}

func newWeekCache(ttl time.Duration) *weekCache {
	return &weekCache{ttl: ttl, now: time.Now, entries: map[string]weekEntry{}}
}

func (c *weekCache) get(monday time.Time) (weekEntry, bool) {
	c.mu.RLock()
	e, ok := c.entries[monday.Format(dateLayout)]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.updatedAt) >= c.ttl {
		return weekEntry{}, false
	}
	return e, true
}

func (c *weekCache) put(e weekEntry) {
	e.updatedAt = c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	// Prune stale entries.
	for k, old := range c.entries {
		if e.updatedAt.Sub(old.updatedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
	c.entries[e.week.Start.Format(dateLayout)] = e
}

func (c *weekCache) clear() {
	c.mu.Lock()
	c.entries = map[string]weekEntry{}
	c.mu.Unlock()
}
