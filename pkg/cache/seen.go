package cache

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SeenCache remembers keys for a fixed TTL. It is a best-effort filter in front of idempotent
// work, so losing it on restart only costs a repeated lookup.
type SeenCache struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
	log     *logrus.Entry
}

func NewSeenCache(ttl time.Duration, logger *logrus.Logger) *SeenCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SeenCache{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
		log:     logger.WithField("component", "seen_cache"),
	}
}

// Seen reports whether key was marked within the TTL.
func (c *SeenCache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	marked, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(marked) > c.ttl {
		delete(c.entries, key)
		return false
	}
	c.log.WithField("key", key).Debug("seen cache hit")
	return true
}

func (c *SeenCache) Mark(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = now
	for k, marked := range c.entries {
		if now.Sub(marked) > c.ttl {
			delete(c.entries, k)
		}
	}
}

func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
