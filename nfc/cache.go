package nfc

import (
	"sync"
	"time"
)

// TagCache tracks which tags are in the field so that each tag is reported
// once per arrival. A tag not observed for the presence timeout is
// considered removed.
type TagCache struct {
	lastSeen map[string]time.Time
	lastUID  string
	timeout  time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

// NewTagCache creates a TagCache. A non-positive timeout uses TagPresenceTimeout.
func NewTagCache(timeout time.Duration) *TagCache {
	if timeout <= 0 {
		timeout = TagPresenceTimeout
	}
	return &TagCache{
		lastSeen: make(map[string]time.Time),
		timeout:  timeout,
		now:      time.Now,
	}
}

// Observe records that uid is in the field and reports whether it just arrived.
func (c *TagCache) Observe(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, present := c.lastSeen[uid]
	c.lastSeen[uid] = c.now()
	c.lastUID = uid
	return !present
}

// Sweep forgets tags not observed within the presence timeout and returns their UIDs.
func (c *TagCache) Sweep() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	now := c.now()
	for uid, seen := range c.lastSeen {
		if now.Sub(seen) >= c.timeout {
			delete(c.lastSeen, uid)
			removed = append(removed, uid)
		}
	}
	return removed
}

// GetLastScanned returns the UID of the most recently observed tag.
func (c *TagCache) GetLastScanned() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUID
}

// IsCardPresent reports whether any tag is currently tracked.
func (c *TagCache) IsCardPresent() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lastSeen) > 0
}

// Clear removes all entries from the cache.
func (c *TagCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = make(map[string]time.Time)
	c.lastUID = ""
}
