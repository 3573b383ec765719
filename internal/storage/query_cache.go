package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/inventory-hub/internal/models"
)

// DefaultQueryTTL bounds how long a cached list result is considered fresh
const DefaultQueryTTL = 12 * time.Second

// QueryCacheEntry is a cached list result with its write timestamp
type QueryCacheEntry struct {
	Listings  []models.ListingSummary
	Timestamp time.Time
}

// Fresh reports whether the entry is inside the TTL window at now
func (e *QueryCacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.Timestamp) < ttl
}

// QueryCache is a TTL-bounded in-memory store mapping a filter
// signature to its last result set.
//
// Expired entries are not swept; they stay in the map until the next
// Set overwrites them. Get applies the TTL check and treats an expired
// entry as a miss, while Peek returns whatever is stored regardless of
// age. The orchestrator is the component responsible for trusting only
// fresh entries.
type QueryCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]*QueryCacheEntry

	hits   atomic.Int64
	misses atomic.Int64

	// now is swappable for tests
	now func() time.Time
}

// NewQueryCache creates an empty query cache. A non-positive TTL falls
// back to DefaultQueryTTL.
func NewQueryCache(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	return &QueryCache{
		ttl:     ttl,
		entries: make(map[string]*QueryCacheEntry),
		now:     time.Now,
	}
}

// Get returns the entry for key if present and fresh, nil otherwise.
// An expired entry counts as a miss but is left in place.
func (c *QueryCache) Get(key string) *QueryCacheEntry {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !entry.Fresh(c.now(), c.ttl) {
		c.misses.Add(1)
		return nil
	}

	c.hits.Add(1)
	return entry
}

// Peek returns the stored entry without the freshness check, nil if
// absent. Callers that use Peek own the timestamp check.
func (c *QueryCache) Peek(key string) *QueryCacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key]
}

// Set stores listings under key, overwriting any prior entry
func (c *QueryCache) Set(key string, listings []models.ListingSummary) {
	entry := &QueryCacheEntry{
		Listings:  listings,
		Timestamp: c.now(),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Invalidate removes the entry for key, if any
func (c *QueryCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries
func (c *QueryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*QueryCacheEntry)
	c.mu.Unlock()
}

// TTL returns the configured freshness window
func (c *QueryCache) TTL() time.Duration {
	return c.ttl
}

// Stats returns hit/miss counters since creation
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// SetClock overrides the time source. Test hook.
func (c *QueryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
