package storage

import (
	"context"
	"sync"
	"time"

	"github.com/inventory-hub/internal/fields"
	"github.com/inventory-hub/internal/models"
)

// DetailFetcher loads a single listing, scoped to its owner, with the
// given column projection
type DetailFetcher func(ctx context.Context, userID, listingID string, columns []string) (*models.ListingDetail, error)

// detailEntry is a memoized detail projection plus the field groups it covers
type detailEntry struct {
	groups   fields.GroupSet
	detail   *models.ListingDetail
	cachedAt time.Time
}

// inflightDetail is a fetch in progress; waiters block on done
type inflightDetail struct {
	done   chan struct{}
	detail *models.ListingDetail
	err    error
}

// DetailCache memoizes per-listing detail projections.
//
// Entries are keyed by listing id and record which field groups the
// cached projection covers. A request is a hit only when the cached
// groups are a superset of the requested ones; a wider request refetches
// with the union of the old and new groups and replaces the entry. This
// prevents the under-fetch class of bug in both directions: a narrow
// cached entry never silently satisfies a wide request, and a wide
// entry does satisfy a narrow one.
//
// Concurrent requests for the same (id, tier signature) share a single
// fetch; all callers receive the same result. Requests for different
// tiers of the same listing may run concurrently.
//
// Entries have no TTL; they live until invalidated.
type DetailCache struct {
	fetch DetailFetcher

	mu      sync.RWMutex
	entries map[string]*detailEntry

	inflightMu sync.Mutex
	inflight   map[string]*inflightDetail
	loading    map[string]int // listing id -> outstanding fetch count

	// now is swappable for tests
	now func() time.Time
}

// NewDetailCache creates a detail cache backed by the given fetcher
func NewDetailCache(fetch DetailFetcher) *DetailCache {
	return &DetailCache{
		fetch:    fetch,
		entries:  make(map[string]*detailEntry),
		inflight: make(map[string]*inflightDetail),
		loading:  make(map[string]int),
		now:      time.Now,
	}
}

// LoadDetail returns the detail projection for a listing covering at
// least the requested field groups, fetching on miss. A failed fetch
// returns the error, caches nothing, and leaves any prior entry intact.
func (c *DetailCache) LoadDetail(ctx context.Context, userID, listingID string, requested fields.GroupSet) (*models.ListingDetail, error) {
	c.mu.RLock()
	entry, ok := c.entries[listingID]
	c.mu.RUnlock()

	if ok && entry.groups.Superset(requested) {
		return entry.detail, nil
	}

	// Miss, or cached tier too narrow: fetch the union so the replaced
	// entry covers everything seen so far.
	fetchGroups := requested
	if ok {
		fetchGroups = entry.groups.Union(requested)
	}

	key := listingID + "|" + fetchGroups.Signature()

	c.inflightMu.Lock()
	if flight, exists := c.inflight[key]; exists {
		c.inflightMu.Unlock()
		select {
		case <-flight.done:
			return flight.detail, flight.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	flight := &inflightDetail{done: make(chan struct{})}
	c.inflight[key] = flight
	c.loading[listingID]++
	c.inflightMu.Unlock()

	detail, err := c.fetch(ctx, userID, listingID, fields.Resolve(fetchGroups))
	if err == nil && detail != nil {
		c.mu.Lock()
		c.entries[listingID] = &detailEntry{
			groups:   fetchGroups,
			detail:   detail,
			cachedAt: c.now(),
		}
		c.mu.Unlock()
	}

	flight.detail = detail
	flight.err = err

	c.inflightMu.Lock()
	delete(c.inflight, key)
	c.loading[listingID]--
	if c.loading[listingID] <= 0 {
		delete(c.loading, listingID)
	}
	c.inflightMu.Unlock()

	close(flight.done)

	return detail, err
}

// IsLoadingDetails reports whether any detail fetch for the listing is
// outstanding. UI consumers poll this instead of awaiting a shared
// promise.
func (c *DetailCache) IsLoadingDetails(listingID string) bool {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	return c.loading[listingID] > 0
}

// CachedGroups returns the field groups the cached entry covers, nil if
// the listing is not cached.
func (c *DetailCache) CachedGroups(listingID string) fields.GroupSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.entries[listingID]; ok {
		return entry.groups
	}
	return nil
}

// Invalidate drops the cached entry for a listing
func (c *DetailCache) Invalidate(listingID string) {
	c.mu.Lock()
	delete(c.entries, listingID)
	c.mu.Unlock()
}

// Clear drops all cached entries
func (c *DetailCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*detailEntry)
	c.mu.Unlock()
}
