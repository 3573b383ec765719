package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventory-hub/internal/models"
)

func summaries(titles ...string) []models.ListingSummary {
	rows := make([]models.ListingSummary, 0, len(titles))
	for i, title := range titles {
		rows = append(rows, models.ListingSummary{
			ID:        title,
			Title:     title,
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Minute),
		})
	}
	return rows
}

func TestQueryCache_GetWithinTTL(t *testing.T) {
	now := time.Now()
	cache := NewQueryCache(12 * time.Second)
	cache.SetClock(func() time.Time { return now })

	cache.Set("k", summaries("a", "b"))

	now = now.Add(11 * time.Second)
	entry := cache.Get("k")
	require.NotNil(t, entry)
	assert.Len(t, entry.Listings, 2)
}

func TestQueryCache_GetPastTTL(t *testing.T) {
	now := time.Now()
	cache := NewQueryCache(12 * time.Second)
	cache.SetClock(func() time.Time { return now })

	cache.Set("k", summaries("a"))

	now = now.Add(13 * time.Second)
	assert.Nil(t, cache.Get("k"), "expired entry must not be served")

	// Lazy expiry: the entry stays in place until overwritten
	assert.NotNil(t, cache.Peek("k"), "expired entry should still be peekable")
}

func TestQueryCache_SetOverwritesExpiredEntry(t *testing.T) {
	now := time.Now()
	cache := NewQueryCache(12 * time.Second)
	cache.SetClock(func() time.Time { return now })

	cache.Set("k", summaries("old"))
	now = now.Add(time.Minute)

	cache.Set("k", summaries("new"))
	entry := cache.Get("k")
	require.NotNil(t, entry)
	assert.Equal(t, "new", entry.Listings[0].Title)
}

func TestQueryCache_KeysAreIndependent(t *testing.T) {
	cache := NewQueryCache(12 * time.Second)

	cache.Set("a", summaries("one"))
	cache.Set("b", summaries("two", "three"))

	require.NotNil(t, cache.Get("a"))
	require.NotNil(t, cache.Get("b"))
	assert.Len(t, cache.Get("a").Listings, 1)
	assert.Len(t, cache.Get("b").Listings, 2)

	cache.Invalidate("a")
	assert.Nil(t, cache.Get("a"))
	assert.NotNil(t, cache.Get("b"))
}

func TestQueryCache_Clear(t *testing.T) {
	cache := NewQueryCache(12 * time.Second)
	cache.Set("a", summaries("one"))
	cache.Set("b", summaries("two"))

	cache.Clear()

	assert.Nil(t, cache.Peek("a"))
	assert.Nil(t, cache.Peek("b"))
}

func TestQueryCache_Stats(t *testing.T) {
	now := time.Now()
	cache := NewQueryCache(12 * time.Second)
	cache.SetClock(func() time.Time { return now })

	cache.Set("k", summaries("a"))
	cache.Get("k")
	cache.Get("missing")

	now = now.Add(time.Minute)
	cache.Get("k") // expired, counts as miss

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}

func TestQueryCache_DefaultTTL(t *testing.T) {
	cache := NewQueryCache(0)
	assert.Equal(t, DefaultQueryTTL, cache.TTL())
}
