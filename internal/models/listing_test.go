package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilterSpec_CacheKeyCanonical(t *testing.T) {
	a := FilterSpec{SearchTerm: "lamp", StatusFilter: "active", PageSize: 12}
	b := FilterSpec{PageSize: 12, StatusFilter: "active", SearchTerm: "lamp"}

	assert.Equal(t, a.CacheKey(), b.CacheKey(), "equal specs must map to identical keys")
}

func TestFilterSpec_CacheKeyDistinguishesSpecs(t *testing.T) {
	base := FilterSpec{PageSize: 12}

	variants := []FilterSpec{
		{SearchTerm: "lamp", PageSize: 12},
		{StatusFilter: "sold", PageSize: 12},
		{CategoryFilter: "lighting", PageSize: 12},
		{PageSize: 24},
	}

	for _, v := range variants {
		assert.NotEqual(t, base.CacheKey(), v.CacheKey(), "spec %+v must have its own key", v)
	}
}

func TestFilterSpec_CacheKeyFieldOrder(t *testing.T) {
	key := FilterSpec{SearchTerm: "x", StatusFilter: "active", CategoryFilter: "c", PageSize: 1}.CacheKey()

	// Alphabetical field order keeps the serialization canonical
	assert.Equal(t, `{"categoryFilter":"c","pageSize":1,"searchTerm":"x","statusFilter":"active"}`, key)
}

func TestFilterSpec_Equal(t *testing.T) {
	a := FilterSpec{SearchTerm: "lamp", PageSize: 12}

	assert.True(t, a.Equal(FilterSpec{SearchTerm: "lamp", PageSize: 12}))
	assert.False(t, a.Equal(FilterSpec{SearchTerm: "lamp", PageSize: 18}))
	assert.False(t, a.Equal(FilterSpec{SearchTerm: "desk", PageSize: 12}))
}

func TestFallbackSnapshot_Stale(t *testing.T) {
	saved := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	snapshot := FallbackSnapshot{SavedAt: saved}

	assert.False(t, snapshot.Stale(saved))
	assert.False(t, snapshot.Stale(saved.Add(FallbackMaxAge-time.Second)))
	assert.True(t, snapshot.Stale(saved.Add(FallbackMaxAge+time.Second)))
}
