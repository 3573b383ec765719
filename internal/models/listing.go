// Package models defines the data structures persisted and served by the inventory hub.
package models

import (
	"encoding/json"
	"time"

	"github.com/inventory-hub/internal/types"
)

// ListingSummary is the minimal projection of a listing, always fetchable
// in a single round trip per page.
type ListingSummary struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Price         float64                `json:"price"`
	Status        types.ListingStatus    `json:"status"`
	Category      string                 `json:"category"`
	Condition     types.ListingCondition `json:"condition"`
	CreatedAt     time.Time              `json:"createdAt"`
	FirstPhotoRef *string                `json:"firstPhotoRef,omitempty"`
}

// ListingDetail is the full projection, a superset of ListingSummary.
// Optional fields are pointers: nil means the field was not part of the
// requested projection, which is distinct from an empty value.
type ListingDetail struct {
	ListingSummary

	UpdatedAt         time.Time  `json:"updatedAt"`
	Description       *string    `json:"description,omitempty"`
	Photos            []string   `json:"photos,omitempty"`
	Measurements      *string    `json:"measurements,omitempty"`
	Keywords          []string   `json:"keywords,omitempty"`
	PurchasePrice     *float64   `json:"purchasePrice,omitempty"`
	NetProfit         *float64   `json:"netProfit,omitempty"`
	ProfitMargin      *float64   `json:"profitMargin,omitempty"`
	PurchaseDate      *time.Time `json:"purchaseDate,omitempty"`
	ConsignmentStatus *string    `json:"consignmentStatus,omitempty"`
	SourceType        *string    `json:"sourceType,omitempty"`
	SourceLocation    *string    `json:"sourceLocation,omitempty"`
	CostBasis         *float64   `json:"costBasis,omitempty"`
	DaysToSell        *int       `json:"daysToSell,omitempty"`
	PerformanceNotes  *string    `json:"performanceNotes,omitempty"`
}

// FilterSpec describes one logical listing query. It is immutable per
// query session; changing any field starts a new session and invalidates
// any cursor derived from the old one.
type FilterSpec struct {
	SearchTerm     string              `json:"searchTerm,omitempty"`
	StatusFilter   types.ListingStatus `json:"statusFilter,omitempty"`
	CategoryFilter string              `json:"categoryFilter,omitempty"`
	PageSize       int                 `json:"pageSize"`
}

// CacheKey returns the canonical serialization of the filter, used to
// address the query cache. Keys are emitted in sorted order so that two
// equal specs always produce byte-identical keys.
func (f FilterSpec) CacheKey() string {
	canonical := struct {
		CategoryFilter string              `json:"categoryFilter"`
		PageSize       int                 `json:"pageSize"`
		SearchTerm     string              `json:"searchTerm"`
		StatusFilter   types.ListingStatus `json:"statusFilter"`
	}{
		CategoryFilter: f.CategoryFilter,
		PageSize:       f.PageSize,
		SearchTerm:     f.SearchTerm,
		StatusFilter:   f.StatusFilter,
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		// Marshalling a flat struct of strings and an int cannot fail.
		return ""
	}
	return string(data)
}

// Equal reports whether two specs address the same cache entry
func (f FilterSpec) Equal(other FilterSpec) bool {
	return f.CacheKey() == other.CacheKey()
}

// Cursor is an opaque pagination bookmark. Concretely it holds the
// createdAt of the last row of the previous page; rows strictly older
// than it form the next page under the fixed createdAt-descending order.
// A cursor is only valid against the FilterSpec it was created for.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
}

// FallbackSnapshot is the durable last-known-good copy of listing
// summaries, served only when the backing store is down.
type FallbackSnapshot struct {
	Listings []ListingSummary `json:"listings"`
	SavedAt  time.Time        `json:"savedAt"`
}

// FallbackMaxAge is the advisory staleness bound for snapshots.
// Older snapshots are still served, flagged as stale.
const FallbackMaxAge = 24 * time.Hour

// Stale reports whether the snapshot is past the advisory staleness bound
func (s *FallbackSnapshot) Stale(now time.Time) bool {
	return now.Sub(s.SavedAt) > FallbackMaxAge
}

// HealthStatus tracks the backing store's observed behavior.
// ErrorCount decays toward zero on success rather than resetting, so a
// single success after a failure streak does not flip the classification.
type HealthStatus struct {
	LastChecked    time.Time `json:"lastChecked"`
	ResponseTimeMs int64     `json:"responseTimeMs"`
	ErrorCount     int       `json:"errorCount"`
}
