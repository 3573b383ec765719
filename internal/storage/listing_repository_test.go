package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inventory-hub/internal/errors"
	"github.com/inventory-hub/internal/models"
)

func TestBuildListQuery_Minimal(t *testing.T) {
	query, args := buildListQuery(&ListQuery{
		UserID: "u1",
		Limit:  12,
	})

	assert.Equal(t,
		"SELECT id, title, price, status, category, condition, created_at, first_photo_ref"+
			" FROM listings WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		query)
	assert.Equal(t, []interface{}{"u1", 12}, args)
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	cursorAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	query, args := buildListQuery(&ListQuery{
		UserID: "u1",
		Filter: models.FilterSpec{
			SearchTerm:     "lamp",
			StatusFilter:   "active",
			CategoryFilter: "lighting",
		},
		Limit:  6,
		Cursor: &models.Cursor{CreatedAt: cursorAt},
	})

	assert.Contains(t, query, "status = $2")
	assert.Contains(t, query, "category = $3")
	assert.Contains(t, query, "title ILIKE $4")
	assert.Contains(t, query, "created_at < $5")
	assert.Contains(t, query, "LIMIT $6")
	assert.Equal(t, []interface{}{"u1", "active", "lighting", "%lamp%", cursorAt, 6}, args)
}

func TestBuildListQuery_SearchTermWrappedForSubstringMatch(t *testing.T) {
	_, args := buildListQuery(&ListQuery{
		UserID: "u1",
		Filter: models.FilterSpec{SearchTerm: "mid-century"},
		Limit:  12,
	})

	require.Len(t, args, 3)
	assert.Equal(t, "%mid-century%", args[1])
}

func TestValidateListQuery(t *testing.T) {
	cases := []struct {
		name  string
		query ListQuery
		valid bool
	}{
		{"valid", ListQuery{UserID: "u1", Limit: 12}, true},
		{"missing user", ListQuery{Limit: 12}, false},
		{"zero limit", ListQuery{UserID: "u1"}, false},
		{"negative limit", ListQuery{UserID: "u1", Limit: -1}, false},
		{"limit over cap", ListQuery{UserID: "u1", Limit: MaxListLimit + 1}, false},
		{"limit at cap", ListQuery{UserID: "u1", Limit: MaxListLimit}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateListQuery(&tc.query)
			if tc.valid {
				assert.Nil(t, err)
			} else {
				require.NotNil(t, err)
				assert.Equal(t, apperrors.KindValidationFailure, err.Kind)
			}
		})
	}
}

func TestValidateProjection(t *testing.T) {
	assert.Nil(t, ValidateProjection([]string{"id", "title", "purchase_price"}))

	err := ValidateProjection([]string{"id", "1; DROP TABLE listings"})
	require.NotNil(t, err)
	assert.Equal(t, apperrors.KindValidationFailure, err.Kind)

	require.NotNil(t, ValidateProjection(nil))
}

func TestDetailFromRow_FullProjection(t *testing.T) {
	createdAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	detail := detailFromRow(map[string]interface{}{
		"id":             "l1",
		"title":          "vintage lamp",
		"price":          "45.50",
		"status":         "active",
		"created_at":     createdAt,
		"description":    "brass base",
		"photos":         []interface{}{"p1.jpg", "p2.jpg"},
		"purchase_price": 12.0,
		"days_to_sell":   int64(14),
	})

	assert.Equal(t, "l1", detail.ID)
	assert.Equal(t, 45.50, detail.Price)
	assert.Equal(t, createdAt, detail.CreatedAt)
	require.NotNil(t, detail.Description)
	assert.Equal(t, "brass base", *detail.Description)
	assert.Equal(t, []string{"p1.jpg", "p2.jpg"}, detail.Photos)
	require.NotNil(t, detail.PurchasePrice)
	assert.Equal(t, 12.0, *detail.PurchasePrice)
	require.NotNil(t, detail.DaysToSell)
	assert.Equal(t, 14, *detail.DaysToSell)
}

func TestDetailFromRow_AbsentColumnsStayNil(t *testing.T) {
	detail := detailFromRow(map[string]interface{}{
		"id":    "l1",
		"title": "vintage lamp",
	})

	assert.Nil(t, detail.Description)
	assert.Nil(t, detail.Photos)
	assert.Nil(t, detail.PurchasePrice)
	assert.Nil(t, detail.PerformanceNotes)
}

func TestCoerceFloat(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{45.5, 45.5, true},
		{float32(2), 2, true},
		{int64(7), 7, true},
		{"19.99", 19.99, true},
		{[]byte("3.14"), 3.14, true},
		{"not a number", 0, false},
		{nil, 0, false},
	}

	for _, tc := range cases {
		got, ok := coerceFloat(tc.in)
		assert.Equalf(t, tc.ok, ok, "input %v", tc.in)
		if tc.ok {
			assert.InDeltaf(t, tc.want, got, 1e-9, "input %v", tc.in)
		}
	}
}

func TestCoerceStringSlice(t *testing.T) {
	got, ok := coerceStringSlice([]interface{}{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	got, ok = coerceStringSlice("solo")
	require.True(t, ok)
	assert.Equal(t, []string{"solo"}, got)

	got, ok = coerceStringSlice("")
	require.True(t, ok)
	assert.Nil(t, got)

	_, ok = coerceStringSlice(42)
	assert.False(t, ok)
}
