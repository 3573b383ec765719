// Package fields maps requested view field groups onto concrete column
// projections for the listing store.
//
// A view asks for a set of field groups; the resolver returns the
// minimal column list covering them. The base columns are always
// included exactly once, even when a requested group would imply one of
// them. Resolution is pure: no network or cache interaction, and the
// same input always yields the same ordered column list.
package fields

import (
	"sort"
	"strings"

	"github.com/inventory-hub/internal/types"
)

// BaseColumns is the fixed projection included in every resolved column
// list, whatever groups the view requests.
var BaseColumns = []string{
	"id",
	"title",
	"price",
	"status",
	"category",
	"condition",
	"created_at",
	"updated_at",
}

// SummaryColumns is the projection for list queries: the minimal set a
// summary row needs, fetchable in one round trip per page.
var SummaryColumns = []string{
	"id",
	"title",
	"price",
	"status",
	"category",
	"condition",
	"created_at",
	"first_photo_ref",
}

// groupColumns maps each field group to the columns it requires
var groupColumns = map[types.FieldGroup][]string{
	types.GroupImage:             {"photos", "first_photo_ref"},
	types.GroupMeasurements:      {"measurements"},
	types.GroupKeywords:          {"keywords"},
	types.GroupDescription:       {"description"},
	types.GroupPurchasePrice:     {"purchase_price"},
	types.GroupNetProfit:         {"net_profit"},
	types.GroupProfitMargin:      {"profit_margin"},
	types.GroupPurchaseDate:      {"purchase_date"},
	types.GroupConsignmentStatus: {"consignment_status"},
	types.GroupSourceType:        {"source_type"},
	types.GroupSourceLocation:    {"source_location"},
	types.GroupCostBasis:         {"cost_basis"},
	types.GroupDaysToSell:        {"days_to_sell"},
	types.GroupPerformanceNotes:  {"performance_notes"},
}

// GroupSet is a set of requested field groups
type GroupSet map[types.FieldGroup]struct{}

// NewGroupSet builds a set from the given groups
func NewGroupSet(groups ...types.FieldGroup) GroupSet {
	set := make(GroupSet, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	return set
}

// AllGroups returns the set containing every known field group
func AllGroups() GroupSet {
	return NewGroupSet(types.AllFieldGroups...)
}

// Contains reports whether g is in the set
func (s GroupSet) Contains(g types.FieldGroup) bool {
	_, ok := s[g]
	return ok
}

// Superset reports whether s contains every group in other
func (s GroupSet) Superset(other GroupSet) bool {
	for g := range other {
		if !s.Contains(g) {
			return false
		}
	}
	return true
}

// Union returns a new set containing the groups of both sets
func (s GroupSet) Union(other GroupSet) GroupSet {
	merged := make(GroupSet, len(s)+len(other))
	for g := range s {
		merged[g] = struct{}{}
	}
	for g := range other {
		merged[g] = struct{}{}
	}
	return merged
}

// Signature returns the canonical tier signature: the sorted group
// names joined with "+". Two sets with the same members always produce
// the same signature.
func (s GroupSet) Signature() string {
	if len(s) == 0 {
		return "base"
	}
	names := make([]string, 0, len(s))
	for g := range s {
		names = append(names, string(g))
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}

// Resolve maps a requested group set to the concrete column projection.
// Base columns come first in their fixed order, group columns follow in
// the canonical group order, and no column appears twice.
func Resolve(requested GroupSet) []string {
	columns := make([]string, 0, len(BaseColumns)+len(requested)*2)
	seen := make(map[string]struct{}, len(BaseColumns)+len(requested)*2)

	for _, col := range BaseColumns {
		columns = append(columns, col)
		seen[col] = struct{}{}
	}

	// Iterate the canonical group order, not the map, for determinism.
	for _, g := range types.AllFieldGroups {
		if !requested.Contains(g) {
			continue
		}
		for _, col := range groupColumns[g] {
			if _, dup := seen[col]; dup {
				continue
			}
			columns = append(columns, col)
			seen[col] = struct{}{}
		}
	}

	return columns
}

// ParseGroups validates raw group names from a request and builds the
// set. Unknown names are a validation failure, reported all at once.
func ParseGroups(raw []string) (GroupSet, []string) {
	set := make(GroupSet, len(raw))
	var unknown []string
	for _, name := range raw {
		g := types.FieldGroup(strings.TrimSpace(name))
		if g == "" {
			continue
		}
		if !types.IsValidFieldGroup(g) {
			unknown = append(unknown, string(g))
			continue
		}
		set[g] = struct{}{}
	}
	return set, unknown
}
