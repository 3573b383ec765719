package fields

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/inventory-hub/internal/types"
)

// genGroupSet draws a random subset of the known field groups
func genGroupSet() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(types.AllFieldGroups)-1)).Map(func(indexes []int) GroupSet {
		set := make(GroupSet)
		for _, i := range indexes {
			set[types.AllFieldGroups[i]] = struct{}{}
		}
		return set
	})
}

func TestResolveProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("base columns always lead the projection", prop.ForAll(
		func(set GroupSet) bool {
			columns := Resolve(set)
			if len(columns) < len(BaseColumns) {
				return false
			}
			for i, col := range BaseColumns {
				if columns[i] != col {
					return false
				}
			}
			return true
		},
		genGroupSet(),
	))

	properties.Property("no column appears twice", prop.ForAll(
		func(set GroupSet) bool {
			seen := make(map[string]bool)
			for _, col := range Resolve(set) {
				if seen[col] {
					return false
				}
				seen[col] = true
			}
			return true
		},
		genGroupSet(),
	))

	properties.Property("superset resolves to a superset of columns", prop.ForAll(
		func(a, b GroupSet) bool {
			merged := a.Union(b)
			have := make(map[string]bool)
			for _, col := range Resolve(merged) {
				have[col] = true
			}
			for _, col := range Resolve(a) {
				if !have[col] {
					return false
				}
			}
			return true
		},
		genGroupSet(),
		genGroupSet(),
	))

	properties.Property("signature is canonical across insertion orders", prop.ForAll(
		func(set GroupSet) bool {
			rebuilt := make(GroupSet)
			for g := range set {
				rebuilt[g] = struct{}{}
			}
			return set.Signature() == rebuilt.Signature()
		},
		genGroupSet(),
	))

	properties.TestingRun(t)
}
