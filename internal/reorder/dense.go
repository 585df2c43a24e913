package reorder

import (
	"fmt"
	"sort"

	"github.com/roach88/reorder/internal/model"
)

// CheckDense validates the store invariant: ids are unique, every kind is
// valid and positions equal their index starting at 0.
func CheckDense(items []model.DraggableItem) error {
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		if it.ID == "" {
			return fmt.Errorf("item at index %d: empty id", i)
		}
		if seen[it.ID] {
			return fmt.Errorf("item %q: duplicate id", it.ID)
		}
		seen[it.ID] = true

		if !it.Kind.Valid() {
			return fmt.Errorf("item %q: invalid kind", it.ID)
		}
		if it.Position != i {
			return fmt.Errorf("item %q: position %d at index %d", it.ID, it.Position, i)
		}
	}
	return nil
}

// SortByPosition returns a copy ordered by ascending Position. Ties keep
// their relative input order.
func SortByPosition(items []model.DraggableItem) []model.DraggableItem {
	out := model.Clone(items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}
