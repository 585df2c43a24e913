package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/reorder/internal/model"
)

// createTestStore opens a store in a temp dir, closed on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// createTestSurface builds an unconstrained surface of group members in
// the given order.
func createTestSurface(id string, itemIDs ...string) model.Surface {
	return model.Surface{ID: id, Items: createTestItems(itemIDs...)}
}

func createTestItems(ids ...string) []model.DraggableItem {
	items := make([]model.DraggableItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, model.DraggableItem{ID: id, Position: len(items), Kind: model.KindGroupMember})
	}
	return items
}
