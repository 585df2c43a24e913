package reorder

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reorder/internal/model"
)

func items(ids ...string) []model.DraggableItem {
	out := make([]model.DraggableItem, len(ids))
	for i, id := range ids {
		out[i] = model.DraggableItem{ID: id, Position: i, Kind: model.KindGroupMember}
	}
	return out
}

func ref(id string) model.DraggableItem {
	return model.DraggableItem{ID: id, Kind: model.KindGroupMember}
}

func positions(items []model.DraggableItem) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.Position
	}
	return out
}

func TestReorder_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		dragged string
		target  string
		want    []string
	}{
		{name: "first onto last", input: []string{"A", "B", "C"}, dragged: "A", target: "C", want: []string{"B", "A", "C"}},
		{name: "last onto first", input: []string{"A", "B", "C"}, dragged: "C", target: "A", want: []string{"C", "A", "B"}},
		{name: "onto next neighbour", input: []string{"A", "B", "C"}, dragged: "A", target: "B", want: []string{"A", "B", "C"}},
		{name: "onto previous neighbour", input: []string{"A", "B", "C"}, dragged: "B", target: "A", want: []string{"B", "A", "C"}},
		{name: "middle onto last", input: []string{"A", "B", "C", "D"}, dragged: "B", target: "D", want: []string{"A", "C", "B", "D"}},
		{name: "two items swap", input: []string{"A", "B"}, dragged: "B", target: "A", want: []string{"B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Reorder(items(tt.input...), ref(tt.dragged), ref(tt.target))

			require.True(t, res.Applied())
			assert.Equal(t, tt.want, model.IDs(res.Items))
			assert.Equal(t, []int{0, 1, 2, 3}[:len(tt.want)], positions(res.Items))
		})
	}
}

func TestReorder_DoesNotMutateInput(t *testing.T) {
	in := items("A", "B", "C")
	before := model.Clone(in)

	res := Reorder(in, ref("A"), ref("C"))

	require.True(t, res.Applied())
	assert.Equal(t, before, in)
	res.Items[0].Position = 42
	assert.Equal(t, before, in, "result must not alias the input")
}

func TestReorder_StaleDragged(t *testing.T) {
	in := []model.DraggableItem{{ID: "B", Position: 1, Kind: model.KindGroupMember}}
	fp := model.MustOrderFingerprint(in)

	res := Reorder(in, ref("A"), ref("B"))

	assert.Equal(t, StaleDragged, res.Stale)
	assert.False(t, res.Applied())
	assert.Equal(t, in, res.Items)
	assert.Equal(t, fp, model.MustOrderFingerprint(res.Items))
}

func TestReorder_StaleTarget(t *testing.T) {
	in := items("A", "B")

	res := Reorder(in, ref("A"), ref("Z"))

	assert.Equal(t, StaleTarget, res.Stale)
	assert.Equal(t, in, res.Items)
}

func TestLocate(t *testing.T) {
	in := items("A", "B")

	tests := []struct {
		name            string
		dragged, target string
		want            Staleness
	}{
		{"both present", "A", "B", StaleNone},
		{"dragged missing", "Z", "B", StaleDragged},
		{"target missing", "A", "Z", StaleTarget},
		{"both missing reports dragged", "Y", "Z", StaleDragged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Locate(in, ref(tt.dragged), ref(tt.target)))
		})
	}
}

func TestReorder_SelfTargetIsStaleAfterRemoval(t *testing.T) {
	// The target is looked up after removal, so dropping onto itself
	// cannot find a target.
	in := items("A", "B")
	res := Reorder(in, ref("A"), ref("A"))
	assert.Equal(t, StaleTarget, res.Stale)
}

func TestReorder_UsesStoreEntry(t *testing.T) {
	in := items("A", "B", "C")
	in[0].ParentGroupID = "g1"

	dragged := ref("A")
	dragged.ParentGroupID = "stale-copy"

	res := Reorder(in, dragged, ref("C"))
	require.True(t, res.Applied())
	assert.Equal(t, "g1", res.Items[1].ParentGroupID)
}

func TestReorder_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		n := 2 + rng.Intn(8)
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("item-%d", i)
		}
		in := items(ids...)
		d := ids[rng.Intn(n)]
		tg := ids[rng.Intn(n)]
		if d == tg {
			continue
		}

		res := Reorder(in, ref(d), ref(tg))
		require.True(t, res.Applied(), "round %d", round)

		// Set preservation
		got := model.IDs(res.Items)
		sort.Strings(got)
		want := append([]string(nil), ids...)
		sort.Strings(want)
		assert.Equal(t, want, got, "round %d", round)

		// Dense renumbering
		require.NoError(t, CheckDense(res.Items), "round %d", round)

		// Dragged lands immediately before the target
		di := model.Find(res.Items, d)
		ti := model.Find(res.Items, tg)
		assert.Equal(t, di+1, ti, "round %d", round)
	}
}

func TestRenumber(t *testing.T) {
	in := []model.DraggableItem{
		{ID: "x", Position: 7, Kind: model.KindGroupMember},
		{ID: "y", Position: 3, Kind: model.KindChildMember},
	}
	out := Renumber(in)

	assert.Equal(t, []int{0, 1}, positions(out))
	assert.Equal(t, []int{7, 3}, positions(in))
}
