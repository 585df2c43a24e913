package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reorder/internal/model"
)

func nestedSurface(pairs ...string) *model.Surface {
	s := &model.Surface{ID: "board"}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Items = append(s.Items, model.DraggableItem{
			ID:            pairs[i],
			Position:      len(s.Items),
			Kind:          model.KindGroupMember,
			ParentGroupID: pairs[i+1],
		})
	}
	return s
}

func TestAnalyzeNesting_Empty(t *testing.T) {
	warnings := AnalyzeNesting(&model.Surface{ID: "board"})
	assert.Empty(t, warnings)
	assert.NotNil(t, warnings)
}

func TestAnalyzeNesting_Flat(t *testing.T) {
	warnings := AnalyzeNesting(nestedSurface("A", "", "B", "", "C", ""))
	assert.Empty(t, warnings)
}

func TestAnalyzeNesting_Tree(t *testing.T) {
	warnings := AnalyzeNesting(nestedSurface(
		"root", "",
		"g1", "root",
		"g2", "root",
		"g3", "g1",
	))
	assert.Empty(t, warnings)
}

// TestAnalyzeNesting_SelfLoop tests an item nested under itself.
func TestAnalyzeNesting_SelfLoop(t *testing.T) {
	warnings := AnalyzeNesting(nestedSurface("A", "A", "B", ""))
	require.Len(t, warnings, 1)

	assert.Equal(t, []string{"A", "A"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "nested under itself")
}

// TestAnalyzeNesting_TwoNodeLoop tests g1 → g2 → g1.
func TestAnalyzeNesting_TwoNodeLoop(t *testing.T) {
	warnings := AnalyzeNesting(nestedSurface("g2", "g1", "g1", "g2"))
	require.Len(t, warnings, 1)

	assert.Equal(t, []string{"g1", "g2", "g1"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "g1 → g2 → g1")
}

// TestAnalyzeNesting_ThreeNodeLoop tests a longer loop with a tail hanging off it.
func TestAnalyzeNesting_ThreeNodeLoop(t *testing.T) {
	warnings := AnalyzeNesting(nestedSurface(
		"a", "b",
		"b", "c",
		"c", "a",
		"tail", "a",
	))
	require.Len(t, warnings, 1)

	assert.Equal(t, []string{"a", "b", "c", "a"}, warnings[0].Path)
}

// TestAnalyzeNesting_MultipleLoops tests independent loops sorted by first id.
func TestAnalyzeNesting_MultipleLoops(t *testing.T) {
	warnings := AnalyzeNesting(nestedSurface(
		"y", "z",
		"z", "y",
		"b", "a",
		"a", "b",
	))
	require.Len(t, warnings, 2)

	assert.Equal(t, "a", warnings[0].Path[0])
	assert.Equal(t, "y", warnings[1].Path[0])
}

// TestAnalyzeNesting_UnknownParentIgnored tests that dangling parents are
// left to Validate.
func TestAnalyzeNesting_UnknownParentIgnored(t *testing.T) {
	warnings := AnalyzeNesting(nestedSurface("A", "ghost"))
	assert.Empty(t, warnings)
}

func TestAnalyzeNesting_Deterministic(t *testing.T) {
	s := nestedSurface("a", "b", "b", "c", "c", "a", "x", "x")
	first := AnalyzeNesting(s)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, AnalyzeNesting(s))
	}
}

func TestAnalyzeNesting_ChainsIntoLoopReportedOnce(t *testing.T) {
	// Two tails feed the same loop; the loop is walked from both.
	warnings := AnalyzeNesting(nestedSurface(
		"t1", "t2",
		"t2", "m",
		"u", "m",
		"m", "n",
		"n", "m",
	))
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"m", "n", "m"}, warnings[0].Path)
}

func TestAnalyzeNesting_DuplicateIDs(t *testing.T) {
	warnings := AnalyzeNesting(nestedSurface("a", "", "a", "a"))
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "a"}, warnings[0].Path)
}
