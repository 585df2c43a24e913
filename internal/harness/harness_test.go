package harness

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardDef(ids ...string) SurfaceDef {
	def := SurfaceDef{ID: "board"}
	for _, id := range ids {
		def.Items = append(def.Items, ItemDef{ID: id, Kind: "group-member"})
	}
	return def
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestRun_ReordersAndRecordsTrace(t *testing.T) {
	scenario := &Scenario{
		Name:     "reorder",
		Surfaces: []SurfaceDef{boardDef("A", "B", "C")},
		Flow: []FlowStep{
			{Action: ActionStart, Item: "A", Expect: &ExpectClause{Started: boolPtr(true)}},
			{Action: ActionOver, Target: "C", Expect: &ExpectClause{Effect: "move"}},
			{Action: ActionDrop, Target: "C", Expect: &ExpectClause{Outcome: "reordered", Order: []string{"B", "A", "C"}}},
		},
		Assertions: []Assertion{
			{Type: AssertTraceOrder, Events: []string{CallbackDragStarted, CallbackReordered, CallbackDropped}},
			{Type: AssertFinalOrder, Order: []string{"B", "A", "C"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, map[string][]string{"board": {"B", "A", "C"}}, result.State)

	require.Len(t, result.Trace, 6)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq, "seq of entry %d", i)
		assert.Equal(t, "board", ev.Surface)
	}

	start := result.Trace[0]
	assert.Equal(t, TraceStep, start.Type)
	assert.Equal(t, ActionStart, start.Name)
	assert.Equal(t, "gesture-1", start.Gesture)
	assert.Equal(t, "started", start.Outcome)

	assert.Equal(t, TraceCallback, result.Trace[1].Type)
	assert.Equal(t, CallbackDragStarted, result.Trace[1].Name)

	drop := result.Trace[3]
	assert.Equal(t, ActionDrop, drop.Name)
	assert.Equal(t, "A", drop.Item)
	assert.Equal(t, "reordered", drop.Outcome)
	assert.Equal(t, []string{"B", "A", "C"}, drop.Order)

	assert.Equal(t, CallbackReordered, result.Trace[4].Name)
	assert.Equal(t, CallbackDropped, result.Trace[5].Name)
	assert.Equal(t, "A", result.Trace[5].Item)
	assert.Equal(t, "C", result.Trace[5].Target)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:     "mismatch",
		Surfaces: []SurfaceDef{boardDef("A", "B")},
		Flow: []FlowStep{
			{Action: ActionStart, Item: "A"},
			{Action: ActionDrop, Target: "B", Expect: &ExpectClause{Outcome: "invalid", Order: []string{"B", "A"}}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Event: CallbackReordered, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "expected outcome invalid, got reordered")
	assert.Contains(t, result.Errors[1], "expected order")
}

func TestRun_EngineErrorCode(t *testing.T) {
	scenario := &Scenario{
		Name:     "unknown_item",
		Surfaces: []SurfaceDef{boardDef("A")},
		Flow: []FlowStep{
			{Action: ActionStart, Item: "Z", Expect: &ExpectClause{Error: "UNKNOWN_ITEM"}},
			{Action: ActionStart, Item: "Q"},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Event: CallbackDragStarted, Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	// The expected error passes; the unexpected one fails.
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "flow step 1")

	require.Len(t, result.Trace, 2)
	assert.Equal(t, "error", result.Trace[0].Outcome)
	assert.Equal(t, "UNKNOWN_ITEM", result.Trace[0].Detail)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	scenario := &Scenario{
		Name:       "no_error",
		Surfaces:   []SurfaceDef{boardDef("A")},
		Flow:       []FlowStep{{Action: ActionStart, Item: "A", Expect: &ExpectClause{Error: "UNKNOWN_ITEM"}}},
		Assertions: []Assertion{{Type: AssertTraceCount, Event: CallbackDragStarted, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error UNKNOWN_ITEM, got none")
}

func TestRun_SetupRemovesAndRenumbers(t *testing.T) {
	scenario := &Scenario{
		Name:     "setup",
		Surfaces: []SurfaceDef{boardDef("A", "B", "C")},
		Setup:    []SetupStep{{Remove: "B"}},
		Flow:     []FlowStep{{Action: ActionEnd, Expect: &ExpectClause{Ended: boolPtr(false), Order: []string{"A", "C"}}}},
		Assertions: []Assertion{
			{Type: AssertFinalState, Item: "C", Expect: map[string]any{"position": 1}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"A", "C"}, result.State["board"])
}

func TestRun_SetupUnknownItem(t *testing.T) {
	scenario := &Scenario{
		Name:       "setup",
		Surfaces:   []SurfaceDef{boardDef("A")},
		Setup:      []SetupStep{{Remove: "Z"}},
		Flow:       []FlowStep{{Action: ActionEnd}},
		Assertions: []Assertion{{Type: AssertFinalOrder, Order: []string{"A"}}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `item "Z" not on surface board`)
}

func TestRun_ExplicitPayloadAndIDTransfer(t *testing.T) {
	scenario := &Scenario{
		Name:     "id_payload",
		Transfer: "id",
		Surfaces: []SurfaceDef{boardDef("A", "B", "C")},
		Flow: []FlowStep{
			{Action: ActionStart, Item: "A"},
			{Action: ActionDrop, Target: "B", Payload: strPtr(`{"id":"C"}`), Expect: &ExpectClause{Outcome: "reordered", Order: []string{"A", "C", "B"}}},
		},
		Assertions: []Assertion{{Type: AssertTraceContains, Event: CallbackDropped, Item: "C", Target: "B"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SeveralSurfacesNeedExplicitSurface(t *testing.T) {
	other := boardDef("X")
	other.ID = "shelf"
	scenario := &Scenario{
		Name:     "two",
		Surfaces: []SurfaceDef{boardDef("A"), other},
		Flow: []FlowStep{
			{Action: ActionStart, Item: "A"},
			{Action: ActionStart, Surface: "shelf", Item: "X", Expect: &ExpectClause{Started: boolPtr(true)}},
		},
		Assertions: []Assertion{{Type: AssertFinalOrder, Surface: "shelf", Order: []string{"X"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "surface is required")
	assert.Equal(t, []string{"A"}, result.State["board"])
	assert.Equal(t, []string{"X"}, result.State["shelf"])
}

func TestRun_RejectsInvalidSurface(t *testing.T) {
	dup := boardDef("A", "A")
	scenario := &Scenario{
		Name:       "dup",
		Surfaces:   []SurfaceDef{dup},
		Flow:       []FlowStep{{Action: ActionEnd}},
		Assertions: []Assertion{{Type: AssertFinalOrder, Order: []string{"A"}}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surface board")
}

func TestRun_DuplicateSurfaceAcrossSources(t *testing.T) {
	dir := t.TempDir()
	surfaceFile := filepath.Join(dir, "board.cue")
	require.NoError(t, os.WriteFile(surfaceFile, []byte(`surface: board: items: [{id: "A", kind: "group-member"}]`), 0644))

	scenario := &Scenario{
		Name:         "dup",
		SurfaceFiles: []string{surfaceFile},
		Surfaces:     []SurfaceDef{boardDef("A")},
		Flow:         []FlowStep{{Action: ActionEnd}},
		Assertions:   []Assertion{{Type: AssertFinalOrder, Order: []string{"A"}}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
}

func TestRunWithLogger_LogsSteps(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	scenario := &Scenario{
		Name:       "logged",
		Surfaces:   []SurfaceDef{boardDef("A")},
		Flow:       []FlowStep{{Action: ActionStart, Item: "A"}},
		Assertions: []Assertion{{Type: AssertTraceCount, Event: CallbackDragStarted, Count: 1}},
	}

	result, err := RunWithLogger(scenario, logger)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Contains(t, buf.String(), `"msg":"flow step completed"`)
	assert.Contains(t, buf.String(), `"outcome":"started"`)
}
