// Package harness provides scenario testing for drag-and-drop surfaces.
//
// The harness seeds surfaces into an in-memory store, drives gestures
// through a real engine and records every step and listener callback as a
// trace for assertions and golden comparison.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: drag_first_onto_last
//	description: "What this scenario validates"
//	surface_files:              # optional CUE files with `surface:` entries
//	  - surfaces/board.cue
//	surfaces:                   # optional inline surfaces
//	  - id: board
//	    allowed_drop_kinds: [group-member]
//	    items:
//	      - {id: A, kind: group-member}
//	      - {id: B, kind: group-member}
//	setup:
//	  - remove: A
//	flow:
//	  - {action: start, item: A}
//	  - {action: over, target: B, expect: {effect: move}}
//	  - {action: drop, target: B, expect: {outcome: reordered, order: [A, B]}}
//	assertions:
//	  - type: trace_contains
//	    event: reordered
//	  - type: final_order
//	    order: [A, B]
//	  - type: final_state
//	    item: A                   # or log: drop, or neither for the surface
//	    expect: {position: 0}
//
// A drop without a payload uses the transfer payload produced by the last
// start on the same surface.
//
// # Assertions
//
// trace_contains, trace_order and trace_count look at the recorded trace.
// final_order and final_state read the store after the flow has run;
// final_state selects an item, the last drag log record of a type, or the
// surface itself, and compares the listed fields.
//
// # Determinism
//
// Every run gets a fresh in-memory database, a fresh engine.Clock and
// sequential gesture tokens ("gesture-1", ... unless gesture_prefix is set),
// so the canonical trace is byte-identical across runs and can be kept as a
// golden file. RunSuite drives whole directories for the CLI; RunWithGolden
// does the same for go test:
//
//	scenario, err := harness.LoadScenario("testdata/self_drop.yaml")
//	require.NoError(t, err)
//	result, err := harness.RunWithGolden(t, scenario)
//	require.NoError(t, err)
//	assert.True(t, result.Pass, result.Errors)
package harness
