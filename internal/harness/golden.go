package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reorder/internal/model"
)

// goldenDir is where RunWithGolden keeps fixtures, relative to the test's
// package directory.
const goldenDir = "testdata/golden"

// TraceSnapshot is the golden file content of one scenario run: the trace
// and the final order of every surface.
type TraceSnapshot struct {
	ScenarioName string              `json:"scenario_name"`
	Trace        []TraceEvent        `json:"trace"`
	State        map[string][]string `json:"state"`
}

// NewTraceSnapshot builds the snapshot of a scenario result.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{ScenarioName: name, Trace: result.Trace, State: result.State}
}

// MarshalCanonical renders the snapshot as canonical JSON, the golden file
// format. Two runs of the same scenario produce identical bytes.
func (s *TraceSnapshot) MarshalCanonical() ([]byte, error) {
	trace := make([]any, 0, len(s.Trace))
	for _, ev := range s.Trace {
		trace = append(trace, ev.canonical())
	}

	state := make(map[string]any, len(s.State))
	for id, order := range s.State {
		if order == nil {
			order = []string{}
		}
		state[id] = order
	}

	return model.MarshalCanonical(map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"state":         state,
	})
}

// canonical converts e to the generic map MarshalCanonical accepts, leaving
// out empty optional fields.
func (e TraceEvent) canonical() map[string]any {
	m := map[string]any{
		"type":    e.Type,
		"name":    e.Name,
		"surface": e.Surface,
		"seq":     e.Seq,
	}
	for key, value := range map[string]string{
		"item":    e.Item,
		"target":  e.Target,
		"gesture": e.Gesture,
		"outcome": e.Outcome,
		"detail":  e.Detail,
	} {
		if value != "" {
			m[key] = value
		}
	}
	if e.Order != nil {
		m["order"] = e.Order
	}
	return m
}

// RunWithGolden runs scenario and compares its snapshot with
// testdata/golden/<name>.golden. Pass -update to go test to rewrite the
// fixture. The error covers only running and encoding; a mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewTraceSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	goldie.New(t,
		goldie.WithFixtureDir(goldenDir),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, scenarioName, data)
	return nil
}
