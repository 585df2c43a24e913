package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/session"
)

// Scenario defines a drag-and-drop test scenario.
// Scenarios seed one or more surfaces, drive gestures through the engine
// and assert on the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SurfaceFiles lists paths to CUE files declaring surfaces.
	// Paths are relative to the scenario file location.
	SurfaceFiles []string `yaml:"surface_files,omitempty"`

	// Surfaces declares surfaces inline.
	Surfaces []SurfaceDef `yaml:"surfaces,omitempty"`

	// Transfer selects the transfer codec: "item" (default) or "id".
	Transfer string `yaml:"transfer,omitempty"`

	// Reentry selects the StartDrag policy: "overwrite" (default) or "reject".
	Reentry string `yaml:"reentry,omitempty"`

	// GesturePrefix prefixes the deterministic gesture tokens.
	// If empty, tokens are "gesture-1", "gesture-2", ...
	GesturePrefix string `yaml:"gesture_prefix,omitempty"`

	// Setup edits the stored surfaces before the engine loads them.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Flow contains the gestures, one engine event per step.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count,
	// final_state, final_order
	Assertions []Assertion `yaml:"assertions"`
}

// SurfaceDef is an inline surface declaration. Item positions follow list
// order.
type SurfaceDef struct {
	ID               string    `yaml:"id"`
	AllowCrossGroup  bool      `yaml:"allow_cross_group,omitempty"`
	MaxItems         *int      `yaml:"max_items,omitempty"`
	MinItems         *int      `yaml:"min_items,omitempty"`
	AllowedDropKinds []string  `yaml:"allowed_drop_kinds,omitempty"`
	Predicate        string    `yaml:"predicate,omitempty"`
	Items            []ItemDef `yaml:"items"`
}

// ItemDef is one inline item.
type ItemDef struct {
	ID            string         `yaml:"id"`
	Kind          string         `yaml:"kind"`
	ParentGroupID string         `yaml:"parent_group_id,omitempty"`
	Payload       map[string]any `yaml:"payload,omitempty"`
}

// Surface converts the declaration into a model.Surface.
func (d SurfaceDef) Surface() (model.Surface, error) {
	s := model.Surface{
		ID: d.ID,
		Config: model.ConstraintConfig{
			AllowCrossGroup: d.AllowCrossGroup,
			MaxItems:        d.MaxItems,
			MinItems:        d.MinItems,
			PredicateName:   d.Predicate,
		},
		Items: make([]model.DraggableItem, 0, len(d.Items)),
	}

	if len(d.AllowedDropKinds) > 0 {
		kinds, err := model.ParseKindSet(d.AllowedDropKinds)
		if err != nil {
			return s, fmt.Errorf("surface %s: allowed_drop_kinds: %w", d.ID, err)
		}
		s.Config.AllowedDropKinds = kinds
	}

	for i, it := range d.Items {
		kind, err := model.ParseKind(it.Kind)
		if err != nil {
			return s, fmt.Errorf("surface %s: items[%d]: %w", d.ID, i, err)
		}
		item := model.DraggableItem{
			ID:            it.ID,
			Position:      i,
			Kind:          kind,
			ParentGroupID: it.ParentGroupID,
		}
		if it.Payload != nil {
			raw, err := json.Marshal(it.Payload)
			if err != nil {
				return s, fmt.Errorf("surface %s: items[%d].payload: %w", d.ID, i, err)
			}
			item.Payload = raw
		}
		s.Items = append(s.Items, item)
	}
	return s, nil
}

// SetupStep edits a stored surface before the flow starts.
type SetupStep struct {
	// Surface defaults to the scenario's only surface.
	Surface string `yaml:"surface,omitempty"`

	// Remove deletes the item and renumbers the rest, as a removal made
	// elsewhere would.
	Remove string `yaml:"remove"`
}

// Flow step actions.
const (
	ActionStart = "start"
	ActionOver  = "over"
	ActionDrop  = "drop"
	ActionEnd   = "end"
)

// FlowStep is one gesture event.
type FlowStep struct {
	// Action is one of start, over, drop, end.
	Action string `yaml:"action"`

	// Surface defaults to the scenario's only surface.
	Surface string `yaml:"surface,omitempty"`

	// Item is the dragged item id (start).
	Item string `yaml:"item,omitempty"`

	// Target is the hovered or dropped-on item id (over, drop).
	Target string `yaml:"target,omitempty"`

	// At is the pointer position (start, over).
	At *PointDef `yaml:"at,omitempty"`

	// Payload is the raw transfer payload for drop. If nil, the payload
	// produced by the most recent start on the surface is used.
	Payload *string `yaml:"payload,omitempty"`

	// Expect specifies what the engine should answer.
	// If nil, no validation is performed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// PointDef is a pointer position.
type PointDef struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ExpectClause specifies the expected answer to a flow step.
// Only the fields that are set are checked.
type ExpectClause struct {
	Started *bool    `yaml:"started,omitempty"` // start
	Effect  string   `yaml:"effect,omitempty"`  // over: "move" or "none"
	Outcome string   `yaml:"outcome,omitempty"` // drop
	Reason  string   `yaml:"reason,omitempty"`  // drop: constraint reason
	Stale   string   `yaml:"stale,omitempty"`   // drop: "dragged" or "target"
	Ended   *bool    `yaml:"ended,omitempty"`   // end
	Order   []string `yaml:"order,omitempty"`   // any: surface order after the step
	Error   string   `yaml:"error,omitempty"`   // any: engine error code
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check an entry with the given name and fields exists
	// - "trace_order": Check names appear in order
	// - "trace_count": Check a name appears exactly N times
	// - "final_state": Check stored fields of an item, log record or surface
	// - "final_order": Check a surface's stored order
	Type string `yaml:"type"`

	// Event is the step or callback name (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Item, Target and Outcome narrow trace_contains matches.
	Item    string `yaml:"item,omitempty"`
	Target  string `yaml:"target,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	// Events is the expected name order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Log selects the last drag log record of this type: start, over, drop
	// or end (final_state). Item selects a stored item instead.
	Log string `yaml:"log,omitempty"`

	// Expect holds the expected field values (final_state). Fields not
	// listed are not checked.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Surface and Order are the expected stored order (final_order).
	// Surface defaults to the scenario's only surface.
	Surface string   `yaml:"surface,omitempty"`
	Order   []string `yaml:"order,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertFinalOrder    = "final_order"
)

// LoadScenario reads and parses a scenario YAML file, resolving surface file paths
// relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving surface file paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve surface file paths relative to base path before validation
	for i, surfacePath := range scenario.SurfaceFiles {
		if !filepath.IsAbs(surfacePath) && basePath != "" {
			scenario.SurfaceFiles[i] = filepath.Join(basePath, surfacePath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.SurfaceFiles) == 0 && len(s.Surfaces) == 0 {
		return fmt.Errorf("surface_files or surfaces is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := session.CodecByName(s.Transfer); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	if _, ok := session.ParseReentryPolicy(s.Reentry); !ok {
		return fmt.Errorf("reentry: unknown policy %q: must be \"overwrite\" or \"reject\"", s.Reentry)
	}

	// Surface files must exist
	for _, surfacePath := range s.SurfaceFiles {
		if _, err := os.Stat(surfacePath); os.IsNotExist(err) {
			return fmt.Errorf("surface file not found: %s", surfacePath)
		}
	}

	for i, def := range s.Surfaces {
		if def.ID == "" {
			return fmt.Errorf("surfaces[%d]: id is required", i)
		}
	}

	for i, step := range s.Setup {
		if step.Remove == "" {
			return fmt.Errorf("setup[%d]: remove is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateFlowStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateFlowStep checks the fields each action needs.
func validateFlowStep(index int, step *FlowStep) error {
	switch step.Action {
	case ActionStart:
		if step.Item == "" {
			return fmt.Errorf("flow[%d]: item is required for start", index)
		}
	case ActionOver, ActionDrop:
		if step.Target == "" {
			return fmt.Errorf("flow[%d]: target is required for %s", index, step.Action)
		}
	case ActionEnd:
	case "":
		return fmt.Errorf("flow[%d]: action is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown action %q", index, step.Action)
	}

	if step.Payload != nil && step.Action != ActionDrop {
		return fmt.Errorf("flow[%d]: payload is only valid on drop", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Item != "" && a.Log != "" {
			return fmt.Errorf("assertions[%d]: final_state selects either item or log, not both", index)
		}
		if a.Log != "" && !model.EventType(a.Log).Valid() {
			return fmt.Errorf("assertions[%d]: unknown log record type %q", index, a.Log)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertFinalOrder:
		if a.Order == nil {
			return fmt.Errorf("assertions[%d]: order is required for final_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
