package harness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) == 0 {
		return buf.String()
	}

	// Full trace for context
	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, formatEvent(event))
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an entry with the given
// name whose item, target and outcome match where the assertion sets them.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Name == assertion.Event && matchEvent(event, assertion) {
			return nil
		}
	}

	return &AssertionError{
		Type:     "trace_contains",
		Expected: fmt.Sprintf("%s %s", assertion.Event, describeMatch(assertion)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if names appear in the specified order.
// Entries don't need to be consecutive (intervening entries are allowed).
// Each name matches its first occurrence after the previous match.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, name := range assertion.Events {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Name == name {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     "trace_order",
				Expected: fmt.Sprintf("entries in order: %v", assertion.Events),
				Actual:   fmt.Sprintf("no %s after position %d", name, pos),
				Trace:    trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the name appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Name == assertion.Event {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     "trace_count",
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalOrder checks a surface's stored order.
func assertFinalOrder(ctx context.Context, st *store.Store, surface string, assertion Assertion) error {
	items, err := st.ReadItems(ctx, surface)
	if err != nil {
		return &AssertionError{
			Type:     "final_order",
			Expected: fmt.Sprintf("read order of %s", surface),
			Actual:   fmt.Sprintf("read error: %v", err),
		}
	}

	have := model.IDs(items)
	if !equalStrings(assertion.Order, have) {
		return &AssertionError{
			Type:     "final_order",
			Expected: fmt.Sprintf("%s order %v", surface, assertion.Order),
			Actual:   fmt.Sprintf("%v", have),
		}
	}
	return nil
}

// assertFinalState compares stored fields against assertion.Expect. The
// assertion selects one item when Item is set, the surface's last drag log
// record of type Log when Log is set, and the surface itself otherwise.
// Only the keys present in Expect are checked.
func assertFinalState(ctx context.Context, st *store.Store, surface string, assertion Assertion) error {
	subject, fields, err := finalStateFields(ctx, st, surface, assertion)
	if err != nil {
		return &AssertionError{
			Type:     "final_state",
			Expected: subject,
			Actual:   err.Error(),
		}
	}

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		want := assertion.Expect[key]
		got, ok := fields[key]
		if !ok {
			return &AssertionError{
				Type:     "final_state",
				Expected: fmt.Sprintf("%s field %q", subject, key),
				Actual:   fmt.Sprintf("no such field; have %s", strings.Join(fieldNames(fields), ", ")),
			}
		}
		if fmt.Sprint(want) != fmt.Sprint(got) {
			return &AssertionError{
				Type:     "final_state",
				Expected: fmt.Sprintf("%s %s = %v", subject, key, want),
				Actual:   fmt.Sprintf("%s = %v", key, got),
			}
		}
	}
	return nil
}

// finalStateFields loads the fields of the record a final_state assertion
// selects. subject describes the record for failure messages.
func finalStateFields(ctx context.Context, st *store.Store, surface string, a Assertion) (subject string, fields map[string]any, err error) {
	switch {
	case a.Item != "":
		subject = fmt.Sprintf("item %s on %s", a.Item, surface)
		items, err := st.ReadItems(ctx, surface)
		if err != nil {
			return subject, nil, err
		}
		i := model.Find(items, a.Item)
		if i < 0 {
			return subject, nil, errors.New("item not found")
		}
		it := items[i]
		return subject, map[string]any{
			"id":              it.ID,
			"position":        it.Position,
			"kind":            it.Kind.String(),
			"parent_group_id": it.ParentGroupID,
			"payload":         string(it.Payload),
		}, nil

	case a.Log != "":
		subject = fmt.Sprintf("last %s record of %s", a.Log, surface)
		events, err := st.ReadEvents(ctx, surface)
		if err != nil {
			return subject, nil, err
		}
		for i := len(events) - 1; i >= 0; i-- {
			ev := events[i]
			if string(ev.Type) != a.Log {
				continue
			}
			return subject, map[string]any{
				"seq":               ev.Seq,
				"gesture":           ev.Gesture,
				"outcome":           ev.Outcome,
				"dragged_id":        ev.DraggedID,
				"target_id":         ev.TargetID,
				"detail":            ev.Detail,
				"order_fingerprint": ev.OrderFingerprint,
			}, nil
		}
		return subject, nil, errors.New("no such record")

	default:
		subject = fmt.Sprintf("surface %s", surface)
		version, err := st.SurfaceVersion(ctx, surface)
		if err != nil {
			return subject, nil, err
		}
		items, err := st.ReadItems(ctx, surface)
		if err != nil {
			return subject, nil, err
		}
		return subject, map[string]any{
			"version": version,
			"items":   len(items),
		}, nil
	}
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// matchEvent checks the optional item, target and outcome fields of an
// assertion against a trace entry. Empty assertion fields match anything.
func matchEvent(event TraceEvent, assertion Assertion) bool {
	if assertion.Item != "" && assertion.Item != event.Item {
		return false
	}
	if assertion.Target != "" && assertion.Target != event.Target {
		return false
	}
	if assertion.Outcome != "" && assertion.Outcome != event.Outcome {
		return false
	}
	return true
}

// describeMatch renders the fields a trace_contains assertion filters on.
func describeMatch(a Assertion) string {
	var parts []string
	if a.Item != "" {
		parts = append(parts, "item="+a.Item)
	}
	if a.Target != "" {
		parts = append(parts, "target="+a.Target)
	}
	if a.Outcome != "" {
		parts = append(parts, "outcome="+a.Outcome)
	}
	if len(parts) == 0 {
		return "(any)"
	}
	return strings.Join(parts, " ")
}

// formatEvent renders a trace entry on one line.
func formatEvent(ev TraceEvent) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s %s/%s", ev.Type, ev.Surface, ev.Name)
	if ev.Item != "" {
		fmt.Fprintf(&buf, " item=%s", ev.Item)
	}
	if ev.Target != "" {
		fmt.Fprintf(&buf, " target=%s", ev.Target)
	}
	if ev.Outcome != "" {
		fmt.Fprintf(&buf, " outcome=%s", ev.Outcome)
	}
	if ev.Detail != "" {
		fmt.Fprintf(&buf, " detail=%s", ev.Detail)
	}
	if ev.Order != nil {
		fmt.Fprintf(&buf, " order=%v", ev.Order)
	}
	return buf.String()
}

// AssertionContext gives store-backed assertions access to the run's store.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context

	// DefaultSurface is used by final_order and final_state assertions that
	// name no surface.
	DefaultSurface string
}

// EvaluateAssertions checks every assertion against result and returns one
// message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalOrder, AssertFinalState:
			surface := assertion.Surface
			if surface == "" && actx != nil {
				surface = actx.DefaultSurface
			}
			switch {
			case actx == nil || actx.Store == nil:
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			case surface == "":
				err = fmt.Errorf("assertion[%d]: %s requires a surface", i, assertion.Type)
			case assertion.Type == AssertFinalOrder:
				err = assertFinalOrder(actx.Ctx, actx.Store, surface, assertion)
			default:
				err = assertFinalState(actx.Ctx, actx.Store, surface, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	return failures
}
