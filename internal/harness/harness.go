package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/reorder/internal/compiler"
	"github.com/roach88/reorder/internal/engine"
	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/reorder"
	"github.com/roach88/reorder/internal/session"
	"github.com/roach88/reorder/internal/store"
	"github.com/roach88/reorder/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a real engine with a deterministic trace clock
// and deterministic gesture tokens.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	recorder *recorder
	logger   *slog.Logger

	surfaces []string          // Surface ids in load order
	payloads map[string][]byte // Last transfer payload per surface
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Compile CUE surface files and inline surfaces, write them to the store
// 3. Execute setup steps
// 4. Start the engine and submit flow steps, checking expect clauses
// 5. Evaluate assertions and return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with engine and session logs sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	// Create fresh in-memory SQLite database
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	surfaces, err := loadSurfaces(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load surfaces: %w", err)
	}

	h := &Harness{
		store:    st,
		recorder: &recorder{clock: engine.NewClock()},
		logger:   logger,
		payloads: make(map[string][]byte),
	}
	for _, s := range surfaces {
		if err := st.PutSurface(ctx, s); err != nil {
			return nil, fmt.Errorf("failed to store surface %s: %w", s.ID, err)
		}
		h.surfaces = append(h.surfaces, s.ID)
	}

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	// Validated by LoadScenario; programmatic scenarios fall back to defaults.
	codec, err := session.CodecByName(scenario.Transfer)
	if err != nil {
		return nil, err
	}
	reentry, ok := session.ParseReentryPolicy(scenario.Reentry)
	if !ok {
		return nil, fmt.Errorf("unknown reentry policy %q", scenario.Reentry)
	}

	h.engine = engine.New(st,
		engine.WithLogger(logger),
		engine.WithSessionOptions(
			session.WithCodec(codec),
			session.WithReentryPolicy(reentry),
			session.WithGestureGenerator(testutil.NewSequenceGestureGenerator(scenario.GesturePrefix)),
		),
		engine.WithListeners(h.recorder.listener),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.engine.Run(runCtx) }()

	result := NewResult()
	h.executeFlow(ctx, scenario.Flow, result)

	h.engine.Stop()
	if err := <-done; err != nil {
		return nil, fmt.Errorf("engine stopped with error: %w", err)
	}
	result.Trace = h.recorder.events()

	for _, id := range h.surfaces {
		items, err := st.ReadItems(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read final order of %s: %w", id, err)
		}
		result.State[id] = model.IDs(items)
	}

	// Evaluate assertions against the result
	actx := &AssertionContext{
		Store:          st,
		Ctx:            ctx,
		DefaultSurface: h.defaultSurface(),
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// loadSurfaces compiles the scenario's CUE surface files and inline surfaces and
// validates each one. Surface ids must be unique across both sources.
func loadSurfaces(scenario *Scenario) ([]model.Surface, error) {
	var out []model.Surface
	seen := make(map[string]bool)
	add := func(s model.Surface) error {
		if errs := compiler.Validate(&s); len(errs) > 0 {
			return fmt.Errorf("surface %s: %w", s.ID, errs[0])
		}
		if seen[s.ID] {
			return fmt.Errorf("surface %s declared twice", s.ID)
		}
		seen[s.ID] = true
		out = append(out, s)
		return nil
	}

	for _, path := range scenario.SurfaceFiles {
		compiled, err := compileSurfaceFile(path)
		if err != nil {
			return nil, err
		}
		for _, s := range compiled {
			if err := add(s); err != nil {
				return nil, err
			}
		}
	}

	for _, def := range scenario.Surfaces {
		s, err := def.Surface()
		if err != nil {
			return nil, err
		}
		if err := add(s); err != nil {
			return nil, err
		}
	}

	if len(out) == 0 {
		return nil, errors.New("scenario declares no surfaces")
	}
	return out, nil
}

// compileSurfaceFile compiles every `surface` entry of one CUE file, in
// declaration order.
func compileSurfaceFile(path string) ([]model.Surface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read surface file %s: %w", path, err)
	}

	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile surface file %s: %w", path, err)
	}

	surfacesVal := v.LookupPath(cue.ParsePath("surface"))
	if !surfacesVal.Exists() {
		return nil, fmt.Errorf("%s declares no surfaces", path)
	}
	iter, err := surfacesVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var out []model.Surface
	for iter.Next() {
		s, err := compiler.CompileSurface(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// defaultSurface is the surface steps and assertions use when they name
// none: the only surface, or "" when there are several.
func (h *Harness) defaultSurface() string {
	if len(h.surfaces) == 1 {
		return h.surfaces[0]
	}
	return ""
}

func (h *Harness) surfaceFor(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	if d := h.defaultSurface(); d != "" {
		return d, nil
	}
	return "", errors.New("surface is required when the scenario declares several surfaces")
}

// executeSetup applies setup edits directly to the store, before the
// engine caches any surface.
func (h *Harness) executeSetup(ctx context.Context, setup []SetupStep) error {
	for i, step := range setup {
		surface, err := h.surfaceFor(step.Surface)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}

		items, err := h.store.ReadItems(ctx, surface)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		idx := model.Find(items, step.Remove)
		if idx < 0 {
			return fmt.Errorf("setup step %d: item %q not on surface %s", i, step.Remove, surface)
		}
		remaining := append(model.Clone(items[:idx]), items[idx+1:]...)
		if _, err := h.store.ReplaceItems(ctx, surface, reorder.Renumber(remaining)); err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}

		h.logger.Info("setup step completed",
			"step", i,
			"surface", surface,
			"removed", step.Remove,
		)
	}
	return nil
}

// executeFlow submits every flow step to the engine and validates expect
// clauses. Mismatches are recorded on result; the flow always runs to the
// end so the trace is complete.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) {
	for i, step := range flow {
		surface, err := h.surfaceFor(step.Surface)
		if err != nil {
			result.AddError(fmt.Sprintf("flow step %d: %v", i, err))
			continue
		}

		entry := h.recorder.begin(TraceEvent{
			Type:    TraceStep,
			Name:    step.Action,
			Surface: surface,
			Item:    step.Item,
			Target:  step.Target,
		})

		reply, err := h.submit(ctx, surface, step)
		if err != nil {
			code := string(engine.CodeOf(err))
			h.recorder.update(entry, func(ev *TraceEvent) {
				ev.Outcome = "error"
				ev.Detail = code
			})
			if step.Expect == nil || step.Expect.Error != code {
				result.AddError(fmt.Sprintf("flow step %d (%s): %v", i, step.Action, err))
			}
			continue
		}

		var got TraceEvent
		h.recorder.update(entry, func(ev *TraceEvent) {
			fillStep(ev, step.Action, reply)
			got = *ev
		})
		if step.Action == ActionStart && reply.Started {
			h.payloads[surface] = reply.Payload
		}

		for _, msg := range checkExpect(step, got, reply) {
			result.AddError(fmt.Sprintf("flow step %d (%s): %s", i, step.Action, msg))
		}

		h.logger.Info("flow step completed",
			"step", i,
			"action", step.Action,
			"surface", surface,
			"outcome", got.Outcome,
		)
	}
}

func (h *Harness) submit(ctx context.Context, surface string, step FlowStep) (engine.Reply, error) {
	var at model.Point
	if step.At != nil {
		at = model.Point{X: step.At.X, Y: step.At.Y}
	}

	switch step.Action {
	case ActionStart:
		return h.engine.StartDrag(ctx, surface, step.Item, at)
	case ActionOver:
		return h.engine.DragOver(ctx, surface, step.Target, at)
	case ActionDrop:
		payload := h.payloads[surface]
		if step.Payload != nil {
			payload = []byte(*step.Payload)
		}
		return h.engine.Drop(ctx, surface, step.Target, payload)
	case ActionEnd:
		return h.engine.EndDrag(ctx, surface)
	default:
		return engine.Reply{}, fmt.Errorf("unknown action %q", step.Action)
	}
}

// fillStep records what the engine answered on a step trace entry.
func fillStep(ev *TraceEvent, action string, reply engine.Reply) {
	ev.Gesture = reply.Gesture
	switch action {
	case ActionStart:
		ev.Outcome = "started"
		if !reply.Started {
			ev.Outcome = "rejected"
		}
	case ActionOver:
		ev.Outcome = "idle"
		if reply.Legality != session.LegalityNone {
			ev.Outcome = reply.Legality.DropEffect()
		}
	case ActionDrop:
		ev.Outcome = string(reply.Drop.Outcome)
		if reply.Drop.Dragged.ID != "" {
			ev.Item = reply.Drop.Dragged.ID
		}
		switch reply.Drop.Outcome {
		case session.OutcomeInvalid:
			ev.Detail = string(reply.Drop.Reason)
		case session.OutcomeStale:
			ev.Detail = reply.Drop.Stale.String()
		}
		ev.Order = model.IDs(reply.Items)
	case ActionEnd:
		ev.Outcome = "idle"
		if reply.Ended {
			ev.Outcome = "ended"
		}
	}
}

// checkExpect compares a step's answer with its expect clause.
func checkExpect(step FlowStep, got TraceEvent, reply engine.Reply) []string {
	exp := step.Expect
	if exp == nil {
		return nil
	}

	var msgs []string
	mismatch := func(field string, want, have any) {
		msgs = append(msgs, fmt.Sprintf("expected %s %v, got %v", field, want, have))
	}

	if exp.Error != "" {
		mismatch("error", exp.Error, "none")
	}
	if exp.Started != nil && *exp.Started != reply.Started {
		mismatch("started", *exp.Started, reply.Started)
	}
	if exp.Effect != "" && exp.Effect != got.Outcome {
		mismatch("effect", exp.Effect, got.Outcome)
	}
	if exp.Outcome != "" && exp.Outcome != got.Outcome {
		mismatch("outcome", exp.Outcome, got.Outcome)
	}
	if exp.Reason != "" && exp.Reason != string(reply.Drop.Reason) {
		mismatch("reason", exp.Reason, reply.Drop.Reason)
	}
	if exp.Stale != "" && exp.Stale != reply.Drop.Stale.String() {
		mismatch("stale", exp.Stale, reply.Drop.Stale.String())
	}
	if exp.Ended != nil && *exp.Ended != reply.Ended {
		mismatch("ended", *exp.Ended, reply.Ended)
	}
	if exp.Order != nil {
		have := model.IDs(reply.Items)
		if !equalStrings(exp.Order, have) {
			mismatch("order", exp.Order, have)
		}
	}
	return msgs
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recorder collects the trace. Callbacks arrive on the engine goroutine
// while the flow goroutine waits in Submit.
type recorder struct {
	mu    sync.Mutex
	clock *engine.Clock
	trace []TraceEvent
}

// begin appends ev with the next seq and returns its index.
func (r *recorder) begin(ev TraceEvent) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Seq = r.clock.Next()
	r.trace = append(r.trace, ev)
	return len(r.trace) - 1
}

func (r *recorder) update(i int, f func(*TraceEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f(&r.trace[i])
}

func (r *recorder) events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.trace))
	copy(out, r.trace)
	return out
}

// listener returns the session listener for surface.
func (r *recorder) listener(surface string) session.Listener {
	record := func(name string, dragged, target string) {
		r.begin(TraceEvent{Type: TraceCallback, Name: name, Surface: surface, Item: dragged, Target: target})
	}
	return session.ListenerFuncs{
		OnDragStart: func(item model.DraggableItem) {
			record(CallbackDragStarted, item.ID, "")
		},
		OnDragEnd: func(item model.DraggableItem) {
			record(CallbackDragEnded, item.ID, "")
		},
		OnReorder: func(newOrder []model.DraggableItem) {
			r.begin(TraceEvent{Type: TraceCallback, Name: CallbackReordered, Surface: surface, Order: model.IDs(newOrder)})
		},
		OnInvalidDrop: func(dragged, target model.DraggableItem) {
			record(CallbackInvalidDrop, dragged.ID, target.ID)
		},
		OnDropped: func(dragged, target model.DraggableItem) {
			record(CallbackDropped, dragged.ID, target.ID)
		},
		OnMalformed: func(payload []byte, _ error) {
			r.begin(TraceEvent{Type: TraceCallback, Name: CallbackMalformed, Surface: surface, Detail: string(payload)})
		},
	}
}
