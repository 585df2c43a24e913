package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/reorder/internal/constraint"
	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/session"
	"github.com/roach88/reorder/internal/store"
)

// Engine is the single-writer event loop that owns every drag session.
//
// Each surface has at most one session. All session calls, store writes and
// drag log appends happen in the Run goroutine, so a surface never sees two
// gestures interleave.
//
// Thread-safety model:
//   - Enqueue(), Submit() and the typed helpers: safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	store       *store.Store
	clock       *Clock
	queue       *eventQueue
	logger      *slog.Logger
	sessionOpts []session.Option
	listeners   func(surface string) session.Listener

	// Touched only by the Run goroutine.
	surfaces map[string]*surfaceState
}

// surfaceState is the engine's cached view of one surface.
type surfaceState struct {
	id      string
	items   []model.DraggableItem
	session *session.Session
}

// Reply is the result of one processed event.
type Reply struct {
	// Started reports whether EventStart (re)started the session.
	Started bool

	// Gesture is the gesture token the event applied to, if any.
	Gesture string

	// Payload is the transfer payload encoded at drag start.
	Payload []byte

	// Legality is the DragOver signal.
	Legality session.Legality

	// Drop is the result of EventDrop.
	Drop session.DropResult

	// Ended reports whether EventEnd cancelled an active gesture.
	Ended bool

	// Items is the surface order after the event.
	Items []model.DraggableItem

	// Session is the session state after the event.
	Session model.DragSession

	// Seq is the drag log seq written for the event, or 0 if none.
	Seq int64
}

// response carries a Reply back to Submit.
type response struct {
	reply Reply
	err   error
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the logical clock. Use ResumeClock to continue an
// existing log.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSessionOptions appends options applied to every session the engine
// creates (codec, reentry policy, gesture generator).
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) {
		e.sessionOpts = append(e.sessionOpts, opts...)
	}
}

// WithListeners sets a factory that returns the listener for a surface's
// session. It is called once per surface load, from the Run goroutine.
func WithListeners(f func(surface string) session.Listener) Option {
	return func(e *Engine) {
		e.listeners = f
	}
}

// New creates an Engine backed by s.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		clock:    NewClock(),
		queue:    newEventQueue(),
		logger:   slog.Default(),
		surfaces: make(map[string]*surfaceState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enqueue submits an event for processing by the Run loop without waiting
// for its result.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	ev.reply = nil
	return e.queue.push(ev)
}

// Submit enqueues ev and waits for the Run loop to process it.
// Returns ErrStopped if the engine no longer accepts events.
func (e *Engine) Submit(ctx context.Context, ev Event) (Reply, error) {
	ch := make(chan response, 1)
	ev.reply = ch
	if !e.queue.push(ev) {
		return Reply{}, ErrStopped
	}

	select {
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	case r := <-ch:
		return r.reply, r.err
	}
}

// StartDrag begins a drag of itemID on surface.
func (e *Engine) StartDrag(ctx context.Context, surface, itemID string, pos model.Point) (Reply, error) {
	return e.Submit(ctx, Event{Type: EventStart, Surface: surface, ItemID: itemID, Point: pos})
}

// DragOver hovers the active drag over targetID.
func (e *Engine) DragOver(ctx context.Context, surface, targetID string, pos model.Point) (Reply, error) {
	return e.Submit(ctx, Event{Type: EventOver, Surface: surface, TargetID: targetID, Point: pos})
}

// Drop drops the active drag on targetID.
func (e *Engine) Drop(ctx context.Context, surface, targetID string, payload []byte) (Reply, error) {
	return e.Submit(ctx, Event{Type: EventDrop, Surface: surface, TargetID: targetID, Payload: payload})
}

// EndDrag cancels the active drag.
func (e *Engine) EndDrag(ctx context.Context, surface string) (Reply, error) {
	return e.Submit(ctx, Event{Type: EventEnd, Surface: surface})
}

// EndGesture cancels the active drag only if gesture is still the live
// gesture of the surface. The check and the end happen in one event.
func (e *Engine) EndGesture(ctx context.Context, surface, gesture string) (Reply, error) {
	if gesture == "" {
		return Reply{}, newError(CodeInvalidEvent, surface, "gesture is required", nil)
	}
	return e.Submit(ctx, Event{Type: EventEnd, Surface: surface, Gesture: gesture})
}

// Snapshot returns the surface's current items and session state.
func (e *Engine) Snapshot(ctx context.Context, surface string) (Reply, error) {
	return e.Submit(ctx, Event{Type: EventSnapshot, Surface: surface})
}

// Reload drops the cached surface. Any live gesture on it is discarded
// without callbacks.
func (e *Engine) Reload(ctx context.Context, surface string) error {
	_, err := e.Submit(ctx, Event{Type: EventReload, Surface: surface})
	return err
}

// Run starts the single-writer event loop.
// Blocks until context is cancelled or Stop() is called.
//
// Must be called from exactly ONE goroutine.
//
// On event processing failure the error is logged with the event context,
// returned to the submitter, and processing continues.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "seq", e.clock.Current())

	for {
		ev, ok := e.queue.pop()
		if ok {
			e.handle(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.close()
			e.abandonPending()
			return ctx.Err()

		case <-e.queue.ready():
			// The signal channel closes with the queue, so this also
			// fires on Stop. Remaining events are drained first.
			if e.queue.len() == 0 && e.stopped() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine. Events already queued are
// processed before Run returns.
func (e *Engine) Stop() {
	e.queue.close()
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// QueueLen returns the current number of pending events.
func (e *Engine) QueueLen() int {
	return e.queue.len()
}

func (e *Engine) stopped() bool {
	return e.queue.isClosed()
}

// abandonPending answers every queued Submit with ErrStopped.
func (e *Engine) abandonPending() {
	for _, ev := range e.queue.drain() {
		if ev.reply != nil {
			ev.reply <- response{err: ErrStopped}
		}
	}
}

// handle processes one event and answers its submitter.
// Called only from Run() goroutine.
func (e *Engine) handle(ctx context.Context, ev Event) {
	reply, err := e.processEvent(ctx, ev)
	if err != nil {
		e.logEventError(ev, err)
	}
	if ev.reply != nil {
		ev.reply <- response{reply: reply, err: err}
	}
}

// processEvent routes an event to the appropriate handler.
// Called only from Run() goroutine.
func (e *Engine) processEvent(ctx context.Context, ev Event) (Reply, error) {
	if ev.Surface == "" {
		return Reply{}, newError(CodeInvalidEvent, "", "event has no surface", nil)
	}

	if ev.Type == EventReload {
		delete(e.surfaces, ev.Surface)
		e.logger.Debug("surface evicted", "surface", ev.Surface)
		return Reply{}, nil
	}

	st, err := e.surface(ctx, ev.Surface)
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	switch ev.Type {
	case EventStart:
		reply, err = e.processStart(ctx, st, ev)
	case EventOver:
		reply, err = e.processOver(ctx, st, ev)
	case EventDrop:
		reply, err = e.processDrop(ctx, st, ev)
	case EventEnd:
		reply, err = e.processEnd(ctx, st, ev)
	case EventSnapshot:
	default:
		return Reply{}, newError(CodeInvalidEvent, ev.Surface, fmt.Sprintf("unknown event type %d", ev.Type), nil)
	}

	reply.Items = model.Clone(st.items)
	reply.Session = st.session.Snapshot()
	return reply, err
}

func (e *Engine) processStart(ctx context.Context, st *surfaceState, ev Event) (Reply, error) {
	idx := model.Find(st.items, ev.ItemID)
	if idx < 0 {
		return Reply{}, newError(CodeUnknownItem, st.id, fmt.Sprintf("item %q not on surface", ev.ItemID), nil)
	}
	item := st.items[idx]

	started := st.session.StartDrag(item, ev.Point)
	gesture := st.session.Snapshot().Gesture
	reply := Reply{Started: started, Gesture: gesture}

	outcome := "started"
	if !started {
		outcome = "rejected"
	} else {
		payload, err := st.session.Codec().Encode(item)
		if err != nil {
			return reply, fmt.Errorf("encode transfer payload for %s: %w", item.ID, err)
		}
		reply.Payload = payload
	}

	seq, err := e.appendEvent(ctx, model.DragEvent{
		SurfaceID: st.id,
		Gesture:   gesture,
		Type:      model.EventStart,
		Outcome:   outcome,
		DraggedID: item.ID,
	}, nil)
	reply.Seq = seq
	return reply, err
}

func (e *Engine) processOver(ctx context.Context, st *surfaceState, ev Event) (Reply, error) {
	before := st.session.Snapshot()
	target := st.resolve(ev.TargetID)

	legality := st.session.DragOver(target, ev.Point)
	reply := Reply{Gesture: before.Gesture, Legality: legality}
	if legality == session.LegalityNone {
		return reply, nil
	}

	// Pointer moves within the same target are not logged.
	if before.Hover != nil && before.Hover.ID == target.ID {
		return reply, nil
	}

	seq, err := e.appendEvent(ctx, model.DragEvent{
		SurfaceID: st.id,
		Gesture:   before.Gesture,
		Type:      model.EventOver,
		DraggedID: before.Dragged.ID,
		TargetID:  target.ID,
		Detail:    legality.DropEffect(),
	}, nil)
	reply.Seq = seq
	return reply, err
}

func (e *Engine) processDrop(ctx context.Context, st *surfaceState, ev Event) (Reply, error) {
	before := st.session.Snapshot()
	target := st.resolve(ev.TargetID)

	res := st.session.Drop(target, ev.Payload)
	reply := Reply{Gesture: res.Gesture, Drop: res}
	if res.Outcome == session.OutcomeIgnored {
		return reply, nil
	}

	if res.Outcome == session.OutcomeReordered {
		if err := e.persist(ctx, st, res.Items); err != nil {
			return reply, err
		}
	}

	rec := model.DragEvent{
		SurfaceID: st.id,
		Gesture:   res.Gesture,
		Type:      model.EventDrop,
		Outcome:   string(res.Outcome),
		DraggedID: res.Dragged.ID,
		TargetID:  target.ID,
	}
	if rec.DraggedID == "" && before.Dragged != nil {
		rec.DraggedID = before.Dragged.ID
	}
	switch res.Outcome {
	case session.OutcomeInvalid:
		rec.Detail = string(res.Reason)
	case session.OutcomeStale:
		rec.Detail = res.Stale.String()
	}

	seq, err := e.appendEvent(ctx, rec, st.items)
	reply.Seq = seq
	return reply, err
}

func (e *Engine) processEnd(ctx context.Context, st *surfaceState, ev Event) (Reply, error) {
	before := st.session.Snapshot()
	if ev.Gesture != "" && ev.Gesture != before.Gesture {
		return Reply{Gesture: before.Gesture}, nil
	}
	if !st.session.EndDrag() {
		return Reply{}, nil
	}

	reply := Reply{Gesture: before.Gesture, Ended: true}
	seq, err := e.appendEvent(ctx, model.DragEvent{
		SurfaceID: st.id,
		Gesture:   before.Gesture,
		Type:      model.EventEnd,
		DraggedID: before.Dragged.ID,
	}, nil)
	reply.Seq = seq
	return reply, err
}

// persist writes a new order and adopts it as the cached order. On failure
// the cache is reloaded so it keeps matching the store.
func (e *Engine) persist(ctx context.Context, st *surfaceState, items []model.DraggableItem) error {
	version, err := e.store.ReplaceItems(ctx, st.id, items)
	if err != nil {
		if fresh, rerr := e.store.ReadItems(ctx, st.id); rerr == nil {
			st.items = fresh
		}
		return newError(CodePersistFailed, st.id, "write reordered items", err)
	}
	st.items = items

	e.logger.Info("order persisted",
		"surface", st.id,
		"version", version,
		"count", len(items),
	)
	return nil
}

// appendEvent stamps rec with the next seq and writes it. When order is
// non-nil its fingerprint is recorded.
func (e *Engine) appendEvent(ctx context.Context, rec model.DragEvent, order []model.DraggableItem) (int64, error) {
	if order != nil {
		fp, err := model.OrderFingerprint(order)
		if err != nil {
			return 0, fmt.Errorf("fingerprint order: %w", err)
		}
		rec.OrderFingerprint = fp
	}
	rec.Seq = e.clock.Next()

	if err := e.store.AppendEvent(ctx, rec); err != nil {
		return 0, err
	}

	e.logger.Debug("drag event logged",
		"seq", rec.Seq,
		"surface", rec.SurfaceID,
		"type", string(rec.Type),
		"outcome", rec.Outcome,
	)
	return rec.Seq, nil
}

// surface returns the cached state for id, loading it on first use.
func (e *Engine) surface(ctx context.Context, id string) (*surfaceState, error) {
	if st, ok := e.surfaces[id]; ok {
		return st, nil
	}

	surf, err := e.store.ReadSurface(ctx, id)
	if errors.Is(err, store.ErrSurfaceNotFound) {
		return nil, newError(CodeUnknownSurface, id, "surface not in store", err)
	}
	if err != nil {
		return nil, newError(CodeLoadFailed, id, "read surface", err)
	}

	cfg, err := constraint.Resolve(surf.Config)
	if err != nil {
		return nil, newError(CodeLoadFailed, id, "resolve constraints", err)
	}

	st := &surfaceState{id: id, items: surf.Items}

	opts := []session.Option{session.WithLogger(e.logger.With("surface", id))}
	opts = append(opts, e.sessionOpts...)
	if e.listeners != nil {
		opts = append(opts, session.WithListener(e.listeners(id)))
	}
	st.session = session.New(session.SourceFunc(func() []model.DraggableItem {
		return st.items
	}), cfg, opts...)

	e.surfaces[id] = st
	e.logger.Debug("surface loaded", "surface", id, "items", len(st.items))
	return st, nil
}

// resolve returns the surface's own entry for id, or a bare item carrying
// only the id when it is not on the surface.
func (st *surfaceState) resolve(id string) model.DraggableItem {
	if idx := model.Find(st.items, id); idx >= 0 {
		return st.items[idx]
	}
	return model.DraggableItem{ID: id}
}

// logEventError logs an event processing failure with full context.
func (e *Engine) logEventError(ev Event, err error) {
	e.logger.Error("event processing failed",
		"error", err,
		"code", string(CodeOf(err)),
		"type", ev.Type.String(),
		"surface", ev.Surface,
		"item", ev.ItemID,
		"target", ev.TargetID,
	)
}
