package session

import (
	"log/slog"

	"github.com/roach88/reorder/internal/constraint"
	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/reorder"
)

// Legality is the drop-effect signal produced by DragOver.
type Legality int

const (
	// LegalityNone means no drag was active; nothing was evaluated.
	LegalityNone Legality = iota
	// LegalityAllowed means a drop on the hovered target would be legal.
	LegalityAllowed
	// LegalityDenied means a drop on the hovered target would be rejected.
	LegalityDenied
)

// DropEffect maps the signal onto the platform drop-effect vocabulary.
func (l Legality) DropEffect() string {
	if l == LegalityAllowed {
		return "move"
	}
	return "none"
}

// Outcome classifies the result of Drop.
type Outcome string

const (
	OutcomeIgnored          Outcome = "ignored"           // no active drag
	OutcomeMalformedPayload Outcome = "malformed_payload" // transfer data undecodable
	OutcomeInvalid          Outcome = "invalid"           // constraint violation
	OutcomeStale            Outcome = "stale"             // dragged or target id missing
	OutcomeReordered        Outcome = "reordered"         // new order emitted
)

// DropResult describes what Drop did. Items is the emitted order for
// OutcomeReordered and the unchanged store sequence for OutcomeStale.
type DropResult struct {
	Outcome Outcome
	Gesture string
	Dragged model.DraggableItem
	Target  model.DraggableItem
	Items   []model.DraggableItem
	Reason  constraint.Reason
	Stale   reorder.Staleness
}

// Session is the drag session state machine for one surface.
type Session struct {
	source   ItemSource
	cfg      model.ConstraintConfig
	listener Listener
	gestures GestureGenerator
	codec    TransferCodec
	reentry  ReentryPolicy
	logger   *slog.Logger

	// Live gesture state. Only meaningful while active is true.
	active  bool
	gesture string
	dragged model.DraggableItem
	hover   *model.DraggableItem
	start   model.Point
	current model.Point
}

// New creates an idle session reading items from source and judging drops
// with cfg. cfg should already be resolved (see constraint.Resolve).
func New(source ItemSource, cfg model.ConstraintConfig, opts ...Option) *Session {
	if source == nil {
		source = StaticSource(nil)
	}
	s := &Session{
		source:   source,
		cfg:      cfg,
		listener: NopListener{},
		gestures: UUIDv7Generator{},
		codec:    ItemCodec{},
		reentry:  ReentryOverwrite,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartDrag begins a gesture for item at pos. It reports whether the
// session was (re)started; under ReentryReject a call made while a drag is
// active returns false and leaves the live session untouched.
func (s *Session) StartDrag(item model.DraggableItem, pos model.Point) bool {
	if s.active {
		switch s.reentry {
		case ReentryReject:
			s.logger.Warn("drag start rejected: session already active",
				"gesture", s.gesture,
				"dragged", s.dragged.ID,
				"requested", item.ID,
			)
			return false
		case ReentryOverwrite:
			s.logger.Warn("drag session overwritten",
				"gesture", s.gesture,
				"dragged", s.dragged.ID,
				"requested", item.ID,
			)
		}
	}

	s.active = true
	s.gesture = s.gestures.Generate()
	s.dragged = item
	s.hover = nil
	s.start = pos
	s.current = pos

	s.logger.Debug("drag started",
		"gesture", s.gesture,
		"item", item.ID,
		"kind", item.Kind.String(),
	)
	s.listener.DragStarted(item)
	return true
}

// DragOver records target as the hover target and evaluates whether a drop
// there would be legal. It never touches the item store.
func (s *Session) DragOver(target model.DraggableItem, pos model.Point) Legality {
	if !s.active {
		return LegalityNone
	}

	hover := target
	s.hover = &hover
	s.current = pos

	if constraint.Allowed(s.cfg, s.dragged, target) {
		return LegalityAllowed
	}
	return LegalityDenied
}

// Drop terminates the gesture on target. payload is the raw transfer data
// produced by the session's codec at drag start.
func (s *Session) Drop(target model.DraggableItem, payload []byte) DropResult {
	if !s.active {
		return DropResult{Outcome: OutcomeIgnored, Target: target}
	}
	gesture := s.gesture

	dragged, err := s.codec.Decode(payload, s.source)
	if err != nil {
		s.logger.Warn("drop payload rejected",
			"gesture", gesture,
			"target", target.ID,
			"error", err,
		)
		s.reset()
		s.listener.Malformed(payload, err)
		return DropResult{Outcome: OutcomeMalformedPayload, Gesture: gesture, Target: target}
	}

	// A missing id ends the gesture silently, before any constraint sees its
	// kindless stand-in. A self-drop stays illegal either way.
	items := s.source.Items()
	if dragged.ID != target.ID {
		if stale := reorder.Locate(items, dragged, target); stale != reorder.StaleNone {
			return s.dropStale(gesture, dragged, target, items, stale)
		}
	}

	verdict := constraint.CanDrop(s.cfg, dragged, target)
	if !verdict.Allowed {
		s.logger.Debug("drop rejected",
			"gesture", gesture,
			"dragged", dragged.ID,
			"target", target.ID,
			"reason", string(verdict.Reason),
		)
		s.listener.InvalidDrop(dragged, target)
		s.reset()
		return DropResult{
			Outcome: OutcomeInvalid,
			Gesture: gesture,
			Dragged: dragged,
			Target:  target,
			Reason:  verdict.Reason,
		}
	}

	res := reorder.Reorder(items, dragged, target)
	if !res.Applied() {
		return s.dropStale(gesture, dragged, target, res.Items, res.Stale)
	}

	s.logger.Debug("drop applied",
		"gesture", gesture,
		"dragged", dragged.ID,
		"target", target.ID,
		"count", len(res.Items),
	)
	s.listener.Reordered(res.Items)
	s.listener.Dropped(dragged, target)
	s.reset()
	return DropResult{
		Outcome: OutcomeReordered,
		Gesture: gesture,
		Dragged: dragged,
		Target:  target,
		Items:   res.Items,
	}
}

func (s *Session) dropStale(gesture string, dragged, target model.DraggableItem, items []model.DraggableItem, stale reorder.Staleness) DropResult {
	s.logger.Debug("drop ignored: stale item",
		"gesture", gesture,
		"dragged", dragged.ID,
		"target", target.ID,
		"stale", stale.String(),
	)
	s.reset()
	return DropResult{
		Outcome: OutcomeStale,
		Gesture: gesture,
		Dragged: dragged,
		Target:  target,
		Items:   items,
		Stale:   stale,
	}
}

// EndDrag cancels the gesture. It is idempotent and reports whether a drag
// was active; DragEnded fires only in that case.
func (s *Session) EndDrag() bool {
	if !s.active {
		return false
	}
	dragged := s.dragged
	s.logger.Debug("drag ended", "gesture", s.gesture, "item", dragged.ID)
	s.reset()
	s.listener.DragEnded(dragged)
	return true
}

// Active reports whether a gesture is in progress.
func (s *Session) Active() bool {
	return s.active
}

// Config returns the surface's constraint config.
func (s *Session) Config() model.ConstraintConfig {
	return s.cfg
}

// Codec returns the transfer codec.
func (s *Session) Codec() TransferCodec {
	return s.codec
}

// Snapshot returns a copy of the session state. An idle session yields the
// zero DragSession.
func (s *Session) Snapshot() model.DragSession {
	if !s.active {
		return model.DragSession{}
	}
	dragged := s.dragged
	start := s.start
	current := s.current
	snap := model.DragSession{
		Active:         true,
		Gesture:        s.gesture,
		Dragged:        &dragged,
		PointerStart:   &start,
		PointerCurrent: &current,
	}
	if s.hover != nil {
		hover := *s.hover
		snap.Hover = &hover
	}
	return snap
}

func (s *Session) reset() {
	s.active = false
	s.gesture = ""
	s.dragged = model.DraggableItem{}
	s.hover = nil
	s.start = model.Point{}
	s.current = model.Point{}
}
