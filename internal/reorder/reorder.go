package reorder

import (
	"fmt"

	"github.com/roach88/reorder/internal/model"
)

// Staleness reports which id of a drop was missing from the sequence.
type Staleness int

const (
	// StaleNone means both ids were found.
	StaleNone Staleness = iota
	// StaleDragged means the dragged id was not in the sequence.
	StaleDragged
	// StaleTarget means the target id was not in the sequence after the
	// dragged entry was removed.
	StaleTarget
)

// String returns a lowercase label for logs and traces.
func (s Staleness) String() string {
	switch s {
	case StaleNone:
		return "none"
	case StaleDragged:
		return "dragged"
	case StaleTarget:
		return "target"
	default:
		return fmt.Sprintf("staleness(%d)", int(s))
	}
}

// Result is the outcome of Reorder.
type Result struct {
	// Items is the resulting sequence. When Stale is not StaleNone it is
	// the input slice itself, returned unchanged.
	Items []model.DraggableItem

	// Stale reports a missing id.
	Stale Staleness
}

// Applied reports whether a new sequence was produced.
func (r Result) Applied() bool {
	return r.Stale == StaleNone
}

// Locate reports which of dragged and target is missing from items, checking
// dragged first. It is the staleness Reorder would report for a non-self drop.
func Locate(items []model.DraggableItem, dragged, target model.DraggableItem) Staleness {
	if model.Find(items, dragged.ID) < 0 {
		return StaleDragged
	}
	if model.Find(items, target.ID) < 0 {
		return StaleTarget
	}
	return StaleNone
}

// Reorder moves dragged to the slot immediately before target and
// renumbers every position densely from 0.
//
// The entry that moves is the sequence's own entry for dragged.ID, not the
// dragged argument, so payload and metadata always come from the store.
func Reorder(items []model.DraggableItem, dragged, target model.DraggableItem) Result {
	from := model.Find(items, dragged.ID)
	if from < 0 {
		return Result{Items: items, Stale: StaleDragged}
	}
	moving := items[from]

	remaining := make([]model.DraggableItem, 0, len(items))
	remaining = append(remaining, items[:from]...)
	remaining = append(remaining, items[from+1:]...)

	to := model.Find(remaining, target.ID)
	if to < 0 {
		return Result{Items: items, Stale: StaleTarget}
	}

	out := make([]model.DraggableItem, 0, len(items))
	out = append(out, remaining[:to]...)
	out = append(out, moving)
	out = append(out, remaining[to:]...)

	return Result{Items: renumberInPlace(out), Stale: StaleNone}
}

// Renumber returns a copy of items with Position set to each entry's index.
func Renumber(items []model.DraggableItem) []model.DraggableItem {
	return renumberInPlace(model.Clone(items))
}

func renumberInPlace(items []model.DraggableItem) []model.DraggableItem {
	for i := range items {
		items[i].Position = i
	}
	return items
}
