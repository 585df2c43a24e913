package constraint

import (
	"github.com/roach88/reorder/internal/model"
)

// Reason explains why a drop was rejected.
type Reason string

const (
	// ReasonNone means the drop is legal.
	ReasonNone Reason = ""

	// ReasonSelfDrop means the item was dropped onto itself.
	ReasonSelfDrop Reason = "self_drop"

	// ReasonKindNotAllowed means the target's or the dragged item's kind is
	// outside AllowedDropKinds.
	ReasonKindNotAllowed Reason = "kind_not_allowed"

	// ReasonPredicateRejected means the custom predicate returned false.
	ReasonPredicateRejected Reason = "predicate_rejected"
)

// Verdict is the outcome of a legality check.
type Verdict struct {
	Allowed bool
	Reason  Reason
}

var allowed = Verdict{Allowed: true, Reason: ReasonNone}

func denied(r Reason) Verdict {
	return Verdict{Allowed: false, Reason: r}
}

// CanDrop evaluates drop legality for dragged onto target. A non-empty
// AllowedDropKinds must contain both the target's and the dragged item's
// kind: a restricted surface accepts only those kinds as participants.
func CanDrop(cfg model.ConstraintConfig, dragged, target model.DraggableItem) Verdict {
	if dragged.ID == target.ID {
		return denied(ReasonSelfDrop)
	}

	if cfg.HasKindRestriction() {
		if !kindAllowed(cfg.AllowedDropKinds, target.Kind) || !kindAllowed(cfg.AllowedDropKinds, dragged.Kind) {
			return denied(ReasonKindNotAllowed)
		}
	}

	if cfg.CustomPredicate != nil {
		if cfg.CustomPredicate(dragged, target) {
			return allowed
		}
		return denied(ReasonPredicateRejected)
	}

	return allowed
}

// Allowed is CanDrop reduced to a boolean.
func Allowed(cfg model.ConstraintConfig, dragged, target model.DraggableItem) bool {
	return CanDrop(cfg, dragged, target).Allowed
}

// kindAllowed reports whether k is in the allowed set. CanDrop asks it for
// both the target and the dragged kind. A kind outside the closed set is
// never allowed.
func kindAllowed(set model.KindSet, k model.Kind) bool {
	switch k {
	case model.KindGroupMember, model.KindChildMember:
		return set.Has(k)
	default:
		return false
	}
}
