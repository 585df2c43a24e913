package model

// Predicate is a caller-supplied drop rule. Its result is authoritative once
// the self-drop and kind checks have passed.
type Predicate func(dragged, target DraggableItem) bool

// ConstraintConfig configures drop legality for one surface.
// It is immutable for the lifetime of the surface.
//
// AllowCrossGroup, MaxItems and MinItems are carried for callers and
// persisted with the surface, but the constraint evaluator does not read
// them. See DESIGN.md before enforcing any of the three.
type ConstraintConfig struct {
	AllowCrossGroup  bool      `json:"allow_cross_group"`
	MaxItems         *int      `json:"max_items,omitempty"`
	MinItems         *int      `json:"min_items,omitempty"`
	AllowedDropKinds KindSet   `json:"allowed_drop_kinds,omitempty"`
	CustomPredicate  Predicate `json:"-"`

	// PredicateName names a registered predicate. The constraint package
	// resolves it into CustomPredicate.
	PredicateName string `json:"predicate,omitempty"`
}

// HasKindRestriction reports whether AllowedDropKinds is set and non-empty.
func (c ConstraintConfig) HasKindRestriction() bool {
	return len(c.AllowedDropKinds) > 0
}
