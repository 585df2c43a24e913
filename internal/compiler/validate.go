package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/reorder/internal/constraint"
	"github.com/roach88/reorder/internal/model"
	"github.com/roach88/reorder/internal/reorder"
)

// Validation error codes (E100-E199)
const (
	// Surface errors (E101-E109)
	ErrSurfaceIDEmpty    = "E101" // surface id is required
	ErrUnknownPredicate  = "E102" // predicate name not registered
	ErrNegativeBound     = "E103" // max_items/min_items below zero
	ErrBoundsInverted    = "E104" // min_items greater than max_items
	ErrInvalidAllowedSet = "E105" // allowed_drop_kinds holds an invalid kind

	// Item errors (E110-E119)
	ErrItemIDEmpty      = "E110" // item id is required
	ErrDuplicateItemID  = "E111" // item id appears twice on one surface
	ErrInvalidItemKind  = "E112" // kind is not group-member or child-member
	ErrPositionsInvalid = "E113" // positions are not dense from zero
	ErrUnknownParent    = "E114" // parent_group_id names no item on the surface
	ErrParentNotGroup   = "E115" // parent_group_id names a child-member
	ErrSelfParent       = "E116" // item names itself as parent
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled surface.
// Returns all errors found (does not fail-fast).
//
// MaxItems and MinItems are never enforced at drop time; only their shape
// is checked here.
func Validate(s *model.Surface) []ValidationError {
	var errs []ValidationError

	// E101: id is required
	if strings.TrimSpace(s.ID) == "" {
		errs = append(errs, ValidationError{
			Field:   "id",
			Message: "surface id is required and must be non-empty",
			Code:    ErrSurfaceIDEmpty,
		})
	}

	errs = append(errs, validateConstraints(s.Config)...)
	errs = append(errs, validateItems(s.Items)...)

	return errs
}

func validateConstraints(cfg model.ConstraintConfig) []ValidationError {
	var errs []ValidationError

	// E102: predicate must be registered
	if cfg.PredicateName != "" {
		if _, ok := constraint.Lookup(cfg.PredicateName); !ok {
			errs = append(errs, ValidationError{
				Field:   "predicate",
				Message: fmt.Sprintf("unknown predicate %q (registered: %s)", cfg.PredicateName, strings.Join(constraint.Names(), ", ")),
				Code:    ErrUnknownPredicate,
			})
		}
	}

	// E103: bounds must be non-negative
	if cfg.MaxItems != nil && *cfg.MaxItems < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_items",
			Message: fmt.Sprintf("must be >= 0, got %d", *cfg.MaxItems),
			Code:    ErrNegativeBound,
		})
	}
	if cfg.MinItems != nil && *cfg.MinItems < 0 {
		errs = append(errs, ValidationError{
			Field:   "min_items",
			Message: fmt.Sprintf("must be >= 0, got %d", *cfg.MinItems),
			Code:    ErrNegativeBound,
		})
	}

	// E104: min <= max
	if cfg.MaxItems != nil && cfg.MinItems != nil && *cfg.MinItems > *cfg.MaxItems {
		errs = append(errs, ValidationError{
			Field:   "min_items",
			Message: fmt.Sprintf("min_items %d exceeds max_items %d", *cfg.MinItems, *cfg.MaxItems),
			Code:    ErrBoundsInverted,
		})
	}

	// E105: allowed kinds must be valid
	for k := range cfg.AllowedDropKinds {
		if !k.Valid() {
			errs = append(errs, ValidationError{
				Field:   "allowed_drop_kinds",
				Message: fmt.Sprintf("invalid kind %d", k),
				Code:    ErrInvalidAllowedSet,
			})
		}
	}

	return errs
}

func validateItems(items []model.DraggableItem) []ValidationError {
	var errs []ValidationError

	kinds := make(map[string]model.Kind, len(items))
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)

		// E110: id required
		if it.ID == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: "item id is required",
				Code:    ErrItemIDEmpty,
			})
			continue
		}

		// E111: duplicate id
		if _, seen := kinds[it.ID]; seen {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate item id: %q", it.ID),
				Code:    ErrDuplicateItemID,
			})
			continue
		}
		kinds[it.ID] = it.Kind

		// E112: kind must be a known member
		if !it.Kind.Valid() {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("item %q has an invalid kind", it.ID),
				Code:    ErrInvalidItemKind,
			})
		}
	}

	// E113: positions dense from zero (only meaningful once ids are unique)
	if len(errs) == 0 {
		if err := reorder.CheckDense(items); err != nil {
			errs = append(errs, ValidationError{
				Field:   "items",
				Message: err.Error(),
				Code:    ErrPositionsInvalid,
			})
		}
	}

	// E114-E116: parent references
	for i, it := range items {
		if it.ParentGroupID == "" {
			continue
		}
		field := fmt.Sprintf("items[%d].parent_group_id", i)
		if it.ParentGroupID == it.ID {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("item %q names itself as parent", it.ID),
				Code:    ErrSelfParent,
			})
			continue
		}
		parentKind, ok := kinds[it.ParentGroupID]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("parent %q is not an item on this surface", it.ParentGroupID),
				Code:    ErrUnknownParent,
			})
			continue
		}
		if parentKind != model.KindGroupMember {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("parent %q is not a %s", it.ParentGroupID, model.KindGroupMemberTag),
				Code:    ErrParentNotGroup,
			})
		}
	}

	return errs
}
