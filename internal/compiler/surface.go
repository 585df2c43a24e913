package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/reorder/internal/model"
)

// CompileSurface parses a CUE value into a Surface.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the surface struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`surface: board: { items: [...] }`)
//	s, err := CompileSurface(v.LookupPath(cue.ParsePath("surface.board")))
//
// Item positions follow list order. Predicate names are carried as-is;
// Validate checks them against the registry.
func CompileSurface(v cue.Value) (*model.Surface, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	s := &model.Surface{}

	// e.g., `surface: "main-board": { ... }` → id is "main-board"
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		s.ID = strings.Trim(labels[len(labels)-1].String(), `"`)
	}
	if s.ID == "" {
		return nil, &CompileError{
			Field:   "surface",
			Message: "surface must be declared under a label",
			Pos:     v.Pos(),
		}
	}

	cfg, err := parseConstraints(v)
	if err != nil {
		return nil, err
	}
	s.Config = cfg

	s.Items, err = parseItems(v)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func parseConstraints(v cue.Value) (model.ConstraintConfig, error) {
	var cfg model.ConstraintConfig

	if cross := v.LookupPath(cue.ParsePath("allow_cross_group")); cross.Exists() {
		b, err := cross.Bool()
		if err != nil {
			return cfg, fieldError("allow_cross_group", "must be a bool", cross, err)
		}
		cfg.AllowCrossGroup = b
	}

	var err error
	if cfg.MaxItems, err = parseBound(v, "max_items"); err != nil {
		return cfg, err
	}
	if cfg.MinItems, err = parseBound(v, "min_items"); err != nil {
		return cfg, err
	}

	if kinds := v.LookupPath(cue.ParsePath("allowed_drop_kinds")); kinds.Exists() {
		iter, err := kinds.List()
		if err != nil {
			return cfg, fieldError("allowed_drop_kinds", "must be a list of kind tags", kinds, err)
		}
		cfg.AllowedDropKinds = model.NewKindSet()
		for i := 0; iter.Next(); i++ {
			field := fmt.Sprintf("allowed_drop_kinds[%d]", i)
			k, err := parseKindValue(iter.Value(), field)
			if err != nil {
				return cfg, err
			}
			cfg.AllowedDropKinds[k] = struct{}{}
		}
	}

	if pred := v.LookupPath(cue.ParsePath("predicate")); pred.Exists() {
		name, err := pred.String()
		if err != nil {
			return cfg, fieldError("predicate", "must be a string", pred, err)
		}
		cfg.PredicateName = name
	}

	return cfg, nil
}

// parseBound reads an optional integer field. Floats are rejected by the
// CUE int conversion.
func parseBound(v cue.Value, name string) (*int, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return nil, nil
	}
	if val.Kind() != cue.IntKind {
		return nil, &CompileError{
			Field:   name,
			Message: fmt.Sprintf("must be an integer, got %s", val.Kind()),
			Pos:     val.Pos(),
		}
	}
	n64, err := val.Int64()
	if err != nil {
		return nil, fieldError(name, "must be an integer", val, err)
	}
	n := int(n64)
	return &n, nil
}

func parseItems(v cue.Value) ([]model.DraggableItem, error) {
	itemsVal := v.LookupPath(cue.ParsePath("items"))
	if !itemsVal.Exists() {
		return []model.DraggableItem{}, nil
	}

	iter, err := itemsVal.List()
	if err != nil {
		return nil, fieldError("items", "must be a list", itemsVal, err)
	}

	items := []model.DraggableItem{}
	for i := 0; iter.Next(); i++ {
		item, err := parseItem(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseItem(v cue.Value, index int) (model.DraggableItem, error) {
	prefix := fmt.Sprintf("items[%d]", index)
	item := model.DraggableItem{Position: index}

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return item, &CompileError{
			Field:   prefix + ".id",
			Message: "id is required",
			Pos:     v.Pos(),
		}
	}
	id, err := idVal.String()
	if err != nil {
		return item, fieldError(prefix+".id", "must be a string", idVal, err)
	}
	item.ID = id

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return item, &CompileError{
			Field:   prefix + ".kind",
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	item.Kind, err = parseKindValue(kindVal, prefix+".kind")
	if err != nil {
		return item, err
	}

	if parentVal := v.LookupPath(cue.ParsePath("parent_group_id")); parentVal.Exists() {
		parent, err := parentVal.String()
		if err != nil {
			return item, fieldError(prefix+".parent_group_id", "must be a string", parentVal, err)
		}
		item.ParentGroupID = parent
	}

	// Payload is opaque; any concrete CUE value is exported as JSON.
	if payloadVal := v.LookupPath(cue.ParsePath("payload")); payloadVal.Exists() {
		raw, err := payloadVal.MarshalJSON()
		if err != nil {
			return item, fieldError(prefix+".payload", "must be concrete", payloadVal, err)
		}
		item.Payload = json.RawMessage(raw)
	}

	return item, nil
}

func parseKindValue(v cue.Value, field string) (model.Kind, error) {
	tag, err := v.String()
	if err != nil {
		return 0, fieldError(field, "must be a string", v, err)
	}
	k, err := model.ParseKind(tag)
	if err != nil {
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%v: must be %q or %q", err, model.KindGroupMemberTag, model.KindChildMemberTag),
			Pos:     v.Pos(),
		}
	}
	return k, nil
}

// fieldError wraps a CUE conversion failure with the field it came from.
func fieldError(field, msg string, v cue.Value, err error) error {
	return &CompileError{
		Field:   field,
		Message: fmt.Sprintf("%s: %v", msg, err),
		Pos:     v.Pos(),
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
