package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reorder/internal/model"
)

func intPtr(n int) *int { return &n }

func validSurface() *model.Surface {
	return &model.Surface{
		ID: "board",
		Config: model.ConstraintConfig{
			MaxItems:         intPtr(5),
			MinItems:         intPtr(1),
			AllowedDropKinds: model.NewKindSet(model.KindGroupMember),
			PredicateName:    "same-parent",
		},
		Items: []model.DraggableItem{
			{ID: "A", Position: 0, Kind: model.KindGroupMember},
			{ID: "B", Position: 1, Kind: model.KindGroupMember},
			{ID: "C", Position: 2, Kind: model.KindChildMember, ParentGroupID: "A"},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateSurfaceValid(t *testing.T) {
	errs := Validate(validSurface())
	assert.Empty(t, errs, "valid surface should have no errors")
}

func TestValidateSurfaceEmptyItems(t *testing.T) {
	errs := Validate(&model.Surface{ID: "empty"})
	assert.Empty(t, errs)
}

func TestValidateSurfaceIDEmpty(t *testing.T) {
	s := validSurface()
	s.ID = "  "
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrSurfaceIDEmpty, errs[0].Code)
	assert.Equal(t, "id", errs[0].Field)
}

func TestValidateUnknownPredicate(t *testing.T) {
	s := validSurface()
	s.Config.PredicateName = "same-colour"
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownPredicate, errs[0].Code)
	assert.Contains(t, errs[0].Message, "same-parent", "message lists registered names")
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name  string
		max   *int
		min   *int
		codes []string
	}{
		{"both nil", nil, nil, []string{}},
		{"equal", intPtr(3), intPtr(3), []string{}},
		{"zero", intPtr(0), intPtr(0), []string{}},
		{"negative max", intPtr(-1), nil, []string{ErrNegativeBound}},
		{"negative min", nil, intPtr(-2), []string{ErrNegativeBound}},
		{"inverted", intPtr(2), intPtr(4), []string{ErrBoundsInverted}},
		{"negative and inverted", intPtr(-3), intPtr(-1), []string{ErrNegativeBound, ErrNegativeBound, ErrBoundsInverted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSurface()
			s.Config.MaxItems = tt.max
			s.Config.MinItems = tt.min
			assert.Equal(t, tt.codes, codes(Validate(s)))
		})
	}
}

func TestValidateBoundsNotEnforcedAgainstItems(t *testing.T) {
	s := validSurface()
	s.Config.MaxItems = intPtr(1)
	s.Config.MinItems = intPtr(0)
	assert.Empty(t, Validate(s), "item count above max_items is not a validation error")
}

func TestValidateInvalidAllowedKind(t *testing.T) {
	s := validSurface()
	s.Config.AllowedDropKinds = model.KindSet{model.Kind(0): {}}
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidAllowedSet, errs[0].Code)
}

func TestValidateDuplicateItemID(t *testing.T) {
	s := validSurface()
	s.Items[1].ID = "A"
	errs := Validate(s)

	assert.Contains(t, codes(errs), ErrDuplicateItemID)
	assert.NotContains(t, codes(errs), ErrPositionsInvalid, "density is only checked on unique ids")
	assert.Equal(t, "items[1].id", errs[0].Field)
}

func TestValidateItemIDEmpty(t *testing.T) {
	s := validSurface()
	s.Items[0].ID = ""
	s.Items[2].ParentGroupID = ""
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrItemIDEmpty, errs[0].Code)
}

func TestValidateInvalidItemKind(t *testing.T) {
	s := validSurface()
	s.Items[1].Kind = model.Kind(9)
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidItemKind, errs[0].Code)
	assert.Equal(t, "items[1].kind", errs[0].Field)
}

func TestValidatePositionsNotDense(t *testing.T) {
	s := validSurface()
	s.Items[2].Position = 5
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrPositionsInvalid, errs[0].Code)
}

func TestValidateParentReferences(t *testing.T) {
	tests := []struct {
		name   string
		parent string
		code   string
	}{
		{"unknown parent", "Z", ErrUnknownParent},
		{"self parent", "C", ErrSelfParent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSurface()
			s.Items[2].ParentGroupID = tt.parent
			errs := Validate(s)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, "items[2].parent_group_id", errs[0].Field)
		})
	}
}

func TestValidateParentNotGroup(t *testing.T) {
	s := validSurface()
	s.Items = append(s.Items, model.DraggableItem{
		ID: "D", Position: 3, Kind: model.KindChildMember, ParentGroupID: "C",
	})
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrParentNotGroup, errs[0].Code)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	s := validSurface()
	s.ID = ""
	s.Config.PredicateName = "nope"
	s.Config.MaxItems = intPtr(-1)
	s.Config.MinItems = nil
	s.Items[2].ParentGroupID = "missing"

	errs := Validate(s)
	assert.Equal(t, []string{ErrSurfaceIDEmpty, ErrUnknownPredicate, ErrNegativeBound, ErrUnknownParent}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "items[0].id", Message: "item id is required", Code: ErrItemIDEmpty}
	assert.Equal(t, "[E110] items[0].id: item id is required", err.Error())
}
