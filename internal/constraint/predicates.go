package constraint

import (
	"fmt"
	"sort"

	"github.com/roach88/reorder/internal/model"
)

// Names of the built-in predicates. Surfaces defined outside Go code
// (CUE files, scenarios) refer to custom predicates by these names.
const (
	PredicateSameParent = "same-parent"
	PredicateSameKind   = "same-kind"
	PredicateGroupOnly  = "group-only"
)

var registry = map[string]model.Predicate{
	PredicateSameParent: func(dragged, target model.DraggableItem) bool {
		return dragged.ParentGroupID == target.ParentGroupID
	},
	PredicateSameKind: func(dragged, target model.DraggableItem) bool {
		return dragged.Kind == target.Kind
	},
	PredicateGroupOnly: func(dragged, target model.DraggableItem) bool {
		return isGroup(dragged.Kind) && isGroup(target.Kind)
	},
}

func isGroup(k model.Kind) bool {
	switch k {
	case model.KindGroupMember:
		return true
	case model.KindChildMember:
		return false
	default:
		return false
	}
}

// Lookup returns the named predicate.
func Lookup(name string) (model.Predicate, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names returns the registered predicate names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve fills cfg.CustomPredicate from cfg.PredicateName.
//
// A config that already carries a CustomPredicate is returned unchanged;
// an empty name is a no-op. Unknown names are an error.
func Resolve(cfg model.ConstraintConfig) (model.ConstraintConfig, error) {
	if cfg.CustomPredicate != nil || cfg.PredicateName == "" {
		return cfg, nil
	}
	p, ok := Lookup(cfg.PredicateName)
	if !ok {
		return cfg, fmt.Errorf("unknown predicate %q: must be one of %v", cfg.PredicateName, Names())
	}
	cfg.CustomPredicate = p
	return cfg, nil
}
