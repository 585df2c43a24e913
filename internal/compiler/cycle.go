package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/reorder/internal/model"
)

// CycleWarning reports a loop in group nesting.
//
// The drag engine never follows parent_group_id, so a loop cannot break a
// drop. No rendering of the surface can place the items involved, though.
type CycleWarning struct {
	Path    []string `json:"path"` // e.g. ["g1", "g2", "g1"]
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeNesting finds loops in the parent_group_id chains of a surface.
//
// Every item has at most one parent, so each chain either ends or runs into
// exactly one loop. Chains are walked once each; a walk that reaches an item
// still on its own path has found a loop. Parents that are not items on the
// surface end the chain; Validate reports them.
//
// Warnings are ordered by the smallest id in each loop, which is also where
// each path starts.
func AnalyzeNesting(s *model.Surface) []CycleWarning {
	parent := make(map[string]string, len(s.Items))
	ids := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		if _, dup := parent[it.ID]; !dup {
			ids = append(ids, it.ID)
		}
		parent[it.ID] = it.ParentGroupID
	}
	slices.Sort(ids)

	const (
		unseen = iota
		walking
		done
	)
	state := make(map[string]int, len(ids))
	warnings := []CycleWarning{}

	for _, id := range ids {
		var chain []string
		cur := id
		for {
			if _, ok := parent[cur]; !ok || state[cur] == done {
				break
			}
			if state[cur] == walking {
				loop := chain[slices.Index(chain, cur):]
				warnings = append(warnings, loopWarning(loop, parent))
				break
			}
			state[cur] = walking
			chain = append(chain, cur)
			cur = parent[cur]
		}
		for _, c := range chain {
			state[c] = done
		}
	}

	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// loopWarning renders a loop as a path from its smallest id back to itself.
func loopWarning(loop []string, parent map[string]string) CycleWarning {
	start := slices.Min(loop)
	if len(loop) == 1 {
		return CycleWarning{
			Path:    []string{start, start},
			Message: fmt.Sprintf("item %s is nested under itself", start),
			Level:   "warning",
		}
	}

	path := []string{start}
	for cur := parent[start]; ; cur = parent[cur] {
		path = append(path, cur)
		if cur == start {
			break
		}
	}
	return CycleWarning{
		Path:    path,
		Message: "group nesting loop: " + strings.Join(path, " → "),
		Level:   "warning",
	}
}
