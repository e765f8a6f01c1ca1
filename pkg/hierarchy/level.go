package hierarchy

import (
	"iter"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/multilevel/pkg/graph"
)

// LevelState is the computed collection of induced subgraphs for one level,
// keyed by parent node. Parents are kept in order of first appearance in the
// level's membership entries.
//
// A LevelState is immutable once Build returns. The subgraphs it hands out
// are owned by the caller for reading only.
type LevelState struct {
	index   int
	parents []*graph.Node       // slot -> parent
	groups  []*graph.Graph      // slot -> induced subgraph
	slots   map[*graph.Node]int // parent -> slot
	members map[*graph.Node]int // child -> slot
}

func emptyLevel(index int) *LevelState {
	return &LevelState{
		index:   index,
		slots:   map[*graph.Node]int{},
		members: map[*graph.Node]int{},
	}
}

// Index returns the level's position in the table (0 = bottom).
func (ls *LevelState) Index() int { return ls.index }

// Len returns the number of subgraphs (distinct non-nil parents) at this level.
func (ls *LevelState) Len() int { return len(ls.groups) }

// Parents returns the parents of this level in first-appearance order.
func (ls *LevelState) Parents() []*graph.Node { return slices.Clone(ls.parents) }

// Subgraph returns the induced subgraph of parent's children, or nil and
// false if parent has no children at this level.
func (ls *LevelState) Subgraph(parent *graph.Node) (*graph.Graph, bool) {
	slot, ok := ls.slots[parent]
	if !ok {
		return nil, false
	}
	return ls.groups[slot], true
}

// ParentOf returns the parent whose subgraph contains n. It returns nil and
// false for nodes that have no parent at this level or do not appear in it.
func (ls *LevelState) ParentOf(n *graph.Node) (*graph.Node, bool) {
	slot, ok := ls.members[n]
	if !ok {
		return nil, false
	}
	return ls.parents[slot], true
}

// All iterates parent/subgraph pairs in first-appearance order.
func (ls *LevelState) All() iter.Seq2[*graph.Node, *graph.Graph] {
	return func(yield func(*graph.Node, *graph.Graph) bool) {
		for i, p := range ls.parents {
			if !yield(p, ls.groups[i]) {
				return
			}
		}
	}
}

// NodeCount returns the number of nodes placed in any subgraph at this level.
func (ls *LevelState) NodeCount() int { return len(ls.members) }

// EdgeCount returns the number of base edges kept inside subgraphs at this level.
func (ls *LevelState) EdgeCount() int {
	total := 0
	for _, g := range ls.groups {
		total += g.EdgeCount()
	}
	return total
}

// Hierarchy is the result of a build: the base graph plus one LevelState per
// level of the membership table, bottom to top.
//
// A Hierarchy never changes after Build returns. To reflect updated inputs,
// build a new one.
type Hierarchy struct {
	id       uuid.UUID
	base     *graph.Graph
	table    Table
	levels   []*LevelState
	strategy Strategy
}

// ID returns the unique identifier assigned to this build.
func (h *Hierarchy) ID() uuid.UUID { return h.id }

// Base returns the base graph the hierarchy was built from.
func (h *Hierarchy) Base() *graph.Graph { return h.base }

// Strategy returns the edge projection strategy used for the build.
func (h *Hierarchy) Strategy() Strategy { return h.strategy }

// Depth returns the number of levels.
func (h *Hierarchy) Depth() int { return len(h.levels) }

// Levels returns the level states bottom to top.
func (h *Hierarchy) Levels() []*LevelState { return slices.Clone(h.levels) }

// Level returns the state of level i, or nil and false if i is out of range.
func (h *Hierarchy) Level(i int) (*LevelState, bool) {
	if i < 0 || i >= len(h.levels) {
		return nil, false
	}
	return h.levels[i], true
}

// Bottom returns the state of level 0. For a zero-depth hierarchy it returns
// an empty LevelState so callers never need a bounds check.
func (h *Hierarchy) Bottom() *LevelState {
	if len(h.levels) == 0 {
		return emptyLevel(0)
	}
	return h.levels[0]
}

// Top returns the state of the last level, or an empty LevelState for a
// zero-depth hierarchy.
func (h *Hierarchy) Top() *LevelState {
	if len(h.levels) == 0 {
		return emptyLevel(0)
	}
	return h.levels[len(h.levels)-1]
}

// Subgraph returns the induced subgraph of parent at level i.
func (h *Hierarchy) Subgraph(level int, parent *graph.Node) (*graph.Graph, bool) {
	ls, ok := h.Level(level)
	if !ok {
		return nil, false
	}
	return ls.Subgraph(parent)
}

// Path returns the chain of ancestors of n: its parent at level 0, that
// parent's parent at level 1, and so on, stopping at the first level where
// the current node has no parent.
func (h *Hierarchy) Path(n *graph.Node) []*graph.Node {
	var path []*graph.Node
	cur := n
	for _, ls := range h.levels {
		p, ok := ls.ParentOf(cur)
		if !ok {
			break
		}
		path = append(path, p)
		cur = p
	}
	return path
}
