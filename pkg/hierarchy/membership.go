package hierarchy

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/multilevel/pkg/graph"
)

var (
	// ErrInvalidMembership is returned by [Build] when a membership table
	// references a node that is not in the base graph, contains a nil node,
	// or assigns a node twice within one level. Use errors.As with
	// *[MembershipError] for the offending level and entry.
	ErrInvalidMembership = errors.New("invalid membership")

	// ErrNilGraph is returned by [Build] when the base graph is nil.
	ErrNilGraph = errors.New("base graph must not be nil")
)

// Assignment places Node under Parent at one level. A nil Parent is the
// "no parent" marker: the node takes part in no subgraph at that level.
type Assignment struct {
	Node   *graph.Node
	Parent *graph.Node
}

// Level is one layer of a membership table: a total function from the nodes
// that exist at this level to their parent one level up (or nil).
//
// Entry order is significant only for output order: parents are numbered in
// order of first appearance and nodes are added to subgraphs in entry order.
type Level []Assignment

// LevelFromMap converts a node-to-parent map into a Level sorted by node ID,
// so the resulting hierarchy is deterministic. Nil parents are kept as
// "no parent" entries.
func LevelFromMap(m map[*graph.Node]*graph.Node) Level {
	nodes := slices.SortedFunc(maps.Keys(m), func(a, b *graph.Node) int {
		return strings.Compare(a.String(), b.String())
	})
	lvl := make(Level, len(nodes))
	for i, n := range nodes {
		lvl[i] = Assignment{Node: n, Parent: m[n]}
	}
	return lvl
}

// Parent returns the parent assigned to n and whether n appears in the level.
// A node that appears with no parent returns (nil, true).
func (l Level) Parent(n *graph.Node) (*graph.Node, bool) {
	for _, a := range l {
		if a.Node == n {
			return a.Parent, true
		}
	}
	return nil, false
}

// Table is an ordered sequence of levels, indexed bottom to top.
type Table []Level

// MembershipError describes the first invalid entry found in a table.
// It unwraps to [ErrInvalidMembership].
type MembershipError struct {
	Level  int         // Level index (0 = bottom)
	Entry  int         // Entry index within the level
	Node   *graph.Node // Offending node (nil for nil-node entries)
	Reason string
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("level %d entry %d: node %q %s", e.Level, e.Entry, e.Node.String(), e.Reason)
}

// Unwrap returns ErrInvalidMembership so errors.Is works on the typed error.
func (e *MembershipError) Unwrap() error { return ErrInvalidMembership }

// validate checks every level of t against base before anything is built.
func validate(base *graph.Graph, t Table) error {
	for i, lvl := range t {
		seen := make(map[*graph.Node]struct{}, len(lvl))
		for j, a := range lvl {
			switch {
			case a.Node == nil:
				return &MembershipError{Level: i, Entry: j, Reason: "is nil"}
			case !base.Contains(a.Node):
				return &MembershipError{Level: i, Entry: j, Node: a.Node, Reason: "is not in the base graph"}
			}
			if _, dup := seen[a.Node]; dup {
				return &MembershipError{Level: i, Entry: j, Node: a.Node, Reason: "is assigned more than once"}
			}
			seen[a.Node] = struct{}{}
		}
	}
	return nil
}
