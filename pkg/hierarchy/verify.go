package hierarchy

import (
	"errors"
	"fmt"
	"maps"

	"github.com/matzehuels/multilevel/pkg/graph"
)

// ErrVerification is returned by [Verify] when a hierarchy does not match
// its membership table.
var ErrVerification = errors.New("hierarchy verification failed")

// Verify recomputes the expected contents of every level from the table the
// hierarchy was built with and compares them with the built subgraphs:
//
//   - partition: every node with a parent is in exactly that parent's
//     subgraph, and no other node is in any subgraph of the level
//   - edge locality: a subgraph holds exactly the base edges whose two
//     endpoints share its parent, each once per occurrence in the base graph
//
// It is independent of the projection strategy and costs O(levels x (N + E)).
func Verify(h *Hierarchy) error {
	if len(h.levels) != len(h.table) {
		return fmt.Errorf("%w: %d level states for %d levels", ErrVerification, len(h.levels), len(h.table))
	}
	for i, lvl := range h.table {
		if err := verifyLevel(h.base, h.levels[i], lvl); err != nil {
			return fmt.Errorf("%w: level %d: %v", ErrVerification, i, err)
		}
	}
	return nil
}

func verifyLevel(base *graph.Graph, ls *LevelState, lvl Level) error {
	want := make(map[*graph.Node]*graph.Node, len(lvl))
	for _, a := range lvl {
		if a.Parent != nil {
			want[a.Node] = a.Parent
		}
	}

	placed := 0
	for parent, sub := range ls.All() {
		for _, n := range sub.Nodes() {
			if want[n] != parent {
				return fmt.Errorf("node %s is in the subgraph of %s, want %s", n, parent, want[n])
			}
		}
		placed += sub.NodeCount()
	}
	if placed != len(want) {
		return fmt.Errorf("%d nodes placed, want %d", placed, len(want))
	}

	wantEdges := make(map[*graph.Node]map[edgeKey]int, ls.Len())
	base.EachEdge(func(e graph.Edge) bool {
		if p, ok := want[e.From]; ok && want[e.To] == p {
			if wantEdges[p] == nil {
				wantEdges[p] = make(map[edgeKey]int)
			}
			wantEdges[p][keyOf(e)]++
		}
		return true
	})
	for parent, sub := range ls.All() {
		total := 0
		for _, n := range wantEdges[parent] {
			total += n
		}
		if got := sub.EdgeCount(); got != total {
			return fmt.Errorf("subgraph of %s has %d edges, want %d", parent, got, total)
		}
		remaining := maps.Clone(wantEdges[parent])
		for _, e := range sub.Edges() {
			k := keyOf(e)
			if remaining[k] == 0 {
				return fmt.Errorf("subgraph of %s holds unexpected edge %s -> %s", parent, e.From, e.To)
			}
			remaining[k]--
		}
	}
	return nil
}

// edgeKey identifies an edge up to multiplicity.
type edgeKey struct {
	from, to *graph.Node
	label    string
}

func keyOf(e graph.Edge) edgeKey { return edgeKey{from: e.From, to: e.To, label: e.Label} }
