// Package hierarchy builds multilevel views of a flat graph.
//
// # Overview
//
// A hierarchy is described by a base [graph.Graph] and a membership [Table]:
// an ordered list of [Level] values, bottom (most detailed) to top (most
// abstract). Each level assigns every node it mentions to a parent node one
// level up, or to no parent at all. [Build] turns that table into one
// [LevelState] per level: a mapping from each parent to the induced subgraph
// of its children.
//
//	h, err := hierarchy.Build(base, hierarchy.Table{level0, level1})
//	if err != nil {
//	    return err
//	}
//	for _, ls := range h.Levels() {
//	    for parent, sub := range ls.All() {
//	        fmt.Println(ls.Index(), parent.ID, sub.NodeCount(), sub.EdgeCount())
//	    }
//	}
//
// # Guarantees
//
// For every level i and parent p, the subgraph S(i, p):
//
//   - contains exactly the nodes n with Level[i][n] == p
//   - contains a base edge e iff both e.From and e.To are in S(i, p)
//
// Edges that cross group boundaries appear in no subgraph of that level.
// Nodes whose parent is nil belong to no subgraph of that level. A level in
// which every node maps to nil yields a LevelState with zero subgraphs; this is
// the usual shape of the top level.
//
// Subgraphs hold the base graph's *graph.Node pointers. They never copy or
// modify nodes, and the base graph must outlive every hierarchy built from it.
//
// # Strategies
//
// Edge projection runs in one of two modes selected with [WithStrategy]:
//
//   - [StrategyIndexed] (default): one pass over the base edges per level,
//     using a node-to-subgraph index built while placing nodes
//   - [StrategyRescan]: every subgraph rescans every base edge; quadratic, kept
//     as the reference implementation for tests
//
// Both produce identical hierarchies, including edge order inside each subgraph.
//
// # Errors
//
// Build fails fast with [ErrInvalidMembership] (code INVALID_MEMBERSHIP in
// pkg/errors) when a level references a node that is not a member of the base
// graph, contains a nil node, or assigns the same node twice. No partial
// hierarchy is ever returned. An empty table is not an error; it yields a
// hierarchy with zero levels.
//
// # Concurrency
//
// Levels are independent of each other, so [WithParallel] builds them on
// separate goroutines. Within a level, node placement always completes before
// edge projection starts. A built [Hierarchy] is immutable and safe for
// concurrent readers; the subgraphs it returns must not be modified.
package hierarchy
