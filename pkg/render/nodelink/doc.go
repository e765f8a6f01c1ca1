// Package nodelink renders one level of a hierarchy as a node-link diagram.
//
// # Overview
//
// [ToDOT] writes the whole base graph as Graphviz DOT. Every parent of the
// chosen level becomes a cluster holding its children, so each cluster shows
// exactly one induced subgraph. Nodes without a parent at that level are
// drawn outside any cluster. Edges that stay inside a subgraph are drawn
// solid; edges that cross a cluster boundary, or touch an unplaced node, are
// drawn dashed and grey.
//
//	dot, err := nodelink.ToDOT(h, 0, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: node labels include the node label and sorted metadata
//   - Direction: Graphviz rankdir, "TB" (default) or "LR"
//   - HideCrossEdges: omit edges that are not inside any subgraph
//
// # Dependencies
//
// [RenderSVG] lays out the DOT in-process with [github.com/goccy/go-graphviz];
// no Graphviz installation is required.
package nodelink
