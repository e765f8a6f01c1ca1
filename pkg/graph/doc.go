// Package graph provides the flat graph data model that hierarchies are built on.
//
// # Overview
//
// A [Graph] is a set of [Node] values plus a set of directed, labeled [Edge]
// values whose endpoints are both members. Node identity is pointer identity:
// two *Node values are the same node only if they are the same pointer. The
// string ID is a display and serialization key that must be unique inside one
// graph, but it does not define identity.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	a := &graph.Node{ID: "a", Label: "service"}
//	b := &graph.Node{ID: "b", Label: "database"}
//	g.AddNode(a)
//	g.AddNode(b)
//	g.AddEdge(graph.Edge{From: a, To: b, Label: "reads"})
//
// Self loops and parallel edges are allowed. Edges are kept in insertion order
// so that any graph derived from another (for example an induced subgraph)
// enumerates its edges in a stable order.
//
// # Shared Nodes
//
// Several graphs may hold the same *Node. Induced subgraphs built by the
// hierarchy package never copy nodes; they reference the nodes owned by the
// base graph, which must outlive them. Adding a node to a graph does not
// transfer ownership and never modifies the node.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. Concurrent readers are
// fine once a graph is no longer modified.
package graph
