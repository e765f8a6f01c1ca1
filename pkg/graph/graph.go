package graph

import (
	"errors"
	"slices"
)

var (
	// ErrNilNode is returned by [Graph.AddNode] when the node pointer is nil.
	ErrNilNode = errors.New("node must not be nil")

	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	// All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a different node
	// with the same ID is already a member of the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// is not a member of the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// is not a member of the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the graph.
type Metadata map[string]any

// Node is a vertex of a graph. Identity is the pointer, not the field values:
// two distinct *Node values with equal fields are different nodes.
//
// A Node may be a member of many graphs at once (a base graph and any number of
// subgraphs derived from it). Graphs never modify the nodes they hold.
type Node struct {
	ID    string   // Unique within one graph; used for lookup, display and serialization
	Label string   // Free-form label (e.g., a type or category)
	Meta  Metadata // Arbitrary key-value metadata (may be nil)
}

// String returns the node ID, or "<nil>" for a nil node.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.ID
}

// Edge is a directed, labeled connection between two member nodes.
type Edge struct {
	From  *Node    // Source node
	To    *Node    // Target node
	Label string   // Free-form label (e.g., relation type)
	Meta  Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// IsLoop reports whether the edge starts and ends at the same node.
func (e Edge) IsLoop() bool { return e.From == e.To }

// Graph is an unordered container of nodes and directed edges between them.
// Enumeration order is insertion order for both nodes and edges.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    []*Node
	members  map[*Node]int    // node -> position in nodes
	byID     map[string]*Node // node ID -> node
	edges    []Edge
	outgoing map[*Node][]int // node -> indices into edges
	incoming map[*Node][]int // node -> indices into edges
	meta     Metadata
}

// New creates an empty Graph with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *Graph {
	return NewWithCapacity(meta, 0, 0)
}

// NewWithCapacity is like New but preallocates room for the given number of
// nodes and edges. It is used when the final size is known in advance.
func NewWithCapacity(meta Metadata, nodes, edges int) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make([]*Node, 0, nodes),
		members:  make(map[*Node]int, nodes),
		byID:     make(map[string]*Node, nodes),
		edges:    make([]Edge, 0, edges),
		outgoing: make(map[*Node][]int, nodes),
		incoming: make(map[*Node][]int, nodes),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
// The returned map is never nil and can be safely modified.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds n to the graph. Adding a node that is already a member is a
// no-op. Returns ErrNilNode for a nil node, ErrInvalidNodeID if the ID is
// empty, or ErrDuplicateNodeID if a different node with the same ID is
// already a member.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, ok := g.members[n]; ok {
		return nil
	}
	if _, exists := g.byID[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	g.members[n] = len(g.nodes)
	g.byID[n.ID] = n
	g.nodes = append(g.nodes, n)
	return nil
}

// AddEdge adds a directed edge between two member nodes.
// Returns ErrUnknownSourceNode if From is not a member, or
// ErrUnknownTargetNode if To is not a member. The edge's Meta field is
// initialized to an empty map if nil.
//
// Multiple edges between the same nodes and self loops are allowed.
func (g *Graph) AddEdge(e Edge) error {
	if !g.Contains(e.From) {
		return ErrUnknownSourceNode
	}
	if !g.Contains(e.To) {
		return ErrUnknownTargetNode
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], idx)
	g.incoming[e.To] = append(g.incoming[e.To], idx)
	return nil
}

// Contains reports whether n is a member of the graph.
// Membership is by pointer identity; a nil node is never a member.
func (g *Graph) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	_, ok := g.members[n]
	return ok
}

// Node returns the member node with the given ID and true, or nil and false.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Nodes returns all member nodes in insertion order.
// The slice is a copy; the nodes are shared with the graph.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EachEdge calls fn for every edge in insertion order without copying the
// edge list. It stops early if fn returns false.
func (g *Graph) EachEdge(fn func(Edge) bool) {
	for _, e := range g.edges {
		if !fn(e) {
			return
		}
	}
}

// NodeCount returns the number of member nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// OutEdges returns the edges leaving n, in insertion order.
// Returns nil if n has no outgoing edges or is not a member.
func (g *Graph) OutEdges(n *Node) []Edge { return g.pick(g.outgoing[n]) }

// InEdges returns the edges entering n, in insertion order.
// Returns nil if n has no incoming edges or is not a member.
func (g *Graph) InEdges(n *Node) []Edge { return g.pick(g.incoming[n]) }

// OutDegree returns the number of edges leaving n.
func (g *Graph) OutDegree(n *Node) int { return len(g.outgoing[n]) }

// InDegree returns the number of edges entering n.
func (g *Graph) InDegree(n *Node) int { return len(g.incoming[n]) }

func (g *Graph) pick(idx []int) []Edge {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}

// NodeIDs extracts the ID from each node in a slice, preserving order.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
