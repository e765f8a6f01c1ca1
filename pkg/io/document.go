package io

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/graph"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
)

// validate is a singleton validator instance
var validate = validator.New()

// Document is the serialized form of a base graph and its membership table.
type Document struct {
	Nodes  []NodeSpec  `json:"nodes" yaml:"nodes" toml:"nodes" validate:"dive"`
	Edges  []EdgeSpec  `json:"edges,omitempty" yaml:"edges,omitempty" toml:"edges,omitempty" validate:"dive"`
	Levels []LevelSpec `json:"levels,omitempty" yaml:"levels,omitempty" toml:"levels,omitempty" validate:"dive"`
}

// NodeSpec declares one base graph node.
type NodeSpec struct {
	ID    string         `json:"id" yaml:"id" toml:"id" validate:"required,max=256"`
	Label string         `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Meta  map[string]any `json:"meta,omitempty" yaml:"meta,omitempty" toml:"meta,omitempty"`
}

// EdgeSpec declares one directed edge between declared nodes.
type EdgeSpec struct {
	From  string `json:"from" yaml:"from" toml:"from" validate:"required"`
	To    string `json:"to" yaml:"to" toml:"to" validate:"required"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
}

// LevelSpec maps member IDs to parent IDs for one level. An empty parent ID
// means the member has no parent at this level.
type LevelSpec struct {
	Name    string            `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty" validate:"max=128"`
	Members map[string]string `json:"members" yaml:"members" toml:"members"`
}

// Validate checks the document's structure: field constraints, ID syntax and
// duplicate node IDs. References between nodes, edges and levels are checked
// by [Document.Resolve].
func (d *Document) Validate() error {
	if d == nil {
		return apperr.New(apperr.ErrCodeInvalidDocument, "document cannot be nil")
	}
	if err := validate.Struct(d); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidDocument, formatValidationError(err), "invalid document")
	}

	seen := make(map[string]struct{}, len(d.Nodes))
	for i, n := range d.Nodes {
		if err := apperr.ValidateNodeID(n.ID); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "node %d", i)
		}
		if _, dup := seen[n.ID]; dup {
			return apperr.New(apperr.ErrCodeInvalidDocument, "node %d: duplicate ID %q", i, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for i, lvl := range d.Levels {
		for member, parent := range lvl.Members {
			if err := apperr.ValidateNodeID(member); err != nil {
				return apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "level %d", i)
			}
			if parent == "" {
				continue
			}
			if err := apperr.ValidateNodeID(parent); err != nil {
				return apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "level %d: parent of %q", i, member)
			}
		}
	}
	return nil
}

// Resolve validates the document and turns it into a base graph and a
// membership table ready for [hierarchy.Build].
//
// Every ID resolves to a single *graph.Node. Parent IDs and member IDs that
// are not declared under nodes become detached nodes outside the base graph;
// the builder accepts detached parents and rejects detached members.
func (d *Document) Resolve() (*graph.Graph, hierarchy.Table, error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}

	g := graph.NewWithCapacity(nil, len(d.Nodes), len(d.Edges))
	order := make(map[string]int, len(d.Nodes))
	for i, spec := range d.Nodes {
		n := &graph.Node{ID: spec.ID, Label: spec.Label, Meta: graph.Metadata(spec.Meta)}
		if err := g.AddNode(n); err != nil {
			return nil, nil, apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "node %s", spec.ID)
		}
		order[spec.ID] = i
	}

	for i, spec := range d.Edges {
		from, ok := g.Node(spec.From)
		if !ok {
			return nil, nil, apperr.New(apperr.ErrCodeInvalidDocument, "edge %d: unknown source node %q", i, spec.From)
		}
		to, ok := g.Node(spec.To)
		if !ok {
			return nil, nil, apperr.New(apperr.ErrCodeInvalidDocument, "edge %d: unknown target node %q", i, spec.To)
		}
		if err := g.AddEdge(graph.Edge{From: from, To: to, Label: spec.Label}); err != nil {
			return nil, nil, apperr.Wrap(apperr.ErrCodeInvalidDocument, err, "edge %s->%s", spec.From, spec.To)
		}
	}

	detached := map[string]*graph.Node{}
	lookup := func(id string) *graph.Node {
		if n, ok := g.Node(id); ok {
			return n
		}
		n, ok := detached[id]
		if !ok {
			n = &graph.Node{ID: id}
			detached[id] = n
		}
		return n
	}

	table := make(hierarchy.Table, len(d.Levels))
	for i, spec := range d.Levels {
		members := memberOrder(spec.Members, order)
		lvl := make(hierarchy.Level, len(members))
		for j, id := range members {
			a := hierarchy.Assignment{Node: lookup(id)}
			if p := spec.Members[id]; p != "" {
				a.Parent = lookup(p)
			}
			lvl[j] = a
		}
		table[i] = lvl
	}
	return g, table, nil
}

// memberOrder returns member IDs ordered by their declaration under nodes,
// then undeclared IDs sorted lexically.
func memberOrder(members map[string]string, order map[string]int) []string {
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		ia, oka := order[a]
		ib, okb := order[b]
		switch {
		case oka && okb:
			return ia - ib
		case oka:
			return -1
		case okb:
			return 1
		}
		return strings.Compare(a, b)
	})
	return ids
}

// FromHierarchy converts a base graph and membership table back into a
// document. Detached parents are written by ID only.
func FromHierarchy(g *graph.Graph, table hierarchy.Table, names ...string) *Document {
	doc := &Document{
		Nodes: make([]NodeSpec, 0, g.NodeCount()),
		Edges: make([]EdgeSpec, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeSpec{ID: n.ID, Label: n.Label, Meta: n.Meta})
	}
	g.EachEdge(func(e graph.Edge) bool {
		doc.Edges = append(doc.Edges, EdgeSpec{From: e.From.ID, To: e.To.ID, Label: e.Label})
		return true
	})
	for i, lvl := range table {
		spec := LevelSpec{Members: make(map[string]string, len(lvl))}
		if i < len(names) {
			spec.Name = names[i]
		}
		for _, a := range lvl {
			parent := ""
			if a.Parent != nil {
				parent = a.Parent.ID
			}
			spec.Members[a.Node.ID] = parent
		}
		doc.Levels = append(doc.Levels, spec)
	}
	return doc
}

// LevelNames returns the level names, substituting "level N" for unnamed levels.
func (d *Document) LevelNames() []string {
	names := make([]string, len(d.Levels))
	for i, l := range d.Levels {
		names[i] = l.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("level %d", i)
		}
	}
	return names
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
