// Package text renders hierarchies for terminals and machines: a readable
// per-level listing and a JSON summary.
package text

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/multilevel/pkg/graph"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
)

// Options configures Write.
type Options struct {
	// LevelNames labels levels by index. Missing names are omitted.
	LevelNames []string
	// Table draws each level as a bordered table instead of plain lines.
	Table bool
}

// Summary is the JSON form of a hierarchy.
type Summary struct {
	ID       string         `json:"id"`
	Strategy string         `json:"strategy"`
	Nodes    int            `json:"nodes"`
	Edges    int            `json:"edges"`
	Levels   []LevelSummary `json:"levels"`
}

// LevelSummary describes one level of a Summary.
type LevelSummary struct {
	Index  int     `json:"index"`
	Name   string  `json:"name,omitempty"`
	Groups []Group `json:"groups"`
}

// Group is one parent and its induced subgraph.
type Group struct {
	Parent string     `json:"parent"`
	Nodes  []string   `json:"nodes"`
	Edges  []EdgeJSON `json:"edges"`
}

// EdgeJSON is an edge by endpoint IDs.
type EdgeJSON struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Summarize converts h into its JSON form. Groups follow the parents'
// first-appearance order and nodes and edges follow subgraph order, so equal
// inputs give equal summaries.
func Summarize(h *hierarchy.Hierarchy, names []string) Summary {
	s := Summary{
		ID:       h.ID().String(),
		Strategy: h.Strategy().String(),
		Nodes:    h.Base().NodeCount(),
		Edges:    h.Base().EdgeCount(),
		Levels:   make([]LevelSummary, 0, h.Depth()),
	}
	for _, ls := range h.Levels() {
		lvl := LevelSummary{Index: ls.Index(), Name: levelName(names, ls.Index()), Groups: make([]Group, 0, ls.Len())}
		for parent, sub := range ls.All() {
			grp := Group{Parent: parent.ID, Nodes: graph.NodeIDs(sub.Nodes()), Edges: make([]EdgeJSON, 0, sub.EdgeCount())}
			sub.EachEdge(func(e graph.Edge) bool {
				grp.Edges = append(grp.Edges, EdgeJSON{From: e.From.ID, To: e.To.ID, Label: e.Label})
				return true
			})
			lvl.Groups = append(lvl.Groups, grp)
		}
		s.Levels = append(s.Levels, lvl)
	}
	return s
}

// WriteJSON writes the indented JSON summary of h to w.
func WriteJSON(w io.Writer, h *hierarchy.Hierarchy, names []string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Summarize(h, names)); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Write prints every level of h bottom to top: one line (or table row) per
// parent with its members and internal edges.
func Write(w io.Writer, h *hierarchy.Hierarchy, opts Options) error {
	var b strings.Builder
	fmt.Fprintf(&b, "hierarchy %s: %d levels, %d nodes, %d edges\n",
		h.ID(), h.Depth(), h.Base().NodeCount(), h.Base().EdgeCount())

	for _, ls := range h.Levels() {
		b.WriteString("\n")
		title := fmt.Sprintf("level %d", ls.Index())
		if name := levelName(opts.LevelNames, ls.Index()); name != "" {
			title += " (" + name + ")"
		}
		fmt.Fprintf(&b, "%s: %d subgraphs, %d nodes, %d edges\n", title, ls.Len(), ls.NodeCount(), ls.EdgeCount())

		if ls.Len() == 0 {
			b.WriteString("  (no subgraphs)\n")
			continue
		}

		rows := make([][]string, 0, ls.Len())
		for parent, sub := range ls.All() {
			rows = append(rows, []string{parent.ID, strings.Join(graph.NodeIDs(sub.Nodes()), " "), edgeList(sub)})
		}

		if opts.Table {
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(borderStyle).
				Headers("Parent", "Nodes", "Edges").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle.Padding(0, 1)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				})
			b.WriteString(t.Render())
			b.WriteString("\n")
			continue
		}

		width := 0
		for _, r := range rows {
			width = max(width, len(r[0]))
		}
		for _, r := range rows {
			fmt.Fprintf(&b, "  %-*s  [%s]", width, r[0], r[1])
			if r[2] != "" {
				fmt.Fprintf(&b, "  %s", r[2])
			}
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func edgeList(g *graph.Graph) string {
	parts := make([]string, 0, g.EdgeCount())
	g.EachEdge(func(e graph.Edge) bool {
		parts = append(parts, e.From.ID+" -> "+e.To.ID)
		return true
	})
	return strings.Join(parts, ", ")
}

func levelName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return ""
}
