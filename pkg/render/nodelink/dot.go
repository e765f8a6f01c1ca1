package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/graph"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the node label and metadata to node labels.
	Detailed bool
	// Direction is the Graphviz rankdir: "TB" (default), "LR", "BT" or "RL".
	Direction string
	// HideCrossEdges drops edges that are not inside any subgraph.
	HideCrossEdges bool
}

// clusterColors are cycled through by cluster index.
var clusterColors = []string{
	"#e8f1fb", "#eaf7ea", "#fdf3e3", "#f5e9f7", "#fbe9ec", "#e9f6f6",
}

// ToDOT converts level of h to Graphviz DOT. It returns INVALID_LEVEL if the
// level does not exist. A zero-depth hierarchy has no levels to render.
func ToDOT(h *hierarchy.Hierarchy, level int, opts Options) (string, error) {
	ls, ok := h.Level(level)
	if !ok {
		return "", apperr.New(apperr.ErrCodeInvalidLevel, "level %d out of range (hierarchy has %d levels)", level, h.Depth())
	}
	dir, err := direction(opts.Direction)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")

	i := 0
	for parent, sub := range ls.All() {
		fmt.Fprintf(&buf, "\n  subgraph %q {\n", "cluster_"+strconv.Itoa(i))
		fmt.Fprintf(&buf, "    label=%q;\n", parent.ID)
		fmt.Fprintf(&buf, "    style=\"rounded,filled\";\n    color=\"#9aa5b1\";\n    fillcolor=%q;\n", clusterColors[i%len(clusterColors)])
		for _, n := range sub.Nodes() {
			fmt.Fprintf(&buf, "    %q [label=%q];\n", n.ID, fmtLabel(n, opts.Detailed))
		}
		buf.WriteString("  }\n")
		i++
	}

	base := h.Base()
	var loose []*graph.Node
	for _, n := range base.Nodes() {
		if _, placed := ls.ParentOf(n); !placed {
			loose = append(loose, n)
		}
	}
	if len(loose) > 0 {
		buf.WriteString("\n")
		for _, n := range loose {
			fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, fmtLabel(n, opts.Detailed))
		}
	}

	buf.WriteString("\n")
	base.EachEdge(func(e graph.Edge) bool {
		pf, okf := ls.ParentOf(e.From)
		pt, okt := ls.ParentOf(e.To)
		attrs := edgeAttrs(e)
		if !okf || !okt || pf != pt {
			if opts.HideCrossEdges {
				return true
			}
			attrs = append(attrs, "style=dashed", "color=\"#9aa5b1\"")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.From.ID, e.To.ID)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From.ID, e.To.ID, strings.Join(attrs, ", "))
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String(), nil
}

func direction(s string) (string, error) {
	switch d := strings.ToUpper(s); d {
	case "":
		return "TB", nil
	case "TB", "LR", "BT", "RL":
		return d, nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidInput, "invalid direction %q (must be TB, LR, BT or RL)", s)
}

func fmtLabel(n *graph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	var parts []string
	if n.Label != "" {
		parts = append(parts, n.Label)
	}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	if len(parts) == 0 {
		return n.ID
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func edgeAttrs(e graph.Edge) []string {
	if e.Label == "" {
		return nil
	}
	return []string{fmt.Sprintf("label=%q", e.Label)}
}

// RenderSVG lays out DOT source with Graphviz and returns SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg tag with a zero-origin
// viewBox and pixel width/height so the output scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
