package io

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/graph"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
)

const scenarioJSON = `{
  "nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "d"}],
  "edges": [
    {"from": "a", "to": "b"},
    {"from": "b", "to": "c"},
    {"from": "c", "to": "d"},
    {"from": "a", "to": "d"}
  ],
  "levels": [{"name": "team", "members": {"d": "Q", "c": "Q", "b": "P", "a": "P"}}]
}`

const scenarioYAML = `
nodes:
  - id: a
  - id: b
  - id: c
  - id: d
edges:
  - {from: a, to: b}
  - {from: b, to: c}
  - {from: c, to: d}
  - {from: a, to: d}
levels:
  - name: team
    members: {a: P, b: P, c: Q, d: Q}
`

const scenarioTOML = `
nodes = [{id = "a"}, {id = "b"}, {id = "c"}, {id = "d"}]

[[edges]]
from = "a"
to = "b"

[[edges]]
from = "b"
to = "c"

[[edges]]
from = "c"
to = "d"

[[edges]]
from = "a"
to = "d"

[[levels]]
name = "team"

[levels.members]
a = "P"
b = "P"
c = "Q"
d = "Q"
`

func TestReadDocumentFormats(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{FormatJSON, scenarioJSON},
		{FormatYAML, scenarioYAML},
		{FormatTOML, scenarioTOML},
	}

	var canonical []byte
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := ReadDocument(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("ReadDocument: %v", err)
			}

			g, table, err := doc.Resolve()
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if g.NodeCount() != 4 || g.EdgeCount() != 4 {
				t.Errorf("graph = %d nodes, %d edges, want 4, 4", g.NodeCount(), g.EdgeCount())
			}
			if len(table) != 1 || len(table[0]) != 4 {
				t.Fatalf("table shape = %v", table)
			}
			var order []string
			for _, a := range table[0] {
				order = append(order, a.Node.ID)
			}
			if !slices.Equal(order, []string{"a", "b", "c", "d"}) {
				t.Errorf("member order = %v, want declaration order", order)
			}
			if table[0][0].Parent != table[0][1].Parent {
				t.Error("a and b should share one parent node")
			}

			data, err := Canonical(doc)
			if err != nil {
				t.Fatal(err)
			}
			if canonical == nil {
				canonical = data
			} else if !bytes.Equal(canonical, data) {
				t.Errorf("canonical form differs across formats:\n%s\n%s", canonical, data)
			}
		})
	}
}

func TestResolveBuildsScenario(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader(scenarioJSON), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	g, table, err := doc.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	h, err := hierarchy.Build(g, table)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var got []string
	for p, sub := range h.Bottom().All() {
		got = append(got, p.ID+":"+strings.Join(graph.NodeIDs(sub.Nodes()), ","))
	}
	if want := []string{"P:a,b", "Q:c,d"}; !slices.Equal(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}
}

func TestResolveSharedIdentityAcrossLevels(t *testing.T) {
	doc := &Document{
		Nodes: []NodeSpec{{ID: "a"}, {ID: "b"}, {ID: "team"}},
		Levels: []LevelSpec{
			{Members: map[string]string{"a": "team", "b": "team"}},
			{Members: map[string]string{"team": "org"}},
			{Members: map[string]string{"team": ""}},
		},
	}
	g, table, err := doc.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	team, _ := g.Node("team")
	if table[0][0].Parent != team || table[1][0].Node != team {
		t.Error("the same ID must resolve to the same node on every level")
	}
	if g.Contains(table[1][0].Parent) {
		t.Error("undeclared parent org must stay outside the base graph")
	}
	if table[2][0].Parent != nil {
		t.Error("empty parent ID should resolve to nil")
	}

	h, err := hierarchy.Build(g, table)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := h.Top().Len(); got != 0 {
		t.Errorf("top level subgraphs = %d, want 0", got)
	}
}

func TestResolveUndeclaredMemberFailsBuild(t *testing.T) {
	doc := &Document{
		Nodes:  []NodeSpec{{ID: "a"}},
		Levels: []LevelSpec{{Members: map[string]string{"a": "P", "ghost": "P"}}},
	}
	g, table, err := doc.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if table[0][1].Node.ID != "ghost" {
		t.Errorf("undeclared members should sort after declared ones, got %v", table[0][1].Node)
	}
	_, err = hierarchy.Build(g, table)
	if !errors.Is(err, hierarchy.ErrInvalidMembership) {
		t.Errorf("Build error = %v, want ErrInvalidMembership", err)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"nil document", nil},
		{"empty node ID", &Document{Nodes: []NodeSpec{{ID: ""}}}},
		{"duplicate node", &Document{Nodes: []NodeSpec{{ID: "a"}, {ID: "a"}}}},
		{"control character", &Document{Nodes: []NodeSpec{{ID: "a\nb"}}}},
		{"unknown source", &Document{Nodes: []NodeSpec{{ID: "a"}}, Edges: []EdgeSpec{{From: "x", To: "a"}}}},
		{"unknown target", &Document{Nodes: []NodeSpec{{ID: "a"}}, Edges: []EdgeSpec{{From: "a", To: "x"}}}},
		{"missing edge endpoint", &Document{Nodes: []NodeSpec{{ID: "a"}}, Edges: []EdgeSpec{{From: "a"}}}},
		{"bad parent ID", &Document{Nodes: []NodeSpec{{ID: "a"}}, Levels: []LevelSpec{{Members: map[string]string{"a": "\x00"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.doc.Resolve()
			if !apperr.Is(err, apperr.ErrCodeInvalidDocument) {
				t.Errorf("Resolve() error = %v, want INVALID_DOCUMENT", err)
			}
		})
	}
}

func TestReadDocumentErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		code   apperr.Code
	}{
		{"malformed json", FormatJSON, `{"nodes": [`, apperr.ErrCodeInvalidDocument},
		{"unknown json field", FormatJSON, `{"vertices": []}`, apperr.ErrCodeInvalidDocument},
		{"unknown yaml field", FormatYAML, "vertices: []\n", apperr.ErrCodeInvalidDocument},
		{"unknown toml field", FormatTOML, "vertices = []\n", apperr.ErrCodeInvalidDocument},
		{"unknown format", Format("xml"), `<graph/>`, apperr.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDocument(strings.NewReader(tt.input), tt.format)
			if !apperr.Is(err, tt.code) {
				t.Errorf("ReadDocument() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEmptyYAMLDocument(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader(""), FormatYAML)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	g, table, err := doc.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	h, err := hierarchy.Build(g, table)
	if err != nil || h.Depth() != 0 {
		t.Errorf("empty document should build a zero-depth hierarchy, got %v", err)
	}
}

func TestFormatDetection(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"graph.json", FormatJSON, false},
		{"graph.YAML", FormatYAML, false},
		{"dir/graph.yml", FormatYAML, false},
		{"graph.toml", FormatTOML, false},
		{"graph", "", true},
		{"graph.csv", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, err)
		}
	}

	ctTests := map[string]Format{
		"":                                FormatJSON,
		"application/json; charset=utf-8": FormatJSON,
		"application/x-yaml":              FormatYAML,
		"application/toml":                FormatTOML,
	}
	for ct, want := range ctTests {
		if got, err := FormatFromContentType(ct); err != nil || got != want {
			t.Errorf("FormatFromContentType(%q) = %q, %v", ct, got, err)
		}
	}
	if _, err := FormatFromContentType("text/csv"); !apperr.Is(err, apperr.ErrCodeInvalidFormat) {
		t.Errorf("text/csv should be INVALID_FORMAT, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src, err := ReadDocument(strings.NewReader(scenarioYAML), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	g, table, err := src.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	doc := FromHierarchy(g, table, "team")

	want, _ := Canonical(src)
	dir := t.TempDir()
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			path := filepath.Join(dir, "out."+string(f))
			if err := ExportDocument(doc, path); err != nil {
				t.Fatalf("ExportDocument: %v", err)
			}
			back, err := ImportDocument(path)
			if err != nil {
				t.Fatalf("ImportDocument: %v", err)
			}
			got, _ := Canonical(back)
			if !bytes.Equal(got, want) {
				t.Errorf("round trip mismatch:\n got %s\nwant %s", got, want)
			}
		})
	}
}

func TestImportDocumentMissingFile(t *testing.T) {
	_, err := ImportDocument(filepath.Join(t.TempDir(), "missing.json"))
	if !apperr.Is(err, apperr.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("error should wrap os.ErrNotExist")
	}
}

func TestLevelNames(t *testing.T) {
	doc := &Document{Levels: []LevelSpec{{Name: "team"}, {}}}
	if got := doc.LevelNames(); !slices.Equal(got, []string{"team", "level 1"}) {
		t.Errorf("LevelNames() = %v", got)
	}
}

func TestExampleDocuments(t *testing.T) {
	var canonical []byte
	for _, name := range []string{"services.yaml", "services.toml"} {
		doc, err := ImportDocument(filepath.Join("..", "..", "examples", name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		g, table, err := doc.Resolve()
		if err != nil {
			t.Fatalf("%s: Resolve: %v", name, err)
		}
		h, err := hierarchy.Build(g, table)
		if err != nil {
			t.Fatalf("%s: Build: %v", name, err)
		}
		if h.Depth() != 2 || h.Bottom().Len() != 2 {
			t.Errorf("%s: depth %d, bottom subgraphs %d", name, h.Depth(), h.Bottom().Len())
		}

		data, _ := Canonical(doc)
		if canonical == nil {
			canonical = data
		} else if !bytes.Equal(canonical, data) {
			t.Errorf("%s differs from services.yaml", name)
		}
	}
}
