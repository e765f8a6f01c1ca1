package text

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/multilevel/pkg/graph"
	"github.com/matzehuels/multilevel/pkg/hierarchy"
)

func build(t *testing.T) *hierarchy.Hierarchy {
	t.Helper()
	g := graph.New(nil)
	n := map[string]*graph.Node{}
	for _, id := range []string{"a", "b", "c", "d", "team1"} {
		n[id] = &graph.Node{ID: id}
		_ = g.AddNode(n[id])
	}
	for _, e := range [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "d"}} {
		_ = g.AddEdge(graph.Edge{From: n[e[0]], To: n[e[1]], Label: "calls"})
	}
	q := &graph.Node{ID: "Q"}
	h, err := hierarchy.Build(g, hierarchy.Table{
		{
			{Node: n["a"], Parent: n["team1"]},
			{Node: n["b"], Parent: n["team1"]},
			{Node: n["c"], Parent: q},
			{Node: n["d"], Parent: q},
		},
		{{Node: n["team1"]}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestWrite(t *testing.T) {
	h := build(t)
	var buf bytes.Buffer
	if err := Write(&buf, h, Options{LevelNames: []string{"team"}}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"2 levels, 5 nodes, 4 edges",
		"level 0 (team): 2 subgraphs, 4 nodes, 2 edges",
		"  team1  [a b]  a -> b\n",
		"  Q      [c d]  c -> d\n",
		"level 1: 0 subgraphs, 0 nodes, 0 edges",
		"(no subgraphs)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Write() output missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, "level 0") > strings.Index(out, "level 1") {
		t.Error("levels should be listed bottom to top")
	}
}

func TestWriteTable(t *testing.T) {
	h := build(t)
	var buf bytes.Buffer
	if err := Write(&buf, h, Options{Table: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Parent", "Nodes", "Edges", "team1", "c -> d", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	h := build(t)
	var buf bytes.Buffer
	if err := WriteJSON(&buf, h, []string{"team", "org"}); err != nil {
		t.Fatal(err)
	}

	var s Summary
	if err := json.Unmarshal(buf.Bytes(), &s); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if s.ID != h.ID().String() || s.Strategy != "indexed" || s.Nodes != 5 || s.Edges != 4 {
		t.Errorf("summary header = %+v", s)
	}
	if len(s.Levels) != 2 || s.Levels[1].Name != "org" || len(s.Levels[1].Groups) != 0 {
		t.Fatalf("levels = %+v", s.Levels)
	}
	g := s.Levels[0].Groups[0]
	if g.Parent != "team1" || strings.Join(g.Nodes, ",") != "a,b" || len(g.Edges) != 1 || g.Edges[0] != (EdgeJSON{"a", "b", "calls"}) {
		t.Errorf("first group = %+v", g)
	}
	if !strings.Contains(buf.String(), `"groups": []`) {
		t.Error("empty levels should encode groups as [] rather than null")
	}
}

func TestSummarizeEmptyHierarchy(t *testing.T) {
	h, err := hierarchy.Build(graph.New(nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := Summarize(h, nil)
	if s.Levels == nil || len(s.Levels) != 0 {
		t.Errorf("Levels = %#v, want empty non-nil slice", s.Levels)
	}
}
