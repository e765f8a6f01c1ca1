package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/multilevel/pkg/render/text"
)

func testSummary() text.Summary {
	return text.Summary{
		ID: "test",
		Levels: []text.LevelSummary{
			{Index: 0, Name: "team", Groups: []text.Group{
				{Parent: "P", Nodes: []string{"a", "b"}, Edges: []text.EdgeJSON{{From: "a", To: "b"}}},
				{Parent: "Q", Nodes: []string{"c", "d"}, Edges: []text.EdgeJSON{{From: "c", To: "d"}}},
				{Parent: "R", Nodes: []string{"e"}},
			}},
			{Index: 1, Name: "org", Groups: []text.Group{
				{Parent: "X", Nodes: []string{"P", "Q"}},
			}},
			{Index: 2},
		},
	}
}

func press(m ExploreModel, keys ...string) ExploreModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(ExploreModel)
	}
	return m
}

func TestExploreNavigation(t *testing.T) {
	m := NewExploreModel(testSummary())

	m = press(m, "down", "j")
	if g, _ := m.Selected(); g.Parent != "R" {
		t.Errorf("selected = %q, want R", g.Parent)
	}
	m = press(m, "down")
	if m.Cursor != 2 {
		t.Errorf("cursor moved past the last group: %d", m.Cursor)
	}

	m = press(m, "right")
	if m.Level != 1 || m.Cursor != 0 {
		t.Errorf("after right: level %d cursor %d, want 1 0", m.Level, m.Cursor)
	}
	m = press(m, "l", "l")
	if m.Level != 2 {
		t.Errorf("level = %d, want clamped at 2", m.Level)
	}
	if _, ok := m.Selected(); ok {
		t.Error("empty level should have no selection")
	}

	m = press(m, "left", "h", "h", "k")
	if m.Level != 0 || m.Cursor != 0 {
		t.Errorf("after left: level %d cursor %d, want 0 0", m.Level, m.Cursor)
	}
}

func TestExploreScrolling(t *testing.T) {
	m := NewExploreModel(testSummary())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(ExploreModel)
	if m.Height != 3 {
		t.Fatalf("height = %d, want minimum 3", m.Height)
	}
	m.Height = 2
	m = press(m, "down", "down")
	if m.Offset != 1 {
		t.Errorf("offset = %d, want 1", m.Offset)
	}
	m = press(m, "up", "up")
	if m.Offset != 0 {
		t.Errorf("offset = %d, want 0", m.Offset)
	}
}

func TestExploreQuit(t *testing.T) {
	for _, k := range []string{"q", "esc", "ctrl+c"} {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		if _, cmd := NewExploreModel(testSummary()).Update(msg); cmd == nil {
			t.Errorf("%s should quit", k)
		}
	}
}

func TestExploreView(t *testing.T) {
	m := NewExploreModel(testSummary())
	view := m.View()
	for _, want := range []string{"Level 0/2", "team", "Parent", "P", "a b", "a " + iconArrow + " b", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m = press(m, "right", "right")
	if view := m.View(); !strings.Contains(view, "(no subgraphs)") {
		t.Errorf("empty level view:\n%s", view)
	}
}

func TestExploreCommandNoLevels(t *testing.T) {
	dir := isolate(t)
	doc := writeFile(t, dir, "flat.json", `{"nodes": [{"id": "a"}]}`)
	if _, err := execute(t, "explore", doc); err != nil {
		t.Errorf("explore on a document without levels: %v", err)
	}
}
