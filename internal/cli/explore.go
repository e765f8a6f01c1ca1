package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/multilevel/pkg/pipeline"
	"github.com/matzehuels/multilevel/pkg/render/text"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "explore [document]",
		Short: "Browse the levels and subgraphs of a hierarchy",
		Long: `Explore builds the hierarchy of a document and opens an interactive browser:
←/→ switch levels, ↑/↓ select a parent, q quits. The selected parent's
members and internal edges are shown below the table.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("strategy") {
				strategy = c.Config.Build.Strategy
			}
			ctx := cmd.Context()
			runner := pipeline.NewRunner(nil, nil, loggerFromContext(ctx))
			doc, err := runner.Load(args[0])
			if err != nil {
				return err
			}
			h, err := runner.Build(ctx, doc, pipeline.Options{Strategy: strategy})
			if err != nil {
				return err
			}
			if h.Depth() == 0 {
				printWarning("%s declares no levels", args[0])
				return nil
			}

			m := NewExploreModel(text.Summarize(h, doc.LevelNames()))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "edge projection strategy: indexed (default), rescan")
	return cmd
}

// =============================================================================
// ExploreModel - Interactive hierarchy browser
// =============================================================================

// ExploreModel is the bubbletea model of the explore command. It works on a
// hierarchy summary, so it holds no references into the graph.
type ExploreModel struct {
	Summary text.Summary
	Level   int // index into Summary.Levels
	Cursor  int // index into the level's groups
	Offset  int // first visible group
	Height  int // visible table rows
}

// NewExploreModel creates a model positioned at the bottom level.
func NewExploreModel(s text.Summary) ExploreModel {
	return ExploreModel{Summary: s, Height: 10}
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.groups())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "left", "h":
			if m.Level > 0 {
				m = m.switchLevel(m.Level - 1)
			}
		case "right", "l", "tab":
			if m.Level < len(m.Summary.Levels)-1 {
				m = m.switchLevel(m.Level + 1)
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-16, 3)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m ExploreModel) switchLevel(level int) ExploreModel {
	m.Level, m.Cursor, m.Offset = level, 0, 0
	return m
}

func (m ExploreModel) groups() []text.Group {
	if m.Level >= len(m.Summary.Levels) {
		return nil
	}
	return m.Summary.Levels[m.Level].Groups
}

// Selected returns the group under the cursor.
func (m ExploreModel) Selected() (text.Group, bool) {
	groups := m.groups()
	if m.Cursor >= len(groups) {
		return text.Group{}, false
	}
	return groups[m.Cursor], true
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.levelTitle()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ level  ↑/↓ parent  q quit"))
	b.WriteString("\n\n")

	groups := m.groups()
	if len(groups) == 0 {
		b.WriteString(listDimStyle.Render("  (no subgraphs)"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(groups))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		g := groups[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, g.Parent, fmt.Sprint(len(g.Nodes)), fmt.Sprint(len(g.Edges))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Parent", "Nodes", "Edges").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col >= 2 {
				return listDimStyle
			}
			return listNormalStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(groups))))
	b.WriteString("\n\n")

	if g, ok := m.Selected(); ok {
		b.WriteString(StyleHighlight.Render(g.Parent))
		b.WriteString("\n")
		b.WriteString("  " + listNormalStyle.Render(strings.Join(g.Nodes, " ")))
		b.WriteString("\n")
		for _, e := range g.Edges {
			b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s %s %s", e.From, iconArrow, e.To)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m ExploreModel) levelTitle() string {
	if m.Level >= len(m.Summary.Levels) {
		return "No levels"
	}
	lvl := m.Summary.Levels[m.Level]
	title := fmt.Sprintf("Level %d/%d", lvl.Index, len(m.Summary.Levels)-1)
	if lvl.Name != "" {
		title += " · " + lvl.Name
	}
	return title
}
