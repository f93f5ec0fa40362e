package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kagome/pkg/pipeline"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// maxDetailVertices bounds the vertex list shown under the table.
const maxDetailVertices = 24

// polyedgeRow is one line of the browse table.
type polyedgeRow struct {
	index     int
	vertices  []int
	closed    bool
	conflicts int
}

// BrowseModel is the bubbletea model for the interactive polyedge list.
type BrowseModel struct {
	rows   []polyedgeRow
	Cursor int
	Offset int
	Height int
	// Selected is the chosen polyedge index, or -1.
	Selected int

	closedOnly bool
	visible    []int
}

// NewBrowseModel builds the list from an analysis.
func NewBrowseModel(a *pipeline.Analysis) BrowseModel {
	conflicts := make(map[int]int)
	if a.Weave != nil {
		for _, c := range a.Weave.Conflicts {
			conflicts[c.Polyedge]++
		}
	}
	rows := make([]polyedgeRow, len(a.Polyedges))
	for i, pe := range a.Polyedges {
		rows[i] = polyedgeRow{
			index:     i,
			vertices:  pe,
			closed:    i < len(a.Closed) && a.Closed[i],
			conflicts: conflicts[i],
		}
	}
	m := BrowseModel{rows: rows, Height: 15, Selected: -1}
	m.filter()
	return m
}

func (m *BrowseModel) filter() {
	m.visible = m.visible[:0]
	for i, r := range m.rows {
		if !m.closedOnly || r.closed {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "c":
			m.closedOnly = !m.closedOnly
			m.filter()
		case "enter":
			if len(m.visible) == 0 {
				return m, nil
			}
			m.Selected = m.rows[m.visible[m.Cursor]].index
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	title := "Polyedges"
	if m.closedOnly {
		title += " (closed)"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  c closed only  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	var rows [][]string
	for i := m.Offset; i < end; i++ {
		r := m.rows[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		closed := ""
		if r.closed {
			closed = "✓"
		}
		conflicts := ""
		if r.conflicts > 0 {
			conflicts = fmt.Sprint(r.conflicts)
		}
		rows = append(rows, []string{
			cursor,
			fmt.Sprint(r.index),
			fmt.Sprint(len(r.vertices)),
			closed,
			fmt.Sprintf("%d → %d", r.vertices[0], r.vertices[len(r.vertices)-1]),
			conflicts,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Vertices", "Closed", "Ends", "Conflicts").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.visible) {
				return lipgloss.NewStyle()
			}
			r := m.rows[m.visible[idx]]
			base := lipgloss.NewStyle()
			switch {
			case col == 5 && r.conflicts > 0:
				base = base.Foreground(colorYellow)
			case r.closed:
				base = base.Foreground(colorGreen)
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	if len(m.visible) > 0 {
		r := m.rows[m.visible[m.Cursor]]
		b.WriteString(listSelectedStyle.Render("  " + formatVertices(r.vertices)))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.visible)), len(m.visible))))
	return b.String()
}

// formatVertices lists vertex ids, eliding the middle of long polyedges.
func formatVertices(vs []int) string {
	parts := make([]string, 0, min(len(vs), maxDetailVertices)+1)
	if len(vs) <= maxDetailVertices {
		for _, v := range vs {
			parts = append(parts, fmt.Sprint(v))
		}
		return strings.Join(parts, " ")
	}
	half := maxDetailVertices / 2
	for _, v := range vs[:half] {
		parts = append(parts, fmt.Sprint(v))
	}
	parts = append(parts, "…")
	for _, v := range vs[len(vs)-half:] {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, " ")
}

// browseCommand opens the interactive polyedge list for a mesh.
func (c *CLI) browseCommand() *cobra.Command {
	var level int
	var convert, noCache bool

	cmd := &cobra.Command{
		Use:   "browse <mesh.json|url>",
		Short: "Explore the polyedges of a mesh interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var o pipeline.Overrides
			if cmd.Flags().Changed("level") {
				o.Level = &level
			}
			if cmd.Flags().Changed("convert") {
				o.Convert = &convert
			}
			return c.runBrowse(cmd.Context(), args[0], o, noCache)
		},
	}

	cmd.Flags().IntVarP(&level, "level", "k", 0, "convert the input with this many subdivision levels")
	cmd.Flags().BoolVar(&convert, "convert", false, "treat the input as a coarse triangle mesh")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input string, o pipeline.Overrides, noCache bool) error {
	m, err := c.loadMesh(ctx, input, noCache)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	o.Formats = []string{pipeline.FormatJSON}
	opts := c.config.Analysis.Options(o)
	opts.Mesh = m
	opts.Logger = loggerFromContext(ctx)
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	if res.Set.Len() == 0 {
		printInfo("No polyedges")
		return nil
	}

	final, err := tea.NewProgram(NewBrowseModel(res.Analysis), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	if bm, ok := final.(BrowseModel); ok && bm.Selected >= 0 {
		pe := res.Set.Polyedges[bm.Selected]
		printKeyValue("Polyedge", fmt.Sprint(bm.Selected))
		printKeyValue("Vertices", fmt.Sprint(len(pe)))
		printKeyValue("Closed", fmt.Sprint(pe.IsClosed()))
		fmt.Println(strings.Trim(fmt.Sprint([]int(pe)), "[]"))
	}
	return nil
}
