package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/kagome/pkg/pipeline"
	"github.com/matzehuels/kagome/pkg/polyedge"
	"github.com/matzehuels/kagome/pkg/weave"
)

func browseFixture() *pipeline.Analysis {
	return &pipeline.Analysis{
		Polyedges: []polyedge.Polyedge{{0, 1, 2}, {3, 4, 5, 3}, {6, 7}},
		Closed:    []bool{false, true, false},
		Weave: &weave.Result{Conflicts: []weave.Conflict{
			{Vertex: 7, Polyedge: 2},
			{Vertex: 6, Polyedge: 2},
		}},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m BrowseModel, keys ...string) (BrowseModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(BrowseModel)
	}
	return m, cmd
}

func TestBrowseModelNavigation(t *testing.T) {
	m := NewBrowseModel(browseFixture())
	if m.Selected != -1 {
		t.Fatalf("Selected = %d, want -1", m.Selected)
	}

	m, _ = press(m, "down", "down", "down")
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2 (clamped)", m.Cursor)
	}
	m, _ = press(m, "k")
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1", m.Cursor)
	}

	m, cmd := press(m, "enter")
	if m.Selected != 1 {
		t.Errorf("Selected = %d, want 1", m.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
}

func TestBrowseModelClosedFilter(t *testing.T) {
	m, _ := press(NewBrowseModel(browseFixture()), "c")
	if len(m.visible) != 1 {
		t.Fatalf("visible = %v, want only the closed polyedge", m.visible)
	}
	m, _ = press(m, "enter")
	if m.Selected != 1 {
		t.Errorf("Selected = %d, want 1", m.Selected)
	}
}

func TestBrowseModelView(t *testing.T) {
	m := NewBrowseModel(browseFixture())
	view := m.View()
	for _, want := range []string{"Polyedges", "0 → 2", "3 → 3", "[1/3]", "0 1 2"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if m.rows[2].conflicts != 2 {
		t.Errorf("conflicts = %d, want 2", m.rows[2].conflicts)
	}
}

func TestBrowseModelWindowSize(t *testing.T) {
	next, _ := NewBrowseModel(browseFixture()).Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	if h := next.(BrowseModel).Height; h != 5 {
		t.Errorf("Height = %d, want 5", h)
	}
}

func TestFormatVertices(t *testing.T) {
	if got := formatVertices([]int{1, 2, 3}); got != "1 2 3" {
		t.Errorf("formatVertices = %q", got)
	}
	long := make([]int, 100)
	for i := range long {
		long[i] = i
	}
	got := formatVertices(long)
	if !strings.Contains(got, "…") || !strings.HasPrefix(got, "0 1 ") || !strings.HasSuffix(got, " 99") {
		t.Errorf("formatVertices(long) = %q", got)
	}
}

func TestStatsLine(t *testing.T) {
	line := statsLine(pipeline.Stats{Vertices: 9, Polyedges: 6, Singular: 2}, true)
	for _, want := range []string{"9 vertices", "6 polyedges", "0 closed", "2 singular", iconCached} {
		if !strings.Contains(line, want) {
			t.Errorf("statsLine missing %q: %q", want, line)
		}
	}
	if strings.Contains(statsLine(pipeline.Stats{}, false), "singular") {
		t.Error("singular count should be omitted when zero")
	}
}
