package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/stitchgraph/pkg/layout"
)

func swatchGrid(t *testing.T) *layout.Grid {
	t.Helper()
	set, err := swatch{ID: "browse", Name: "Browse me", Rows: 20, Width: 3, Stitch: stitchSeed}.build()
	if err != nil {
		t.Fatal(err)
	}
	p, err := set.At(0)
	if err != nil {
		t.Fatal(err)
	}
	g, err := layout.Compute(p)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestChartModelNavigation(t *testing.T) {
	m := NewChartModel(swatchGrid(t))
	m.Height = 5

	step := func(msg tea.Msg) tea.Cmd {
		next, cmd := m.Update(msg)
		m = next.(ChartModel)
		return cmd
	}

	step(key("up"))
	if m.Cursor != 0 {
		t.Errorf("Cursor after up at top = %d, want 0", m.Cursor)
	}
	for range 7 {
		step(key("down"))
	}
	if m.Cursor != 7 || m.Offset != 3 {
		t.Errorf("Cursor, Offset = %d, %d, want 7, 3", m.Cursor, m.Offset)
	}
	step(key("G"))
	if m.Cursor != 19 {
		t.Errorf("Cursor after G = %d, want 19", m.Cursor)
	}
	step(key("g"))
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("Cursor, Offset after g = %d, %d, want 0, 0", m.Cursor, m.Offset)
	}

	step(key("enter"))
	if !m.Detail {
		t.Error("enter did not open the details")
	}
	if cmd := step(key("q")); cmd == nil {
		t.Error("q returned no command, want tea.Quit")
	}
}

func TestChartModelWindowSize(t *testing.T) {
	m := NewChartModel(swatchGrid(t))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if got := next.(ChartModel).Height; got != 5 {
		t.Errorf("Height = %d, want 5", got)
	}
}

func TestChartModelView(t *testing.T) {
	m := NewChartModel(swatchGrid(t))
	m.Detail = true
	view := m.View()
	for _, want := range []string{"Browse me", "[1/20]", "20 rows", "60 instructions", "Row 1", "purl"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		symbol string
		w      int
		want   string
	}{
		{"", 2, "  "},
		{"/", 2, "/ "},
		{"bobble", 2, "bo"},
	}
	for _, tt := range tests {
		if got := cellText(tt.symbol, tt.w); got != tt.want {
			t.Errorf("cellText(%q, %d) = %q, want %q", tt.symbol, tt.w, got, tt.want)
		}
	}
}
