package cli

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/stitchgraph/pkg/color"
	"github.com/matzehuels/stitchgraph/pkg/layout"
	"github.com/matzehuels/stitchgraph/pkg/render/chart"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// cellWidth is the number of terminal columns per grid unit.
const cellWidth = 2

// =============================================================================
// ChartModel - Interactive chart browser
// =============================================================================

// ChartModel is the bubbletea model of the browse command. It shows the
// layout row by row; enter toggles the instruction list of the row under
// the cursor.
type ChartModel struct {
	Grid   *layout.Grid
	Cursor int
	Offset int
	Height int
	Detail bool
}

// NewChartModel creates a browser over g.
func NewChartModel(g *layout.Grid) ChartModel {
	return ChartModel{Grid: g, Height: 15}
}

func (m ChartModel) Init() tea.Cmd {
	return nil
}

func (m ChartModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "home", "g":
			m.move(-len(m.Grid.Rows))
		case "end", "G":
			m.move(len(m.Grid.Rows))
		case "enter", " ":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.move(0)
	}
	return m, nil
}

// move shifts the cursor by delta rows and scrolls it into view.
func (m *ChartModel) move(delta int) {
	last := len(m.Grid.Rows) - 1
	m.Cursor = min(max(m.Cursor+delta, 0), max(last, 0))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ChartModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Grid.Pattern.Name()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	if len(m.Grid.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  no rows"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Grid.Rows))
	for i := m.Offset; i < end; i++ {
		row := m.Grid.Rows[i]
		label := fmt.Sprintf("%6s ", row.ID)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸" + label))
		} else {
			b.WriteString(listNormalStyle.Render(" " + label))
		}
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %s", m.Cursor+1, len(m.Grid.Rows), statsSummary(m.Grid))))
	if m.Detail {
		b.WriteString("\n\n")
		b.WriteString(m.renderDetail(m.Grid.Rows[m.Cursor]))
	}
	return b.String()
}

// renderRow draws the instructions of row as colored cells, indented to
// their grid position.
func (m ChartModel) renderRow(row layout.RowPlacement) string {
	var b strings.Builder
	col := 0
	for _, ip := range row.Instructions {
		start := int(math.Round((ip.X - m.Grid.Box.MinX) * cellWidth))
		if start > col {
			b.WriteString(strings.Repeat(" ", start-col))
			col = start
		}
		w := max(int(math.Round(ip.Width*cellWidth)), 1)
		fill := color.OrDefault(ip.Color())
		style := lipgloss.NewStyle().
			Background(lipgloss.Color(fill)).
			Foreground(lipgloss.Color(color.Contrast(fill)))
		b.WriteString(style.Render(cellText(chart.Symbol(ip.Type()), w)))
		col += w
	}
	return b.String()
}

// cellText fits symbol into w columns.
func cellText(symbol string, w int) string {
	r := []rune(symbol)
	if len(r) > w {
		r = r[:w]
	}
	return string(r) + strings.Repeat(" ", w-len(r))
}

func (m ChartModel) renderDetail(row layout.RowPlacement) string {
	var b strings.Builder
	b.WriteString(StyleHighlight.Render(fmt.Sprintf("Row %s", row.ID)))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  x=%g y=%g width=%g", row.X, row.Y, row.Width)))
	b.WriteString("\n")
	for i, ip := range row.Instructions {
		fill := color.OrDefault(ip.Color())
		inst := ip.Instruction
		fmt.Fprintf(&b, "  %3d  %-12s %s  %s\n", i, ip.Type(), fill,
			listDimStyle.Render(fmt.Sprintf("consumes %d, produces %d", inst.NumberOfConsumedMeshes(), inst.NumberOfProducedMeshes())))
	}
	return b.String()
}

func statsSummary(g *layout.Grid) string {
	return fmt.Sprintf("%s · %s · %d skipping",
		plural(len(g.Rows), "row"),
		plural(len(g.Instructions()), "instruction"),
		len(g.VisibleConnections()))
}
