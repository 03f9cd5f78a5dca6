package chart

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Style defines the visual appearance of a chart.
type Style interface {
	// RenderDefs writes SVG <defs> and <style> content.
	RenderDefs(buf *bytes.Buffer)
	// RenderCell writes the shape of one instruction.
	RenderCell(buf *bytes.Buffer, c Cell)
	// RenderLabel writes the symbol of one instruction.
	RenderLabel(buf *bytes.Buffer, c Cell)
	// RenderConnection writes a connection that skips rows.
	RenderConnection(buf *bytes.Buffer, l Line)
}

// Cell is one instruction in chart coordinates.
type Cell struct {
	ID         string // instruction-<row>-<index>
	Type       string
	Symbol     string
	Fill, Ink  string // fill and text colors, #rrggbb
	X, Y, W, H float64
	CX, CY     float64
}

// Line is a connection in chart coordinates.
type Line struct {
	FromID, ToID   string
	X1, Y1, X2, Y2 float64
}

// Simple draws flat colored cells with a thin outline and the instruction
// symbol centered in each.
type Simple struct{}

const simpleCSS = `
    .instruction rect { stroke: #333333; stroke-width: 1; }
    .instruction text { font-family: monospace; text-anchor: middle; dominant-baseline: central; }
    .connection { stroke: #c0392b; stroke-width: 2; stroke-dasharray: 4 3; fill: none; }`

func (Simple) RenderDefs(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", simpleCSS)
}

func (Simple) RenderCell(buf *bytes.Buffer, c Cell) {
	fmt.Fprintf(buf, `      <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n",
		c.X, c.Y, c.W, c.H, c.Fill)
}

func (Simple) RenderLabel(buf *bytes.Buffer, c Cell) {
	if c.Symbol == "" {
		return
	}
	size := min(c.W, c.H) * 0.5
	fmt.Fprintf(buf, `      <text x="%.2f" y="%.2f" font-size="%.1f" fill="%s">%s</text>`+"\n",
		c.CX, c.CY, size, c.Ink, EscapeXML(c.Symbol))
}

func (Simple) RenderConnection(buf *bytes.Buffer, l Line) {
	fmt.Fprintf(buf, `    <line class="connection" data-from="%s" data-to="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>`+"\n",
		l.FromID, l.ToID, l.X1, l.Y1, l.X2, l.Y2)
}

// Plain is Simple without symbols: cells show only their color.
type Plain struct{ Simple }

func (Plain) RenderLabel(*bytes.Buffer, Cell) {}

// StyleByName returns the named style: "simple" (default) or "plain".
func StyleByName(name string) (Style, bool) {
	switch name {
	case "", "simple":
		return Simple{}, true
	case "plain":
		return Plain{}, true
	}
	return nil, false
}

// EscapeXML escapes s for use in SVG text and attributes.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// symbols are the chart glyphs of the standard instructions. Knit cells
// stay empty as in printed charts.
var symbols = map[string]string{
	"knit":  "",
	"purl":  "-",
	"yo":    "o",
	"k2tog": "/",
	"skp":   "\\",
	"cdd":   "^",
	"bo":    "x",
	"co":    "+",
	"slip":  "v",
	"ktbl":  "q",
	"ptbl":  "p",
}

// Symbol returns the chart glyph for an instruction type; types without a
// glyph show their name.
func Symbol(instructionType string) string {
	if s, ok := symbols[instructionType]; ok {
		return s
	}
	return instructionType
}
