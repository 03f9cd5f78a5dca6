package chart

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/stitchgraph/pkg/color"
	"github.com/matzehuels/stitchgraph/pkg/layout"
)

// frame maps grid units to pixels with a half-cell margin.
type frame struct {
	box    layout.Box
	zoom   float64
	margin float64
}

func newFrame(g *layout.Grid, zoom float64) frame {
	return frame{box: g.Box, zoom: zoom, margin: zoom / 2}
}

func (f frame) width() float64      { return f.box.Width()*f.zoom + 2*f.margin }
func (f frame) height() float64     { return f.box.Height()*f.zoom + 2*f.margin }
func (f frame) x(v float64) float64 { return (v-f.box.MinX)*f.zoom + f.margin }
func (f frame) y(v float64) float64 { return (v-f.box.MinY)*f.zoom + f.margin }

func instructionID(p layout.InstructionPlacement, index int) string {
	return fmt.Sprintf("instruction-%s-%d", p.RowID, index)
}

func (f frame) cell(p layout.InstructionPlacement, index int) Cell {
	fill := color.OrDefault(p.Color())
	c := Cell{
		ID:     instructionID(p, index),
		Type:   p.Type(),
		Symbol: Symbol(p.Type()),
		Fill:   fill,
		Ink:    color.Contrast(fill),
		X:      f.x(p.X),
		Y:      f.y(p.Y),
		W:      p.Width * f.zoom,
		H:      p.Height * f.zoom,
	}
	c.CX, c.CY = c.X+c.W/2, c.Y+c.H/2
	return c
}

func (f frame) line(c layout.Connection) Line {
	return Line{
		FromID: instructionID(c.Start, indexOf(c.Start)),
		ToID:   instructionID(c.Stop, indexOf(c.Stop)),
		X1:     f.x(c.Start.CenterX()),
		Y1:     f.y(c.Start.CenterY()),
		X2:     f.x(c.Stop.CenterX()),
		Y2:     f.y(c.Stop.CenterY()),
	}
}

func indexOf(p layout.InstructionPlacement) int {
	i, err := p.Instruction.IndexInRow()
	if err != nil {
		return -1
	}
	return i
}

// RenderSVG draws the chart of g. Every row is a layer
// <g class="row" id="row-<id>"> holding one group per instruction.
func RenderSVG(g *layout.Grid, opts ...Option) []byte {
	o := newOptions(opts)
	f := newFrame(g, o.zoom)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		f.width(), f.height(), f.width(), f.height())
	if o.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", EscapeXML(o.title))
	}
	o.style.RenderDefs(&buf)

	for _, rp := range g.Rows {
		fmt.Fprintf(&buf, `  <g class="row" id="row-%s">`+"\n", EscapeXML(rp.ID.String()))
		for i, inst := range rp.Instructions {
			c := f.cell(inst, i)
			fmt.Fprintf(&buf, `    <g class="instruction" id="%s" data-type="%s">`+"\n", EscapeXML(c.ID), EscapeXML(c.Type))
			o.style.RenderCell(&buf, c)
			o.style.RenderLabel(&buf, c)
			buf.WriteString("    </g>\n")
		}
		buf.WriteString("  </g>\n")
	}

	if o.connections {
		buf.WriteString(`  <g class="connections">` + "\n")
		for _, c := range g.VisibleConnections() {
			o.style.RenderConnection(&buf, f.line(c))
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
