package chart

import (
	"bytes"
	"math"

	"github.com/gogpu/gg"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/layout"
)

// RenderPNG rasterizes the chart of g in-process. Cells and connections
// match RenderSVG; symbols are not drawn since no font is loaded.
func RenderPNG(g *layout.Grid, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	f := newFrame(g, o.zoom*o.scale)

	w := int(math.Ceil(f.width()))
	h := int(math.Ceil(f.height()))
	dc := gg.NewContext(w, h)
	defer dc.Close()

	dc.SetHexColor("#ffffff")
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	if err := dc.Fill(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "fill background")
	}

	dc.SetLineWidth(math.Max(1, o.scale))
	for _, rp := range g.Rows {
		for i, inst := range rp.Instructions {
			c := f.cell(inst, i)
			dc.SetHexColor(c.Fill)
			dc.DrawRectangle(c.X, c.Y, c.W, c.H)
			if err := dc.Fill(); err != nil {
				return nil, errors.Wrap(errors.ErrCodeRender, err, "fill %s", c.ID)
			}
			dc.SetHexColor("#333333")
			dc.DrawRectangle(c.X, c.Y, c.W, c.H)
			if err := dc.Stroke(); err != nil {
				return nil, errors.Wrap(errors.ErrCodeRender, err, "outline %s", c.ID)
			}
		}
	}

	if o.connections {
		dc.SetHexColor("#c0392b")
		dc.SetLineWidth(2 * math.Max(1, o.scale))
		for _, c := range g.VisibleConnections() {
			l := f.line(c)
			dc.DrawLine(l.X1, l.Y1, l.X2, l.Y2)
			if err := dc.Stroke(); err != nil {
				return nil, errors.Wrap(errors.ErrCodeRender, err, "connection %s", l.FromID)
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode PNG")
	}
	return buf.Bytes(), nil
}
