package chart

import (
	"context"

	"github.com/matzehuels/stitchgraph/pkg/layout"
	"github.com/matzehuels/stitchgraph/pkg/render"
)

// RenderPDF renders the chart as PDF via SVG conversion. It requires
// rsvg-convert; see render.HasConverter.
func RenderPDF(ctx context.Context, g *layout.Grid, opts ...Option) ([]byte, error) {
	return render.ToPDF(ctx, RenderSVG(g, opts...))
}
