package chart

import (
	"bytes"
	"image"
	stdcolor "image/color"
	"image/png"
	"math"

	"github.com/matzehuels/stitchgraph/pkg/color"
	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/layout"
)

// AYABImage returns the chart of g as one pixel per instruction, colored by
// the instruction's color, for knitting machines driven by AYAB. Pixel
// (0, 0) is the grid point (floor(min x), floor(min y)); instructions
// outside the box are dropped and empty grid points stay white.
func AYABImage(g *layout.Grid) *image.NRGBA {
	minX, minY := math.Floor(g.Box.MinX), math.Floor(g.Box.MinY)
	w := int(math.Ceil(g.Box.MaxX) - minX)
	h := int(math.Ceil(g.Box.MaxY) - minY)
	img := image.NewNRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))

	white := stdcolor.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = white.R, white.G, white.B, white.A
	}

	for _, inst := range g.Instructions() {
		x := int(math.Floor(inst.X) - minX)
		y := int(math.Floor(inst.Y) - minY)
		if !(image.Point{X: x, Y: y}).In(img.Rect) {
			continue
		}
		c, err := color.Parse(color.OrDefault(inst.Color()))
		if err != nil {
			continue
		}
		img.SetNRGBA(x, y, stdcolor.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
	}
	return img
}

// RenderAYAB encodes [AYABImage] as PNG.
func RenderAYAB(g *layout.Grid) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, AYABImage(g)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode AYAB PNG")
	}
	return buf.Bytes(), nil
}
