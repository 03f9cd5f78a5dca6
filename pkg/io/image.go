package io

import (
	"image"
	stdcolor "image/color"

	"github.com/matzehuels/stitchgraph/pkg/color"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

// FromImage converts an image into a one-pattern set: one row per pixel
// line, top to bottom, with a knit stitch per pixel colored like it. Each
// row is knitted into the one above.
func FromImage(img image.Image, id string, opts ...Option) (*PatternSet, error) {
	o := collect(opts)
	set := NewPatternSet(o.library)
	set.Comment = spec.MapValue(spec.Map{"source": spec.String(id)})
	p, err := set.NewPattern(pattern.StringID(id), id)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	var prev pattern.Row
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row, err := p.AddRow(pattern.NumberID(float64(y-b.Min.Y)), nil)
		if err != nil {
			return nil, err
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			c := stdcolor.RGBAModel.Convert(img.At(x, y)).(stdcolor.RGBA)
			if _, err := row.Instructions().Append(spec.Map{
				pattern.KeyType:  spec.String(pattern.TypeKnit),
				pattern.KeyColor: spec.String(color.Hex(c)),
			}); err != nil {
				return nil, err
			}
		}
		if y > b.Min.Y {
			if err := pattern.ConnectRange(prev, 0, row, 0, pattern.AllMeshes); err != nil {
				return nil, err
			}
		}
		prev = row
	}
	return set, nil
}
