// Package render turns laid-out knitting patterns into pictures.
//
// # Overview
//
// The renderers live in subpackages:
//
//   - [chart]: the knitting chart, one box per instruction on the layout
//     grid, as SVG, PNG, JSON or an AYAB pixel image
//   - [nodelink]: the knit order of the rows as a Graphviz digraph
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg). Both renderers use them for PDF output:
//
//	svg := chart.RenderSVG(grid)
//	pdf, err := render.ToPDF(ctx, svg)
//
// Without rsvg-convert on PATH the conversions fail with UNSUPPORTED; check
// [HasConverter] first to offer a fallback.
//
// [chart]: github.com/matzehuels/stitchgraph/pkg/render/chart
// [nodelink]: github.com/matzehuels/stitchgraph/pkg/render/nodelink
package render
