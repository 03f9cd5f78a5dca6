// Package nodelink renders the knit order of a pattern as a node-link
// diagram.
//
// # Overview
//
// Each row becomes a box and each row-to-row mesh connection an arrow, so
// the diagram shows which rows must be knitted before which. It complements
// the chart, which shows the stitches themselves.
//
// # Usage
//
// Convert a pattern to DOT, then render to SVG:
//
//	order, err := walk.Rows(p)
//	dot := nodelink.ToDOT(p, order, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF conversion requires librsvg (rsvg-convert).
package nodelink
