// Package chart renders knitting charts from a [layout.Grid].
//
// # Overview
//
// A chart shows every instruction as a cell at its grid position, filled
// with the instruction color and marked with a symbol for its type. Outputs:
//
//   - SVG: [RenderSVG], one layer per row
//   - PNG: [RenderPNG], rasterized in-process with gogpu/gg
//   - PDF: [RenderPDF], via rsvg-convert
//   - JSON: [RenderJSON], the layout in grid units for external tools
//   - AYAB: [RenderAYAB], one pixel per instruction for knitting machines
//
// Basic usage:
//
//	grid, err := layout.Compute(p)
//	svg := chart.RenderSVG(grid, chart.WithZoom(30), chart.WithConnections())
//
// # Options
//
//   - [WithZoom]: pixels per grid unit (default [DefaultZoom])
//   - [WithConnections]: draw connections that skip rows as dashed lines
//   - [WithStyle]: [Simple] (default) or [Plain]
//   - [WithTitle]: SVG title element
//   - [WithScale]: PNG resolution multiplier
//
// [layout.Grid]: github.com/matzehuels/stitchgraph/pkg/layout.Grid
package chart
