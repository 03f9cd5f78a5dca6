// Package pkg provides the core libraries for stitchgraph knitting pattern
// processing.
//
// # Overview
//
// stitchgraph reads knitting patterns (rows of instructions whose meshes
// connect into a graph), works out the order in which the rows are knit and
// lays the instructions out on a grid for charts. The pkg directory is
// organized into three areas:
//
//  1. Domain logic (spec chains, the pattern graph, walk, layout, render)
//  2. Input and output (the pattern set format, instruction library)
//  3. Infrastructure (pipeline, caching, storage, HTTP API, observability)
//
// # Architecture
//
// The typical data flow:
//
//	JSON / YAML / PNG
//	         ↓
//	    [io] package (decode into a PatternSet)
//	         ↓
//	    [walk] package (knit order of the rows)
//	         ↓
//	    [layout] package (grid placement)
//	         ↓
//	    [render/chart], [render/nodelink]
//	         ↓
//	    SVG/PDF/PNG/JSON/AYAB/DOT output
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/stitchgraph/pkg/io"
//	    "github.com/matzehuels/stitchgraph/pkg/layout"
//	    "github.com/matzehuels/stitchgraph/pkg/render/chart"
//	)
//
//	set, _ := io.Import("scarf.json")
//	p, _ := set.At(0)
//
//	g, _ := layout.Compute(p)
//	svg := chart.RenderSVG(g, chart.WithZoom(20))
//
// # Main Packages
//
// ## Domain Logic
//
// [spec] - Specification values and inheritance chains. Rows and
// instructions resolve their keys through the chain of their own
// specification, their definition and the defaults.
//
// [pattern] - The pattern graph: rows, instructions and the meshes that
// connect produced loops to consumed ones.
//
// [walk] - Knit order. A row is ready once every row it consumes from has
// been knit.
//
// [layout] - Grid placement of rows and instructions, with the connections
// that skip rows.
//
// [render] - The chart and node-link renderers, plus SVG to PDF/PNG
// conversion.
//
// ## Input and Output
//
// [io] - The "knitting pattern" document format (JSON and YAML) and PNG
// import.
//
// [library] - Built-in and custom instruction definitions.
//
// [color] - Color names, normalization and contrast.
//
// ## Infrastructure
//
// [pipeline] - The load, walk, layout and render pipeline used by both the
// CLI and the API, with caching.
//
// [cache] - Artifact caches: null, file, Badger and Redis backends.
//
// [storage] - Stored pattern sets in memory or MongoDB.
//
// [api] - The HTTP API.
//
// [observability] - Prometheus metrics hooks.
//
// [config] - TOML configuration with environment overrides.
//
// [errors] - Structured errors with machine-readable codes.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Specific package
//	go test -run Example        # Examples only
//
// [spec]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/spec
// [pattern]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/pattern
// [walk]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/walk
// [layout]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/render
// [render/chart]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/render/chart
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/render/nodelink
// [io]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/io
// [library]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/library
// [color]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/color
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/storage
// [api]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/api
// [observability]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/observability
// [config]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/stitchgraph/pkg/errors
package pkg
