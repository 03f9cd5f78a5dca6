// Package pipeline runs the load → walk → layout → render sequence shared
// by the CLI and the HTTP API.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	doc, err := runner.LoadFile(ctx, "scarf.json")
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Execute(ctx, doc, pipeline.Options{Format: pipeline.FormatSVG})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("scarf.svg", result.Artifact, 0o644)
//
// Stages can also run on their own:
//
//	p, err := runner.Select(doc, opts)
//	order, err := runner.Walk(ctx, p)
//	grid, err := runner.Layout(ctx, p)
//	svg, err := runner.Render(ctx, grid, order, opts)
//
// Execute caches its artifact under the content hash of the loaded
// document, so unchanged files never lay out twice.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/layout"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/render/chart"
)

// Output formats.
const (
	FormatSVG      = "svg"       // chart
	FormatPNG      = "png"       // chart, rasterized in-process
	FormatPDF      = "pdf"       // chart, needs rsvg-convert
	FormatJSON     = "json"      // layout in grid units
	FormatAYAB     = "ayab"      // one pixel per instruction
	FormatDOT      = "dot"       // knit order as Graphviz source
	FormatOrderSVG = "order-svg" // knit order drawn by Graphviz
	FormatOrderPDF = "order-pdf"
)

// Defaults shared by the CLI, the config file and the API.
const (
	DefaultFormat = FormatSVG
	DefaultStyle  = "simple"
	DefaultZoom   = chart.DefaultZoom
	DefaultScale  = 1.0
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:      true,
	FormatPNG:      true,
	FormatPDF:      true,
	FormatJSON:     true,
	FormatAYAB:     true,
	FormatDOT:      true,
	FormatOrderSVG: true,
	FormatOrderPDF: true,
}

var contentTypes = map[string]string{
	FormatSVG:      "image/svg+xml",
	FormatPNG:      "image/png",
	FormatPDF:      "application/pdf",
	FormatJSON:     "application/json",
	FormatAYAB:     "image/png",
	FormatDOT:      "text/vnd.graphviz",
	FormatOrderSVG: "image/svg+xml",
	FormatOrderPDF: "application/pdf",
}

// ContentType returns the MIME type of a format.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Extension returns the file extension written for a format.
func Extension(format string) string {
	switch format {
	case FormatAYAB:
		return ".ayab.png"
	case FormatOrderSVG:
		return ".order.svg"
	case FormatOrderPDF:
		return ".order.pdf"
	}
	return "." + format
}

// NeedsOrder reports whether a format draws the knit order.
func NeedsOrder(format string) bool {
	return format == FormatDOT || format == FormatOrderSVG || format == FormatOrderPDF
}

// Options configures one pipeline run. It doubles as the JSON body of API
// render requests.
type Options struct {
	// Pattern selects a pattern of the set by id. When empty, Index is used.
	Pattern string `json:"pattern,omitempty"`
	Index   int    `json:"index,omitempty"`

	Format      string  `json:"format,omitempty"`
	Style       string  `json:"style,omitempty"`
	Zoom        float64 `json:"zoom,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	Connections bool    `json:"connections,omitempty"`
	Detailed    bool    `json:"detailed,omitempty"` // DOT formats only
	Title       string  `json:"title,omitempty"`

	// Refresh skips the cache read; the result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// Result is the output of Execute. Grid and Order are nil when the
// artifact came from the cache.
type Result struct {
	Pattern  *pattern.Pattern
	Order    []pattern.Row
	Grid     *layout.Grid
	Format   string
	Artifact []byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains sizes and stage timings of a run.
type Stats struct {
	Rows         int
	Instructions int
	Connections  int
	WalkTime     time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo reports whether the artifact was served from the cache.
type CacheInfo struct {
	Hit bool
	Key string
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format %q (must be one of: svg, png, pdf, json, ayab, dot, order-svg, order-pdf)", format)
	}
	return nil
}

// ValidateStyle checks that a chart style exists.
func ValidateStyle(style string) error {
	if _, ok := chart.StyleByName(style); !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid style %q (must be one of: simple, plain)", style)
	}
	return nil
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Zoom == 0 {
		o.Zoom = DefaultZoom
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks every field. It is idempotent.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if o.Index < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pattern index must not be negative, got %d", o.Index)
	}
	if len(o.Pattern) > 128 {
		return errors.New(errors.ErrCodeInvalidInput, "pattern id too long (max 128 characters)")
	}
	if o.Zoom < 0 || o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "zoom and scale must be positive")
	}
	return nil
}

func (o *Options) chartOptions() []chart.Option {
	style, _ := chart.StyleByName(o.Style)
	opts := []chart.Option{
		chart.WithZoom(o.Zoom),
		chart.WithStyle(style),
		chart.WithScale(o.Scale),
		chart.WithTitle(o.Title),
	}
	if o.Connections {
		opts = append(opts, chart.WithConnections())
	}
	return opts
}
