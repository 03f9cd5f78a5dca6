package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/pipeline"
	"github.com/matzehuels/stitchgraph/pkg/render"
)

// renderFlags holds the command-line flags of the render command. Unset
// flags fall back to the [render] section of the config file.
type renderFlags struct {
	sel         selection
	output      string
	formats     string
	style       string
	zoom        float64
	scale       float64
	connections bool
	detailed    bool
	title       string
	all         bool
	noCache     bool
	refresh     bool
}

func (f *renderFlags) bind(cmd *cobra.Command) {
	f.sel.bind(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s), comma-separated: svg, png, pdf, json, ayab, dot, order-svg, order-pdf")
	cmd.Flags().StringVar(&f.style, "style", "", "chart style: simple, plain")
	cmd.Flags().Float64Var(&f.zoom, "zoom", pipeline.DefaultZoom, "pixels per instruction width")
	cmd.Flags().Float64Var(&f.scale, "scale", pipeline.DefaultScale, "extra zoom factor for PNG and PDF")
	cmd.Flags().BoolVar(&f.connections, "connections", false, "draw connections that skip rows")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "list instructions in order diagrams")
	cmd.Flags().StringVar(&f.title, "title", "", "SVG chart title")
	cmd.Flags().BoolVar(&f.all, "all", false, "render every pattern of the set")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "re-render even when cached")
}

// options merges the flags that were set over the config defaults.
func (f *renderFlags) options(cmd *cobra.Command, defaults pipeline.Options) (pipeline.Options, []string, error) {
	opts := defaults
	changed := cmd.Flags().Changed
	if changed("style") {
		opts.Style = f.style
	}
	if changed("zoom") {
		opts.Zoom = f.zoom
	}
	if changed("connections") {
		opts.Connections = f.connections
	}
	opts.Scale = f.scale
	opts.Detailed = f.detailed
	opts.Title = f.title
	opts.Refresh = f.refresh
	f.sel.apply(&opts)

	formats := parseFormats(f.formats, opts.Format)
	for _, format := range formats {
		if err := pipeline.ValidateFormat(format); err != nil {
			return opts, nil, err
		}
	}
	if err := pipeline.ValidateStyle(opts.Style); err != nil {
		return opts, nil, err
	}
	return opts, formats, nil
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a pattern as a chart, machine image or order diagram",
		Long: `Render a pattern file (.json, .yaml or .png).

Chart formats (svg, png, pdf) draw one cell per instruction. ayab writes
one pixel per instruction for knitting machines. dot, order-svg and
order-pdf draw the knit order with Graphviz. pdf and order-pdf need
rsvg-convert on the PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, formats, err := flags.options(cmd, c.renderDefaults())
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, formats, &flags)
		},
	}

	flags.bind(cmd)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, formats []string, flags *renderFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	if err := flags.sel.use(runner); err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	doc, err := runner.LoadFile(ctx, input)
	if err != nil {
		return err
	}

	targets := []pipeline.Options{opts}
	if flags.all {
		targets = targets[:0]
		for i := range doc.Set.Len() {
			o := opts
			o.Pattern, o.Index = "", i
			targets = append(targets, o)
		}
	}

	formats = convertible(formats, render.HasConverter())
	base := basePath(flags.output, input)
	single := len(targets) == 1 && len(formats) == 1
	for _, target := range targets {
		for _, format := range formats {
			o := target
			o.Format = format
			res, err := runner.Execute(ctx, doc, o)
			if err != nil {
				return err
			}
			path := outputPath(flags.output, base, res.Pattern.ID(), format, single, flags.all)
			if filepath.Clean(path) == filepath.Clean(input) {
				return errors.New(errors.ErrCodeInvalidPath, "refusing to overwrite the input %s, pass --output", input)
			}
			if err := os.WriteFile(path, res.Artifact, 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", path, err)
			}
			printFile(path)
			printStats(res.Stats, res.CacheInfo.Hit)
		}
	}
	prog.done("Rendered "+input, "patterns", len(targets), "formats", strings.Join(formats, ","))
	return nil
}

// basePath derives the base output path. Without an output flag it strips
// the extension from input; with one it strips a known format extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	exts := make([]string, 0, len(pipeline.ValidFormats))
	for format := range pipeline.ValidFormats {
		exts = append(exts, pipeline.Extension(format))
	}
	// ".ayab.png" before ".png"
	slices.SortFunc(exts, func(a, b string) int { return len(b) - len(a) })
	for _, ext := range exts {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return output
}

// outputPath names the file for one pattern and format. A single output
// goes exactly where --output says.
func outputPath(output, base string, id pattern.ID, format string, single, perPattern bool) string {
	if single && output != "" {
		return output
	}
	if perPattern {
		base += "_" + safeName(id.String())
	}
	return base + pipeline.Extension(format)
}

// safeName replaces characters that do not belong in file names.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}

// convertible drops the PDF formats from a multi-format render when
// rsvg-convert is missing. A PDF-only request is kept so that it fails with
// the install hint.
func convertible(formats []string, hasConverter bool) []string {
	if hasConverter {
		return formats
	}
	var kept []string
	for _, f := range formats {
		if f == pipeline.FormatPDF || f == pipeline.FormatOrderPDF {
			printWarning("skipping %s: rsvg-convert not found", f)
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return formats
	}
	return kept
}
