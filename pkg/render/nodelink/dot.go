package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stitchgraph/pkg/color"
	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/render"
)

// Options configures knit-order diagram rendering.
type Options struct {
	// Detailed adds instruction and mesh counts to row labels and mesh
	// counts to edges. When false, only the row id is shown.
	Detailed bool
}

// ToDOT converts the rows of p to a Graphviz digraph with an edge from each
// row to the rows it feeds. Rows are emitted in the given order, typically
// the knit order from walk.Rows; a nil order uses declaration order.
//
// Rows are filled with their color. Rows joined to no other row get a
// dashed outline.
func ToDOT(p *pattern.Pattern, order []pattern.Row, opts Options) string {
	if order == nil {
		order = p.Rows()
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, r := range order {
		attrs := fmtAttrs(r, fmtLabel(r, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeID(r), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, r := range order {
		counts := meshesTo(r)
		for _, next := range r.RowsAfter() {
			if opts.Detailed {
				fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", nodeID(r), nodeID(next), counts[next.Handle()])
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(r), nodeID(next))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(r pattern.Row) string { return "row-" + r.ID().String() }

func fmtLabel(r pattern.Row, detailed bool) string {
	label := "row " + r.ID().String()
	if !detailed {
		return label
	}
	parts := []string{
		fmt.Sprintf("instructions: %d", r.Instructions().Len()),
		fmt.Sprintf("consumes: %d", r.NumberOfConsumedMeshes()),
		fmt.Sprintf("produces: %d", r.NumberOfProducedMeshes()),
	}
	if c, ok := r.Color(); ok {
		parts = append(parts, "color: "+c)
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(r pattern.Row, label string) []string {
	fill := color.OrDefault(r.Color())
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("fillcolor=%q", fill),
		fmt.Sprintf("fontcolor=%q", color.Contrast(fill)),
	}
	if loose(r) {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// loose reports whether r is joined to no other row.
func loose(r pattern.Row) bool {
	return len(r.RowsBefore()) == 0 && len(r.RowsAfter()) == 0
}

func meshesTo(r pattern.Row) map[pattern.RowHandle]int {
	counts := make(map[pattern.RowHandle]int)
	for _, m := range r.ProducedMeshes() {
		if peer, ok := m.Peer(); ok {
			if next, ok := peer.Instruction().Row(); ok {
				counts[next.Handle()]++
			}
		}
	}
	return counts
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}
