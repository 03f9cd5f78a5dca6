package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stitchgraph/pkg/cache"
	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/layout"
	"github.com/matzehuels/stitchgraph/pkg/library"
	"github.com/matzehuels/stitchgraph/pkg/observability"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/render/chart"
	"github.com/matzehuels/stitchgraph/pkg/render/nodelink"
	"github.com/matzehuels/stitchgraph/pkg/walk"
)

// Runner executes pipeline stages with caching. It holds no per-run state
// and is safe for concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-kind cache lifetimes when positive.
	TTL time.Duration

	// Instruction library documents are read against, set by
	// UseInstructions.
	lib     *library.Library
	libHash string
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// selects the default keyer and a nil logger the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases the cache.
func (r *Runner) Close() error { return r.Cache.Close() }

// stage times fn and reports it to the pipeline hooks.
func stage(ctx context.Context, name string, fn func() error) (time.Duration, error) {
	observability.Pipeline().OnStageStart(ctx, name)
	start := time.Now()
	err := fn()
	d := time.Since(start)
	observability.Pipeline().OnStageEnd(ctx, name, d, err)
	return d, err
}

// Walk returns the knit order of p.
func (r *Runner) Walk(ctx context.Context, p *pattern.Pattern) ([]pattern.Row, error) {
	var order []pattern.Row
	d, err := stage(ctx, observability.StageWalk, func() error {
		var err error
		order, err = walk.Rows(p)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("walked pattern", "pattern", p.ID(), "rows", len(order), "duration", d)
	return order, nil
}

// Layout places p on the grid.
func (r *Runner) Layout(ctx context.Context, p *pattern.Pattern) (*layout.Grid, error) {
	var g *layout.Grid
	d, err := stage(ctx, observability.StageLayout, func() error {
		var err error
		g, err = layout.Compute(p)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("computed layout", "pattern", p.ID(), "rows", len(g.Rows), "connections", len(g.Connections), "duration", d)
	return g, nil
}

// Render draws g (or order, for the knit-order formats) in opts.Format.
func (r *Runner) Render(ctx context.Context, g *layout.Grid, order []pattern.Row, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	var data []byte
	_, err := stage(ctx, observability.StageRender, func() error {
		var err error
		data, err = render(ctx, g, order, opts)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return data, nil
}

func render(ctx context.Context, g *layout.Grid, order []pattern.Row, opts Options) ([]byte, error) {
	if NeedsOrder(opts.Format) {
		dot := nodelink.ToDOT(g.Pattern, order, nodelink.Options{Detailed: opts.Detailed})
		switch opts.Format {
		case FormatDOT:
			return []byte(dot), nil
		case FormatOrderSVG:
			return nodelink.RenderSVG(ctx, dot)
		default:
			return nodelink.RenderPDF(ctx, dot)
		}
	}
	switch opts.Format {
	case FormatSVG:
		return chart.RenderSVG(g, opts.chartOptions()...), nil
	case FormatPNG:
		return chart.RenderPNG(g, opts.chartOptions()...)
	case FormatPDF:
		return chart.RenderPDF(ctx, g, opts.chartOptions()...)
	case FormatJSON:
		return chart.RenderJSON(g)
	case FormatAYAB:
		return chart.RenderAYAB(g)
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", opts.Format)
}

// Execute selects, lays out and renders one pattern of doc. The artifact is
// cached under the document hash; layout JSON lives under a layout key with
// the longer TTL.
func (r *Runner) Execute(ctx context.Context, doc *Document, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	p, err := r.Select(doc, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{Pattern: p, Format: opts.Format}
	res.Stats.Rows = p.NumRows()
	res.Stats.Instructions = len(p.Instructions())

	kind, ttl := "render", cache.TTLRender
	key := r.Keyer.RenderKey(doc.Hash, cache.RenderKeyOpts{
		Pattern:     patternKey(p.ID()),
		Format:      opts.Format,
		Style:       opts.Style,
		Zoom:        opts.Zoom * opts.Scale,
		Connections: opts.Connections,
		Detailed:    opts.Detailed,
		Title:       opts.Title,
	})
	if opts.Format == FormatJSON {
		kind, ttl = "layout", cache.TTLLayout
		key = r.Keyer.LayoutKey(doc.Hash, cache.LayoutKeyOpts{Pattern: patternKey(p.ID())})
	}
	res.CacheInfo.Key = key
	if r.TTL > 0 {
		ttl = r.TTL
	}

	if !opts.Refresh {
		if data, hit := r.cacheGet(ctx, kind, key); hit {
			res.Artifact = data
			res.CacheInfo.Hit = true
			r.Logger.Debug("cache hit", "key", key)
			return res, nil
		}
	}

	if NeedsOrder(opts.Format) {
		start := time.Now()
		if res.Order, err = r.Walk(ctx, p); err != nil {
			return nil, err
		}
		res.Stats.WalkTime = time.Since(start)
	}

	start := time.Now()
	if res.Grid, err = r.Layout(ctx, p); err != nil {
		return nil, err
	}
	res.Stats.LayoutTime = time.Since(start)
	res.Stats.Connections = len(res.Grid.Connections)

	start = time.Now()
	if res.Artifact, err = r.Render(ctx, res.Grid, res.Order, opts); err != nil {
		return nil, err
	}
	res.Stats.RenderTime = time.Since(start)

	r.cacheSet(ctx, kind, key, res.Artifact, ttl)
	r.Logger.Info("rendered pattern",
		"pattern", p.ID(),
		"format", opts.Format,
		"rows", res.Stats.Rows,
		"duration", res.Stats.LayoutTime+res.Stats.RenderTime)
	return res, nil
}

func (r *Runner) cacheGet(ctx context.Context, kind, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, kind)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return data, true
}

func (r *Runner) cacheSet(ctx context.Context, kind, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// patternKey distinguishes the number 1 from the string "1".
func patternKey(id pattern.ID) string {
	if id.IsNumber() {
		return "n:" + id.String()
	}
	return "s:" + id.String()
}
