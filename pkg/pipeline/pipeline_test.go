package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stitchgraph/pkg/cache"
	"github.com/matzehuels/stitchgraph/pkg/errors"
	pio "github.com/matzehuels/stitchgraph/pkg/io"
	"github.com/matzehuels/stitchgraph/pkg/library"
	"github.com/matzehuels/stitchgraph/pkg/observability"
)

const twoPatterns = `{
  "type": "knitting pattern",
  "version": "0.1",
  "patterns": [
    {
      "id": "scarf",
      "name": "Scarf",
      "rows": [
        {"id": 1, "color": "red", "instructions": [{}, {}]},
        {"id": 2, "instructions": [{"type": "k2tog"}]}
      ],
      "connections": [{"from": {"id": 1}, "to": {"id": 2}}]
    },
    {"id": 7, "name": "Seven", "rows": [{"id": 1, "instructions": [{}]}]}
  ]
}`

// memCache is a map-backed cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls []time.Duration
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.ttls = append(c.ttls, ttl)
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
	return nil
}

func (c *memCache) Close() error { return nil }

func quietRunner(c *memCache) *Runner {
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func load(t *testing.T, r *Runner) *Document {
	t.Helper()
	doc, err := r.Load(context.Background(), []byte(twoPatterns), pio.FormatJSON)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return doc
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"ayab", false},
		{"dot", false},
		{"order-svg", false},
		{"order-pdf", false},
		{"SVG", true},
		{"gif", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	var o Options
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if o.Format != FormatSVG || o.Style != DefaultStyle || o.Zoom != DefaultZoom || o.Scale != DefaultScale || o.Logger == nil {
		t.Errorf("defaults = %+v", o)
	}

	tests := []struct {
		name string
		opts Options
	}{
		{"style", Options{Style: "handdrawn"}},
		{"index", Options{Index: -1}},
		{"zoom", Options{Zoom: -2}},
		{"pattern", Options{Pattern: strings.Repeat("x", 129)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}

func TestSelect(t *testing.T) {
	r := quietRunner(newMemCache())
	doc := load(t, r)

	tests := []struct {
		opts Options
		want string
	}{
		{Options{}, "Scarf"},
		{Options{Index: 1}, "Seven"},
		{Options{Pattern: "scarf"}, "Scarf"},
		{Options{Pattern: "7"}, "Seven"},
	}
	for _, tt := range tests {
		p, err := r.Select(doc, tt.opts)
		if err != nil {
			t.Errorf("Select(%+v) error = %v", tt.opts, err)
			continue
		}
		if p.Name() != tt.want {
			t.Errorf("Select(%+v) = %s, want %s", tt.opts, p.Name(), tt.want)
		}
	}

	if _, err := r.Select(doc, Options{Pattern: "hat"}); !errors.Is(err, errors.ErrCodePatternNotFound) {
		t.Errorf("Select(hat) error = %v, want PATTERN_NOT_FOUND", err)
	}
	if _, err := r.Select(doc, Options{Index: 5}); !errors.Is(err, errors.ErrCodeIndexOutOfRange) {
		t.Errorf("Select(5) error = %v, want INDEX_OUT_OF_RANGE", err)
	}
}

func TestLoadErrors(t *testing.T) {
	r := quietRunner(newMemCache())
	ctx := context.Background()

	if _, err := r.Load(ctx, []byte(`{"type": "crochet"}`), pio.FormatJSON); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("Load() error = %v, want PARSE_ERROR", err)
	}
	if _, err := r.LoadFile(ctx, t.TempDir()+"/missing.json"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadFile() error = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := r.LoadFile(ctx, "pattern.txt"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("LoadFile() error = %v, want INVALID_FORMAT", err)
	}
}

func TestExecuteCaches(t *testing.T) {
	c := newMemCache()
	r := quietRunner(c)
	doc := load(t, r)
	ctx := context.Background()

	first, err := r.Execute(ctx, doc, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheInfo.Hit || first.Grid == nil {
		t.Fatalf("first Execute() hit = %v, grid = %v, want computed", first.CacheInfo.Hit, first.Grid)
	}
	if !strings.Contains(string(first.Artifact), `<g class="row" id="row-2">`) {
		t.Error("Execute() artifact is not the chart SVG")
	}
	if first.Stats.Rows != 2 || first.Stats.Instructions != 3 || first.Stats.Connections != 2 {
		t.Errorf("Stats = %+v, want 2 rows, 3 instructions, 2 connections", first.Stats)
	}

	second, err := r.Execute(ctx, doc, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheInfo.Hit || second.Grid != nil {
		t.Errorf("second Execute() hit = %v, want cache hit", second.CacheInfo.Hit)
	}
	if string(second.Artifact) != string(first.Artifact) {
		t.Error("cached artifact differs")
	}

	if _, err := r.Execute(ctx, doc, Options{Connections: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Execute(ctx, doc, Options{Refresh: true}); err != nil {
		t.Fatal(err)
	}
	if c.sets != 3 {
		t.Errorf("cache sets = %d, want 3", c.sets)
	}
	if len(c.data) != 2 {
		t.Errorf("cache entries = %d, want 2", len(c.data))
	}
}

func TestExecuteTitleKeysCache(t *testing.T) {
	r := quietRunner(newMemCache())
	doc := load(t, r)
	ctx := context.Background()

	if _, err := r.Execute(ctx, doc, Options{Format: FormatSVG, Title: "First title"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	res, err := r.Execute(ctx, doc, Options{Format: FormatSVG, Title: "Second title"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.CacheInfo.Hit {
		t.Error("Execute() with a new title hit the cache")
	}
	if !strings.Contains(string(res.Artifact), "Second title") {
		t.Error("Execute() artifact lacks the second title")
	}
}

const bobblePattern = `{
  "type": "knitting pattern",
  "version": "0.1",
  "patterns": [{"id": "b", "rows": [{"id": 1, "instructions": [{"type": "bobble"}]}]}]
}`

func TestUseInstructions(t *testing.T) {
	dir := t.TempDir()
	defs := dir + "/instructions.json"
	if err := os.WriteFile(defs, []byte(`[{"type": "bobble", "grid-layout": {"width": 3}}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	plain := quietRunner(newMemCache())
	before, err := plain.Load(ctx, []byte(bobblePattern), pio.FormatJSON)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	r := quietRunner(newMemCache())
	if err := r.UseInstructions(defs); err != nil {
		t.Fatalf("UseInstructions() error = %v", err)
	}
	doc, err := r.Load(ctx, []byte(bobblePattern), pio.FormatJSON)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Hash == before.Hash {
		t.Error("Load() hash ignores the instruction file")
	}
	res, err := r.Execute(ctx, doc, Options{Format: FormatJSON})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if w := res.Grid.Rows[0].Width; w != 3 {
		t.Errorf("row width = %v, want 3", w)
	}
	if _, ok := library.Default().Definition("bobble"); ok {
		t.Error("UseInstructions() modified the default library")
	}

	if err := r.UseInstructions(dir + "/missing.json"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("UseInstructions() error = %v, want FILE_NOT_FOUND", err)
	}
	untyped := dir + "/untyped.json"
	if err := os.WriteFile(untyped, []byte(`[{"title": "no type"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.UseInstructions(untyped); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("UseInstructions() error = %v, want INVALID_INPUT", err)
	}
}

func TestExecuteTTL(t *testing.T) {
	tests := []struct {
		name     string
		override time.Duration
		format   string
		want     time.Duration
	}{
		{"render", 0, FormatSVG, cache.TTLRender},
		{"layout", 0, FormatJSON, cache.TTLLayout},
		{"override", time.Minute, FormatJSON, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := newMemCache()
			r := quietRunner(mc)
			r.TTL = tt.override
			if _, err := r.Execute(context.Background(), load(t, r), Options{Format: tt.format}); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if len(mc.ttls) != 1 || mc.ttls[0] != tt.want {
				t.Errorf("ttls = %v, want [%v]", mc.ttls, tt.want)
			}
		})
	}
}

func TestExecuteFormats(t *testing.T) {
	r := quietRunner(newMemCache())
	doc := load(t, r)
	ctx := context.Background()

	res, err := r.Execute(ctx, doc, Options{Format: FormatJSON})
	if err != nil {
		t.Fatalf("Execute(json) error = %v", err)
	}
	var out struct {
		Pattern string `json:"pattern"`
		Rows    []struct {
			Y float64 `json:"y"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(res.Artifact, &out); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if out.Pattern != "scarf" || len(out.Rows) != 2 || out.Rows[1].Y != 1 {
		t.Errorf("layout JSON = %+v", out)
	}
	if !strings.HasPrefix(res.CacheInfo.Key, "layout:") {
		t.Errorf("json cache key = %q, want layout: prefix", res.CacheInfo.Key)
	}

	res, err = r.Execute(ctx, doc, Options{Format: FormatDOT, Pattern: "scarf"})
	if err != nil {
		t.Fatalf("Execute(dot) error = %v", err)
	}
	if len(res.Order) != 2 || !strings.Contains(string(res.Artifact), `"row-1" -> "row-2"`) {
		t.Errorf("dot = %s", res.Artifact)
	}

	res, err = r.Execute(ctx, doc, Options{Format: FormatAYAB})
	if err != nil {
		t.Fatalf("Execute(ayab) error = %v", err)
	}
	if !strings.HasPrefix(string(res.Artifact), "\x89PNG") {
		t.Error("AYAB artifact is not a PNG")
	}
}

type stageRecorder struct {
	mu     sync.Mutex
	stages []string
}

func (s *stageRecorder) OnStageStart(context.Context, string) {}

func (s *stageRecorder) OnStageEnd(_ context.Context, stage string, _ time.Duration, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
}

func TestExecuteReportsStages(t *testing.T) {
	rec := &stageRecorder{}
	observability.SetPipelineHooks(rec)
	defer observability.Reset()

	r := quietRunner(newMemCache())
	doc := load(t, r)
	if _, err := r.Execute(context.Background(), doc, Options{Format: FormatDOT}); err != nil {
		t.Fatal(err)
	}
	want := []string{"load", "walk", "layout", "render"}
	if strings.Join(rec.stages, ",") != strings.Join(want, ",") {
		t.Errorf("stages = %v, want %v", rec.stages, want)
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		FormatSVG:      ".svg",
		FormatAYAB:     ".ayab.png",
		FormatOrderSVG: ".order.svg",
		FormatDOT:      ".dot",
	}
	for format, want := range tests {
		if got := Extension(format); got != want {
			t.Errorf("Extension(%q) = %q, want %q", format, got, want)
		}
	}
	if got := ContentType(FormatPNG); got != "image/png" {
		t.Errorf("ContentType(png) = %q, want image/png", got)
	}
}
