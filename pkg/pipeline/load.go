package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/matzehuels/stitchgraph/pkg/cache"
	"github.com/matzehuels/stitchgraph/pkg/errors"
	pio "github.com/matzehuels/stitchgraph/pkg/io"
	"github.com/matzehuels/stitchgraph/pkg/library"
	"github.com/matzehuels/stitchgraph/pkg/observability"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
)

// Document is a decoded pattern set with the hash of its source bytes.
type Document struct {
	Set  *pio.PatternSet
	Hash string
}

// Load decodes data in the given format.
func (r *Runner) Load(ctx context.Context, data []byte, format pio.Format, opts ...pio.Option) (doc *Document, err error) {
	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageLoad)
	defer func() {
		observability.Pipeline().OnStageEnd(ctx, observability.StageLoad, time.Since(start), err)
	}()

	set, err := pio.Read(bytes.NewReader(data), format, r.readOptions(opts)...)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("loaded pattern set", "format", format, "patterns", set.Len(), "bytes", len(data))
	return &Document{Set: set, Hash: r.hash(data)}, nil
}

// LoadFile reads and decodes the pattern set at path.
func (r *Runner) LoadFile(ctx context.Context, path string, opts ...pio.Option) (*Document, error) {
	format, err := pio.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "pattern file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	if format == pio.FormatPNG {
		// Import names the pattern after the file.
		set, err := pio.Import(path, r.readOptions(opts)...)
		if err != nil {
			return nil, err
		}
		return &Document{Set: set, Hash: r.hash(data)}, nil
	}
	return r.Load(ctx, data, format, opts...)
}

// UseInstructions extends the default instruction library with the JSON
// definitions in the file at path. Later loads read against the extended
// library and their document hashes cover the file. Call it before the
// runner is shared.
func (r *Runner) UseInstructions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "instruction file %s not found", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	lib := library.Default().Clone()
	if err := lib.Load(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("instructions %s: %w", path, err)
	}
	r.lib = lib
	r.libHash = cache.Hash(data)
	r.Logger.Debug("loaded instructions", "path", path, "types", lib.Len())
	return nil
}

// readOptions puts the runner library ahead of opts, so an explicit
// WithLibrary still wins.
func (r *Runner) readOptions(opts []pio.Option) []pio.Option {
	if r.lib == nil {
		return opts
	}
	return append([]pio.Option{pio.WithLibrary(r.lib)}, opts...)
}

// hash is the document hash of data read against the runner library.
func (r *Runner) hash(data []byte) string {
	h := cache.Hash(data)
	if r.libHash != "" {
		h = cache.Hash([]byte(h + ":" + r.libHash))
	}
	return h
}

// Select returns the pattern chosen by opts. Pattern ids are matched as
// strings first, then as numbers, so "3" finds both "3" and 3.
func (r *Runner) Select(doc *Document, opts Options) (*pattern.Pattern, error) {
	if opts.Pattern == "" {
		return doc.Set.At(opts.Index)
	}
	if p, ok := doc.Set.Get(pattern.StringID(opts.Pattern)); ok {
		return p, nil
	}
	if n, err := strconv.ParseFloat(opts.Pattern, 64); err == nil {
		if p, ok := doc.Set.Get(pattern.NumberID(n)); ok {
			return p, nil
		}
	}
	return nil, errors.New(errors.ErrCodePatternNotFound, "no pattern with id %q", opts.Pattern)
}
