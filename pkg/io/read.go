package io

import (
	"encoding/json"
	stderrors "errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/library"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

// Format is an on-disk pattern encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatPNG  Format = "png"
)

// Document keys.
const (
	keyType         = "type"
	keyVersion      = "version"
	keyComment      = "comment"
	keyInstructions = "instructions"
	keyPatterns     = "patterns"
	keyID           = "id"
	keyName         = "name"
	keyRows         = "rows"
	keyConnections  = "connections"
	keyFrom         = "from"
	keyTo           = "to"
	keyStart        = "start"
	keyMeshes       = "meshes"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".knit":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".png":
		return FormatPNG, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported pattern file %q (want .json, .yaml or .png)", path)
}

// Option configures reading.
type Option func(*options)

type options struct {
	library *library.Library
}

// WithLibrary sets the instruction library patterns inherit from. The
// set's own "instructions" are added to a copy of it.
func WithLibrary(lib *library.Library) Option {
	return func(o *options) { o.library = lib }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ReadJSON decodes a JSON pattern set from r. It does not close r.
func ReadJSON(r io.Reader, opts ...Option) (*PatternSet, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode JSON")
	}
	return decode(raw, collect(opts))
}

// ReadYAML decodes a YAML pattern set from r. It does not close r.
func ReadYAML(r io.Reader, opts ...Option) (*PatternSet, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.New(errors.ErrCodeParse, "empty YAML document")
		}
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode YAML")
	}
	return decode(raw, collect(opts))
}

// Read decodes a pattern set in the given format.
func Read(r io.Reader, format Format, opts ...Option) (*PatternSet, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r, opts...)
	case FormatYAML:
		return ReadYAML(r, opts...)
	case FormatPNG:
		img, err := png.Decode(r)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decode PNG")
		}
		return FromImage(img, "image", opts...)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

// Import reads the pattern set stored at path.
func Import(path string, opts ...Option) (*PatternSet, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "pattern file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	if format == FormatPNG {
		img, err := png.Decode(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decode %s", path)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return FromImage(img, name, opts...)
	}
	return Read(f, format, opts...)
}

func decode(raw any, o options) (*PatternSet, error) {
	v, err := spec.FromAny(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "pattern set")
	}
	top, ok := v.AsMap()
	if !ok {
		return nil, errors.New(errors.ErrCodeParse, "pattern set must be an object, got %s", v.Kind())
	}

	t, ok := top.Get(keyType)
	if !ok {
		return nil, errors.New(errors.ErrCodeParse, "no pattern type given, want %q", PatternSetType)
	}
	if s, _ := t.AsString(); s != PatternSetType {
		return nil, errors.New(errors.ErrCodeParse, "wrong pattern type %q, want %q", t, PatternSetType)
	}

	set := NewPatternSet(o.library)
	if ver, ok := top.Get(keyVersion); ok {
		set.Version = ver.String()
	}
	if c, ok := top.Get(keyComment); ok {
		set.Comment = c
	}

	defs, err := listOf(top, keyInstructions)
	if err != nil {
		return nil, err
	}
	if len(defs) > 0 {
		set.Library = set.Library.Clone()
		for i, d := range defs {
			m, ok := d.AsMap()
			if !ok {
				return nil, errors.New(errors.ErrCodeParse, "instruction definition %d must be an object", i)
			}
			if err := set.Library.Add(m); err != nil {
				return nil, errors.Wrap(errors.ErrCodeParse, err, "instruction definition %d", i)
			}
		}
	}

	patterns, err := listOf(top, keyPatterns)
	if err != nil {
		return nil, err
	}
	for i, pv := range patterns {
		pm, ok := pv.AsMap()
		if !ok {
			return nil, errors.New(errors.ErrCodeParse, "pattern %d must be an object", i)
		}
		if err := decodePattern(set, i, pm); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func decodePattern(set *PatternSet, index int, pm spec.Map) error {
	id, err := idOf(pm, "pattern %d", index)
	if err != nil {
		return err
	}
	name := id.String()
	if n, ok := pm.Get(keyName); ok {
		name = n.String()
	}
	p, err := set.NewPattern(id, name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "pattern %s", id)
	}

	rows, err := listOf(pm, keyRows)
	if err != nil {
		return err
	}
	for i, rv := range rows {
		rm, ok := rv.AsMap()
		if !ok {
			return errors.New(errors.ErrCodeParse, "pattern %s: row %d must be an object", id, i)
		}
		if err := decodeRow(p, i, rm); err != nil {
			return err
		}
	}

	conns, err := listOf(pm, keyConnections)
	if err != nil {
		return err
	}
	for i, cv := range conns {
		cm, ok := cv.AsMap()
		if !ok {
			return errors.New(errors.ErrCodeParse, "pattern %s: connection %d must be an object", id, i)
		}
		if err := decodeConnection(p, i, cm); err != nil {
			return err
		}
	}
	return nil
}

func decodeRow(p *pattern.Pattern, index int, rm spec.Map) error {
	id, err := idOf(rm, "pattern %s: row %d", p.ID(), index)
	if err != nil {
		return err
	}
	row, err := p.AddRow(id, rm.Without(keyInstructions))
	if err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "pattern %s", p.ID())
	}

	insts, err := listOf(rm, keyInstructions)
	if err != nil {
		return err
	}
	for i, iv := range insts {
		im, ok := iv.AsMap()
		if !ok {
			return errors.New(errors.ErrCodeParse, "pattern %s: row %s: instruction %d must be an object", p.ID(), id, i)
		}
		if _, err := row.Instructions().Append(im); err != nil {
			return errors.Wrap(errors.ErrCodeParse, err, "pattern %s: row %s: instruction %d", p.ID(), id, i)
		}
	}
	return nil
}

func decodeConnection(p *pattern.Pattern, index int, cm spec.Map) error {
	from, fromStart, err := endpoint(p, index, cm, keyFrom)
	if err != nil {
		return err
	}
	to, toStart, err := endpoint(p, index, cm, keyTo)
	if err != nil {
		return err
	}
	count := pattern.AllMeshes
	if mv, ok := cm.Get(keyMeshes); ok {
		n, isInt := mv.AsInt()
		if !isInt || n < 0 {
			return errors.New(errors.ErrCodeParse, "pattern %s: connection %d: meshes must be a non-negative integer, got %s", p.ID(), index, mv)
		}
		count = n
	}
	if err := pattern.ConnectRange(from, fromStart, to, toStart, count); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "pattern %s: connection %d (%s -> %s)", p.ID(), index, from.ID(), to.ID())
	}
	return nil
}

func endpoint(p *pattern.Pattern, index int, cm spec.Map, key string) (pattern.Row, int, error) {
	ev, ok := cm.Get(key)
	if !ok {
		return pattern.Row{}, 0, errors.New(errors.ErrCodeParse, "pattern %s: connection %d has no %q", p.ID(), index, key)
	}
	em, ok := ev.AsMap()
	if !ok {
		return pattern.Row{}, 0, errors.New(errors.ErrCodeParse, "pattern %s: connection %d: %q must be an object", p.ID(), index, key)
	}
	id, err := idOf(em, "pattern %s: connection %d: %s", p.ID(), index, key)
	if err != nil {
		return pattern.Row{}, 0, err
	}
	row, ok := p.Row(id)
	if !ok {
		return pattern.Row{}, 0, errors.New(errors.ErrCodeParse, "pattern %s: connection %d: unknown row %s", p.ID(), index, id)
	}
	start := 0
	if sv, ok := em.Get(keyStart); ok {
		n, isInt := sv.AsInt()
		if !isInt || n < 0 {
			return pattern.Row{}, 0, errors.New(errors.ErrCodeParse, "pattern %s: connection %d: start must be a non-negative integer, got %s", p.ID(), index, sv)
		}
		start = n
	}
	return row, start, nil
}

func idOf(m spec.Map, where string, args ...any) (pattern.ID, error) {
	v, ok := m.Get(keyID)
	if !ok {
		return pattern.ID{}, errors.New(errors.ErrCodeParse, where+" has no id", args...)
	}
	id, err := pattern.IDFromValue(v)
	if err != nil {
		return pattern.ID{}, errors.Wrap(errors.ErrCodeParse, err, where, args...)
	}
	return id, nil
}

func listOf(m spec.Map, key string) ([]spec.Value, error) {
	v, ok := m.Get(key)
	if !ok || v.IsNull() {
		return nil, nil
	}
	list, ok := v.AsList()
	if !ok {
		return nil, errors.New(errors.ErrCodeParse, "%q must be a list, got %s", key, v.Kind())
	}
	return list, nil
}
