package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/library"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

type document struct {
	Type         string       `json:"type" yaml:"type"`
	Version      string       `json:"version" yaml:"version"`
	Comment      *spec.Value  `json:"comment,omitempty" yaml:"comment,omitempty"`
	Instructions []spec.Map   `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Patterns     []patternDoc `json:"patterns" yaml:"patterns"`
}

type patternDoc struct {
	ID          pattern.ID      `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Rows        []spec.Map      `json:"rows" yaml:"rows"`
	Connections []connectionDoc `json:"connections,omitempty" yaml:"connections,omitempty"`
}

type connectionDoc struct {
	From   endpointDoc `json:"from" yaml:"from"`
	To     endpointDoc `json:"to" yaml:"to"`
	Meshes int         `json:"meshes" yaml:"meshes"`
}

type endpointDoc struct {
	ID    pattern.ID `json:"id" yaml:"id"`
	Start int        `json:"start" yaml:"start"`
}

// Connection is a run of consecutive mesh links between two rows.
type Connection struct {
	From      pattern.Row
	FromStart int
	To        pattern.Row
	ToStart   int
	Meshes    int
}

// Connections recovers the connection runs of p from its mesh links, in
// row declaration order.
func Connections(p *pattern.Pattern) []Connection {
	var out []Connection
	for _, r := range p.Rows() {
		run := -1
		for i, m := range r.ProducedMeshes() {
			to, j, ok := consumer(m)
			if !ok {
				run = -1
				continue
			}
			if run >= 0 {
				c := &out[run]
				if c.To == to && c.FromStart+c.Meshes == i && c.ToStart+c.Meshes == j {
					c.Meshes++
					continue
				}
			}
			out = append(out, Connection{From: r, FromStart: i, To: to, ToStart: j, Meshes: 1})
			run = len(out) - 1
		}
	}
	return out
}

// consumer returns the row and row-relative index of the mesh fed by m.
func consumer(m pattern.Mesh) (pattern.Row, int, bool) {
	peer, ok := m.Peer()
	if !ok {
		return pattern.Row{}, 0, false
	}
	to, ok := peer.Instruction().Row()
	if !ok {
		return pattern.Row{}, 0, false
	}
	j, err := peer.IndexInRow()
	if err != nil {
		return pattern.Row{}, 0, false
	}
	return to, j, true
}

func newDocument(set *PatternSet) document {
	doc := document{
		Type:     set.Type,
		Version:  set.Version,
		Patterns: make([]patternDoc, 0, set.Len()),
	}
	if doc.Type == "" {
		doc.Type = PatternSetType
	}
	if doc.Version == "" {
		doc.Version = DefaultVersion
	}
	if !set.Comment.IsNull() {
		c := set.Comment
		doc.Comment = &c
	}
	doc.Instructions = customDefinitions(set.Library)

	for _, p := range set.Patterns() {
		pd := patternDoc{ID: p.ID(), Name: p.Name(), Rows: make([]spec.Map, 0, p.NumRows())}
		for _, r := range p.Rows() {
			rm := r.Spec().Without(keyInstructions)
			rm[keyID] = r.ID().Value()
			insts := r.Instructions().All()
			items := make([]spec.Value, len(insts))
			for i, inst := range insts {
				items[i] = spec.MapValue(inst.Spec())
			}
			rm[keyInstructions] = spec.List(items...)
			pd.Rows = append(pd.Rows, rm)
		}
		for _, c := range Connections(p) {
			pd.Connections = append(pd.Connections, connectionDoc{
				From:   endpointDoc{ID: c.From.ID(), Start: c.FromStart},
				To:     endpointDoc{ID: c.To.ID(), Start: c.ToStart},
				Meshes: c.Meshes,
			})
		}
		doc.Patterns = append(doc.Patterns, pd)
	}
	return doc
}

// customDefinitions returns the definitions of lib that the default
// library does not already hold verbatim.
func customDefinitions(lib *library.Library) []spec.Map {
	if lib == nil || lib == library.Default() {
		return nil
	}
	var out []spec.Map
	for _, def := range lib.All() {
		t, _ := def[pattern.KeyType].AsString()
		if base, ok := library.Default().Definition(t); ok && spec.Equal(spec.MapValue(base), spec.MapValue(def)) {
			continue
		}
		out = append(out, def)
	}
	return out
}

// WriteJSON encodes set as indented JSON.
func WriteJSON(set *PatternSet, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDocument(set)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes set as YAML.
func WriteYAML(set *PatternSet, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(set)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// Write encodes set in the given format.
func Write(set *PatternSet, w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(set, w)
	case FormatYAML:
		return WriteYAML(set, w)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "cannot write pattern sets as %q", format)
}

// Export writes set to path in the format of its extension.
func Export(set *PatternSet, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(set, f, format)
}
