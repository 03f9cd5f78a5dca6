// Package library holds instruction definitions: the defaults every
// instruction of a given type inherits.
//
// A definition is a spec map with a "type" key. Patterns consult the
// library last, after an instruction's own spec and its row defaults:
//
//	lib := library.Default()
//	p := pattern.New(id, "scarf", pattern.WithDefinitions(lib))
//
// The default library is shared and must not be modified; call [Library.Clone]
// to extend it.
package library

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

//go:embed instructions.json
var defaultInstructions []byte

// Library maps instruction types to their definitions. It is safe for
// concurrent use.
type Library struct {
	mu    sync.RWMutex
	order []string
	defs  map[string]spec.Map
}

// New returns an empty library.
func New() *Library {
	return &Library{defs: make(map[string]spec.Map)}
}

var loadDefault = sync.OnceValue(func() *Library {
	lib := New()
	if err := lib.Load(bytes.NewReader(defaultInstructions)); err != nil {
		panic(fmt.Sprintf("library: embedded instructions: %v", err))
	}
	return lib
})

// Default returns the shared library of standard instructions: knit, purl,
// yo, k2tog, skp, cdd, bo, co, slip, ktbl and ptbl.
func Default() *Library { return loadDefault() }

// Add stores a definition under its type. A definition for a type already
// present inherits the keys it does not set from the earlier one.
func (l *Library) Add(def spec.Map) error {
	t, err := typeOf(def)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	merged := def.Clone()
	if prev, ok := l.defs[t]; ok {
		for k, v := range prev {
			if _, set := merged[k]; !set {
				merged[k] = v
			}
		}
	} else {
		l.order = append(l.order, t)
	}
	l.defs[t] = merged
	return nil
}

// Load adds every definition of a JSON list.
func (l *Library) Load(r io.Reader) error {
	var defs []spec.Map
	if err := json.NewDecoder(r).Decode(&defs); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "decode instruction definitions")
	}
	for i, def := range defs {
		if err := l.Add(def); err != nil {
			return fmt.Errorf("definition %d: %w", i, err)
		}
	}
	return nil
}

// Definition implements pattern.Definitions.
func (l *Library) Definition(instructionType string) (spec.Map, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	def, ok := l.defs[instructionType]
	return def, ok
}

// Chain returns the lookup chain of a raw instruction spec: the spec itself,
// then the definition of its type. A spec without a type is a knit.
func (l *Library) Chain(s spec.Map) spec.Chain {
	t := pattern.DefaultType
	if v, ok := s.Get(pattern.KeyType); ok {
		if str, isString := v.AsString(); isString {
			t = str
		}
	}
	def, _ := l.Definition(t)
	return spec.NewChain(s, def)
}

// Types returns the defined types in sorted order.
func (l *Library) Types() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := slices.Clone(l.order)
	slices.Sort(out)
	return out
}

// Len returns the number of defined types.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Clone returns an independent copy that can be extended.
func (l *Library) Clone() *Library {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := &Library{order: slices.Clone(l.order), defs: make(map[string]spec.Map, len(l.defs))}
	for t, def := range l.defs {
		out.defs[t] = def.Clone()
	}
	return out
}

// All returns every definition in insertion order.
func (l *Library) All() []spec.Map {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]spec.Map, len(l.order))
	for i, t := range l.order {
		out[i] = l.defs[t]
	}
	return out
}

func typeOf(def spec.Map) (string, error) {
	v, ok := def.Get(pattern.KeyType)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidInput, "instruction definition without %q", pattern.KeyType)
	}
	t, isString := v.AsString()
	if !isString || t == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "instruction type must be a non-empty string, got %s", v)
	}
	return t, nil
}
