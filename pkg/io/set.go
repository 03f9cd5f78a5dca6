package io

import (
	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/library"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

const (
	// PatternSetType is the required value of a pattern set's "type" key.
	PatternSetType = "knitting pattern"
	// DefaultVersion is written when a set has no version.
	DefaultVersion = "0.1"
)

// PatternSet is a named collection of patterns sharing one instruction
// library. Patterns keep the order in which they were added and are
// addressed by index or id.
type PatternSet struct {
	Type    string
	Version string
	Comment spec.Value

	// Library resolves instruction types for every pattern in the set.
	Library *library.Library

	patterns []*pattern.Pattern
	byID     map[pattern.ID]int
}

// NewPatternSet returns an empty set. A nil library selects the default
// instructions.
func NewPatternSet(lib *library.Library) *PatternSet {
	if lib == nil {
		lib = library.Default()
	}
	return &PatternSet{
		Type:    PatternSetType,
		Version: DefaultVersion,
		Library: lib,
		byID:    make(map[pattern.ID]int),
	}
}

// NewPattern creates a pattern bound to the set's library and adds it.
func (s *PatternSet) NewPattern(id pattern.ID, name string) (*pattern.Pattern, error) {
	p := pattern.New(id, name, pattern.WithDefinitions(s.Library))
	if err := s.Add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Add appends p. Duplicate pattern ids fail with INVALID_INPUT.
func (s *PatternSet) Add(p *pattern.Pattern) error {
	if _, ok := s.byID[p.ID()]; ok {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate pattern id %s", p.ID())
	}
	s.byID[p.ID()] = len(s.patterns)
	s.patterns = append(s.patterns, p)
	return nil
}

// Len returns the number of patterns.
func (s *PatternSet) Len() int { return len(s.patterns) }

// At returns the pattern at index i.
func (s *PatternSet) At(i int) (*pattern.Pattern, error) {
	if i < 0 || i >= len(s.patterns) {
		return nil, errors.New(errors.ErrCodeIndexOutOfRange, "pattern index %d out of range [0, %d)", i, len(s.patterns))
	}
	return s.patterns[i], nil
}

// Get returns the pattern with the given id.
func (s *PatternSet) Get(id pattern.ID) (*pattern.Pattern, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.patterns[i], true
}

// Lookup returns the pattern with the given id or fails with
// PATTERN_NOT_FOUND.
func (s *PatternSet) Lookup(id pattern.ID) (*pattern.Pattern, error) {
	p, ok := s.Get(id)
	if !ok {
		return nil, errors.New(errors.ErrCodePatternNotFound, "no pattern with id %s", id)
	}
	return p, nil
}

// Patterns returns the patterns in insertion order.
func (s *PatternSet) Patterns() []*pattern.Pattern {
	out := make([]*pattern.Pattern, len(s.patterns))
	copy(out, s.patterns)
	return out
}
