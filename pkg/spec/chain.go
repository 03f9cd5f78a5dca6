package spec

import (
	"github.com/matzehuels/stitchgraph/pkg/errors"
)

// Chain is an ordered list of specifications consulted first to last.
// The first map is the owner's own specification; the rest are inherited
// fallbacks.
type Chain []Map

// NewChain returns a chain with own first, followed by the inherited maps.
// Nil maps are skipped.
func NewChain(own Map, inherited ...Map) Chain {
	if own == nil {
		own = Map{}
	}
	c := Chain{own}
	return c.Inherit(inherited...)
}

// Inherit returns a new chain with maps appended as the lowest priority
// fallbacks. The receiver is not modified.
func (c Chain) Inherit(maps ...Map) Chain {
	out := make(Chain, len(c), len(c)+len(maps))
	copy(out, c)
	for _, m := range maps {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Own returns the first specification of the chain.
func (c Chain) Own() Map {
	if len(c) == 0 {
		return nil
	}
	return c[0]
}

// Get returns the first value stored under key.
func (c Chain) Get(key string) (Value, bool) {
	for _, m := range c {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// GetOr returns the first value stored under key, or def.
func (c Chain) GetOr(key string, def Value) Value {
	if v, ok := c.Get(key); ok {
		return v
	}
	return def
}

// Lookup returns the first value stored under key, failing with
// KEY_NOT_FOUND when no map in the chain contains it.
func (c Chain) Lookup(key string) (Value, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	return Value{}, errors.New(errors.ErrCodeKeyNotFound, "key %q not found", key)
}

// Contains reports whether any map in the chain has key.
func (c Chain) Contains(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Path resolves a nested key such as ("grid-layout", "width"). The first
// key is looked up through the chain; the rest descend into nested maps of
// that one value.
func (c Chain) Path(keys ...string) (Value, bool) {
	if len(keys) == 0 {
		return Value{}, false
	}
	v, ok := c.Get(keys[0])
	for _, k := range keys[1:] {
		if !ok {
			return Value{}, false
		}
		m, isMap := v.AsMap()
		if !isMap {
			return Value{}, false
		}
		v, ok = m[k]
	}
	return v, ok
}

// Keys returns the union of keys over the whole chain, sorted.
func (c Chain) Keys() []string {
	merged := c.Flatten()
	return merged.Keys()
}

// Flatten merges the chain into a single map, earlier maps winning.
func (c Chain) Flatten() Map {
	out := Map{}
	for i := len(c) - 1; i >= 0; i-- {
		for k, v := range c[i] {
			out[k] = v
		}
	}
	return out
}
