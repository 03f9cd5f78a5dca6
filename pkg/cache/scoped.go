package cache

// ScopedKeyer prefixes every key of an inner Keyer. Servers sharing one
// Redis use it to keep their namespaces apart:
//
//	keyer := cache.NewScopedKeyer(nil, "stitchgraph:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (the default keyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(contentHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(contentHash, opts)
}

func (k *ScopedKeyer) RenderKey(contentHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(contentHash, opts)
}
