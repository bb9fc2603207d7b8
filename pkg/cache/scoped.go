package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each deployment
// or schema version its own namespace in a shared backend:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "flowpack:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner selects [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// Prefix returns the namespace prepended to every key.
func (k *ScopedKeyer) Prefix() string { return k.prefix }

// ParseKey implements [Keyer].
func (k *ScopedKeyer) ParseKey(sourceHash, measure string) string {
	return k.prefix + k.inner.ParseKey(sourceHash, measure)
}

// LayoutKey implements [Keyer].
func (k *ScopedKeyer) LayoutKey(sourceHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(sourceHash, opts)
}
