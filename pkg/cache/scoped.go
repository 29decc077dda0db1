package cache

// ScopedKeyer prefixes every key of an inner Keyer. A shared Redis instance
// uses it to keep the artifacts of different projects apart:
//
//	keyer := cache.NewScopedKeyer(nil, "simpg:hprc-r2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) GraphKey(opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(opts)
}

func (k *ScopedKeyer) CoreKey(opts CoreKeyOpts) string {
	return k.prefix + k.inner.CoreKey(opts)
}
