package cache

// ScopedKeyer prefixes every key of an inner Keyer. The HTTP service uses
// it to keep environments apart when they share one Redis instance:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "kagome:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner uses [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) MeshKey(coarseHash string, level int) string {
	return k.prefix + k.inner.MeshKey(coarseHash, level)
}

func (k *ScopedKeyer) PolyedgeKey(meshHash string) string {
	return k.prefix + k.inner.PolyedgeKey(meshHash)
}

func (k *ScopedKeyer) ArtifactKey(meshHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(meshHash, opts)
}
