package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// This is useful in shared deployments where different users or
// contexts need separate cache namespaces.
//
// Example usage:
//
//	// User-specific keys for private repos
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Global keys for public repositories
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// MetricsKey generates a prefixed key for cached file metrics.
func (k *ScopedKeyer) MetricsKey(repoPath, commit string) string {
	return k.prefix + k.inner.MetricsKey(repoPath, commit)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(metricsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(metricsHash, opts)
}

// ExportKey generates a prefixed key for feature collection caching.
func (k *ScopedKeyer) ExportKey(layoutHash string) string {
	return k.prefix + k.inner.ExportKey(layoutHash)
}
