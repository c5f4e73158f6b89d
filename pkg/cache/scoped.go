package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The server uses this to keep per-project caches apart when several
// projects share one Redis instance.
//
// Example usage:
//
//	// Project-specific keys
//	projKeyer := NewScopedKeyer(NewDefaultKeyer(), "proj:blinky:")
//
//	// Shared keys
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

// DesignKey generates a prefixed key for the parsed-design stage.
func (k *ScopedKeyer) DesignKey(content []byte) string {
	return k.prefix + k.inner.DesignKey(content)
}

// ResultKey generates a prefixed key for the placement-result stage.
func (k *ScopedKeyer) ResultKey(designHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(designHash, opts)
}

// ReportKey generates a prefixed key for the rendered-report stage.
func (k *ScopedKeyer) ReportKey(resultHash string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(resultHash, opts)
}
