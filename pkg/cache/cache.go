// Package cache provides pluggable result caching for placement runs.
// Backends: file (CLI default), Redis (server deployments), and null
// (disabled). Keys are derived from the design content hash plus the
// options that affect the stage output, so a changed design or a
// changed capacity never serves a stale result.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cached stage. Placement results are deterministic
// for a given design and options, so long TTLs are safe; rendered
// reports are cheap to rebuild and expire sooner.
const (
	TTLResult = 7 * 24 * time.Hour
	TTLReport = 24 * time.Hour
)

// Cache is the storage backend interface. Get reports a miss with
// (nil, false, nil); an error means the backend itself failed, not
// that the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ResultKeyOpts are the options that change a placement result.
type ResultKeyOpts struct {
	Capacity int `json:"capacity"`
}

// ReportKeyOpts are the options that change a rendered report.
type ReportKeyOpts struct {
	Format string `json:"format"`
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// DesignKey identifies a design by its raw file content.
	DesignKey(content []byte) string
	// ResultKey identifies a placement result by design hash and options.
	ResultKey(designHash string, opts ResultKeyOpts) string
	// ReportKey identifies a rendered report by result hash and options.
	ReportKey(resultHash string, opts ReportKeyOpts) string
}

// DefaultKeyer hashes stage inputs into namespaced keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DesignKey generates a key for the parsed-design stage.
func (k *DefaultKeyer) DesignKey(content []byte) string {
	return "design:" + Hash(content)
}

// ResultKey generates a key for the placement-result stage.
func (k *DefaultKeyer) ResultKey(designHash string, opts ResultKeyOpts) string {
	return hashKey("result", designHash, opts)
}

// ReportKey generates a key for the rendered-report stage.
func (k *DefaultKeyer) ReportKey(resultHash string, opts ReportKeyOpts) string {
	return hashKey("report", resultHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
