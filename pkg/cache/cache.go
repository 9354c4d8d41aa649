// Package cache provides pluggable byte caches and cache-key builders
// for the city generation pipeline.
//
// Three backends are included: a file-based cache for CLI usage, a
// Redis cache for server deployments, and a null cache that disables
// caching entirely. All backends store opaque byte slices; callers are
// responsible for serialization.
//
// Keys are built through the [Keyer] interface so every stage of the
// pipeline derives its keys the same way, and so multi-tenant
// deployments can namespace them with [ScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with TTL support.
//
// Implementations must be safe for concurrent use. A Get that finds
// nothing returns (nil, false, nil); errors are reserved for backend
// failures.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per pipeline stage. Metrics churn with every commit,
// while exports only change when their layout does.
const (
	TTLMetrics = 1 * time.Hour
	TTLLayout  = 24 * time.Hour
	TTLExport  = 24 * time.Hour
)

// LayoutKeyOpts captures every layout parameter that affects output.
// Two layouts with the same metrics but different options must never
// share a cache entry.
type LayoutKeyOpts struct {
	RootName        string  `json:"root_name"`
	CellSize        float64 `json:"cell_size"`
	MaxSearchRadius int     `json:"max_search_radius"`
}

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	// MetricsKey keys collected file metrics for a repository at a
	// specific commit. An empty commit keys the working tree.
	MetricsKey(repoPath, commit string) string

	// LayoutKey keys a computed layout by the hash of its input
	// metrics plus the layout options.
	LayoutKey(metricsHash string, opts LayoutKeyOpts) string

	// ExportKey keys a serialized feature collection by the hash of
	// its layout.
	ExportKey(layoutHash string) string
}

// DefaultKeyer is the standard Keyer implementation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// MetricsKey generates a key for cached file metrics.
func (k *DefaultKeyer) MetricsKey(repoPath, commit string) string {
	return hashKey("metrics", repoPath, commit)
}

// LayoutKey generates a key for a cached layout.
func (k *DefaultKeyer) LayoutKey(metricsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", metricsHash, opts)
}

// ExportKey generates a key for a cached feature collection.
func (k *DefaultKeyer) ExportKey(layoutHash string) string {
	return hashKey("export", layoutHash)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
