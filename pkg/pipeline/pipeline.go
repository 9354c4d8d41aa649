// Package pipeline provides the core city generation pipeline for CodeCity.
//
// This package implements the complete collect → layout → export pipeline that
// can be used by CLI, API, and watcher components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Collect: List tracked files and compute per-file metrics
//  2. Layout: Place streets and buildings on the occupancy grid
//  3. Export: Serialize the city as a GeoJSON feature collection
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    RepoPath: "/path/to/repo",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	geo := result.GeoJSON
//
// Run individual stages:
//
//	// Collect only
//	files, err := runner.Collect(ctx, opts)
//
//	// Layout with existing metrics
//	city, err := runner.ComputeLayout(ctx, files, opts)
//
//	// Export with existing layout
//	geo, err := runner.Export(ctx, city)
package pipeline

import (
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/codecity/pkg/cache"
	"github.com/matzehuels/codecity/pkg/errors"
	"github.com/matzehuels/codecity/pkg/layout"
	"github.com/matzehuels/codecity/pkg/metrics"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the city pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Collect options
	RepoPath string `json:"repo_path"`

	// SkipGitTimes disables the git history walk that fills building
	// timestamps. Useful for very large repositories.
	SkipGitTimes bool `json:"skip_git_times,omitempty"`

	// Refresh bypasses the cache for all stages.
	Refresh bool `json:"refresh,omitempty"`

	// Layout options
	RootName        string  `json:"root_name,omitempty"`
	CellSize        float64 `json:"cell_size,omitempty"`
	MaxSearchRadius int     `json:"max_search_radius,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Files are the collected per-file metrics, in layout order.
	Files []metrics.FileMetrics

	// MetricsHash is the content hash of the collected metrics.
	MetricsHash string

	// City is the computed layout.
	City *layout.City

	// GeoJSON is the serialized feature collection.
	GeoJSON []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FileCount     int
	StreetCount   int
	BuildingCount int
	CollectTime   time.Duration
	LayoutTime    time.Duration
	ExportTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CollectHit bool // Whether collected metrics came from cache
	LayoutHit  bool // Whether the layout came from cache
	ExportHit  bool // Whether the feature collection came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateRepoPath(o.RepoPath); err != nil {
		return err
	}
	if o.RootName == "" {
		o.RootName = filepath.Base(filepath.Clean(o.RepoPath))
	}
	if o.CellSize <= 0 {
		o.CellSize = layout.DefaultCellSize
	}
	if o.MaxSearchRadius <= 0 {
		o.MaxSearchRadius = layout.DefaultMaxSearchRadius
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// LayoutConfig converts the options into a layout engine configuration.
func (o *Options) LayoutConfig() layout.Config {
	return layout.Config{
		RootName:        o.RootName,
		CellSize:        o.CellSize,
		MaxSearchRadius: o.MaxSearchRadius,
		Logger:          o.Logger,
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		RootName:        o.RootName,
		CellSize:        o.CellSize,
		MaxSearchRadius: o.MaxSearchRadius,
	}
}
