// Package pkg provides the core libraries for Codecity repository visualization.
//
// # Overview
//
// Codecity renders a source repository as a city: folders become streets,
// files become buildings whose height tracks line count, and the whole
// scene is exported as GeoJSON for map-style viewers. The pkg directory
// is organized into four main areas:
//
//  1. [metrics] / [gitinfo] - Repository scanning (file metrics, git history)
//  2. [layout] - City layout (grid placement, streets, building tiers)
//  3. [geojson] - Export (feature collection, coordinate normalization)
//  4. [pipeline] - Orchestration (collect → layout → export)
//
// # Architecture
//
// The typical data flow through Codecity:
//
//	Repository (tracked files)
//	         ↓
//	    [metrics] package (per-file line metrics)
//	         ↓
//	    [gitinfo] package (created/modified timestamps)
//	         ↓
//	    [layout] package (grid placement, streets, tiers)
//	         ↓
//	    [geojson] package (normalized feature collection)
//
// # Quick Start
//
// Build a city for a repository and write it as GeoJSON:
//
//	import (
//	    "context"
//	    "os"
//	    "github.com/matzehuels/codecity/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    RepoPath: "/path/to/repo",
//	})
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("city.geojson", result.GeoJSON, 0o644)
//
// # Main Packages
//
// ## Repository Scanning
//
// [metrics] - Per-file metrics: line count, line lengths, average line
// length, and language detection by extension.
//
// [gitinfo] - Git integration: tracked file listing, HEAD commit, and
// per-file created/modified timestamps from history.
//
// ## Layout
//
// [layout] - The city layout engine. Builds the folder tree, places
// streets and buildings on a collision-checked grid, and computes
// building tiers from line metrics.
//
// ## Export
//
// [geojson] - GeoJSON feature collection types and the exporter that
// normalizes world coordinates into a small geographic bounding box.
//
// ## Infrastructure
//
// [pipeline] - Complete pipeline (collect → layout → export) used by
// CLI and server. Ensures consistent behavior across all entry points.
//
// [cache] - Content-addressed result caching with file, Redis, and
// null backends, plus deterministic cache key derivation.
//
// [config] - TOML configuration with environment overrides.
//
// [watch] - Filesystem watching with debounced change batches and
// metrics diffing, used for live rebuilds.
//
// [errors] - Coded errors shared across packages, with user-facing
// messages and input validation helpers.
//
// [observability] - Pipeline, cache, and watch hooks for metrics
// collection without coupling core packages to a metrics backend.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/layout/...     # Specific package
//
// [metrics]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/metrics
// [gitinfo]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/gitinfo
// [layout]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/layout
// [geojson]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/geojson
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/config
// [watch]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/watch
// [errors]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/codecity/pkg/observability
package pkg
