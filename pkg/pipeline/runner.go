package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/codecity/pkg/cache"
	"github.com/matzehuels/codecity/pkg/errors"
	"github.com/matzehuels/codecity/pkg/geojson"
	"github.com/matzehuels/codecity/pkg/gitinfo"
	"github.com/matzehuels/codecity/pkg/layout"
	"github.com/matzehuels/codecity/pkg/metrics"
	"github.com/matzehuels/codecity/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL, when positive, replaces the per-stage default TTLs for
	// every cache write. Zero keeps the stage defaults.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete collect → layout → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Collect
	collectStart := time.Now()
	files, collectHit, err := r.CollectWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Files = files
	result.MetricsHash = metricsHash(files)
	result.Stats.CollectTime = time.Since(collectStart)
	result.Stats.FileCount = len(files)
	result.CacheInfo.CollectHit = collectHit

	r.Logger.Info("collected metrics",
		"files", len(files),
		"duration", result.Stats.CollectTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	city, layoutHit, err := r.LayoutWithCacheInfo(ctx, files, opts)
	if err != nil {
		return nil, err
	}
	result.City = city
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.StreetCount = len(city.Streets)
	result.Stats.BuildingCount = len(city.Buildings)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"streets", len(city.Streets),
		"buildings", len(city.Buildings),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Export
	exportStart := time.Now()
	geo, exportHit, err := r.ExportWithCacheInfo(ctx, city, opts)
	if err != nil {
		return nil, err
	}
	result.GeoJSON = geo
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported features",
		"bytes", len(geo),
		"duration", result.Stats.ExportTime)

	return result, nil
}

// CollectWithCacheInfo gathers file metrics with caching and returns cache hit info.
func (r *Runner) CollectWithCacheInfo(ctx context.Context, opts Options) ([]metrics.FileMetrics, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	observability.Pipeline().OnCollectStart(ctx, opts.RepoPath)
	start := time.Now()

	repo, err := gitinfo.Open(opts.RepoPath)
	if err != nil {
		observability.Pipeline().OnCollectComplete(ctx, opts.RepoPath, 0, time.Since(start), err)
		return nil, false, err
	}

	// Metrics are keyed by commit: the working tree between commits is
	// deliberately uncached so edits show up immediately.
	head, err := repo.HeadCommit(ctx)
	if err != nil {
		// A repository without commits still gets a (tiny) layout.
		head = ""
	}
	cacheKey := r.Keyer.MetricsKey(opts.RepoPath, head)

	if head != "" && !opts.Refresh && !opts.SkipGitTimes {
		if data, hit, err := r.cacheGet(ctx, cacheKey); err == nil && hit {
			var cached []metrics.FileMetrics
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "metrics")
				observability.Pipeline().OnCollectComplete(ctx, opts.RepoPath, len(cached), time.Since(start), nil)
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "metrics")
	}

	files, err := r.collect(ctx, repo, opts)
	observability.Pipeline().OnCollectComplete(ctx, opts.RepoPath, len(files), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if head != "" && !opts.Refresh && !opts.SkipGitTimes {
		if data, err := json.Marshal(files); err == nil {
			_ = r.cacheSet(ctx, cacheKey, data, cache.TTLMetrics)
			observability.Cache().OnCacheSet(ctx, "metrics", len(data))
		}
	}

	return files, false, nil
}

// Collect is a convenience wrapper that calls CollectWithCacheInfo and discards the cache hit info.
func (r *Runner) Collect(ctx context.Context, opts Options) ([]metrics.FileMetrics, error) {
	files, _, err := r.CollectWithCacheInfo(ctx, opts)
	return files, err
}

// collect lists tracked files, measures them, and attaches git timestamps.
func (r *Runner) collect(ctx context.Context, repo *gitinfo.Repo, opts Options) ([]metrics.FileMetrics, error) {
	paths, err := repo.Files(ctx)
	if err != nil {
		return nil, err
	}

	files, err := metrics.Collect(ctx, opts.RepoPath, paths)
	if err != nil {
		return nil, err
	}

	if !opts.SkipGitTimes {
		times, err := repo.Timestamps(ctx)
		if err != nil {
			// Timestamps enrich the output but are not required for a
			// valid city.
			opts.Logger.Warn("skipping git timestamps", "err", err)
		} else {
			gitinfo.ApplyTimestamps(files, times)
		}
	}

	return files, nil
}

// LayoutWithCacheInfo computes a city layout with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, files []metrics.FileMetrics, opts Options) (*layout.City, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	observability.Pipeline().OnLayoutStart(ctx, opts.RepoPath, len(files))
	start := time.Now()

	hash := metricsHash(files)
	cacheKey := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.cacheGet(ctx, cacheKey); err == nil && hit {
			var cached layout.City
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				observability.Pipeline().OnLayoutComplete(ctx, opts.RepoPath,
					len(cached.Streets), len(cached.Buildings), time.Since(start), nil)
				return &cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	city := layout.Layout(files, opts.LayoutConfig())
	observability.Pipeline().OnLayoutComplete(ctx, opts.RepoPath,
		len(city.Streets), len(city.Buildings), time.Since(start), nil)

	if data, err := json.Marshal(city); err == nil {
		_ = r.cacheSet(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return city, false, nil
}

// ComputeLayout is a convenience wrapper that calls LayoutWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, files []metrics.FileMetrics, opts Options) (*layout.City, error) {
	city, _, err := r.LayoutWithCacheInfo(ctx, files, opts)
	return city, err
}

// ExportWithCacheInfo serializes a city with caching and returns cache hit info.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, city *layout.City, opts Options) ([]byte, bool, error) {
	observability.Pipeline().OnExportStart(ctx, opts.RepoPath)
	start := time.Now()

	cityData, err := json.Marshal(city)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeExport, err, "serialize city for cache key")
	}
	cacheKey := r.Keyer.ExportKey(cache.Hash(cityData))

	if !opts.Refresh {
		if data, hit, err := r.cacheGet(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "export")
			observability.Pipeline().OnExportComplete(ctx, opts.RepoPath,
				len(city.Streets)+len(city.Buildings), time.Since(start), nil)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "export")
	}

	geo, err := geojson.Marshal(city)
	observability.Pipeline().OnExportComplete(ctx, opts.RepoPath,
		len(city.Streets)+len(city.Buildings), time.Since(start), err)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeExport, err, "encode feature collection")
	}

	_ = r.cacheSet(ctx, cacheKey, geo, cache.TTLExport)
	observability.Cache().OnCacheSet(ctx, "export", len(geo))

	return geo, false, nil
}

// Export is a convenience wrapper that calls ExportWithCacheInfo and discards the cache hit info.
func (r *Runner) Export(ctx context.Context, city *layout.City) ([]byte, error) {
	geo, _, err := r.ExportWithCacheInfo(ctx, city, Options{})
	return geo, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// cacheGet reads through the cache, retrying transient backend
// failures such as dropped Redis connections.
func (r *Runner) cacheGet(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	var hit bool
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = r.Cache.Get(ctx, key)
		return err
	})
	return data, hit, err
}

// cacheSet writes through the cache with the same retry policy as
// cacheGet, honoring the runner's TTL override.
func (r *Runner) cacheSet(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if r.TTL > 0 {
		ttl = r.TTL
	}
	return cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// metricsHash computes the content hash of a metrics slice. The JSON
// form is stable because slice order is preserved end to end.
func metricsHash(files []metrics.FileMetrics) string {
	data, _ := json.Marshal(files)
	return cache.Hash(data)
}
