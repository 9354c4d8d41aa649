// Package config loads application configuration from a TOML file
// with environment variable overrides.
//
// Resolution order, later wins:
//  1. Built-in defaults
//  2. The TOML config file
//  3. CODECITY_* environment variables
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/codecity/pkg/errors"
	"github.com/matzehuels/codecity/pkg/layout"
)

// Duration is a time.Duration that unmarshals from TOML strings like
// "500ms" or "2m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full application configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
	Watch  WatchConfig  `toml:"watch"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// AllowedOrigins lists origins permitted for browser requests.
	// "*" allows all.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// LayoutConfig controls the layout engine.
type LayoutConfig struct {
	CellSize        float64 `toml:"cell_size"`
	MaxSearchRadius int     `toml:"max_search_radius"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file cache directory. Empty means the user cache dir.
	Dir string `toml:"dir"`

	// RedisURL configures the redis backend.
	RedisURL string `toml:"redis_url"`

	// TTL is the lifetime of cached pipeline entries. Zero keeps the
	// per-stage defaults.
	TTL Duration `toml:"ttl"`
}

// WatchConfig controls the repository watcher.
type WatchConfig struct {
	// Debounce is how long to wait after the last file event before
	// rebuilding the layout.
	Debounce Duration `toml:"debounce"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", or "error".
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8000,
			AllowedOrigins: []string{"*"},
		},
		Layout: LayoutConfig{
			CellSize:        layout.DefaultCellSize,
			MaxSearchRadius: layout.DefaultMaxSearchRadius,
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     Duration(24 * time.Hour),
		},
		Watch: WatchConfig{
			Debounce: Duration(300 * time.Millisecond),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the standard config file location under the
// user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "codecity", "config.toml")
}

// Load reads configuration from path, layered over the defaults and
// under environment overrides. A missing file is not an error; an
// empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cannot read config file %s", path)
		}
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config file %s", path)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv layers CODECITY_* environment variables over the config.
// Unparsable values are ignored rather than fatal so a stray variable
// never prevents startup.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CODECITY_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CODECITY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CODECITY_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("CODECITY_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("CODECITY_REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("CODECITY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CODECITY_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.ErrCodeInvalidConfig, "port out of range: %d", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend: %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "redis backend requires redis_url")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown log format: %q", c.Log.Format)
	}
	if c.Layout.CellSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cell size cannot be negative")
	}
	return nil
}
