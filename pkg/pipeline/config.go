package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/kagome/pkg/cache"
	kerrors "github.com/matzehuels/kagome/pkg/errors"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendMongo  = "mongo"
)

// Config is the kagome configuration file:
//
//	[analysis]
//	level = 1
//	formats = ["json", "svg"]
//
//	[cache]
//	backend = "redis"
//	prefix = "kagome:"
//	[cache.redis]
//	url = "redis://localhost:6379/0"
//
//	[store]
//	backend = "mongo"
//	uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//	request_timeout = "30s"
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Cache    CacheConfig    `toml:"cache"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
}

// AnalysisConfig holds option defaults for pipeline runs.
type AnalysisConfig struct {
	Level    int      `toml:"level"`
	Formats  []string `toml:"formats"`
	Scale    float64  `toml:"scale"`
	Detailed bool     `toml:"detailed"`
	Frames   bool     `toml:"frames"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	Prefix  string            `toml:"prefix"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// StoreConfig selects where the API keeps analyses.
type StoreConfig struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string        `toml:"addr"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	// MaxBodyBytes limits uploaded mesh documents.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Analysis: AnalysisConfig{Formats: []string{FormatJSON}, Scale: DefaultScale},
		Cache:    CacheConfig{Backend: BackendFile},
		Store:    StoreConfig{Backend: BackendMemory, Database: "kagome", Collection: "analyses"},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 30 * time.Second,
			MaxBodyBytes:   32 << 20,
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/kagome/config.toml, falling
// back to ~/.config/kagome/config.toml.
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "kagome", "config.toml")
}

// LoadConfig reads path over the defaults. An empty path reads the default
// location and tolerates a missing file; an explicit path must exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, kerrors.New(kerrors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Validate checks backend names and analysis defaults.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return kerrors.New(kerrors.ErrCodeInvalidInput, "cache backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendDisk, BackendMongo:
	default:
		return kerrors.New(kerrors.ErrCodeInvalidInput, "store backend %q (must be memory, disk or mongo)", c.Store.Backend)
	}
	if c.Store.Backend == BackendMongo && c.Store.URI == "" {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "store backend mongo requires uri")
	}
	if err := ValidateLevel(c.Analysis.Level); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return ValidateFormats(c.Analysis.Formats)
}

// Overrides holds analysis settings given explicitly for one run, such as
// command line flags or query parameters. Nil fields fall back to the
// configured defaults, so an explicit zero or false still wins.
type Overrides struct {
	Convert  *bool
	Level    *int
	Formats  []string
	Scale    *float64
	Detailed *bool
	Frames   *bool
}

// Options returns run options built from the analysis defaults with o laid
// over them. An explicit level implies conversion. The configured level is
// only used when the run converts.
func (a AnalysisConfig) Options(o Overrides) Options {
	opts := Options{
		Formats:  append([]string(nil), a.Formats...),
		Scale:    a.Scale,
		Detailed: a.Detailed,
		Frames:   a.Frames,
	}
	if o.Convert != nil {
		opts.Convert = *o.Convert
	}
	if o.Level != nil {
		opts.Convert = true
		opts.Level = *o.Level
	} else if opts.Convert {
		opts.Level = a.Level
	}
	if len(o.Formats) > 0 {
		opts.Formats = append([]string(nil), o.Formats...)
	}
	if o.Scale != nil {
		opts.Scale = *o.Scale
	}
	if o.Detailed != nil {
		opts.Detailed = *o.Detailed
	}
	if o.Frames != nil {
		opts.Frames = *o.Frames
	}
	return opts
}

// DefaultCacheDir returns $XDG_CACHE_HOME/kagome, falling back to
// ~/.cache/kagome.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "kagome")
	}
	return filepath.Join(dir, "kagome")
}

// OpenCache returns the cache and keyer selected by cfg. A non-empty prefix
// scopes every key.
func OpenCache(ctx context.Context, cfg CacheConfig) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if cfg.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Prefix)
	}

	switch cfg.Backend {
	case BackendNone:
		return cache.NewNullCache(), keyer, nil
	case BackendRedis:
		c, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return c, keyer, nil
	case BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultCacheDir()
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return c, keyer, nil
	default:
		return nil, nil, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown cache backend %q", cfg.Backend)
	}
}
