// Package config loads stitchgraph settings from a TOML file and the
// environment.
//
// The file lives at $XDG_CONFIG_HOME/stitchgraph/config.toml (or
// ~/.config/stitchgraph/config.toml) unless a path is given:
//
//	[render]
//	format = "svg"
//	zoom = 25
//	connections = true
//
//	[cache]
//	backend = "badger"   # file, badger, redis or none
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//	store = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
// Variables named STITCHGRAPH_<SECTION>_<KEY> override the file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/pipeline"
)

const appName = "stitchgraph"

// Cache backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Pattern stores for the server.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config is the complete settings tree.
type Config struct {
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// RenderConfig holds defaults for render flags.
type RenderConfig struct {
	Format      string  `toml:"format"`
	Style       string  `toml:"style"`
	Zoom        float64 `toml:"zoom"`
	Connections bool    `toml:"connections"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	Namespace string        `toml:"namespace"`
	TTL       time.Duration `toml:"ttl"`
}

// ServerConfig configures `stitchgraph serve`.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	Store    string `toml:"store"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		Render: RenderConfig{
			Format: pipeline.DefaultFormat,
			Style:  pipeline.DefaultStyle,
			Zoom:   pipeline.DefaultZoom,
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			Dir:       defaultCacheDir(),
			RedisAddr: "localhost:6379",
		},
		Server: ServerConfig{
			Addr:     ":8080",
			Store:    StoreMemory,
			MongoURI: "mongodb://localhost:27017",
			Database: appName,
		},
	}
}

// Path returns the default config file location.
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

// Load reads the file at path over the defaults, applies the environment
// and validates the result. An empty path reads the default location,
// which may be missing; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			switch {
			case os.IsNotExist(err) && !explicit:
			case os.IsNotExist(err):
				return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
			default:
				return Config{}, errors.Wrap(errors.ErrCodeParse, err, "config file %s", path)
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Decode reads TOML from r over the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeParse, err, "config")
	}
	return cfg, cfg.Validate()
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// ApplyEnv overrides fields from STITCHGRAPH_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	str("STITCHGRAPH_RENDER_FORMAT", &c.Render.Format)
	str("STITCHGRAPH_RENDER_STYLE", &c.Render.Style)
	str("STITCHGRAPH_CACHE_BACKEND", &c.Cache.Backend)
	str("STITCHGRAPH_CACHE_DIR", &c.Cache.Dir)
	str("STITCHGRAPH_CACHE_REDIS_ADDR", &c.Cache.RedisAddr)
	str("STITCHGRAPH_CACHE_NAMESPACE", &c.Cache.Namespace)
	str("STITCHGRAPH_SERVER_ADDR", &c.Server.Addr)
	str("STITCHGRAPH_SERVER_STORE", &c.Server.Store)
	str("STITCHGRAPH_SERVER_MONGO_URI", &c.Server.MongoURI)
	str("STITCHGRAPH_SERVER_DATABASE", &c.Server.Database)

	if v, ok := lookup("STITCHGRAPH_RENDER_ZOOM"); ok && v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "STITCHGRAPH_RENDER_ZOOM")
		}
		c.Render.Zoom = z
	}
	if v, ok := lookup("STITCHGRAPH_RENDER_CONNECTIONS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "STITCHGRAPH_RENDER_CONNECTIONS")
		}
		c.Render.Connections = b
	}
	if v, ok := lookup("STITCHGRAPH_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "STITCHGRAPH_CACHE_TTL")
		}
		c.Cache.TTL = d
	}
	return nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	if err := pipeline.ValidateFormat(c.Render.Format); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "render.format")
	}
	if err := pipeline.ValidateStyle(c.Render.Style); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "render.style")
	}
	if c.Render.Zoom <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "render.zoom must be positive, got %v", c.Render.Zoom)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendBadger:
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.dir is required for the %s backend", c.Cache.Backend)
		}
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	case BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend %q (must be one of: file, badger, redis, none)", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	switch c.Server.Store {
	case StoreMemory:
	case StoreMongo:
		if c.Server.MongoURI == "" || c.Server.Database == "" {
			return errors.New(errors.ErrCodeInvalidInput, "server.mongo_uri and server.database are required for the mongo store")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "server.store %q (must be one of: memory, mongo)", c.Server.Store)
	}
	return nil
}

// String renders cfg as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := c.Encode(&b); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
