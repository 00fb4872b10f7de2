// Package config loads codexrender settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// an optional TOML file, and a small set of environment variables kept
// compatible with earlier deployments (MEDIA_ROOT, RENDER_OUT, PORT).
//
//	cfg, err := config.Load(path) // path may be empty
//	if err != nil {
//	    return err
//	}
//	cfg.ApplyEnv(os.Getenv)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/codexrender/internal/atomicfile"
	"github.com/matzehuels/codexrender/pkg/pipeline"
	"github.com/matzehuels/codexrender/pkg/render/template"
)

// EnvConfigPath names the variable holding the config file path.
const EnvConfigPath = "CODEXRENDER_CONFIG"

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheFile   = "file"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Store   StoreConfig   `toml:"store"`
	Render  RenderConfig  `toml:"render"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":7070".
	Addr string `toml:"addr"`
}

// StorageConfig holds filesystem locations.
type StorageConfig struct {
	// MediaRoot is the base directory for entries and rendered output.
	MediaRoot string `toml:"media_root"`
	// CodexDir holds entry documents. Defaults to <media_root>/codex.
	CodexDir string `toml:"codex_dir,omitempty"`
	// RenderOut receives rendered images. Defaults to <media_root>/generated.
	RenderOut string `toml:"render_out,omitempty"`
	// MediaPrefix is the URL path rendered files are served under.
	MediaPrefix string `toml:"media_prefix"`
}

// StoreConfig selects and configures the entry store backend.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	RedisAddr       string `toml:"redis_addr,omitempty"`
	RedisPassword   string `toml:"redis_password,omitempty"`
	RedisDB         int    `toml:"redis_db,omitempty"`
	RedisPrefix     string `toml:"redis_prefix,omitempty"`
	MongoURI        string `toml:"mongo_uri,omitempty"`
	MongoDatabase   string `toml:"mongo_database,omitempty"`
	MongoCollection string `toml:"mongo_collection,omitempty"`
}

// RenderConfig holds render defaults and limits.
type RenderConfig struct {
	Template  string `toml:"template"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Watermark bool   `toml:"watermark"`
	// Naming is "unique" or "timestamp".
	Naming string `toml:"naming"`
	// MaxConcurrent bounds simultaneous renders in the server.
	MaxConcurrent int `toml:"max_concurrent"`
	// RegularFont and BoldFont override the embedded serif faces.
	RegularFont string `toml:"regular_font,omitempty"`
	BoldFont    string `toml:"bold_font,omitempty"`
}

// CacheConfig configures the composed-image cache.
type CacheConfig struct {
	Backend string `toml:"backend"`
	// Dir is used by the file backend. Defaults to <media_root>/.cache.
	Dir string `toml:"dir,omitempty"`
	// MaxEntries bounds the memory backend.
	MaxEntries int `toml:"max_entries"`
	// TTL is a Go duration string, e.g. "24h".
	TTL string `toml:"ttl"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `toml:"level"`
	// File, when set, receives logs through a rotating writer.
	File string `toml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// =============================================================================
// Defaults
// =============================================================================

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":7070"},
		Storage: StorageConfig{
			MediaRoot:   "storage",
			MediaPrefix: "/media/",
		},
		Store: StoreConfig{Backend: BackendFile},
		Render: RenderConfig{
			Template:      pipeline.DefaultTemplate,
			Width:         pipeline.DefaultWidth,
			Height:        pipeline.DefaultHeight,
			Watermark:     true,
			Naming:        string(pipeline.NamingUnique),
			MaxConcurrent: runtime.GOMAXPROCS(0),
		},
		Cache: CacheConfig{
			Backend:    CacheMemory,
			MaxEntries: 64,
			TTL:        "24h",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// =============================================================================
// Loading and Saving
// =============================================================================

// Load reads the TOML file at path over the defaults. An empty path, or a
// path that does not exist, yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parse config: unknown keys %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ApplyEnv applies MEDIA_ROOT, RENDER_OUT and PORT from getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("MEDIA_ROOT"); v != "" {
		c.Storage.MediaRoot = v
	}
	if v := getenv("RENDER_OUT"); v != "" {
		c.Storage.RenderOut = v
	}
	if v := getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
}

// =============================================================================
// Derived Values
// =============================================================================

// CodexDir returns the entry directory.
func (c *Config) CodexDir() string {
	if c.Storage.CodexDir != "" {
		return c.Storage.CodexDir
	}
	return filepath.Join(c.Storage.MediaRoot, "codex")
}

// RenderOut returns the output directory.
func (c *Config) RenderOut() string {
	if c.Storage.RenderOut != "" {
		return c.Storage.RenderOut
	}
	return filepath.Join(c.Storage.MediaRoot, "generated")
}

// CacheDir returns the file cache directory.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.Storage.MediaRoot, ".cache")
}

// CacheTTL returns the parsed cache TTL. Validate guarantees it parses.
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}

// RenderDefaults returns the default pipeline configuration for entryID.
func (c *Config) RenderDefaults(entryID string) pipeline.Config {
	return pipeline.Config{
		EntryID:   entryID,
		Template:  c.Render.Template,
		Width:     c.Render.Width,
		Height:    c.Render.Height,
		Watermark: c.Render.Watermark,
	}
}

// =============================================================================
// Validation
// =============================================================================

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Storage.MediaRoot == "" {
		return fmt.Errorf("storage.media_root is required")
	}

	switch c.Store.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required for the redis backend")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("invalid store.backend %q: must be file, redis, or mongo", c.Store.Backend)
	}

	if !template.Valid(c.Render.Template) {
		return fmt.Errorf("invalid render.template %q: must be one of %s",
			c.Render.Template, strings.Join(template.Names(), ", "))
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be > 0, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if _, err := pipeline.ParseNaming(c.Render.Naming); err != nil {
		return fmt.Errorf("invalid render.naming %q: must be unique or timestamp", c.Render.Naming)
	}
	if c.Render.MaxConcurrent <= 0 {
		return fmt.Errorf("render.max_concurrent must be > 0, got %d", c.Render.MaxConcurrent)
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheFile:
	default:
		return fmt.Errorf("invalid cache.backend %q: must be none, memory, or file", c.Cache.Backend)
	}
	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache.ttl %q: %w", c.Cache.TTL, err)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}
	return nil
}
