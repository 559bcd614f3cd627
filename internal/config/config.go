package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/xmlsift/internal/chunker"
	"github.com/dgallion1/xmlsift/internal/formats"
	"github.com/dgallion1/xmlsift/internal/store"
)

type Config struct {
	// Input limits
	MaxFileBytes int64 `env:"XMLSIFT_MAX_FILE_BYTES"`

	// Chunking defaults
	Strategy          string `env:"XMLSIFT_STRATEGY"`
	MaxChunkSize      int    `env:"XMLSIFT_MAX_CHUNK_SIZE"`
	MinChunkSize      int    `env:"XMLSIFT_MIN_CHUNK_SIZE"`
	OverlapSize       int    `env:"XMLSIFT_OVERLAP_SIZE"`
	PreserveHierarchy bool   `env:"XMLSIFT_PRESERVE_HIERARCHY"`

	// Worker pool
	WorkerCount      int `env:"XMLSIFT_WORKERS"`
	ProbeConcurrency int `env:"XMLSIFT_PROBE_CONCURRENCY"`

	// Result cache; an empty path disables caching
	CacheBackend string `env:"XMLSIFT_CACHE_BACKEND"`
	CachePath    string `env:"XMLSIFT_CACHE_PATH"`

	// Logging
	LogLevel  string `env:"XMLSIFT_LOG_LEVEL"`
	LogFormat string `env:"XMLSIFT_LOG_FORMAT"`

	// Handler confidence overrides, "key:value,key:value" in the environment
	HandlerSettings map[string]float64 `env:"XMLSIFT_HANDLER_SETTINGS"`
}

// Default returns the built-in configuration.
func Default() Config {
	chunk := chunker.DefaultConfig()
	return Config{
		MaxFileBytes: 100 << 20, // 100MB

		Strategy:          string(chunker.Auto),
		MaxChunkSize:      chunk.MaxChunkSize,
		MinChunkSize:      chunk.MinChunkSize,
		OverlapSize:       chunk.OverlapSize,
		PreserveHierarchy: chunk.PreserveHierarchy,

		WorkerCount:      4,
		ProbeConcurrency: 1,

		CacheBackend: store.BackendSQLite,

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $XMLSIFT_CONFIG when path is empty), then the environment. Later
// sources win.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("XMLSIFT_CONFIG")
	}
	if path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return cfg, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// File is the YAML configuration file layout. Absent keys leave the current
// value untouched.
type File struct {
	MaxFileBytes     *int64 `yaml:"max_file_bytes"`
	Workers          *int   `yaml:"workers"`
	ProbeConcurrency *int   `yaml:"probe_concurrency"`

	Chunking struct {
		Strategy          *string `yaml:"strategy"`
		MaxChunkSize      *int    `yaml:"max_chunk_size"`
		MinChunkSize      *int    `yaml:"min_chunk_size"`
		OverlapSize       *int    `yaml:"overlap_size"`
		PreserveHierarchy *bool   `yaml:"preserve_hierarchy"`
	} `yaml:"chunking"`

	Cache struct {
		Backend *string `yaml:"backend"`
		Path    *string `yaml:"path"`
	} `yaml:"cache"`

	Log struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"log"`

	Handlers map[string]float64 `yaml:"handlers"`
}

// ApplyFile overlays the YAML file at path onto c.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	setInt64(&c.MaxFileBytes, f.MaxFileBytes)
	setInt(&c.WorkerCount, f.Workers)
	setInt(&c.ProbeConcurrency, f.ProbeConcurrency)

	setString(&c.Strategy, f.Chunking.Strategy)
	setInt(&c.MaxChunkSize, f.Chunking.MaxChunkSize)
	setInt(&c.MinChunkSize, f.Chunking.MinChunkSize)
	setInt(&c.OverlapSize, f.Chunking.OverlapSize)
	if f.Chunking.PreserveHierarchy != nil {
		c.PreserveHierarchy = *f.Chunking.PreserveHierarchy
	}

	setString(&c.CacheBackend, f.Cache.Backend)
	setString(&c.CachePath, f.Cache.Path)
	setString(&c.LogLevel, f.Log.Level)
	setString(&c.LogFormat, f.Log.Format)

	if len(f.Handlers) > 0 {
		if c.HandlerSettings == nil {
			c.HandlerSettings = make(map[string]float64, len(f.Handlers))
		}
		for k, v := range f.Handlers {
			c.HandlerSettings[k] = v
		}
	}
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setInt64(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Chunk returns the chunking configuration.
func (c Config) Chunk() chunker.Config {
	return chunker.Config{
		MaxChunkSize:      c.MaxChunkSize,
		MinChunkSize:      c.MinChunkSize,
		OverlapSize:       c.OverlapSize,
		PreserveHierarchy: c.PreserveHierarchy,
	}
}

// ChunkStrategy parses the configured strategy name.
func (c Config) ChunkStrategy() (chunker.Strategy, error) {
	return chunker.ParseStrategy(c.Strategy)
}

// Handlers returns the default handler settings with overrides applied.
func (c Config) Handlers() (formats.Settings, error) {
	return formats.DefaultSettings().Merge(c.HandlerSettings)
}

// SlogLevel parses the configured log level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("XMLSIFT_LOG_LEVEL %q is invalid", c.LogLevel)
	}
	return lvl, nil
}

// Validate checks everything except the chunking settings, which only matter
// to commands that chunk. See ValidateChunking.
func (c Config) Validate() error {
	if c.MaxFileBytes <= 0 {
		return fmt.Errorf("XMLSIFT_MAX_FILE_BYTES must be positive, got %d", c.MaxFileBytes)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("XMLSIFT_WORKERS must be positive, got %d", c.WorkerCount)
	}
	if c.ProbeConcurrency < 0 {
		return fmt.Errorf("XMLSIFT_PROBE_CONCURRENCY must not be negative, got %d", c.ProbeConcurrency)
	}
	switch c.CacheBackend {
	case store.BackendSQLite, store.BackendBolt:
	default:
		return fmt.Errorf("XMLSIFT_CACHE_BACKEND must be %q or %q, got %q", store.BackendSQLite, store.BackendBolt, c.CacheBackend)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("XMLSIFT_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if _, err := c.Handlers(); err != nil {
		return err
	}
	return nil
}

// ValidateChunking checks the chunking strategy and chunk size settings. The
// chunk error is returned unwrapped so callers can match *chunker.ConfigError.
func (c Config) ValidateChunking() error {
	if _, err := c.ChunkStrategy(); err != nil {
		return err
	}
	return c.Chunk().Validate()
}
