package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/xmlsift/internal/chunker"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xmlsift.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XMLSIFT_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if err := cfg.ValidateChunking(); err != nil {
		t.Fatalf("expected default chunking to validate, got %v", err)
	}
	if cfg.Chunk() != chunker.DefaultConfig() {
		t.Errorf("expected default chunk config, got %+v", cfg.Chunk())
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.CachePath != "" {
		t.Errorf("expected cache disabled by default, got %q", cfg.CachePath)
	}
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := writeYAML(t, `
workers: 8
chunking:
  strategy: sliding_window
  max_chunk_size: 512
  overlap_size: 64
  preserve_hierarchy: false
cache:
  backend: bolt
  path: /tmp/xmlsift.bolt
handlers:
  maven_pom.namespace: 0.9
`)
	t.Setenv("XMLSIFT_WORKERS", "2")
	t.Setenv("XMLSIFT_HANDLER_SETTINGS", "records.min_records:5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected environment to win with 2 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxChunkSize != 512 || cfg.OverlapSize != 64 || cfg.PreserveHierarchy {
		t.Errorf("expected file chunk settings, got %+v", cfg.Chunk())
	}
	if cfg.MinChunkSize != chunker.DefaultConfig().MinChunkSize {
		t.Errorf("expected untouched min chunk size, got %d", cfg.MinChunkSize)
	}
	if s, _ := cfg.ChunkStrategy(); s != chunker.SlidingWindow {
		t.Errorf("expected sliding_window, got %q", s)
	}
	if cfg.CacheBackend != "bolt" || cfg.CachePath != "/tmp/xmlsift.bolt" {
		t.Errorf("unexpected cache settings %q %q", cfg.CacheBackend, cfg.CachePath)
	}

	settings, err := cfg.Handlers()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings["records.min_records"] != 5 {
		t.Errorf("expected records.min_records=5, got %v", settings["records.min_records"])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_ConfigFromEnvironmentPath(t *testing.T) {
	t.Setenv("XMLSIFT_CONFIG", writeYAML(t, "log:\n  level: debug\n"))
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug, got %q", cfg.LogLevel)
	}
}

func TestLoad_BadFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeYAML(t, "workers: [1, 2")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"workers", func(c *Config) { c.WorkerCount = 0 }, "XMLSIFT_WORKERS"},
		{"file bytes", func(c *Config) { c.MaxFileBytes = 0 }, "XMLSIFT_MAX_FILE_BYTES"},
		{"probe concurrency", func(c *Config) { c.ProbeConcurrency = -1 }, "XMLSIFT_PROBE_CONCURRENCY"},
		{"backend", func(c *Config) { c.CacheBackend = "redis" }, "XMLSIFT_CACHE_BACKEND"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "XMLSIFT_LOG_LEVEL"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "XMLSIFT_LOG_FORMAT"},
		{"handler key", func(c *Config) { c.HandlerSettings = map[string]float64{"nope.key": 1} }, "nope.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateChunking(t *testing.T) {
	cfg := Default()
	cfg.OverlapSize = cfg.MaxChunkSize
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected chunk settings to be ignored by Validate, got %v", err)
	}
	var ce *chunker.ConfigError
	if err := cfg.ValidateChunking(); !errors.As(err, &ce) {
		t.Fatalf("expected *chunker.ConfigError, got %v", err)
	}
	if ce.Field != "overlap_size" {
		t.Errorf("expected overlap_size, got %q", ce.Field)
	}

	cfg = Default()
	cfg.Strategy = "zigzag"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected strategy to be ignored by Validate, got %v", err)
	}
	if err := cfg.ValidateChunking(); err == nil || !strings.Contains(err.Error(), "zigzag") {
		t.Errorf("expected error naming the strategy, got %v", err)
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "WARN"
	lvl, err := cfg.SlogLevel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lvl.String() != "WARN" {
		t.Errorf("expected WARN, got %s", lvl)
	}
}
