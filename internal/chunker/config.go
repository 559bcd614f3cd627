package chunker

import (
	"fmt"
	"strings"
)

// Config controls chunking behavior. Sizes are in estimated tokens.
type Config struct {
	MaxChunkSize      int  `yaml:"max_chunk_size" json:"max_chunk_size"`
	MinChunkSize      int  `yaml:"min_chunk_size" json:"min_chunk_size"`
	OverlapSize       int  `yaml:"overlap_size" json:"overlap_size"`
	PreserveHierarchy bool `yaml:"preserve_hierarchy" json:"preserve_hierarchy"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:      2048,
		MinChunkSize:      100,
		OverlapSize:       200,
		PreserveHierarchy: true,
	}
}

// ConfigError reports an invalid chunking configuration or strategy.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunking config: %s %s", e.Field, e.Message)
}

// Validate checks 0 <= min <= max and 0 <= overlap < max.
func (c Config) Validate() error {
	switch {
	case c.MaxChunkSize <= 0:
		return &ConfigError{Field: "max_chunk_size", Message: fmt.Sprintf("must be positive, got %d", c.MaxChunkSize)}
	case c.MinChunkSize < 0:
		return &ConfigError{Field: "min_chunk_size", Message: fmt.Sprintf("must not be negative, got %d", c.MinChunkSize)}
	case c.MinChunkSize > c.MaxChunkSize:
		return &ConfigError{Field: "min_chunk_size", Message: fmt.Sprintf("%d exceeds max_chunk_size %d", c.MinChunkSize, c.MaxChunkSize)}
	case c.OverlapSize < 0:
		return &ConfigError{Field: "overlap_size", Message: fmt.Sprintf("must not be negative, got %d", c.OverlapSize)}
	case c.OverlapSize >= c.MaxChunkSize:
		return &ConfigError{Field: "overlap_size", Message: fmt.Sprintf("%d must be less than max_chunk_size %d", c.OverlapSize, c.MaxChunkSize)}
	}
	return nil
}

// Signature identifies the configuration for caching.
func (c Config) Signature() string {
	return fmt.Sprintf("max=%d;min=%d;overlap=%d;hier=%t", c.MaxChunkSize, c.MinChunkSize, c.OverlapSize, c.PreserveHierarchy)
}

// Strategy names a segmentation strategy.
type Strategy string

const (
	Hierarchical  Strategy = "hierarchical"
	SlidingWindow Strategy = "sliding_window"
	ContentAware  Strategy = "content_aware"
	Auto          Strategy = "auto"
)

// ParseStrategy accepts strategy names case-insensitively plus a few short
// aliases. An empty name means Auto.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto, nil
	case "hierarchical", "hierarchy", "tree":
		return Hierarchical, nil
	case "sliding_window", "sliding-window", "sliding", "window":
		return SlidingWindow, nil
	case "content_aware", "content-aware", "content":
		return ContentAware, nil
	}
	return "", &ConfigError{Field: "strategy", Message: fmt.Sprintf("unknown strategy %q", name)}
}
