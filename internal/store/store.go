// Package store caches pipeline results keyed by document content and
// chunking configuration, so unchanged inputs are not processed twice.
package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"
)

// ErrNotFound is returned by LookupRun on a cache miss.
var ErrNotFound = errors.New("run not found")

// Backends accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Run is one cached pipeline result.
type Run struct {
	ID          string            `json:"id"`
	Path        string            `json:"path"`
	ContentHash string            `json:"content_hash"`
	ConfigKey   string            `json:"config_key"`
	DocType     string            `json:"doc_type"`
	Handler     string            `json:"handler"`
	Confidence  float64           `json:"confidence"`
	Analysis    *handler.Analysis `json:"analysis,omitempty"`
	Warnings    []handler.Warning `json:"warnings,omitempty"`
	Chunks      []doctree.Chunk   `json:"chunks,omitempty"`
	ChunkCount  int               `json:"chunk_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Cache stores and replays runs. LookupRun returns ErrNotFound on a miss.
// ListRuns returns runs newest first without analysis or chunks.
type Cache interface {
	SaveRun(ctx context.Context, r *Run) error
	LookupRun(ctx context.Context, contentHash, configKey string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// ConfigKey combines a chunk configuration signature, the requested strategy
// and the handler registry signature into the second half of a cache key. The
// registry part is hashed to keep keys short.
func ConfigKey(signature, strategy, registry string) string {
	h := sha256.Sum256([]byte(registry))
	return fmt.Sprintf("%s;strategy=%s;registry=%x", signature, strategy, h[:8])
}

// Open opens the cache at path with the named backend.
func Open(backend, path string) (Cache, error) {
	switch backend {
	case BackendSQLite, "":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendBolt:
		b, err := OpenBolt(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", backend)
}

func validate(r *Run) error {
	if r.ID == "" || r.ContentHash == "" || r.ConfigKey == "" {
		return fmt.Errorf("save run: id, content hash and config key are required")
	}
	return nil
}
