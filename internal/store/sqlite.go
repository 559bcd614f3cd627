package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/xmlsift/internal/doctree"
	"github.com/dgallion1/xmlsift/internal/handler"

	_ "modernc.org/sqlite"
)

// Schema is the SQLite cache schema. Replacing a run removes its chunks.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	path          TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	config_key    TEXT NOT NULL,
	doc_type      TEXT NOT NULL,
	handler       TEXT NOT NULL,
	confidence    REAL NOT NULL,
	analysis_json TEXT NOT NULL,
	warnings_json TEXT NOT NULL,
	chunk_count   INTEGER NOT NULL,
	created_at    INTEGER NOT NULL,
	UNIQUE (content_hash, config_key)
);

CREATE TABLE IF NOT EXISTS chunks (
	run_id          TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	chunk_index     INTEGER NOT NULL,
	chunk_id        TEXT NOT NULL,
	strategy        TEXT NOT NULL,
	token_estimate  INTEGER NOT NULL,
	content         TEXT NOT NULL,
	paths_json      TEXT NOT NULL,
	breadcrumb_json TEXT NOT NULL,
	metadata_json   TEXT NOT NULL,
	PRIMARY KEY (run_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

var pragmas = []string{
	"PRAGMA foreign_keys=ON",
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=10000",
	"PRAGMA synchronous=NORMAL",
}

// SQLite is a Cache backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway cache.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	// A single connection keeps in-memory databases and pragmas shared.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// ApplySchema creates the cache tables if they do not exist.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SaveRun stores r and its chunks in one transaction, replacing any run with
// the same cache key.
func (s *SQLite) SaveRun(ctx context.Context, r *Run) error {
	if err := validate(r); err != nil {
		return err
	}
	analysis, err := json.Marshal(r.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM runs WHERE content_hash = ? AND config_key = ?`,
		r.ContentHash, r.ConfigKey); err != nil {
		return fmt.Errorf("replace run: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, path, content_hash, config_key, doc_type, handler, confidence,
			analysis_json, warnings_json, chunk_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Path, r.ContentHash, r.ConfigKey, r.DocType, r.Handler, r.Confidence,
		string(analysis), string(warnings), len(r.Chunks), r.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (run_id, chunk_index, chunk_id, strategy, token_estimate, content,
			paths_json, breadcrumb_json, metadata_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range r.Chunks {
		paths, _ := json.Marshal(c.Paths)
		crumb, _ := json.Marshal(c.Breadcrumb)
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("encode chunk %d metadata: %w", c.Index, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, c.Index, c.ID, c.Strategy, c.TokenEstimate,
			c.Content, string(paths), string(crumb), string(meta)); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.ChunkCount = len(r.Chunks)
	return nil
}

// LookupRun returns the run cached under the key, with its chunks in order.
func (s *SQLite) LookupRun(ctx context.Context, contentHash, configKey string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, content_hash, config_key, doc_type, handler, confidence,
			analysis_json, warnings_json, chunk_count, created_at
		FROM runs WHERE content_hash = ? AND config_key = ?`, contentHash, configKey)

	var (
		r                  Run
		analysis, warnings string
		created            int64
	)
	err := row.Scan(&r.ID, &r.Path, &r.ContentHash, &r.ConfigKey, &r.DocType, &r.Handler,
		&r.Confidence, &analysis, &warnings, &r.ChunkCount, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	r.CreatedAt = time.UnixMilli(created).UTC()

	var a handler.Analysis
	if err := json.Unmarshal([]byte(analysis), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if analysis != "null" {
		r.Analysis = &a
	}
	if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}

	chunks, err := s.chunks(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.Chunks = chunks
	return &r, nil
}

func (s *SQLite) chunks(ctx context.Context, runID string) ([]doctree.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_index, chunk_id, strategy, token_estimate, content, paths_json,
			breadcrumb_json, metadata_json
		FROM chunks WHERE run_id = ? ORDER BY chunk_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var out []doctree.Chunk
	for rows.Next() {
		var (
			c                  doctree.Chunk
			paths, crumb, meta string
		)
		if err := rows.Scan(&c.Index, &c.ID, &c.Strategy, &c.TokenEstimate, &c.Content,
			&paths, &crumb, &meta); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(paths), &c.Paths); err != nil {
			return nil, fmt.Errorf("decode chunk paths: %w", err)
		}
		if err := json.Unmarshal([]byte(crumb), &c.Breadcrumb); err != nil {
			return nil, fmt.Errorf("decode chunk breadcrumb: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
			return nil, fmt.Errorf("decode chunk metadata: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns all runs.
func (s *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, content_hash, config_key, doc_type, handler, confidence,
			chunk_count, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Path, &r.ContentHash, &r.ConfigKey, &r.DocType,
			&r.Handler, &r.Confidence, &r.ChunkCount, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
