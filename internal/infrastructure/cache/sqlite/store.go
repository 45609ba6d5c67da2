// Package sqlite is the default query-cache store: a single local file that
// survives process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS query_cache (
	query_hash TEXT PRIMARY KEY,
	query_text TEXT NOT NULL,
	results TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_cache_created_at ON query_cache(created_at);
`

type Store struct {
	db   *sql.DB
	path string
}

var _ ports.QueryCacheStore = (*Store)(nil)

// Open creates the database file and its parent directory when missing.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, queryHash string) (*domain.CacheEntry, error) {
	var (
		entry   domain.CacheEntry
		raw     string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT query_hash, query_text, results, created_at FROM query_cache WHERE query_hash = ?`,
		queryHash,
	).Scan(&entry.QueryHash, &entry.QueryText, &raw, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &entry.Results); err != nil {
		return nil, fmt.Errorf("decoding cached results: %w", err)
	}
	entry.CreatedAt = time.Unix(0, created).UTC()
	return &entry, nil
}

func (s *Store) Put(ctx context.Context, entry domain.CacheEntry) error {
	raw, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("encoding cached results: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO query_cache (query_hash, query_text, results, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(query_hash) DO UPDATE SET
	query_text = excluded.query_text,
	results = excluded.results,
	created_at = excluded.created_at`,
		entry.QueryHash, entry.QueryText, string(raw), entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM query_cache WHERE created_at <= ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("deleting expired cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
