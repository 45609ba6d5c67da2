package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

const queryCacheDDL = `
CREATE TABLE IF NOT EXISTS query_cache (
	query_hash TEXT PRIMARY KEY,
	query_text TEXT NOT NULL,
	results JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_cache_created_at ON query_cache(created_at);
`

type QueryCacheRepository struct {
	db *sql.DB
}

func NewQueryCacheRepository(db *sql.DB) *QueryCacheRepository {
	return &QueryCacheRepository{db: db}
}

var _ ports.QueryCacheStore = (*QueryCacheRepository)(nil)

func (r *QueryCacheRepository) EnsureSchema(ctx context.Context) error {
	return ensureSchema(ctx, r.db, queryCacheDDL)
}

func (r *QueryCacheRepository) Get(ctx context.Context, queryHash string) (*domain.CacheEntry, error) {
	var (
		entry domain.CacheEntry
		raw   []byte
	)
	err := r.db.QueryRowContext(ctx, `
SELECT query_hash, query_text, results, created_at
FROM query_cache
WHERE query_hash = $1
`, queryHash).Scan(&entry.QueryHash, &entry.QueryText, &raw, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cache entry: %w", err)
	}
	if err := json.Unmarshal(raw, &entry.Results); err != nil {
		return nil, fmt.Errorf("unmarshal cached results: %w", err)
	}
	return &entry, nil
}

func (r *QueryCacheRepository) Put(ctx context.Context, entry domain.CacheEntry) error {
	raw, err := json.Marshal(entry.Results)
	if err != nil {
		return fmt.Errorf("marshal cached results: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO query_cache (query_hash, query_text, results, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (query_hash) DO UPDATE SET
	query_text = EXCLUDED.query_text,
	results = EXCLUDED.results,
	created_at = EXCLUDED.created_at
`, entry.QueryHash, entry.QueryText, raw, entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

func (r *QueryCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM query_cache WHERE created_at <= $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
