package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

const DefaultCacheTTL = 24 * time.Hour

// QueryCache memoizes search results by normalized query. Any store failure
// degrades to a miss; the cache never fails a search.
type QueryCache struct {
	store    ports.QueryCacheStore
	ttl      time.Duration
	observer ports.PipelineObserver
	logger   *slog.Logger
	now      func() time.Time
}

func NewQueryCache(store ports.QueryCacheStore, ttl time.Duration, observer ports.PipelineObserver, logger *slog.Logger) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryCache{
		store:    store,
		ttl:      ttl,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *QueryCache) Enabled() bool {
	return c != nil && c.store != nil
}

type cacheKey struct {
	Query        string  `json:"query"`
	DocumentType *string `json:"document_type"`
	Category     *string `json:"category"`
	Limit        int     `json:"limit"`
}

// Key hashes the canonical JSON form of the query. Field order is fixed by
// the struct, so equal queries always produce the same key.
func (c *QueryCache) Key(q domain.SearchQuery) string {
	key := cacheKey{
		Query: strings.ToLower(strings.Join(strings.Fields(q.Text), " ")),
		Limit: q.Limit,
	}
	if q.Type != "" {
		t := string(q.Type)
		key.DocumentType = &t
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		key.Category = &category
	}
	raw, _ := json.Marshal(key)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Get returns cached results marked FromCache, or false on miss or expiry.
func (c *QueryCache) Get(ctx context.Context, q domain.SearchQuery) ([]domain.RetrievalResult, bool) {
	if !c.Enabled() {
		return nil, false
	}
	entry, err := c.store.Get(ctx, c.Key(q))
	if err != nil {
		c.logger.Warn("cache_lookup_failed", "error", err)
		c.observer.ObserveCacheLookup(false)
		return nil, false
	}
	if entry == nil || !c.valid(entry.CreatedAt) {
		c.observer.ObserveCacheLookup(false)
		return nil, false
	}

	out := make([]domain.RetrievalResult, len(entry.Results))
	for i, result := range entry.Results {
		result.FromCache = true
		out[i] = result
	}
	c.observer.ObserveCacheLookup(true)
	return out, true
}

// Set stores results under the query key, replacing any previous entry.
func (c *QueryCache) Set(ctx context.Context, q domain.SearchQuery, results []domain.RetrievalResult) {
	if !c.Enabled() {
		return
	}
	stored := make([]domain.RetrievalResult, len(results))
	for i, result := range results {
		result.FromCache = false
		stored[i] = result
	}
	entry := domain.CacheEntry{
		QueryHash: c.Key(q),
		QueryText: q.Text,
		Results:   stored,
		CreatedAt: c.now().UTC(),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Warn("cache_write_failed", "error", err)
	}
}

// ClearExpired deletes entries at or past the TTL and returns how many went.
func (c *QueryCache) ClearExpired(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	return c.store.DeleteOlderThan(ctx, c.now().Add(-c.ttl))
}

// SweepFunc is told the outcome of every background sweep.
type SweepFunc func(deleted int64, duration time.Duration, err error)

// RunSweeper clears expired entries every interval until ctx is done.
// onSweep may be nil.
func (c *QueryCache) RunSweeper(ctx context.Context, interval time.Duration, onSweep SweepFunc) {
	if !c.Enabled() {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := c.now()
			deleted, err := c.ClearExpired(ctx)
			if onSweep != nil {
				onSweep(deleted, c.now().Sub(start), err)
			}
			if err != nil {
				c.logger.Warn("cache_sweep_failed", "error", err)
				continue
			}
			if deleted > 0 {
				c.logger.Info("cache_sweep_completed", "deleted", deleted)
			}
		}
	}
}

func (c *QueryCache) valid(createdAt time.Time) bool {
	return c.now().Sub(createdAt) < c.ttl
}
