// Package redis keeps the query cache in Redis so several API replicas share
// it. Entries carry a Redis TTL as well as their created_at stamp.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/labor-law-assistant/internal/core/domain"
	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
)

const DefaultKeyPrefix = "legal:qcache:"

type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.QueryCacheStore = (*Store)(nil)

// Open parses a redis:// URL and verifies the connection.
func Open(ctx context.Context, url string, ttl time.Duration, logger *slog.Logger) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(client, DefaultKeyPrefix, ttl, logger), nil
}

func New(client *goredis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(hash string) string {
	return s.prefix + hash
}

func (s *Store) Get(ctx context.Context, queryHash string) (*domain.CacheEntry, error) {
	raw, err := s.client.Get(ctx, s.key(queryHash)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeEntry(raw)
}

func (s *Store) Put(ctx context.Context, entry domain.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(entry.QueryHash), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// DeleteOlderThan scans the prefix and drops entries stamped at or before the
// cutoff. Redis expiry normally gets there first.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 200).Result()
		if err != nil {
			return deleted, fmt.Errorf("redis scan: %w", err)
		}
		for _, key := range keys {
			raw, err := s.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, goredis.Nil) {
					continue
				}
				return deleted, fmt.Errorf("redis get %s: %w", key, err)
			}
			entry, err := decodeEntry(raw)
			if err != nil {
				s.logger.Warn("cache_entry_undecodable", "key", key, "error", err)
			}
			if err != nil || !entry.CreatedAt.After(cutoff) {
				n, err := s.client.Del(ctx, key).Result()
				if err != nil {
					return deleted, fmt.Errorf("redis del %s: %w", key, err)
				}
				deleted += n
			}
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func decodeEntry(raw []byte) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, nil
}
