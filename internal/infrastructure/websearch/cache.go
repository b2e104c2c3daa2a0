package websearch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clcruickshank2/datenight/internal/ports"
)

const keyPrefix = "datenight:websearch:"

var errCacheMiss = errors.New("cache miss")

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type redisStore struct {
	rdb *redis.Client
}

func (r redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errCacheMiss
	}
	return val, err
}

func (r redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// CachedSearcher memoizes search results in Redis. Cache errors never fail a search.
type CachedSearcher struct {
	next   ports.WebSearcher
	store  cacheStore
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.WebSearcher = (*CachedSearcher)(nil)

// NewCachedSearcher wraps next with a Redis cache entry per normalized query.
func NewCachedSearcher(next ports.WebSearcher, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSearcher {
	return newCachedSearcher(next, redisStore{rdb: rdb}, ttl, logger)
}

func newCachedSearcher(next ports.WebSearcher, store cacheStore, ttl time.Duration, logger *slog.Logger) *CachedSearcher {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &CachedSearcher{next: next, store: store, ttl: ttl, logger: logger}
}

// Search serves a cached result when present, otherwise searches live and stores non-empty results.
func (c *CachedSearcher) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	key := cacheKey(query)

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached []ports.SearchResult
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			c.debug("web search cache hit", "query", query, "results", len(cached))
			return cached, nil
		}
		c.warn("web search cache entry unreadable", "query", query)
	case !errors.Is(err, errCacheMiss):
		c.warn("web search cache read failed", "error", err)
	}

	results, err := c.next.Search(ctx, query)
	if err != nil || len(results) == 0 {
		return results, err
	}

	payload, err := json.Marshal(results)
	if err == nil {
		err = c.store.Set(ctx, key, string(payload), c.ttl)
	}
	if err != nil {
		c.warn("web search cache write failed", "error", err)
	}
	return results, nil
}

func cacheKey(query string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha1.Sum([]byte(norm))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedSearcher) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *CachedSearcher) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
