// Package querycache caches ranked search results in Redis so hot prefixes
// skip the trie walk entirely. It caches results only — never the index
// itself.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/88clipon/saleor/internal/typeahead/index"
	"github.com/88clipon/saleor/internal/typeahead/query"
	"github.com/88clipon/saleor/pkg/logger"
	pkgredis "github.com/88clipon/saleor/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "typeahead:"

// ResultCache stores search results keyed by a hash of the normalized query
// parameters. Concurrent misses for the same key collapse to one fill.
type ResultCache struct {
	client *pkgredis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a ResultCache with the given entry TTL.
func New(client *pkgredis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{
		client: client,
		ttl:    ttl,
		logger: logger.WithComponent("result-cache"),
	}
}

// GetOrCompute returns cached results for the query, or runs computeFn once
// per key, stores its result, and returns it. The second return value reports
// whether the cache was hit.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	prefix string,
	limit int,
	kinds []index.Kind,
	computeFn func() ([]query.Result, error),
) ([]query.Result, bool, error) {
	key := c.buildKey(prefix, limit, kinds)
	if results, ok := c.get(ctx, key); ok {
		return results, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		if results, ok := c.get(ctx, key); ok {
			return results, nil
		}
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]query.Result), false, nil
}

// Invalidate drops every cached result. Called whenever the index is
// invalidated or rebuilt.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("result cache flushed", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counters since process start.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResultCache) get(ctx context.Context, key string) ([]query.Result, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var results []query.Result
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return results, true
}

func (c *ResultCache) set(ctx context.Context, key string, results []query.Result) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// buildKey normalizes the parameters so "RAY" and "ray", or the same kind
// set in a different order, share one cache entry.
func (c *ResultCache) buildKey(prefix string, limit int, kinds []index.Kind) string {
	sorted := make([]string, 0, len(kinds))
	for _, k := range kinds {
		sorted = append(sorted, string(k))
	}
	sort.Strings(sorted)
	raw := fmt.Sprintf("%s|limit=%d|kinds=%s",
		strings.ToLower(strings.TrimSpace(prefix)), limit, strings.Join(sorted, ","))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
