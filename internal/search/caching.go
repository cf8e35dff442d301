package search

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"rentcomps/internal/common/cache"
	"rentcomps/internal/common/errors"
	"rentcomps/internal/common/logger"
	"rentcomps/internal/models"
)

// CachingFetcher serves repeated queries from a cache. Built queries are
// deterministic, so the query string alone identifies a page. Cache failures
// are logged and the request falls through to the wrapped fetcher.
type CachingFetcher struct {
	next  Fetcher
	store cache.Store
	ttl   time.Duration
	log   logger.Logger
}

func NewCachingFetcher(next Fetcher, store cache.Store, ttl time.Duration, log logger.Logger) *CachingFetcher {
	return &CachingFetcher{
		next:  next,
		store: store,
		ttl:   ttl,
		log:   logger.ForComponent(log, "search-cache"),
	}
}

// CacheKey is the store key for a query string.
func CacheKey(query string) string {
	return fmt.Sprintf("search:%x", md5.Sum([]byte(query)))
}

func (c *CachingFetcher) Fetch(ctx context.Context, query string) (*models.SearchResult, error) {
	if c.store == nil {
		return c.next.Fetch(ctx, query)
	}

	key := CacheKey(query)
	if res, ok := c.lookup(ctx, key, query); ok {
		return res, nil
	}

	res, err := c.next.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		c.log.Warn("failed to encode search result for cache", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return res, nil
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": errors.NewCacheUnavailableError("search", err).Error(),
		})
	}
	return res, nil
}

func (c *CachingFetcher) lookup(ctx context.Context, key, query string) (*models.SearchResult, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache read failed, querying remote", map[string]interface{}{
			"key":   key,
			"error": errors.NewCacheUnavailableError("search", err).Error(),
		})
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var res models.SearchResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.log.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		_ = c.store.Delete(ctx, key)
		return nil, false
	}
	if res.Listings == nil {
		res.Listings = []models.Listing{}
	}

	c.log.Debug("search served from cache", map[string]interface{}{
		"key":   key,
		"query": query,
	})
	return &res, true
}
