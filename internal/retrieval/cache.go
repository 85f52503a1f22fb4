// internal/retrieval/cache.go
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"food-recommender/internal/common/logger"
	"food-recommender/internal/common/metrics"
	"food-recommender/internal/models"
)

const DefaultCacheTTL = time.Hour

// CachedProvider memoizes a provider's results in Redis, keyed by
// (platform, normalized query, location). Cache errors never fail a search.
type CachedProvider struct {
	platform string
	next     Provider
	redis    *redis.Client
	ttl      time.Duration
	logger   logger.Logger
}

func NewCachedProvider(platform string, next Provider, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		platform: platform,
		next:     next,
		redis:    client,
		ttl:      ttl,
		logger:   log.WithFields(map[string]interface{}{"platform": platform, "provider": "cache"}),
	}
}

// CacheKey builds the Redis key for a search.
func CacheKey(platform, query, location string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return "retrieval:" + norm(platform) + ":" + norm(query) + "|" + norm(location)
}

func (p *CachedProvider) Search(ctx context.Context, query, location string) ([]models.Listing, error) {
	key := CacheKey(p.platform, query, location)

	cached, err := p.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var listings []models.Listing
		if jerr := json.Unmarshal(cached, &listings); jerr == nil {
			metrics.RetrievalCache.WithLabelValues(p.platform, "hit").Inc()
			return listings, nil
		}
		p.logger.Warn("discarding corrupt cache entry", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
		metrics.RetrievalCache.WithLabelValues(p.platform, "miss").Inc()
	default:
		metrics.RetrievalCache.WithLabelValues(p.platform, "error").Inc()
		p.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	listings, err := p.next.Search(ctx, query, location)
	if err != nil {
		return nil, err
	}

	if data, merr := json.Marshal(listings); merr == nil {
		if serr := p.redis.Set(ctx, key, data, p.ttl).Err(); serr != nil {
			p.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": serr.Error()})
		}
	}
	return listings, nil
}
