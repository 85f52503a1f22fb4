// internal/retrieval/factory.go
package retrieval

import (
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"food-recommender/internal/common/config"
	commonhttp "food-recommender/internal/common/http"
	"food-recommender/internal/common/logger"
)

// Dependencies are the shared clients platform providers may need.
// Nil clients disable the features that rely on them.
type Dependencies struct {
	Redis         *redis.Client
	Elasticsearch *elasticsearch.Client
	CacheTTL      time.Duration
	Logger        logger.Logger
}

// BuildRegistry turns the enabled platform declarations into a Registry, wrapping
// each provider in a circuit breaker and a Redis cache when configured.
func BuildRegistry(platforms []config.PlatformConfig, deps Dependencies) (*Registry, error) {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	out := make([]Platform, 0, len(platforms))
	for _, pc := range platforms {
		if pc.Disabled {
			continue
		}

		provider, err := newProvider(pc, deps, log)
		if err != nil {
			return nil, err
		}

		if pc.Breaker.Enabled {
			bc := DefaultBreakerConfig()
			bc.MinRequests = pc.Breaker.MinRequests
			bc.FailureRatio = pc.Breaker.FailureRatio
			bc.Timeout = config.GetDuration(pc.Breaker.OpenTimeout)
			provider = NewBreakerProvider(pc.Name, provider, bc, log)
		}
		if pc.Cache {
			if deps.Redis == nil {
				log.Warn("redis unavailable, platform results will not be cached", map[string]interface{}{
					"platform": pc.Name,
				})
			} else {
				provider = NewCachedProvider(pc.Name, provider, deps.Redis, deps.CacheTTL, log)
			}
		}

		out = append(out, Platform{Name: pc.Name, Provider: provider})
		log.Info("platform registered", map[string]interface{}{
			"platform": pc.Name,
			"type":     pc.Type,
			"cache":    pc.Cache,
			"breaker":  pc.Breaker.Enabled,
		})
	}
	return NewRegistry(out...)
}

func newProvider(pc config.PlatformConfig, deps Dependencies, log logger.Logger) (Provider, error) {
	timeout := config.GetDuration(pc.Timeout)

	switch pc.Type {
	case config.PlatformHTML:
		var fetcher Fetcher
		if pc.Render {
			fetcher = &ChromeRenderer{
				Timeout:      timeout,
				WaitSelector: pc.WaitSelector,
				Settle:       config.GetDuration(pc.Settle),
				ExecPath:     pc.BrowserPath,
			}
		} else {
			fetcher = NewHTTPFetcher(newHTTPClient(pc, timeout))
		}
		return NewHTMLProvider(HTMLConfig{
			Platform:          pc.Name,
			SearchURL:         pc.SearchURL,
			Selectors:         Selectors(pc.Selectors),
			MaxItems:          pc.MaxItems,
			RequestsPerSecond: pc.RequestsPerSecond,
			Burst:             pc.Burst,
		}, fetcher, log)

	case config.PlatformJSON:
		return NewJSONProvider(JSONConfig{
			Platform:  pc.Name,
			SearchURL: pc.SearchURL,
			Headers:   pc.Headers,
			MaxItems:  pc.MaxItems,
		}, newHTTPClient(pc, timeout))

	case config.PlatformCatalog:
		return NewCatalogProvider(CatalogConfig{
			Platform: pc.Name,
			Index:    pc.Index,
			MaxItems: pc.MaxItems,
		}, deps.Elasticsearch)

	case config.PlatformFixture:
		return LoadFixtureFile(pc.Name, pc.FixturePath, pc.MaxItems)

	default:
		return nil, fmt.Errorf("platform %s: unknown type %q", pc.Name, pc.Type)
	}
}

func newHTTPClient(pc config.PlatformConfig, timeout time.Duration) *commonhttp.Client {
	var opts []commonhttp.Option
	if pc.UserAgent != "" {
		opts = append(opts, commonhttp.WithUserAgent(pc.UserAgent))
	}
	return commonhttp.NewClient(timeout, opts...)
}
