// internal/retrieval/json.go
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"

	commonhttp "food-recommender/internal/common/http"
	"food-recommender/internal/models"
)

type JSONConfig struct {
	Platform  string
	SearchURL string // may contain {query} and {location}
	Headers   map[string]string
	MaxItems  int
}

// JSONProvider queries a platform search API that answers with {"items": [...]}.
// Items without a name or with out-of-range numbers are skipped.
type JSONProvider struct {
	config JSONConfig
	client *commonhttp.Client
}

type jsonSearchResponse struct {
	Items []models.Listing `json:"items"`
}

func NewJSONProvider(cfg JSONConfig, client *commonhttp.Client) (*JSONProvider, error) {
	if cfg.SearchURL == "" {
		return nil, fmt.Errorf("platform %s: search url is required", cfg.Platform)
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	return &JSONProvider{config: cfg, client: client}, nil
}

func (p *JSONProvider) Search(ctx context.Context, query, location string) ([]models.Listing, error) {
	headers := map[string]string{"Accept": "application/json"}
	for k, v := range p.config.Headers {
		headers[k] = v
	}

	body, err := p.client.Get(ctx, expandURL(p.config.SearchURL, query, location), headers)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.config.Platform, err)
	}

	var resp jsonSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", p.config.Platform, err)
	}

	items := make([]models.Listing, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.Validate() != nil {
			continue
		}
		it.Platform = p.config.Platform
		items = append(items, it)
	}
	return limit(items, p.config.MaxItems), nil
}
