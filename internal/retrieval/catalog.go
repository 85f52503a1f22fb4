// internal/retrieval/catalog.go
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"food-recommender/internal/models"
)

type CatalogConfig struct {
	Platform string
	Index    string
	MaxItems int
}

// CatalogProvider searches a grocery catalogue indexed in Elasticsearch.
type CatalogProvider struct {
	config CatalogConfig
	client *elasticsearch.Client
}

type catalogDocument struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	Reviews     int      `json:"reviews"`
	Cuisine     string   `json:"cuisine"`
	Tags        []string `json:"tags"`
	Ingredients []string `json:"ingredients"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	URL         string   `json:"url"`
	Location    string   `json:"location"`
}

type catalogSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source catalogDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func NewCatalogProvider(cfg CatalogConfig, client *elasticsearch.Client) (*CatalogProvider, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("platform %s: index is required", cfg.Platform)
	}
	if client == nil {
		return nil, fmt.Errorf("platform %s: elasticsearch client is required", cfg.Platform)
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	return &CatalogProvider{config: cfg, client: client}, nil
}

// buildQuery matches the query text on name, brand, description and tags, and boosts
// products stocked at the requested location without excluding others.
func (p *CatalogProvider) buildQuery(query, location string) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  query,
					"fields": []string{"name^3", "brand^2", "description", "tags"},
					"type":   "best_fields",
				},
			},
		},
	}
	if loc := strings.TrimSpace(location); loc != "" {
		boolQuery["should"] = []interface{}{
			map[string]interface{}{
				"match": map[string]interface{}{"location": loc},
			},
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}

func (p *CatalogProvider) Search(ctx context.Context, query, location string) ([]models.Listing, error) {
	body, err := json.Marshal(p.buildQuery(query, location))
	if err != nil {
		return nil, fmt.Errorf("encode catalog query: %w", err)
	}

	size := p.config.MaxItems
	req := esapi.SearchRequest{
		Index: []string{p.config.Index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("catalog search failed: %s", res.String())
	}

	var parsed catalogSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	listings := make([]models.Listing, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		l := models.Listing{
			Platform:    p.config.Platform,
			Name:        doc.Name,
			SourceLabel: doc.Brand,
			Price:       doc.Price,
			Rating:      doc.Rating,
			ReviewCount: doc.Reviews,
			Cuisine:     strings.ToLower(doc.Cuisine),
			Tags:        doc.Tags,
			Ingredients: doc.Ingredients,
			Description: doc.Description,
			ImageURL:    doc.ImageURL,
			Link:        doc.URL,
		}
		if l.Validate() != nil {
			continue
		}
		listings = append(listings, l)
	}
	return limit(listings, p.config.MaxItems), nil
}
