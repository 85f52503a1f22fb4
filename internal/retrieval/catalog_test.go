// internal/retrieval/catalog_test.go
package retrieval

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogHits = `{
  "hits": {
    "hits": [
      {"_source": {"name": "Organic Basmati Rice 1kg", "brand": "24 Mantra", "price": 189, "rating": 4.4,
                   "reviews": 320, "cuisine": "Indian", "tags": ["organic"], "ingredients": ["rice"],
                   "image_url": "https://cdn.test/rice.jpg", "url": "https://bigbasket.test/p/1"}},
      {"_source": {"brand": "nameless"}},
      {"_source": {"name": "Mispriced Rice", "brand": "Daawat", "price": -100, "rating": 5}},
      {"_source": {"name": "Brown Rice 500g", "brand": "Daawat", "price": 95}}
    ]
  }
}`

func newTestESClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestCatalogProvider_Search(t *testing.T) {
	var captured map[string]interface{}
	client := newTestESClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/grocery-products/_search", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("size"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(catalogHits))
	})

	p, err := NewCatalogProvider(CatalogConfig{Platform: "bigbasket", Index: "grocery-products", MaxItems: 5}, client)
	require.NoError(t, err)

	got, err := p.Search(context.Background(), "basmati rice", "Bangalore")
	require.NoError(t, err)

	require.Equal(t, []string{"Organic Basmati Rice 1kg", "Brown Rice 500g"}, listingNames(got))
	first := got[0]
	assert.Equal(t, "bigbasket", first.Platform)
	assert.Equal(t, "24 Mantra", first.SourceLabel)
	assert.Equal(t, 189.0, first.Price)
	assert.Equal(t, 320, first.ReviewCount)
	assert.Equal(t, "indian", first.Cuisine)
	assert.Equal(t, []string{"rice"}, first.Ingredients)
	assert.Equal(t, "https://bigbasket.test/p/1", first.Link)

	boolQuery := captured["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "basmati rice", must["query"])
	assert.Contains(t, boolQuery, "should")
}

func TestCatalogProvider_NoLocationBoost(t *testing.T) {
	p := &CatalogProvider{config: CatalogConfig{Index: "grocery-products"}}
	q := p.buildQuery("ghee", "  ")
	boolQuery := q["query"].(map[string]interface{})["bool"].(map[string]interface{})
	assert.NotContains(t, boolQuery, "should")
}

func TestCatalogProvider_ErrorResponse(t *testing.T) {
	client := newTestESClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	p, err := NewCatalogProvider(CatalogConfig{Platform: "bigbasket", Index: "missing"}, client)
	require.NoError(t, err)

	_, err = p.Search(context.Background(), "ghee", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNewCatalogProvider_Invalid(t *testing.T) {
	_, err := NewCatalogProvider(CatalogConfig{Platform: "bigbasket"}, &elasticsearch.Client{})
	assert.Error(t, err)

	_, err = NewCatalogProvider(CatalogConfig{Platform: "bigbasket", Index: "grocery-products"}, nil)
	assert.Error(t, err)
}
