// internal/retrieval/json_test.go
package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonhttp "food-recommender/internal/common/http"
)

func TestJSONProvider_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "paneer", r.URL.Query().Get("q"))
		assert.Equal(t, "Pune", r.URL.Query().Get("city"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"name":"Paneer 200g","sourceLabel":"Amul","price":90,"rating":4.5,"reviewCount":1200},
			{"sourceLabel":"nameless"},
			{"name":"Paneer Tikka Kit","price":-5},
			{"name":"Suspicious Paneer","price":80,"rating":9},
			{"name":"Malai Paneer","price":120,"platform":"other"},
			{"name":"Paneer Cubes","price":110}
		]}`))
	}))
	t.Cleanup(srv.Close)

	p, err := NewJSONProvider(JSONConfig{
		Platform:  "blinkit",
		SearchURL: srv.URL + "/v1/search?q={query}&city={location}",
		Headers:   map[string]string{"X-Api-Key": "secret"},
		MaxItems:  2,
	}, commonhttp.NewClient(time.Second))
	require.NoError(t, err)

	got, err := p.Search(context.Background(), "paneer", "Pune")
	require.NoError(t, err)
	require.Equal(t, []string{"Paneer 200g", "Malai Paneer"}, listingNames(got))
	assert.Equal(t, "Amul", got[0].SourceLabel)
	assert.Equal(t, 1200, got[0].ReviewCount)
	for _, l := range got {
		assert.Equal(t, "blinkit", l.Platform)
	}
}

func TestJSONProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"items":[`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			p, err := NewJSONProvider(JSONConfig{Platform: "blinkit", SearchURL: srv.URL}, commonhttp.NewClient(time.Second))
			require.NoError(t, err)

			_, err = p.Search(context.Background(), "paneer", "")
			assert.Error(t, err)
		})
	}

	_, err := NewJSONProvider(JSONConfig{Platform: "blinkit"}, commonhttp.NewClient(time.Second))
	assert.Error(t, err)
}
