// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"food-recommender/internal/common/config"
	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/models"
	"food-recommender/internal/pipeline"
	"food-recommender/internal/retrieval"
	recommendlistings "food-recommender/internal/workers/recommendation/recommend-listings"
)

const swiggyPage = `<html><body>
<div class="card"><h3 class="name">Veg Biryani</h3><span class="price">₹220</span>
  <span class="rating">4.2</span><span class="reviews">(300)</span><span class="tag">Veg</span></div>
<div class="card"><h3 class="name">Chicken Dum Biryani</h3><span class="price">₹380</span>
  <span class="rating">4.6</span><span class="reviews">(2.1k)</span><span class="tag">Non-Veg</span></div>
</body></html>`

const blinkitItems = `{"items":[
  {"name":"Biryani Masala 50g","sourceLabel":"Everest","price":65,"rating":4.4,"reviewCount":900},
  {"name":"Biryani Rice Mix","sourceLabel":"MTR","price":120,"rating":4.0,"reviewCount":80,"ingredients":["rice","peanut oil"]}
]}`

type environment struct {
	handler     *recommendlistings.Handler
	swiggyHits  *int64
	blinkitHits *int64
	redis       *miniredis.Miniredis
}

func setup(t *testing.T) *environment {
	t.Helper()
	log := logger.NewZapAdapter(zaptest.NewLogger(t))

	var swiggyHits, blinkitHits int64
	swiggy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&swiggyHits, 1)
		_, _ = w.Write([]byte(swiggyPage))
	}))
	t.Cleanup(swiggy.Close)

	zomato := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(zomato.Close)

	blinkit := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt64(&blinkitHits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(blinkitItems))
	}))
	t.Cleanup(blinkit.Close)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	selectors := config.SelectorConfig{
		Item: ".card", Name: ".name", Price: ".price", Rating: ".rating", Reviews: ".reviews", Tags: ".tag",
	}
	registry, err := retrieval.BuildRegistry([]config.PlatformConfig{
		{Name: "swiggy", Type: config.PlatformHTML, SearchURL: swiggy.URL + "/search?q={query}", Selectors: selectors, Timeout: 2000},
		{Name: "zomato", Type: config.PlatformHTML, SearchURL: zomato.URL + "/search?q={query}", Selectors: selectors, Timeout: 2000},
		{Name: "blinkit", Type: config.PlatformJSON, SearchURL: blinkit.URL + "/v1/search?q={query}", Timeout: 2000, Cache: true},
		{Name: "demo", Type: config.PlatformFixture, FixturePath: "../../testdata/fixtures/demo.json"},
	}, retrieval.Dependencies{Redis: rdb, Logger: log})
	require.NoError(t, err)

	orch, err := pipeline.New(pipeline.Dependencies{Registry: registry, Logger: log}, pipeline.Options{})
	require.NoError(t, err)

	return &environment{
		handler:     recommendlistings.NewHandler(recommendlistings.LoadConfig(), orch, nil, log),
		swiggyHits:  &swiggyHits,
		blinkitHits: &blinkitHits,
		redis:       mr,
	}
}

func names(ls []models.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Name
	}
	return out
}

func vegetarianProfile() *models.UserProfile {
	return &models.UserProfile{
		ID:        "e2e-user",
		FoodHabit: models.FoodHabitVegetarian,
		Allergies: []string{"Peanut"},
		Location:  "Pune",
	}
}

func TestRecommend_AcrossPlatforms(t *testing.T) {
	env := setup(t)

	out, err := env.handler.Execute(context.Background(), &recommendlistings.Input{
		Query:   "order biryani",
		Profile: vegetarianProfile(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.IntentBuyReadyMade, out.Intent.Type)
	assert.Equal(t, "indian", out.Intent.Cuisine)

	assert.Equal(t, []string{
		"Biryani Masala 50g",
		"Organic Basmati Rice 1kg",
		"Veg Biryani",
		"Paneer Biryani",
	}, names(out.Results))
	assert.Equal(t, 4, out.Count)

	require.Len(t, out.Platforms, 4)
	outcomes := map[string]pipeline.PlatformOutcome{}
	for _, p := range out.Platforms {
		outcomes[p.Platform] = p
	}
	assert.Equal(t, 2, outcomes["swiggy"].Count)
	assert.Equal(t, string(apperrors.ErrCodeProviderFailure), outcomes["zomato"].ErrorCode)
	assert.Equal(t, 2, outcomes["blinkit"].Count)
	assert.Equal(t, 3, outcomes["demo"].Count)

	for _, l := range out.Results {
		assert.NotEmpty(t, l.Platform)
	}
}

func TestRecommend_SecondRequestServedFromCache(t *testing.T) {
	env := setup(t)
	input := &recommendlistings.Input{Query: "order biryani", Profile: vegetarianProfile()}

	first, err := env.handler.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := env.handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, names(first.Results), names(second.Results))
	assert.NotEqual(t, first.RequestID, second.RequestID)
	assert.Equal(t, int64(2), atomic.LoadInt64(env.swiggyHits))
	assert.Equal(t, int64(1), atomic.LoadInt64(env.blinkitHits))
	assert.True(t, env.redis.Exists(retrieval.CacheKey("blinkit", "order biryani", "Pune")))
}

func TestRecommend_NamedPlatformOnly(t *testing.T) {
	env := setup(t)

	out, err := env.handler.Execute(context.Background(), &recommendlistings.Input{
		Query:   "biryani on blinkit",
		Profile: &models.UserProfile{},
	})
	require.NoError(t, err)

	require.Len(t, out.Platforms, 1)
	assert.Equal(t, "blinkit", out.Platforms[0].Platform)
	assert.ElementsMatch(t, []string{"Biryani Masala 50g", "Biryani Rice Mix"}, names(out.Results))
	assert.Equal(t, int64(0), atomic.LoadInt64(env.swiggyHits))
}

func TestRecommend_AllergyOnlyProfileKeepsMeat(t *testing.T) {
	env := setup(t)

	out, err := env.handler.Execute(context.Background(), &recommendlistings.Input{
		Query:   "biryani",
		Profile: &models.UserProfile{Allergies: []string{"peanut"}},
	})
	require.NoError(t, err)

	got := names(out.Results)
	assert.Contains(t, got, "Chicken Dum Biryani")
	assert.Contains(t, got, "Chicken Biryani")
	assert.NotContains(t, got, "Biryani Rice Mix")
}
