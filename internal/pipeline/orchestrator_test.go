// internal/pipeline/orchestrator_test.go
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/models"
	"food-recommender/internal/ranking"
	"food-recommender/internal/retrieval"
)

type constScorer struct{}

func (constScorer) Score(models.Listing, models.UserProfile) float64 { return 1 }

type recordingProvider struct {
	mu       sync.Mutex
	calls    int32
	queries  []string
	listings []models.Listing
	err      error
	delay    time.Duration
}

func (p *recordingProvider) Search(ctx context.Context, query, _ string) ([]models.Listing, error) {
	atomic.AddInt32(&p.calls, 1)
	p.mu.Lock()
	p.queries = append(p.queries, query)
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.listings, p.err
}

func (p *recordingProvider) Calls() int {
	return int(atomic.LoadInt32(&p.calls))
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

func newOrchestrator(t *testing.T, opts Options, scorer ranking.Scorer, platforms ...retrieval.Platform) *Orchestrator {
	t.Helper()
	reg, err := retrieval.NewRegistry(platforms...)
	require.NoError(t, err)

	log := createTestLogger(t)
	o, err := New(Dependencies{
		Registry: reg,
		Ranker:   ranking.NewEngine(scorer, log),
		Logger:   log,
	}, opts)
	require.NoError(t, err)
	return o
}

func listing(platform, name string) models.Listing {
	return models.Listing{Platform: platform, Name: name, Description: name}
}

func resultNames(r *Result) []string {
	out := make([]string, len(r.Results))
	for i, l := range r.Results {
		out[i] = l.Name
	}
	return out
}

func TestNew_RequiresRegistry(t *testing.T) {
	_, err := New(Dependencies{}, Options{})
	assert.Error(t, err)
}

func TestRecommend_EmptyQuery(t *testing.T) {
	p := &recordingProvider{listings: []models.Listing{listing("swiggy", "Veg Biryani")}}
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "swiggy", Provider: p})

	for _, q := range []string{"", "   ", "\t\n"} {
		res, err := o.Recommend(context.Background(), q, &models.UserProfile{})
		require.Error(t, err)
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	}
	assert.Equal(t, 0, p.Calls())
}

func TestRecommend_NilProfile(t *testing.T) {
	p := &recordingProvider{}
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "swiggy", Provider: p})

	_, err := o.Recommend(context.Background(), "biryani", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrProfileNotFound))
	assert.Equal(t, 0, p.Calls())
}

func TestRecommend_ConcatenatesInPriorityOrder(t *testing.T) {
	slow := &recordingProvider{
		listings: []models.Listing{listing("swiggy", "Slow One"), listing("swiggy", "Slow Two")},
		delay:    40 * time.Millisecond,
	}
	fast := &recordingProvider{listings: []models.Listing{listing("zomato", "Fast One")}}

	o := newOrchestrator(t, Options{ProviderTimeout: time.Second}, constScorer{},
		retrieval.Platform{Name: "swiggy", Provider: slow},
		retrieval.Platform{Name: "zomato", Provider: fast},
	)

	res, err := o.Recommend(context.Background(), "biryani", &models.UserProfile{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Slow One", "Slow Two", "Fast One"}, resultNames(res))
	assert.Equal(t, 3, res.Count)
	require.Len(t, res.Platforms, 2)
	assert.Equal(t, "swiggy", res.Platforms[0].Platform)
	assert.Equal(t, 2, res.Platforms[0].Count)
	assert.Equal(t, "zomato", res.Platforms[1].Platform)
	assert.NotEmpty(t, res.RequestID)
}

func TestRecommend_IsolatesPlatformFailures(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	healthy := &recordingProvider{listings: []models.Listing{listing("bigbasket", "Basmati Rice")}}
	failing := &recordingProvider{err: errors.New("HTTP 503")}
	panicking := retrieval.ProviderFunc(func(context.Context, string, string) ([]models.Listing, error) {
		panic("selector drift")
	})
	// Ignores its context entirely.
	hanging := retrieval.ProviderFunc(func(context.Context, string, string) ([]models.Listing, error) {
		<-release
		return []models.Listing{listing("blinkit", "Too Late")}, nil
	})

	o := newOrchestrator(t, Options{ProviderTimeout: 50 * time.Millisecond}, constScorer{},
		retrieval.Platform{Name: "swiggy", Provider: failing},
		retrieval.Platform{Name: "zomato", Provider: panicking},
		retrieval.Platform{Name: "blinkit", Provider: hanging},
		retrieval.Platform{Name: "bigbasket", Provider: healthy},
	)

	start := time.Now()
	res, err := o.Recommend(context.Background(), "rice", &models.UserProfile{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, []string{"Basmati Rice"}, resultNames(res))

	codes := map[string]string{}
	for _, p := range res.Platforms {
		codes[p.Platform] = p.ErrorCode
	}
	assert.Equal(t, string(apperrors.ErrCodeProviderFailure), codes["swiggy"])
	assert.Equal(t, string(apperrors.ErrCodeProviderFailure), codes["zomato"])
	assert.Equal(t, string(apperrors.ErrCodeProviderTimeout), codes["blinkit"])
	assert.Equal(t, "", codes["bigbasket"])
}

func TestRecommend_AllPlatformsFail(t *testing.T) {
	failing := &recordingProvider{err: errors.New("down")}
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "swiggy", Provider: failing})

	res, err := o.Recommend(context.Background(), "pizza", &models.UserProfile{})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.NotNil(t, res.Results)
	assert.Equal(t, 0, res.Count)
	assert.True(t, res.Platforms[0].Failed())
}

func TestRecommend_NamedPlatformOnly(t *testing.T) {
	swiggy := &recordingProvider{listings: []models.Listing{listing("swiggy", "Farmhouse Pizza")}}
	zomato := &recordingProvider{listings: []models.Listing{listing("zomato", "Margherita Pizza")}}

	o := newOrchestrator(t, Options{}, nil,
		retrieval.Platform{Name: "swiggy", Provider: swiggy},
		retrieval.Platform{Name: "zomato", Provider: zomato},
	)

	res, err := o.Recommend(context.Background(), "Order pizza from Zomato!", &models.UserProfile{})
	require.NoError(t, err)

	assert.Equal(t, models.IntentBuyReadyMade, res.Intent.Type)
	assert.Equal(t, "zomato", res.Intent.PlatformFilter)
	assert.Equal(t, 0, swiggy.Calls())
	assert.Equal(t, 1, zomato.Calls())
	assert.Equal(t, []string{"Margherita Pizza"}, resultNames(res))
}

func TestRecommend_UnregisteredNamedPlatform(t *testing.T) {
	swiggy := &recordingProvider{listings: []models.Listing{listing("swiggy", "Paneer Roll")}}
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "swiggy", Provider: swiggy})

	res, err := o.Recommend(context.Background(), "paneer on blinkit", &models.UserProfile{})
	require.NoError(t, err)

	assert.Equal(t, 0, swiggy.Calls())
	assert.Empty(t, res.Results)
	require.Len(t, res.Platforms, 1)
	assert.Equal(t, "blinkit", res.Platforms[0].Platform)
	assert.Equal(t, string(apperrors.ErrCodeUnknownPlatform), res.Platforms[0].ErrorCode)
}

func TestRecommend_FiltersAndRanks(t *testing.T) {
	p := &recordingProvider{listings: []models.Listing{
		{Platform: "swiggy", Name: "Chicken Biryani", Price: 250, Rating: 4.8, ReviewCount: 900},
		{Platform: "swiggy", Name: "Veg Biryani", Price: 180, Rating: 4.1, ReviewCount: 300, Cuisine: "indian"},
		{Platform: "swiggy", Name: "Peanut Chaat", Description: "contains peanut sauce", Price: 90, Rating: 5},
		{Platform: "swiggy", Name: "Paneer Biryani", Price: 220, Rating: 4.6, ReviewCount: 600, Cuisine: "indian"},
	}}
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "swiggy", Provider: p})

	profile := &models.UserProfile{
		DietaryRestrictions: []string{"Vegetarian"},
		Allergies:           []string{"Peanut"},
		CuisinePreferences:  []string{"indian"},
	}
	res, err := o.Recommend(context.Background(), "vegetarian biryani", profile)
	require.NoError(t, err)

	assert.Equal(t, models.IntentGeneral, res.Intent.Type)
	assert.Equal(t, "indian", res.Intent.Cuisine)
	assert.Equal(t, []string{"Paneer Biryani", "Veg Biryani"}, resultNames(res))
}

func TestRecommend_InvalidListingDoesNotDisableRanking(t *testing.T) {
	p := &recordingProvider{listings: []models.Listing{
		{Name: "Pricey Rice Bowl", Price: 500, Rating: 1},
		{Name: "Broken Rice Bowl", Price: -100},
		{Name: "Great Rice Bowl", Price: 50, Rating: 5},
	}}
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "swiggy", Provider: p})

	res, err := o.Recommend(context.Background(), "rice bowl", &models.UserProfile{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Great Rice Bowl", "Pricey Rice Bowl"}, resultNames(res))
	require.Len(t, res.Platforms, 1)
	assert.Equal(t, 2, res.Platforms[0].Count)
	assert.Equal(t, 1, res.Platforms[0].Dropped)
	assert.False(t, res.Platforms[0].Failed())
}

func TestRecommend_MaxResults(t *testing.T) {
	p := &recordingProvider{listings: []models.Listing{
		listing("swiggy", "One"), listing("swiggy", "Two"), listing("swiggy", "Three"),
	}}
	o := newOrchestrator(t, Options{MaxResults: 2}, constScorer{}, retrieval.Platform{Name: "swiggy", Provider: p})

	res, err := o.Recommend(context.Background(), "anything", &models.UserProfile{})
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, resultNames(res))
	assert.Equal(t, 2, res.Count)
}

func TestRun_EnrichQuery(t *testing.T) {
	p := &recordingProvider{}
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "swiggy", Provider: p})

	profile := &models.UserProfile{
		FoodHabit: models.FoodHabitVegan,
		Allergies: []string{"peanut"},
		Location:  "Bangalore",
	}

	res, err := o.Run(context.Background(), Request{Query: "order biryani", Profile: profile, EnrichQuery: true})
	require.NoError(t, err)
	assert.Equal(t, "order biryani vegan peanut-free near Bangalore", res.Query)

	_, err = o.Run(context.Background(), Request{Query: "order biryani", Profile: profile})
	require.NoError(t, err)

	require.Len(t, p.queries, 2)
	assert.Equal(t, "order biryani vegan peanut-free near Bangalore", p.queries[0])
	assert.Equal(t, "order biryani", p.queries[1])
}

func TestRecommend_ReviewCountBreaksEqualRatings(t *testing.T) {
	fixture := retrieval.NewFixtureProvider("bigbasket", []models.Listing{
		{Name: "Few Reviews Dosa", Rating: 5, ReviewCount: 1, Price: 120},
		{Name: "Many Reviews Dosa", Rating: 5, ReviewCount: 100, Price: 120},
	}, 10)
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "bigbasket", Provider: fixture})

	res, err := o.Recommend(context.Background(), "dosa", &models.UserProfile{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Many Reviews Dosa", "Few Reviews Dosa"}, resultNames(res))
	for _, l := range res.Results {
		assert.Equal(t, "bigbasket", l.Platform)
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	fixture := retrieval.NewFixtureProvider("bigbasket", []models.Listing{
		{Name: "Masala Dosa", Rating: 4.2, ReviewCount: 40, Price: 90},
		{Name: "Rava Dosa", Rating: 4.5, ReviewCount: 10, Price: 110},
		{Name: "Onion Dosa", Rating: 3.9, ReviewCount: 400, Price: 80},
	}, 10)
	o := newOrchestrator(t, Options{}, nil, retrieval.Platform{Name: "bigbasket", Provider: fixture})

	first, err := o.Recommend(context.Background(), "dosa", &models.UserProfile{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := o.Recommend(context.Background(), "dosa", &models.UserProfile{})
		require.NoError(t, err)
		assert.Equal(t, resultNames(first), resultNames(again))
		assert.Equal(t, first.Intent, again.Intent)
	}
}
