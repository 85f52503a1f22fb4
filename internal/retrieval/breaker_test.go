// internal/retrieval/breaker_test.go
package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"food-recommender/internal/models"
)

func testBreakerConfig() BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.MinRequests = 2
	cfg.FailureRatio = 0.5
	cfg.Timeout = time.Minute
	return cfg
}

func TestBreakerProvider_OpensAfterFailures(t *testing.T) {
	next := &countingProvider{err: errors.New("503")}
	p := NewBreakerProvider("zomato", next, testBreakerConfig(), createTestLogger(t))

	for i := 0; i < 2; i++ {
		_, err := p.Search(context.Background(), "dosa", "")
		require.Error(t, err)
	}
	assert.Equal(t, "open", p.State())

	_, err := p.Search(context.Background(), "dosa", "")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls)
}

func TestBreakerProvider_PassesThrough(t *testing.T) {
	next := &countingProvider{listings: []models.Listing{{Name: "Dosa"}}}
	p := NewBreakerProvider("zomato", next, testBreakerConfig(), createTestLogger(t))

	got, err := p.Search(context.Background(), "dosa", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dosa"}, listingNames(got))
	assert.Equal(t, "closed", p.State())
}

func TestBreakerProvider_CancellationDoesNotTrip(t *testing.T) {
	next := &countingProvider{err: context.Canceled}
	p := NewBreakerProvider("zomato", next, testBreakerConfig(), createTestLogger(t))

	for i := 0; i < 4; i++ {
		_, err := p.Search(context.Background(), "dosa", "")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", p.State())
}
