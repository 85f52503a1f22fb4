// internal/retrieval/breaker.go
package retrieval

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"food-recommender/internal/common/logger"
	"food-recommender/internal/models"
)

type BreakerConfig struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // open-state duration before probing
	MinRequests  uint32
	FailureRatio float64
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// BreakerProvider stops calling a platform that keeps failing and fails fast instead.
type BreakerProvider struct {
	next Provider
	cb   *gobreaker.CircuitBreaker[[]models.Listing]
}

func NewBreakerProvider(platform string, next Provider, cfg BreakerConfig, log logger.Logger) *BreakerProvider {
	log = log.WithFields(map[string]interface{}{"platform": platform, "provider": "breaker"})

	cb := gobreaker.NewCircuitBreaker[[]models.Listing](gobreaker.Settings{
		Name:        platform,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", map[string]interface{}{
				"from": from.String(),
				"to":   to.String(),
			})
		},
		// A caller giving up is not the platform's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerProvider{next: next, cb: cb}
}

func (p *BreakerProvider) Search(ctx context.Context, query, location string) ([]models.Listing, error) {
	return p.cb.Execute(func() ([]models.Listing, error) {
		return p.next.Search(ctx, query, location)
	})
}

// State reports the breaker state, e.g. "closed" or "open".
func (p *BreakerProvider) State() string {
	return p.cb.State().String()
}
