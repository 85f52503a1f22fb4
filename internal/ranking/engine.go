// internal/ranking/engine.go
package ranking

import (
	"fmt"
	"math"
	"sort"

	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/common/metrics"
	"food-recommender/internal/models"
)

const stage = "rank"

// Scorer computes a preference score for one listing.
type Scorer interface {
	Score(l models.Listing, profile models.UserProfile) float64
}

type scoredListing struct {
	listing models.Listing
	score   float64
}

// Engine orders listings by descending score. Ties keep their input order and any
// scoring failure returns the input unchanged.
type Engine struct {
	scorer Scorer
	logger logger.Logger
}

func NewEngine(scorer Scorer, log logger.Logger) *Engine {
	if scorer == nil {
		scorer = PriceSensitive()
	}
	return &Engine{
		scorer: scorer,
		logger: log.WithFields(map[string]interface{}{"component": "ranking-engine"}),
	}
}

// Rank returns a permutation of listings sorted by descending score.
func (e *Engine) Rank(listings []models.Listing, profile models.UserProfile) []models.Listing {
	ranked, err := e.rank(listings, profile)
	if err != nil {
		degradation := apperrors.NewInternalDegradationError(stage, err)
		metrics.Degradations.WithLabelValues(stage).Inc()
		e.logger.Error("ranking failed, returning input order", map[string]interface{}{
			"errorCode":  string(degradation.Code),
			"details":    degradation.Details,
			"inputCount": len(listings),
		})
		return listings
	}
	return ranked
}

func (e *Engine) rank(listings []models.Listing, profile models.UserProfile) (out []models.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	scored := make([]scoredListing, len(listings))
	for i, l := range listings {
		s := e.scorer.Score(l, profile)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("non-finite score %v for listing %q", s, l.Name)
		}
		scored[i] = scoredListing{listing: l, score: s}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	out = make([]models.Listing, len(scored))
	for i, s := range scored {
		out[i] = s.listing
	}
	return out, nil
}
