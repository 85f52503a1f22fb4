// internal/suitability/filter.go
package suitability

import (
	"fmt"

	apperrors "food-recommender/internal/common/errors"
	"food-recommender/internal/common/logger"
	"food-recommender/internal/common/metrics"
	"food-recommender/internal/models"
)

const stage = "filter"

// Filter removes listings that violate a profile's dietary, food-habit or allergy
// constraints. It never fails: if a rule errors or panics the unfiltered input is returned.
type Filter struct {
	rules  []Rule
	logger logger.Logger
}

func NewFilter(rules []Rule, log logger.Logger) *Filter {
	if rules == nil {
		rules = DefaultRules(nil)
	}
	return &Filter{
		rules:  rules,
		logger: log.WithFields(map[string]interface{}{"component": "suitability-filter"}),
	}
}

// Apply returns the order-preserving subsequence of listings the profile may see.
func (f *Filter) Apply(listings []models.Listing, profile models.UserProfile) []models.Listing {
	kept, rejected, err := f.apply(listings, profile)
	if err != nil {
		degradation := apperrors.NewInternalDegradationError(stage, err)
		metrics.Degradations.WithLabelValues(stage).Inc()
		f.logger.Error("suitability filter failed open", map[string]interface{}{
			"errorCode":  string(degradation.Code),
			"details":    degradation.Details,
			"inputCount": len(listings),
		})
		return listings
	}

	for rule, n := range rejected {
		metrics.ListingsFiltered.WithLabelValues(rule).Add(float64(n))
	}
	f.logger.Debug("listings filtered", map[string]interface{}{
		"inputCount":  len(listings),
		"outputCount": len(kept),
	})
	return kept
}

func (f *Filter) apply(listings []models.Listing, profile models.UserProfile) (kept []models.Listing, rejected map[string]int, err error) {
	defer func() {
		if r := recover(); r != nil {
			kept, rejected = nil, nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	kept = make([]models.Listing, 0, len(listings))
	rejected = make(map[string]int)

	for _, l := range listings {
		name, reject, ruleErr := f.evaluate(l, profile)
		if ruleErr != nil {
			return nil, nil, fmt.Errorf("rule %s: %w", name, ruleErr)
		}
		if reject {
			rejected[name]++
			continue
		}
		kept = append(kept, l)
	}
	return kept, rejected, nil
}

// evaluate returns the first rule that rejects l.
func (f *Filter) evaluate(l models.Listing, profile models.UserProfile) (string, bool, error) {
	for _, r := range f.rules {
		reject, err := r.Rejects(l, profile)
		if err != nil {
			return r.Name(), false, err
		}
		if reject {
			return r.Name(), true, nil
		}
	}
	return "", false, nil
}
