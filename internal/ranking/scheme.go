// internal/ranking/scheme.go
package ranking

import (
	"fmt"
	"math"
	"strings"

	"food-recommender/internal/models"
)

const (
	SchemePriceSensitive = "price_sensitive"
	SchemeBrandWeighted  = "brand_weighted"
)

// PriceBand is a flat bonus for listings priced below Below.
type PriceBand struct {
	Below float64
	Bonus float64
}

// Scheme holds the weights of one scoring variant. A zero weight disables its term.
type Scheme struct {
	Name string

	CuisineMatch float64
	BrandMatch   float64
	RatingWeight float64

	ReviewFactor float64
	ReviewCap    float64

	// Smooth price term 1/(1+price/PriceScale); used when PriceBands is empty.
	PriceScale float64
	PriceBands []PriceBand
	PriceFloor float64 // bonus when no band matches

	PreferredSources []string
	SourceBonus      float64

	DistancePenalty float64
}

// PriceSensitive favours cuisine matches, good ratings and cheaper listings.
func PriceSensitive() Scheme {
	return Scheme{
		Name:            SchemePriceSensitive,
		CuisineMatch:    2.0,
		RatingWeight:    0.5,
		ReviewFactor:    0.05,
		ReviewCap:       1.0,
		PriceScale:      100,
		DistancePenalty: 0.1,
	}
}

// BrandWeighted favours preferred brands and well-reviewed grocery sources.
func BrandWeighted() Scheme {
	return Scheme{
		Name:         SchemeBrandWeighted,
		BrandMatch:   30,
		RatingWeight: 5,
		ReviewFactor: 0.2,
		ReviewCap:    20,
		PriceBands: []PriceBand{
			{Below: 100, Bonus: 15},
			{Below: 500, Bonus: 10},
		},
		PriceFloor:       5,
		PreferredSources: []string{"bigbasket", "natures basket", "nature's basket"},
		SourceBonus:      10,
		DistancePenalty:  0.1,
	}
}

// SchemeByName resolves a configured scheme name. An empty name selects price_sensitive.
func SchemeByName(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SchemePriceSensitive:
		return PriceSensitive(), nil
	case SchemeBrandWeighted:
		return BrandWeighted(), nil
	default:
		return Scheme{}, fmt.Errorf("unknown ranking scheme %q", name)
	}
}

// Score sums every applicable term for l under profile.
func (s Scheme) Score(l models.Listing, profile models.UserProfile) float64 {
	score := 0.0

	if s.CuisineMatch != 0 && profile.PrefersCuisine(l.Cuisine) {
		score += s.CuisineMatch
	}

	if s.BrandMatch != 0 && matchesBrand(l.SourceLabel, profile.PreferredBrands) {
		score += s.BrandMatch
	}

	score += l.Rating * s.RatingWeight

	if l.ReviewCount > 0 {
		score += math.Min(s.ReviewCap, math.Sqrt(float64(l.ReviewCount))*s.ReviewFactor)
	}

	score += s.priceTerm(l.Price)

	if s.SourceBonus != 0 && isPreferredSource(l, s.PreferredSources) {
		score += s.SourceBonus
	}

	if l.DistanceKm != nil {
		score -= *l.DistanceKm * s.DistancePenalty
	}

	return score
}

func (s Scheme) priceTerm(price float64) float64 {
	if len(s.PriceBands) > 0 {
		for _, b := range s.PriceBands {
			if price < b.Below {
				return b.Bonus
			}
		}
		return s.PriceFloor
	}
	if s.PriceScale > 0 {
		return 1 / (1 + price/s.PriceScale)
	}
	return 0
}

func matchesBrand(label string, brands []string) bool {
	label = strings.ToLower(label)
	for _, b := range brands {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" && strings.Contains(label, b) {
			return true
		}
	}
	return false
}

func isPreferredSource(l models.Listing, sources []string) bool {
	platform := strings.ToLower(l.Platform)
	label := strings.ToLower(l.SourceLabel)
	for _, src := range sources {
		if platform == src || strings.Contains(label, src) {
			return true
		}
	}
	return false
}
