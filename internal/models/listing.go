// internal/models/listing.go
package models

import (
	"fmt"
	"math"
	"strings"
)

// Listing is one candidate result returned by a platform. Listings are value
// objects: the pipeline filters and reorders slices of them but never edits one.
type Listing struct {
	Platform    string   `json:"platform"`
	Name        string   `json:"name" validate:"required"`
	SourceLabel string   `json:"sourceLabel"` // restaurant or brand
	Price       float64  `json:"price" validate:"gte=0"`
	Rating      float64  `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount int      `json:"reviewCount" validate:"gte=0"`
	DistanceKm  *float64 `json:"distanceKm,omitempty" validate:"omitempty,gte=0"`
	Cuisine     string   `json:"cuisine,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Link        string   `json:"link"`
}

// Validate rejects listings whose numbers cannot be scored: a negative price, review
// count or distance, a rating outside [0, 5], or a non-finite value.
func (l Listing) Validate() error {
	if err := structValidator.Struct(l); err != nil {
		return err
	}
	if math.IsInf(l.Price, 0) {
		return fmt.Errorf("listing %q: price is not finite", l.Name)
	}
	if l.DistanceKm != nil && (math.IsInf(*l.DistanceKm, 0) || math.IsNaN(*l.DistanceKm)) {
		return fmt.Errorf("listing %q: distance is not finite", l.Name)
	}
	return nil
}

// HasTag reports whether the listing carries tag, ignoring case and surrounding space.
func (l Listing) HasTag(tag string) bool {
	want := strings.ToLower(strings.TrimSpace(tag))
	for _, t := range l.Tags {
		if strings.ToLower(strings.TrimSpace(t)) == want {
			return true
		}
	}
	return false
}

// SearchText is the lower-cased name and description joined by a space.
func (l Listing) SearchText() string {
	return strings.ToLower(l.Name + " " + l.Description)
}

// IngredientText is the lower-cased ingredient list joined by spaces.
func (l Listing) IngredientText() string {
	return strings.ToLower(strings.Join(l.Ingredients, " "))
}

// Km is a helper for building listings with a known distance.
func Km(v float64) *float64 {
	return &v
}
