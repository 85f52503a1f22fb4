// internal/models/profile.go
package models

import "strings"

type FoodHabit string

const (
	FoodHabitOmnivore   FoodHabit = "omnivore"
	FoodHabitVegetarian FoodHabit = "vegetarian"
	FoodHabitVegan      FoodHabit = "vegan"
	FoodHabitOther      FoodHabit = "other"
)

// ParseFoodHabit maps stored or user-entered values onto a FoodHabit.
// Legacy values such as "non-vegetarian" map to omnivore; anything unknown is other.
func ParseFoodHabit(s string) FoodHabit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "omnivore", "non-vegetarian", "non-veg", "nonveg", "":
		return FoodHabitOmnivore
	case "vegetarian", "veg":
		return FoodHabitVegetarian
	case "vegan":
		return FoodHabitVegan
	default:
		return FoodHabitOther
	}
}

// UserProfile is the per-request view of a user's dietary constraints and preferences.
// Empty collections mean "no constraint".
type UserProfile struct {
	ID                  string    `json:"id"`
	DietaryRestrictions []string  `json:"dietaryRestrictions"`
	Allergies           []string  `json:"allergies"`
	FoodHabit           FoodHabit `json:"foodHabit"`
	CuisinePreferences  []string  `json:"cuisinePreferences"`
	PreferredBrands     []string  `json:"preferredBrands"`
	Location            string    `json:"location"`
}

// Normalize returns a copy whose token collections are lower-cased, trimmed and
// de-duplicated. Cuisine preferences keep their order.
func (p UserProfile) Normalize() UserProfile {
	out := p
	out.DietaryRestrictions = NormalizeTokens(p.DietaryRestrictions)
	out.Allergies = NormalizeTokens(p.Allergies)
	out.PreferredBrands = NormalizeTokens(p.PreferredBrands)
	out.CuisinePreferences = NormalizeTokens(p.CuisinePreferences)
	out.FoodHabit = ParseFoodHabit(string(p.FoodHabit))
	out.Location = strings.TrimSpace(p.Location)
	return out
}

func (p UserProfile) HasRestriction(r string) bool {
	return containsToken(p.DietaryRestrictions, r)
}

func (p UserProfile) PrefersCuisine(c string) bool {
	return c != "" && containsToken(p.CuisinePreferences, c)
}

// PrimaryCuisine is the first preferred cuisine, or "" when none is set.
func (p UserProfile) PrimaryCuisine() string {
	for _, c := range p.CuisinePreferences {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			return c
		}
	}
	return ""
}

// NormalizeTokens lower-cases and trims every token, dropping empties and duplicates.
// The result is never nil.
func NormalizeTokens(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SplitTokens splits a comma separated string ("peanut, soy") into normalized tokens.
func SplitTokens(s string) []string {
	return NormalizeTokens(strings.Split(s, ","))
}

func containsToken(set []string, tok string) bool {
	tok = strings.ToLower(strings.TrimSpace(tok))
	for _, s := range set {
		if strings.ToLower(strings.TrimSpace(s)) == tok {
			return true
		}
	}
	return false
}
