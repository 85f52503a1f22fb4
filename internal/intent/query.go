// internal/intent/query.go
package intent

import (
	"strings"

	"food-recommender/internal/models"
)

// BuildSearchQuery enriches the raw query with the profile's diet, "<allergy>-free"
// markers and, for buy intents, "near <location>".
func BuildSearchQuery(rawQuery string, in models.Intent, profile models.UserProfile) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(rawQuery))

	switch {
	case profile.FoodHabit == models.FoodHabitVegan || profile.HasRestriction("vegan"):
		b.WriteString(" vegan")
	case profile.FoodHabit == models.FoodHabitVegetarian || profile.HasRestriction("vegetarian"):
		b.WriteString(" vegetarian")
	}

	for _, a := range models.NormalizeTokens(profile.Allergies) {
		b.WriteString(" ")
		b.WriteString(a)
		b.WriteString("-free")
	}

	if loc := strings.TrimSpace(profile.Location); loc != "" && in.Type == models.IntentBuyReadyMade {
		b.WriteString(" near ")
		b.WriteString(loc)
	}

	return strings.TrimSpace(b.String())
}
