// internal/models/intent.go
package models

type IntentType string

const (
	IntentBuyReadyMade    IntentType = "buyReadyMade"
	IntentCookFromScratch IntentType = "cookFromScratch"
	IntentHealthyOptions  IntentType = "healthyOptions"
	IntentGeneral         IntentType = "general"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
	MealAny       MealType = "any"
)

// PlatformAll is the platform filter value meaning "every registered platform".
const PlatformAll = "all"

// Intent is the structured reading of a free-text query. It is computed once per
// query and not modified afterwards.
type Intent struct {
	Type           IntentType `json:"type"`
	Cuisine        string     `json:"cuisine,omitempty"`
	MealType       MealType   `json:"mealType"`
	PlatformFilter string     `json:"platformFilter"`
	NormalizedText string     `json:"normalizedText"`
}

// TargetsAllPlatforms reports whether the intent leaves the platform open.
func (i Intent) TargetsAllPlatforms() bool {
	return i.PlatformFilter == "" || i.PlatformFilter == PlatformAll
}
