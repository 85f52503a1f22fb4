// internal/workers/recommendation/update-user-profile/models.go
package updateuserprofile

import "food-recommender/internal/models"

type Input struct {
	UserID string               `json:"userId"`
	Update models.ProfileUpdate `json:"update"`
}

type Output struct {
	Profile *models.UserProfile `json:"profile"`
	Updated bool                `json:"updated"`
}

const inputSchemaJSON = `{
  "type": "object",
  "required": ["userId", "update"],
  "properties": {
    "userId": {"type": "string", "minLength": 1, "maxLength": 100},
    "update": {
      "type": "object",
      "properties": {
        "dietaryRestrictions": {"type": "array", "items": {"type": "string"}},
        "allergies": {"type": "array", "items": {"type": "string"}},
        "foodHabit": {"type": "string"},
        "cuisinePreferences": {"type": "array", "items": {"type": "string"}},
        "preferredBrands": {"type": "array", "items": {"type": "string"}},
        "location": {"type": "string"}
      },
      "additionalProperties": false
    }
  }
}`
