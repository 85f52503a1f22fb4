// internal/workers/recommendation/recommend-listings/models.go
package recommendlistings

import (
	"food-recommender/internal/models"
	"food-recommender/internal/pipeline"
)

type Input struct {
	Query       string              `json:"query"`
	UserID      string              `json:"userId,omitempty"`
	Profile     *models.UserProfile `json:"profile,omitempty"`
	EnrichQuery *bool               `json:"enrichQuery,omitempty"`
}

type Output struct {
	RequestID string                     `json:"requestId"`
	Intent    models.Intent              `json:"intent"`
	Results   []models.Listing           `json:"results"`
	Count     int                        `json:"count"`
	Platforms []pipeline.PlatformOutcome `json:"platforms"`
}

const inputSchemaJSON = `{
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "maxLength": 500},
    "userId": {"type": "string"},
    "enrichQuery": {"type": "boolean"},
    "profile": {
      "type": "object",
      "properties": {
        "dietaryRestrictions": {"type": ["array", "null"], "items": {"type": "string"}},
        "allergies": {"type": ["array", "null"], "items": {"type": "string"}},
        "foodHabit": {"type": "string"},
        "cuisinePreferences": {"type": ["array", "null"], "items": {"type": "string"}},
        "preferredBrands": {"type": ["array", "null"], "items": {"type": "string"}},
        "location": {"type": "string"}
      }
    }
  },
  "anyOf": [
    {"required": ["userId"]},
    {"required": ["profile"]}
  ]
}`
