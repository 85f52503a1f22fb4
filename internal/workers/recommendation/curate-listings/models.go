// internal/workers/recommendation/curate-listings/models.go
package curatelistings

import "food-recommender/internal/models"

type Input struct {
	Listings      []models.Listing   `json:"listings"`
	Profile       models.UserProfile `json:"profile"`
	Limit         int                `json:"limit,omitempty"`
	RankingScheme string             `json:"rankingScheme,omitempty"`
}

type Output struct {
	Listings     []models.Listing `json:"listings"`
	Count        int              `json:"count"`
	RemovedCount int              `json:"removedCount"`
	Scheme       string           `json:"rankingScheme"`
}

const inputSchemaJSON = `{
  "type": "object",
  "required": ["listings", "profile"],
  "properties": {
    "listings": {
      "type": "array",
      "maxItems": 500,
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "price": {"type": "number", "minimum": 0},
          "rating": {"type": "number", "minimum": 0, "maximum": 5},
          "reviewCount": {"type": "integer", "minimum": 0},
          "distanceKm": {"type": ["number", "null"], "minimum": 0}
        }
      }
    },
    "profile": {"type": "object"},
    "limit": {"type": "integer", "minimum": 0},
    "rankingScheme": {"type": "string", "enum": ["", "price_sensitive", "brand_weighted"]}
  }
}`
