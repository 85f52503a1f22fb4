// internal/workers/recommendation/classify-query-intent/models.go
package classifyqueryintent

import "food-recommender/internal/models"

type Input struct {
	Query   string              `json:"query"`
	Profile *models.UserProfile `json:"profile,omitempty"`
}

type Output struct {
	Intent models.Intent `json:"intent"`
	// SearchQuery is the query enriched with diet, allergy and location hints.
	SearchQuery string `json:"searchQuery"`
}
