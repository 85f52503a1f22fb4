// internal/retrieval/fixture.go
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"food-recommender/internal/models"
)

// FixtureProvider serves a fixed catalogue. A listing matches when any query word
// appears in its name, description, cuisine, source or tags. Results keep catalogue order.
type FixtureProvider struct {
	platform string
	listings []models.Listing
	maxItems int
}

// NewFixtureProvider copies listings, leaving out any that fail Listing.Validate.
func NewFixtureProvider(platform string, listings []models.Listing, maxItems int) *FixtureProvider {
	owned := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Validate() == nil {
			owned = append(owned, l)
		}
	}
	return &FixtureProvider{
		platform: platform,
		listings: stamp(platform, owned),
		maxItems: maxItems,
	}
}

// LoadFixtureFile reads a JSON array of listings from path.
func LoadFixtureFile(platform, path string, maxItems int) (*FixtureProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return NewFixtureProvider(platform, listings, maxItems), nil
}

func (p *FixtureProvider) Search(ctx context.Context, query, _ string) ([]models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(query))
	out := make([]models.Listing, 0)
	for _, l := range p.listings {
		if matchesAny(l, words) {
			out = append(out, l)
		}
	}
	return limit(out, p.maxItems), nil
}

func matchesAny(l models.Listing, words []string) bool {
	text := strings.ToLower(strings.Join([]string{
		l.Name, l.Description, l.Cuisine, l.SourceLabel, strings.Join(l.Tags, " "),
	}, " "))
	for _, w := range words {
		if len(w) > 2 && strings.Contains(text, w) {
			return true
		}
	}
	return false
}
