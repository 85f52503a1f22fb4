// internal/retrieval/provider.go
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"food-recommender/internal/models"
)

// Provider returns raw candidate listings from one platform.
// Implementations must honour ctx cancellation where they can.
type Provider interface {
	Search(ctx context.Context, query, location string) ([]models.Listing, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, query, location string) ([]models.Listing, error)

func (f ProviderFunc) Search(ctx context.Context, query, location string) ([]models.Listing, error) {
	return f(ctx, query, location)
}

// Platform is a named provider. Registration order is platform priority.
type Platform struct {
	Name     string
	Provider Provider
}

// Registry is the ordered set of platforms the pipeline can query.
// It is built once at startup and only read afterwards.
type Registry struct {
	platforms []Platform
	index     map[string]int
}

func NewRegistry(platforms ...Platform) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(platforms))}
	for _, p := range platforms {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return nil, fmt.Errorf("platform name is required")
		}
		if p.Provider == nil {
			return nil, fmt.Errorf("platform %s has no provider", name)
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("platform %s registered twice", name)
		}
		r.index[name] = len(r.platforms)
		r.platforms = append(r.platforms, Platform{Name: name, Provider: p.Provider})
	}
	return r, nil
}

// Platforms returns every registered platform in priority order.
func (r *Registry) Platforms() []Platform {
	out := make([]Platform, len(r.platforms))
	copy(out, r.platforms)
	return out
}

func (r *Registry) Lookup(name string) (Provider, bool) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return r.platforms[i].Provider, true
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.platforms))
	for i, p := range r.platforms {
		out[i] = p.Name
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.platforms)
}

// stamp sets the platform name on listings that do not carry one.
func stamp(platform string, listings []models.Listing) []models.Listing {
	for i := range listings {
		if listings[i].Platform == "" {
			listings[i].Platform = platform
		}
	}
	return listings
}

// limit truncates listings to max items when max is positive.
func limit(listings []models.Listing, max int) []models.Listing {
	if max > 0 && len(listings) > max {
		return listings[:max]
	}
	return listings
}
