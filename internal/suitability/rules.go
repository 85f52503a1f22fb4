// internal/suitability/rules.go
package suitability

import (
	"strings"

	"food-recommender/internal/lexicon"
	"food-recommender/internal/models"
)

// Rule decides whether a listing must be withheld from a profile.
// Rules are independent: any single rejection removes the listing.
type Rule interface {
	Name() string
	Rejects(l models.Listing, p models.UserProfile) (bool, error)
}

// RuleFunc adapts a plain function to Rule.
type RuleFunc struct {
	RuleName string
	Fn       func(l models.Listing, p models.UserProfile) (bool, error)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Rejects(l models.Listing, p models.UserProfile) (bool, error) {
	return r.Fn(l, p)
}

// DefaultRules returns the dietary and allergy rules in evaluation order.
func DefaultRules(lex *lexicon.Lexicon) []Rule {
	if lex == nil {
		lex = lexicon.Default()
	}
	return []Rule{
		vegetarianRestrictionRule{lex: lex},
		veganRule{lex: lex},
		vegetarianHabitRule{lex: lex},
		allergyRule{},
	}
}

type vegetarianRestrictionRule struct{ lex *lexicon.Lexicon }

func (vegetarianRestrictionRule) Name() string { return "vegetarian_restriction" }

func (r vegetarianRestrictionRule) Rejects(l models.Listing, p models.UserProfile) (bool, error) {
	return p.HasRestriction("vegetarian") && hasNonVegMarker(r.lex, l), nil
}

type veganRule struct{ lex *lexicon.Lexicon }

func (veganRule) Name() string { return "vegan" }

func (r veganRule) Rejects(l models.Listing, p models.UserProfile) (bool, error) {
	if !p.HasRestriction("vegan") && p.FoodHabit != models.FoodHabitVegan {
		return false, nil
	}
	if hasNonVegMarker(r.lex, l) {
		return true, nil
	}
	return containsAny(l.SearchText(), r.lex.AnimalWords), nil
}

type vegetarianHabitRule struct{ lex *lexicon.Lexicon }

func (vegetarianHabitRule) Name() string { return "vegetarian_habit" }

func (r vegetarianHabitRule) Rejects(l models.Listing, p models.UserProfile) (bool, error) {
	return p.FoodHabit == models.FoodHabitVegetarian && hasNonVegMarker(r.lex, l), nil
}

type allergyRule struct{}

func (allergyRule) Name() string { return "allergy" }

func (allergyRule) Rejects(l models.Listing, p models.UserProfile) (bool, error) {
	if len(p.Allergies) == 0 {
		return false, nil
	}
	text := l.SearchText() + " " + l.IngredientText()
	for _, a := range p.Allergies {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" && strings.Contains(text, a) {
			return true, nil
		}
	}
	return false, nil
}

// hasNonVegMarker checks for an explicit non-veg tag or a meat word in name or description.
// Words match as substrings, so "veggie" contains "egg" and is rejected.
func hasNonVegMarker(lex *lexicon.Lexicon, l models.Listing) bool {
	for _, tag := range lex.NonVegTags {
		if l.HasTag(tag) {
			return true
		}
	}
	return containsAny(l.SearchText(), lex.NonVegWords)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
