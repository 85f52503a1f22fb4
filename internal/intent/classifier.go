// internal/intent/classifier.go
package intent

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"food-recommender/internal/common/logger"
	"food-recommender/internal/lexicon"
	"food-recommender/internal/models"
)

var ErrEmptyQuery = errors.New("EMPTY_QUERY")

// Classifier turns a free-text query into an Intent using keyword tables only.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	lex    *lexicon.Lexicon
	logger logger.Logger
}

func NewClassifier(lex *lexicon.Lexicon, log logger.Logger) *Classifier {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Classifier{
		lex:    lex,
		logger: log.WithFields(map[string]interface{}{"component": "intent-classifier"}),
	}
}

// Classify never fails. When the query cannot be classified it returns the fallback
// intent built from the profile.
func (c *Classifier) Classify(rawQuery string, profile models.UserProfile) models.Intent {
	result, err := c.classify(rawQuery, profile)
	if err != nil {
		c.logger.Warn("intent classification degraded", map[string]interface{}{
			"error": err.Error(),
			"query": rawQuery,
		})
		return Fallback(rawQuery, profile)
	}
	return result
}

// Fallback is the intent used when classification fails.
func Fallback(rawQuery string, profile models.UserProfile) models.Intent {
	return models.Intent{
		Type:           models.IntentGeneral,
		Cuisine:        profile.PrimaryCuisine(),
		MealType:       models.MealAny,
		PlatformFilter: models.PlatformAll,
		NormalizedText: strings.ToLower(rawQuery),
	}
}

func (c *Classifier) classify(rawQuery string, profile models.UserProfile) (result models.Intent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	lowered := strings.ToLower(strings.TrimSpace(rawQuery))
	if lowered == "" {
		return models.Intent{}, ErrEmptyQuery
	}

	phrase := stripPunctuation(lowered)
	if phrase == "" {
		return models.Intent{}, ErrEmptyQuery
	}
	tokens := c.tokenize(phrase)

	result = models.Intent{
		Type:           models.IntentGeneral,
		MealType:       models.MealAny,
		PlatformFilter: models.PlatformAll,
		NormalizedText: strings.Join(tokens, " "),
	}

	if name, ok := c.lex.Intents.MatchTokens(tokens, phrase); ok {
		result.Type = models.IntentType(name)
	}

	if name, ok := c.lex.Cuisines.MatchSubstring(lowered); ok {
		result.Cuisine = name
	} else {
		result.Cuisine = profile.PrimaryCuisine()
	}

	if name, ok := c.lex.Meals.MatchSubstring(lowered); ok {
		result.MealType = models.MealType(name)
	}

	if name, ok := c.lex.Platforms.MatchSubstring(lowered); ok {
		result.PlatformFilter = name
	}

	return result, nil
}

// tokenize splits on whitespace and drops stop words.
func (c *Classifier) tokenize(phrase string) []string {
	fields := strings.Fields(phrase)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if c.lex.IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// stripPunctuation replaces anything that is not a letter, digit or space with a
// space and collapses runs of whitespace.
func stripPunctuation(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(cleaned), " ")
}
