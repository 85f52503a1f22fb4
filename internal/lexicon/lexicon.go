// internal/lexicon/lexicon.go
package lexicon

import "strings"

// Group maps one concept (a cuisine, a meal, a platform, an intent) to its trigger words.
type Group struct {
	Name     string
	Keywords []string
}

// Table is an ordered list of groups. Lookups return the first group that matches,
// so the order of the table is the tie-break.
type Table []Group

// MatchSubstring returns the name of the first group with a keyword contained in text.
// text is expected to be lower-cased already.
func (t Table) MatchSubstring(text string) (string, bool) {
	for _, g := range t {
		for _, kw := range g.Keywords {
			if kw != "" && strings.Contains(text, kw) {
				return g.Name, true
			}
		}
	}
	return "", false
}

// MatchTokens returns the name of the first group with a keyword present in tokens.
// Multi-word keywords are matched as a phrase against phrase, which should be the
// lower-cased punctuation-free text with single spaces.
func (t Table) MatchTokens(tokens []string, phrase string) (string, bool) {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	padded := " " + phrase + " "
	for _, g := range t {
		for _, kw := range g.Keywords {
			if strings.Contains(kw, " ") {
				if strings.Contains(padded, " "+kw+" ") {
					return g.Name, true
				}
				continue
			}
			if _, ok := set[kw]; ok {
				return g.Name, true
			}
		}
	}
	return "", false
}

// Names lists the group names in table order.
func (t Table) Names() []string {
	out := make([]string, len(t))
	for i, g := range t {
		out[i] = g.Name
	}
	return out
}

// Lexicon holds every keyword table the classifier and the filter read.
// It is built once and only read afterwards.
type Lexicon struct {
	Intents   Table
	Cuisines  Table
	Meals     Table
	Platforms Table
	StopWords map[string]struct{}

	NonVegTags  []string
	NonVegWords []string
	AnimalWords []string // rejected for vegan profiles
}

// IsStopWord reports whether tok is dropped during normalization.
func (l *Lexicon) IsStopWord(tok string) bool {
	_, ok := l.StopWords[tok]
	return ok
}

// Default returns the built-in lexicon.
func Default() *Lexicon {
	return &Lexicon{
		Intents: Table{
			{Name: "cookFromScratch", Keywords: []string{"recipe", "make", "cook", "prepare", "homemade"}},
			{Name: "buyReadyMade", Keywords: []string{"buy", "order", "deliver", "restaurant", "near me"}},
			{Name: "healthyOptions", Keywords: []string{"healthy", "diet", "nutrition"}},
		},
		Cuisines: Table{
			{Name: "indian", Keywords: []string{"indian", "curry", "biryani", "tandoori"}},
			{Name: "italian", Keywords: []string{"italian", "pasta", "pizza", "risotto"}},
			{Name: "chinese", Keywords: []string{"chinese", "noodles", "dim sum", "szechuan"}},
			{Name: "mexican", Keywords: []string{"mexican", "taco", "burrito", "quesadilla"}},
		},
		Meals: Table{
			{Name: "breakfast", Keywords: []string{"breakfast", "pancake", "omelet"}},
			{Name: "lunch", Keywords: []string{"lunch", "sandwich", "salad"}},
			{Name: "dinner", Keywords: []string{"dinner", "steak", "grill"}},
			{Name: "snack", Keywords: []string{"snack", "appetizer", "finger food"}},
		},
		Platforms: Table{
			{Name: "swiggy", Keywords: []string{"swiggy"}},
			{Name: "zomato", Keywords: []string{"zomato"}},
			{Name: "blinkit", Keywords: []string{"blinkit"}},
			{Name: "bigbasket", Keywords: []string{"bigbasket", "big basket"}},
		},
		StopWords:   toSet(stopWords),
		NonVegTags:  []string{"non-veg", "nonveg", "non-vegetarian"},
		NonVegWords: []string{"chicken", "meat", "fish", "egg"},
		AnimalWords: []string{"dairy", "cheese", "milk", "honey"},
	}
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// English function words. Must not overlap the intent triggers.
var stopWords = []string{
	"a", "about", "above", "after", "again", "all", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "could", "did", "do", "does", "doing", "down", "during",
	"each", "few", "for", "from", "further",
	"get", "had", "has", "have", "having", "he", "her", "here", "hers", "him", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "itself", "just",
	"me", "more", "most", "my", "myself", "no", "nor", "not", "now",
	"of", "off", "on", "once", "only", "or", "other", "our", "ours", "out", "over", "own",
	"please", "same", "she", "should", "so", "some", "such",
	"than", "that", "the", "their", "them", "then", "there", "these", "they", "this", "those",
	"through", "to", "too", "under", "until", "up", "very",
	"want", "was", "we", "were", "what", "when", "where", "which", "while", "who", "whom", "why",
	"will", "with", "would", "you", "your", "yours",
}
