// Package extract derives structured intelligence fields from raw article
// text. The extractor is a pure function over its input: identical text
// always produces an identical result, which keeps reprocessing comparable
// across runs.
package extract

import (
	"sort"
	"strings"
	"unicode"

	"intel-system/internal/store"
)

const maxKeywords = 10

// Result is the structured output of one extraction pass.
type Result struct {
	Category  store.Category
	Sentiment float64
	Entities  store.EntitySet
	Keywords  []string
}

// Extractor is the pluggable extraction capability. Implementations may
// error; callers are expected to downgrade any error to Neutral() rather
// than abort the article.
type Extractor interface {
	Extract(text string) (Result, error)
}

// Neutral is the result used when extraction cannot classify: empty input,
// too-short content, or a failed capability.
func Neutral() Result {
	return Result{
		Category:  store.CategoryUnknown,
		Sentiment: 0.0,
		Entities: store.EntitySet{
			People:        []string{},
			Organizations: []string{},
			Locations:     []string{},
		},
		Keywords: []string{},
	}
}

// Lexicon is a deterministic, dependency-free extractor built on keyword
// lexicons and name gazetteers.
type Lexicon struct{}

var _ Extractor = (*Lexicon)(nil)

// NewLexicon returns the lexicon-backed extractor.
func NewLexicon() *Lexicon {
	return &Lexicon{}
}

// Extract never fails; the error is part of the Extractor contract only.
func (l *Lexicon) Extract(text string) (Result, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Neutral(), nil
	}

	result := Neutral()
	result.Category = classify(tokens)
	result.Sentiment = score(tokens)
	result.Entities = findEntities(tokens)
	result.Keywords = rankKeywords(tokens)
	return result, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
}

func classify(tokens []string) store.Category {
	counts := make(map[store.Category]int, len(categoryOrder))
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		for _, cat := range categoryOrder {
			if categoryWords[cat][lower] {
				counts[cat]++
			}
		}
	}

	best := store.CategoryUnknown
	bestCount := 0
	for _, cat := range categoryOrder {
		if counts[cat] > bestCount {
			best = cat
			bestCount = counts[cat]
		}
	}
	return best
}

func score(tokens []string) float64 {
	var pos, neg int
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if positiveWords[lower] {
			pos++
		}
		if negativeWords[lower] {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0.0
	}
	return float64(pos-neg) / float64(pos+neg)
}

func findEntities(tokens []string) store.EntitySet {
	set := store.EntitySet{
		People:        []string{},
		Organizations: []string{},
		Locations:     []string{},
	}
	seen := map[string]bool{}

	add := func(bucket *[]string, name string) {
		if !seen[name] {
			seen[name] = true
			*bucket = append(*bucket, name)
		}
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if i+1 < len(tokens) {
			pair := tok + " " + tokens[i+1]
			if orgNames.pairs[pair] {
				add(&set.Organizations, pair)
				i++
				continue
			}
			if locationNames.pairs[pair] {
				add(&set.Locations, pair)
				i++
				continue
			}
		}

		if orgNames.single[tok] {
			add(&set.Organizations, tok)
			continue
		}
		if locationNames.single[tok] {
			add(&set.Locations, tok)
			continue
		}

		// "President Petrov", "Prime Minister Novak": the name is the run of
		// capitalized tokens after the title, at most two.
		lower := strings.ToLower(tok)
		if lower == "prime" && i+1 < len(tokens) && strings.ToLower(tokens[i+1]) == "minister" {
			i++
			lower = "minister"
		}
		if personTitles[lower] {
			name := capitalizedRun(tokens, i+1, 2)
			if name != "" && !locationNames.single[name] && !orgNames.single[name] {
				add(&set.People, name)
			}
		}
	}
	return set
}

func capitalizedRun(tokens []string, start, max int) string {
	var parts []string
	for i := start; i < len(tokens) && len(parts) < max; i++ {
		r := []rune(tokens[i])
		if len(r) == 0 || !unicode.IsUpper(r[0]) {
			break
		}
		parts = append(parts, tokens[i])
	}
	return strings.Join(parts, " ")
}

func rankKeywords(tokens []string) []string {
	counts := map[string]int{}
	firstSeen := map[string]int{}
	for i, tok := range tokens {
		lower := strings.ToLower(tok)
		if len(lower) < 4 || stopWords[lower] {
			continue
		}
		if _, ok := firstSeen[lower]; !ok {
			firstSeen[lower] = i
		}
		counts[lower]++
	}

	keywords := make([]string, 0, len(counts))
	for w := range counts {
		keywords = append(keywords, w)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return firstSeen[keywords[i]] < firstSeen[keywords[j]]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}
