package memory

import (
	"math"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

const (
	titleWeight   = 1.0
	contentWeight = 0.4
)

// tokenize lowercases text and splits it into Porter2 stems, dropping
// English stop words the way to_tsvector('english') does.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if english.IsStopWord(f) {
			continue
		}
		tokens = append(tokens, stem(f))
	}
	return tokens
}

func stem(word string) string {
	return english.Stem(word, true)
}

func uniqueTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range tokenize(query) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// rank scores a document against terms. Every term must occur in the title
// or the content; title hits weigh more and longer documents are damped.
func rank(terms []string, title, content string) float64 {
	titleTokens := tokenize(title)
	titleFreq := frequencies(titleTokens)
	contentTokens := tokenize(content)
	contentFreq := frequencies(contentTokens)

	var score float64
	for _, term := range terms {
		hits := titleWeight*float64(titleFreq[term]) + contentWeight*float64(contentFreq[term])
		if hits == 0 {
			return 0
		}
		score += hits
	}
	length := len(titleTokens) + len(contentTokens)
	return score / (1 + math.Log1p(float64(length)))
}

func frequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}
