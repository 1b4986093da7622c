// Package textmatch scores the similarity of bank statement descriptions.
package textmatch

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// descriptionBlend weights the sequence ratio against the token-set overlap.
// Statement descriptions often carry stable merchant prefixes with noisy
// suffixes (branch codes, reference numbers), which the token overlap absorbs.
const (
	sequenceWeight = 0.6
	tokenWeight    = 0.4
)

// Normalize lowercases and trims a description for comparison.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// SequenceRatio returns a 0..1 similarity based on Levenshtein distance over
// the normalized strings. The default options charge 2 for a substitution, so
// the distance is normalized by the combined length (difflib-style ratio)
// rather than the longer string alone.
func SequenceRatio(a, b string) float64 {
	a = Normalize(a)
	b = Normalize(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	ratio := levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	if ratio < 0 {
		return 0.0
	}
	if ratio > 1 {
		return 1.0
	}
	return ratio
}

// TokenSetRatio returns the Jaccard overlap of the whitespace-separated token
// sets of the two normalized strings.
func TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

// DescriptionSimilarity blends the sequence ratio (60%) with the token-set
// overlap (40%) into a single 0..1 similarity.
func DescriptionSimilarity(a, b string) float64 {
	return sequenceWeight*SequenceRatio(a, b) + tokenWeight*TokenSetRatio(a, b)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(Normalize(s)) {
		set[token] = struct{}{}
	}
	return set
}
