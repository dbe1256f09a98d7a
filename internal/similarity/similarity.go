// Package similarity provides text similarity scoring for deduplication and
// answer matching. The default implementation is bag-of-words Jaccard; the
// Matcher interface exists so the metric can be swapped without touching the
// lifecycle logic that depends on it.
package similarity

import (
	"strings"
	"unicode"
)

// Matcher scores the overlap between two text strings.
type Matcher interface {
	// Normalize returns the canonical form of text used for comparison.
	Normalize(text string) string

	// Similarity returns an overlap score in [0,1]. Must be symmetric.
	Similarity(a, b string) float64
}

// JaccardMatcher implements Matcher using word-set Jaccard similarity:
// |intersection| / |union| over normalized word sets.
type JaccardMatcher struct{}

// NewJaccard returns the default Jaccard matcher.
func NewJaccard() *JaccardMatcher {
	return &JaccardMatcher{}
}

// Normalize lowercases the text, strips punctuation, and collapses whitespace.
func (m *JaccardMatcher) Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// Punctuation becomes a word boundary rather than vanishing,
			// so "state-machine" and "state machine" normalize the same.
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns the Jaccard coefficient over the two normalized word sets.
// Two strings that both normalize to nothing compare as identical (1.0); one
// empty side against a non-empty side is 0.0.
func (m *JaccardMatcher) Similarity(a, b string) float64 {
	setA := m.wordSet(a)
	setB := m.wordSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func (m *JaccardMatcher) wordSet(text string) map[string]struct{} {
	words := strings.Fields(m.Normalize(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
