package vibe

import (
	"strings"
	"unicode"
)

// Matcher decides whether a lexicon key applies to an already lowercased
// vibe.
type Matcher interface {
	Match(vibe, key string) bool
}

// SubstringMatcher matches a key anywhere in the vibe, including inside
// longer words ("new" matches "renewed").
type SubstringMatcher struct{}

func (SubstringMatcher) Match(vibe, key string) bool {
	return strings.Contains(vibe, key)
}

// WordMatcher only matches keys that start and end on word boundaries.
// Hyphens count as word characters so "sci-fi" and "feel-good" stay whole.
type WordMatcher struct{}

func (WordMatcher) Match(vibe, key string) bool {
	if key == "" {
		return false
	}
	offset := 0
	for {
		idx := strings.Index(vibe[offset:], key)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(key)
		if isBoundary(vibe, start-1) && isBoundary(vibe, end) {
			return true
		}
		offset = start + 1
	}
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r := rune(s[i])
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r >= 0x80)
}
