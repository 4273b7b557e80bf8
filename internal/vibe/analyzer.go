package vibe

import (
	"strings"

	"vibecheck/movieservice/internal/domain"
)

// MaxGenres caps how many distinct genres an analysis keeps.
const MaxGenres = 2

type Analyzer struct {
	lexicon *Lexicon
	matcher Matcher
}

type AnalyzerOption func(*Analyzer)

func WithMatcher(matcher Matcher) AnalyzerOption {
	return func(a *Analyzer) {
		if matcher != nil {
			a.matcher = matcher
		}
	}
}

func NewAnalyzer(lexicon *Lexicon, opts ...AnalyzerOption) *Analyzer {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	analyzer := &Analyzer{
		lexicon: lexicon,
		matcher: SubstringMatcher{},
	}
	for _, opt := range opts {
		opt(analyzer)
	}
	return analyzer
}

// Analyze scans the vibe against every lexicon key. Genres keep the first
// MaxGenres distinct ids in match order, keywords are deduplicated without
// a cap, and the year range of the last matching entry wins.
func (a *Analyzer) Analyze(vibe string) domain.SearchParameters {
	lower := strings.ToLower(vibe)

	var (
		genres    []int
		keywords  []string
		yearRange *domain.YearRange
	)
	for _, entry := range a.lexicon.Entries() {
		if !a.matcher.Match(lower, entry.Key) {
			continue
		}
		genres = append(genres, entry.Hint.Genres...)
		keywords = append(keywords, entry.Hint.Keywords...)
		if entry.Hint.YearRange != nil {
			value := *entry.Hint.YearRange
			yearRange = &value
		}
	}

	genres = uniqueInts(genres)
	if len(genres) > MaxGenres {
		genres = genres[:MaxGenres]
	}
	return domain.SearchParameters{
		Genres:    genres,
		Keywords:  uniqueStrings(keywords),
		YearRange: yearRange,
	}
}

func uniqueInts(values []int) []int {
	out := make([]int, 0, len(values))
	seen := make(map[int]struct{}, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
