package recommend

import (
	"strconv"
	"strings"

	"vibecheck/movieservice/internal/domain"
	"vibecheck/movieservice/internal/vibe"
)

const maxExplainedKeywords = 3

// Explain builds the human-readable summary for a vibe search.
func Explain(vibeText string, params domain.SearchParameters, resultCount, page int) string {
	var b strings.Builder
	if page > 1 {
		b.WriteString(`Here are more recommendations for your "` + vibeText + `" vibe! `)
	} else {
		b.WriteString(`Based on your vibe "` + vibeText + `", `)
	}

	if len(params.Genres) > 0 {
		b.WriteString("I found " + strings.Join(vibe.GenreNames(params.Genres), " and ") + " movies that should match your mood. ")
	}
	if params.YearRange != nil {
		b.WriteString("I focused on movies from " + params.YearRange.String() + " as requested. ")
	}

	b.WriteString("Here are " + strconv.Itoa(resultCount) + " recommendations perfect for your current vibe!")
	return b.String()
}

// ExplainParams builds the summary for a direct-parameter search.
func ExplainParams(params domain.SearchParameters, resultCount int) string {
	var b strings.Builder
	b.WriteString("Based on your preferences, ")

	if len(params.Genres) > 0 {
		b.WriteString("I found " + strings.Join(vibe.GenreNames(params.Genres), " and ") + " movies ")
	}
	if len(params.Keywords) > 0 {
		keywords := params.Keywords
		if len(keywords) > maxExplainedKeywords {
			keywords = keywords[:maxExplainedKeywords]
		}
		b.WriteString("matching themes like " + strings.Join(keywords, ", ") + " ")
	}
	if params.YearRange != nil {
		b.WriteString("from " + params.YearRange.String() + " ")
	}

	b.WriteString("that should match your mood. Here are " + strconv.Itoa(resultCount) + " recommendations!")
	return b.String()
}
