package recommend

import (
	"strings"
	"testing"

	"vibecheck/movieservice/internal/domain"
)

func TestExplain(t *testing.T) {
	tests := []struct {
		name        string
		vibe        string
		params      domain.SearchParameters
		resultCount int
		page        int
		want        string
	}{
		{
			name:        "genres on first page",
			vibe:        "breakup",
			params:      domain.SearchParameters{Genres: []int{18, 10749}},
			resultCount: 5,
			page:        1,
			want:        `Based on your vibe "breakup", I found Drama and Romance movies that should match your mood. Here are 5 recommendations perfect for your current vibe!`,
		},
		{
			name:        "later page with years",
			vibe:        "90s action",
			params:      domain.SearchParameters{Genres: []int{28}, YearRange: &domain.YearRange{Start: 1990, End: 1999}},
			resultCount: 8,
			page:        2,
			want:        `Here are more recommendations for your "90s action" vibe! I found Action movies that should match your mood. I focused on movies from 1990-1999 as requested. Here are 8 recommendations perfect for your current vibe!`,
		},
		{
			name:        "no genres",
			vibe:        "zorblax",
			resultCount: 0,
			page:        1,
			want:        `Based on your vibe "zorblax", Here are 0 recommendations perfect for your current vibe!`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Explain(tt.vibe, tt.params, tt.resultCount, tt.page); got != tt.want {
				t.Fatalf("explanation =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestExplainMentionsGenresAndCount(t *testing.T) {
	got := Explain("date night", domain.SearchParameters{Genres: []int{18, 10749}}, 5, 1)
	if !strings.Contains(got, "Drama") || !strings.Contains(got, "Romance") {
		t.Fatalf("explanation misses genre names: %q", got)
	}
	sentences := strings.Split(strings.TrimSpace(got), ". ")
	if last := sentences[len(sentences)-1]; !strings.Contains(last, "5") {
		t.Fatalf("closing clause %q should mention the count", last)
	}
}

func TestExplainParams(t *testing.T) {
	got := ExplainParams(domain.SearchParameters{
		Genres:    []int{878},
		Keywords:  []string{"space", "robots", "ai", "dystopia"},
		YearRange: &domain.YearRange{Start: 2010, End: 2020},
	}, 3)
	want := "Based on your preferences, I found Science Fiction movies matching themes like space, robots, ai from 2010-2020 that should match your mood. Here are 3 recommendations!"
	if got != want {
		t.Fatalf("explanation =\n%q\nwant\n%q", got, want)
	}

	if got := ExplainParams(domain.SearchParameters{}, 0); got != "Based on your preferences, that should match your mood. Here are 0 recommendations!" {
		t.Fatalf("empty params explanation = %q", got)
	}
}
