package domain

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// YearRange is an inclusive release-year window. On the wire it is a
// two-element array, e.g. [1990, 1999].
type YearRange struct {
	Start int
	End   int
}

func (r YearRange) Valid() bool {
	return r.Start <= r.End
}

func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func (r YearRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

func (r *YearRange) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("year range must be [start, end]: %w", err)
	}
	if len(pair) != 2 {
		return errors.New("year range must have exactly two years")
	}
	r.Start, r.End = pair[0], pair[1]
	if !r.Valid() {
		return fmt.Errorf("year range start %d is after end %d", r.Start, r.End)
	}
	return nil
}

// VibeHint is what a single lexicon key implies about the wanted movies.
type VibeHint struct {
	Genres    []int
	Keywords  []string
	YearRange *YearRange
}

// SearchParameters is the accumulated result of analysing a vibe, or the
// direct parameters of a flexible search.
type SearchParameters struct {
	Genres    []int      `json:"genres"`
	Keywords  []string   `json:"keywords"`
	YearRange *YearRange `json:"year_range,omitempty"`
}

// RawMovie mirrors a TMDb movie list entry.
type RawMovie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
	Popularity   float64 `json:"popularity"`
}

// ReleaseYear parses the leading YYYY of ReleaseDate.
func (m RawMovie) ReleaseYear() (int, bool) {
	if len(m.ReleaseDate) < 4 {
		return 0, false
	}
	year := 0
	for _, c := range m.ReleaseDate[:4] {
		if c < '0' || c > '9' {
			return 0, false
		}
		year = year*10 + int(c-'0')
	}
	return year, true
}

// Movie is the simplified record returned to clients.
type Movie struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview"`
	ReleaseDate  string   `json:"releaseDate,omitempty"`
	Rating       float64  `json:"rating"`
	PosterPath   *string  `json:"posterPath"`
	BackdropPath *string  `json:"backdropPath"`
	Genres       []string `json:"genres"`
}

// Recommendation is the bundle produced for a single search.
type Recommendation struct {
	Movies      []Movie `json:"movies"`
	Explanation string  `json:"explanation"`
}

// DiscoverQuery is the "discover by genre" request shape. A zero
// MinVoteCount leaves the vote filter off.
type DiscoverQuery struct {
	Genres       []int
	SortBy       string
	MinVoteCount int
	Page         int
}

const SortByPopularityDesc = "popularity.desc"
