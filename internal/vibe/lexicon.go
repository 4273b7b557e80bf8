package vibe

import (
	"time"

	"vibecheck/movieservice/internal/domain"
)

// Entry binds a lowercase lexicon key to its hint.
type Entry struct {
	Key  string
	Hint domain.VibeHint
}

// Lexicon is an ordered, read-only list of entries. Order matters: when
// several matched keys carry a year range, the later entry wins.
type Lexicon struct {
	entries []Entry
}

func (l *Lexicon) Entries() []Entry {
	return l.entries
}

// Lookup returns the hint for an exact key.
func (l *Lexicon) Lookup(key string) (domain.VibeHint, bool) {
	for _, entry := range l.entries {
		if entry.Key == key {
			return entry.Hint, true
		}
	}
	return domain.VibeHint{}, false
}

// DefaultLexicon builds the lexicon with "recent"/"new" ending at the
// current year.
func DefaultLexicon() *Lexicon {
	return NewLexicon(time.Now().Year())
}

func NewLexicon(currentYear int) *Lexicon {
	hint := func(genres []int, keywords ...string) domain.VibeHint {
		return domain.VibeHint{Genres: genres, Keywords: keywords}
	}
	years := func(start, end int) domain.VibeHint {
		return domain.VibeHint{YearRange: &domain.YearRange{Start: start, End: end}}
	}
	g := func(ids ...int) []int { return ids }

	return &Lexicon{entries: []Entry{
		// Moods
		{"cozy", hint(g(GenreDrama, GenreFamily), "home", "family", "warm")},
		{"rainy", hint(g(GenreDrama, GenreMystery), "mystery", "drama", "atmospheric")},
		{"raining", hint(g(GenreDrama, GenreMystery), "mystery", "drama", "atmospheric")},
		{"rainy day", hint(g(GenreDrama, GenreMystery), "mystery", "drama", "atmospheric")},
		{"cloudy", hint(g(GenreDrama, GenreMystery), "mystery", "drama", "atmospheric")},
		{"stormy", hint(g(GenreDrama, GenreThriller), "intense", "drama", "thriller")},
		{"gloomy", hint(g(GenreDrama), "melancholy", "drama", "contemplative")},
		{"sunday", hint(g(GenreDrama, GenreMusic, GenreRomance), "family", "feel-good")},
		{"sad", hint(g(GenreDrama), "emotional", "drama", "heartbreak")},
		{"breakup", hint(g(GenreDrama, GenreRomance), "love", "heartbreak", "romance")},
		{"hopeful", hint(g(GenreDrama, GenreRomance), "inspiring", "uplifting", "hope")},
		{"crying", hint(g(GenreDrama), "emotional", "drama", "tear-jerker")},

		// Genres and styles
		{"mystery", hint(g(GenreMystery, GenreThriller), "detective", "crime", "thriller")},
		{"mysterious", hint(g(GenreMystery, GenreThriller), "detective", "crime", "thriller")},
		{"thriller", hint(g(GenreThriller), "suspense", "tension", "intense")},
		{"suspense", hint(g(GenreThriller), "thriller", "tension", "mystery")},
		{"action", hint(g(GenreAction), "adventure", "fight", "hero")},
		{"epic", hint(g(GenreAdventure, GenreAction), "adventure", "grand", "hero")},
		{"adventure", hint(g(GenreAdventure), "journey", "exploration")},
		{"space", hint(g(GenreScienceFiction), "space", "sci-fi", "future")},
		{"sci-fi", hint(g(GenreScienceFiction), "future", "technology", "space")},
		{"science fiction", hint(g(GenreScienceFiction), "future", "technology", "space")},
		{"horror", hint(g(GenreHorror), "scary", "fear", "supernatural")},
		{"scary", hint(g(GenreHorror), "horror", "fear", "supernatural")},
		{"drama", hint(g(GenreDrama), "emotional", "character", "story")},
		{"comedy", hint(g(GenreComedy), "funny", "humor", "laugh")},
		{"funny", hint(g(GenreComedy), "comedy", "humor", "laugh")},
		{"laugh", hint(g(GenreComedy), "comedy", "humor", "funny")},
		{"romantic", hint(g(GenreRomance), "love", "romance", "relationship")},
		{"romance", hint(g(GenreRomance), "love", "romantic", "relationship")},
		{"love", hint(g(GenreRomance), "romance", "romantic", "relationship")},
		{"fantasy", hint(g(GenreFantasy), "magic", "supernatural", "mythical")},
		{"magic", hint(g(GenreFantasy), "fantasy", "supernatural", "wizard")},
		{"superhero", hint(g(GenreAction, GenreScienceFiction), "hero", "powers", "comic")},
		{"documentary", hint(g(GenreDocumentary), "real", "factual", "educational")},

		// Time periods
		{"90s", years(1990, 1999)},
		{"80s", years(1980, 1989)},
		{"70s", years(1970, 1979)},
		{"retro", years(1970, 1989)},
		{"classic", years(1940, 1979)},
		{"old", years(1940, 1979)},
		{"recent", years(2020, currentYear)},
		{"new", years(2020, currentYear)},

		// Vibes
		{"mind-bending", hint(g(GenreScienceFiction, GenreMystery), "psychological", "twist", "reality")},
		{"reality", hint(g(GenreScienceFiction, GenreMystery), "mind-bending", "psychological", "simulation")},
		{"dumb", hint(g(GenreComedy, GenreAction), "silly", "mindless", "fun")},
		{"mindless", hint(g(GenreComedy, GenreAction), "dumb", "silly", "fun")},
		{"friends", hint(g(GenreComedy, GenreAdventure), "group", "friendship", "together")},
		{"party", hint(g(GenreComedy), "fun", "celebration", "group")},
		{"chill", hint(g(GenreDrama, GenreMusic), "relaxing", "calm", "peaceful")},
		{"intense", hint(g(GenreThriller, GenreDrama), "thriller", "suspense", "drama")},
		{"feel-good", hint(g(GenreComedy, GenreRomance, GenreFamily), "uplifting", "happy", "positive")},
		{"inspiring", hint(g(GenreDrama), "motivational", "uplifting", "biographical")},
		{"uplifting", hint(g(GenreComedy, GenreRomance, GenreFamily), "feel-good", "happy", "positive", "inspiring")},
		{"fun", hint(g(GenreComedy, GenreAdventure, GenreFamily), "entertaining", "enjoyable", "light-hearted", "comedy")},
	}}
}
