package vibe

// TMDb movie genre identifiers.
const (
	GenreAction         = 28
	GenreAdventure      = 12
	GenreAnimation      = 16
	GenreComedy         = 35
	GenreCrime          = 80
	GenreDocumentary    = 99
	GenreDrama          = 18
	GenreFamily         = 10751
	GenreFantasy        = 14
	GenreHistory        = 36
	GenreHorror         = 27
	GenreMusic          = 10402
	GenreMystery        = 9648
	GenreRomance        = 10749
	GenreScienceFiction = 878
	GenreTVMovie        = 10770
	GenreThriller       = 53
	GenreWar            = 10752
	GenreWestern        = 37
)

var genreNames = map[int]string{
	GenreAction:         "Action",
	GenreAdventure:      "Adventure",
	GenreAnimation:      "Animation",
	GenreComedy:         "Comedy",
	GenreCrime:          "Crime",
	GenreDocumentary:    "Documentary",
	GenreDrama:          "Drama",
	GenreFamily:         "Family",
	GenreFantasy:        "Fantasy",
	GenreHistory:        "History",
	GenreHorror:         "Horror",
	GenreMusic:          "Music",
	GenreMystery:        "Mystery",
	GenreRomance:        "Romance",
	GenreScienceFiction: "Science Fiction",
	GenreTVMovie:        "TV Movie",
	GenreThriller:       "Thriller",
	GenreWar:            "War",
	GenreWestern:        "Western",
}

// keywordGenres backs the fallback search when no lexicon key matched.
var keywordGenres = map[string]int{
	"comedy": GenreComedy, "funny": GenreComedy, "humor": GenreComedy, "laugh": GenreComedy,
	"drama": GenreDrama, "emotional": GenreDrama, "sad": GenreDrama, "heartfelt": GenreDrama,
	"action": GenreAction, "adventure": GenreAdventure, "epic": GenreAction,
	"horror": GenreHorror, "scary": GenreHorror, "fear": GenreHorror,
	"romance": GenreRomance, "romantic": GenreRomance, "love": GenreRomance,
	"thriller": GenreThriller, "suspense": GenreThriller, "mystery": GenreMystery,
	"fantasy": GenreFantasy, "magic": GenreFantasy, "supernatural": GenreFantasy,
	"scifi": GenreScienceFiction, "sci-fi": GenreScienceFiction, "science": GenreScienceFiction,
	"space": GenreScienceFiction, "future": GenreScienceFiction,
	"family": GenreFamily, "kids": GenreFamily, "children": GenreFamily,
	"crime": GenreCrime, "detective": GenreCrime,
	"documentary": GenreDocumentary, "real": GenreDocumentary, "factual": GenreDocumentary,
	"animation": GenreAnimation, "animated": GenreAnimation, "cartoon": GenreAnimation,
	"war": GenreWar, "western": GenreWestern, "history": GenreHistory, "historical": GenreHistory,
	"music": GenreMusic, "musical": GenreMusic,
	"cozy": GenreDrama, "warm": GenreDrama, "comfort": GenreDrama, "feel-good": GenreComedy,
	"dark": GenreThriller, "intense": GenreThriller, "atmospheric": GenreMystery,
	"uplifting": GenreComedy, "inspiring": GenreDrama, "motivational": GenreDrama,
	"fun": GenreComedy, "entertaining": GenreComedy, "light": GenreComedy,
}

// GenreName resolves a TMDb genre id to its display name.
func GenreName(id int) (string, bool) {
	name, ok := genreNames[id]
	return name, ok
}

// GenreNames resolves ids in order, silently dropping unknown ones.
func GenreNames(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := GenreName(id); ok {
			names = append(names, name)
		}
	}
	return names
}

// KeywordGenre maps a lowercase word to a plausible genre id.
func KeywordGenre(word string) (int, bool) {
	id, ok := keywordGenres[word]
	return id, ok
}
