package recommend

import (
	"vibecheck/movieservice/internal/domain"
	"vibecheck/movieservice/internal/vibe"
)

const (
	// PageSize is the number of movies returned per page.
	PageSize = 8

	posterBaseURL    = "https://image.tmdb.org/t/p/w500"
	backdropBaseURL  = "https://image.tmdb.org/t/p/w1280"
	overviewFallback = "No description available."
)

// FormatMovie converts a provider record into the client shape.
func FormatMovie(raw domain.RawMovie) domain.Movie {
	overview := raw.Overview
	if overview == "" {
		overview = overviewFallback
	}
	return domain.Movie{
		ID:           raw.ID,
		Title:        raw.Title,
		Overview:     overview,
		ReleaseDate:  raw.ReleaseDate,
		Rating:       raw.VoteAverage,
		PosterPath:   imageURL(posterBaseURL, raw.PosterPath),
		BackdropPath: imageURL(backdropBaseURL, raw.BackdropPath),
		Genres:       vibe.GenreNames(raw.GenreIDs),
	}
}

// FormatMovies formats every record, always returning a non-nil slice.
func FormatMovies(records []domain.RawMovie) []domain.Movie {
	movies := make([]domain.Movie, 0, len(records))
	for _, record := range records {
		movies = append(movies, FormatMovie(record))
	}
	return movies
}

// Paginate returns the page-th window of PageSize records. Pages past the
// end are empty.
func Paginate(records []domain.RawMovie, page int) []domain.RawMovie {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * PageSize
	if start >= len(records) {
		return []domain.RawMovie{}
	}
	end := start + PageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func imageURL(base, path string) *string {
	if path == "" {
		return nil
	}
	value := base + path
	return &value
}
