package recommend

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vibecheck/movieservice/internal/domain"
	"vibecheck/movieservice/internal/metrics"
	"vibecheck/movieservice/internal/vibe"
)

const (
	strictMinVotes   = 50
	relaxedMinVotes  = 10
	fallbackMinVotes = 20

	// A tier that returns fewer movies than this triggers the next tier.
	lowResultCount = 10
	// Below this the fallback also searches the whole vibe as free text.
	sparseResultCount = 5

	maxFallbackGenres = 3
	maxFallbackTokens = 3
	minTokenLength    = 3
	fallbackPoolSize  = 20

	popularityWeight = 0.7
	ratingWeight     = 0.3

	paramsResultLimit = 8
)

// MovieProvider is the subset of the metadata provider the engine calls.
type MovieProvider interface {
	Discover(ctx context.Context, query domain.DiscoverQuery) ([]domain.RawMovie, error)
	SearchMovies(ctx context.Context, query string, page int) ([]domain.RawMovie, error)
}

var tracer = otel.Tracer("vibecheck/recommend")

// Engine turns analysed search parameters into candidate movies. Provider
// calls are issued one after another; spacing is left to the provider.
type Engine struct {
	provider MovieProvider
	logger   *slog.Logger
}

func NewEngine(provider MovieProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: provider, logger: logger}
}

// ResolveCandidates picks the genre strategy when analysis found genres and
// the keyword fallback otherwise, then applies the year filter.
func (e *Engine) ResolveCandidates(ctx context.Context, vibeText string, params domain.SearchParameters, page int) ([]domain.RawMovie, error) {
	ctx, span := tracer.Start(ctx, "recommend.resolve_candidates")
	defer span.End()
	span.SetAttributes(
		attribute.Int("vibe.page", page),
		attribute.Int("vibe.genres", len(params.Genres)),
	)

	var movies []domain.RawMovie
	if len(params.Genres) > 0 {
		span.SetAttributes(attribute.String("vibe.branch", "genre"))
		found, err := e.resolveByGenres(ctx, span, params.Genres, page)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		movies = found
	} else {
		span.SetAttributes(attribute.String("vibe.branch", "fallback"))
		found, err := e.resolveFallback(ctx, vibeText, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// A failed sub-query abandons the whole fallback.
			e.logger.Warn("fallback search aborted",
				slog.String("vibe", truncate(vibeText, 80)),
				slog.String("error", err.Error()),
			)
			span.RecordError(err)
			found = []domain.RawMovie{}
		}
		movies = found
	}

	filtered := FilterByYear(movies, params.YearRange)
	span.SetAttributes(attribute.Int("vibe.candidates", len(filtered)))
	return filtered, nil
}

// resolveByGenres escalates through three tiers and keeps only the result of
// the last tier it ran. Errors are returned as-is; only low counts escalate.
func (e *Engine) resolveByGenres(ctx context.Context, span trace.Span, genres []int, page int) ([]domain.RawMovie, error) {
	movies, err := e.discover(ctx, "genre", "strict", genres, strictMinVotes, page)
	if err != nil {
		return nil, err
	}

	if len(movies) < lowResultCount {
		e.logger.Debug("low genre results, relaxing vote threshold",
			slog.Int("count", len(movies)),
			slog.Int("minVotes", relaxedMinVotes),
		)
		movies, err = e.discover(ctx, "genre", "relaxed", genres, relaxedMinVotes, page)
		if err != nil {
			return nil, err
		}
	}

	if len(movies) < lowResultCount && len(genres) > 1 {
		e.logger.Debug("still low genre results, using first genre only",
			slog.Int("count", len(movies)),
			slog.Int("genre", genres[0]),
		)
		movies, err = e.discover(ctx, "genre", "single_genre", genres[:1], relaxedMinVotes, page)
		if err != nil {
			return nil, err
		}
	}
	span.SetAttributes(attribute.Int("vibe.raw_results", len(movies)))
	return movies, nil
}

// resolveFallback builds a fixed pool of up to fallbackPoolSize movies from
// keyword genres, single-token searches and a whole-vibe search.
func (e *Engine) resolveFallback(ctx context.Context, vibeText string, page int) ([]domain.RawMovie, error) {
	tokens := fallbackTokens(vibeText)
	pool := newMoviePool()

	if genres := keywordGenres(tokens); len(genres) > 0 {
		if len(genres) > maxFallbackGenres {
			genres = genres[:maxFallbackGenres]
		}
		movies, err := e.discover(ctx, "fallback", "genre", genres, fallbackMinVotes, page)
		if err != nil {
			return nil, err
		}
		pool.seed(movies)
	}

	if pool.len() < lowResultCount {
		limit := len(tokens)
		if limit > maxFallbackTokens {
			limit = maxFallbackTokens
		}
		for _, token := range tokens[:limit] {
			movies, err := e.search(ctx, "token", token)
			if err != nil {
				return nil, err
			}
			pool.merge(movies)
		}
	}

	if pool.len() < sparseResultCount {
		movies, err := e.search(ctx, "full_text", vibeText)
		if err != nil {
			return nil, err
		}
		pool.merge(movies)
	}

	movies := pool.items()
	SortByCompositeScore(movies)
	if len(movies) > fallbackPoolSize {
		movies = movies[:fallbackPoolSize]
	}
	return movies, nil
}

// ResolveByParams serves direct-parameter searches: genre discovery first,
// then the first keyword whose search returns anything.
func (e *Engine) ResolveByParams(ctx context.Context, params domain.SearchParameters) ([]domain.RawMovie, error) {
	ctx, span := tracer.Start(ctx, "recommend.resolve_by_params")
	defer span.End()

	var movies []domain.RawMovie
	if len(params.Genres) > 0 {
		found, err := e.discover(ctx, "params", "genre", params.Genres, 0, 1)
		if err != nil {
			return nil, err
		}
		movies = limitMovies(found, paramsResultLimit)
	}

	if len(movies) == 0 && len(params.Keywords) > 0 {
		keywords := params.Keywords
		if len(keywords) > maxFallbackTokens {
			keywords = keywords[:maxFallbackTokens]
		}
		for _, keyword := range keywords {
			found, err := e.search(ctx, "params_keyword", keyword)
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				movies = limitMovies(found, paramsResultLimit)
				break
			}
		}
	}

	if movies == nil {
		movies = []domain.RawMovie{}
	}
	return FilterByYear(movies, params.YearRange), nil
}

func (e *Engine) discover(ctx context.Context, branch, tier string, genres []int, minVotes, page int) ([]domain.RawMovie, error) {
	metrics.StrategyTiersTotal.WithLabelValues(branch, tier).Inc()
	return e.provider.Discover(ctx, domain.DiscoverQuery{
		Genres:       genres,
		SortBy:       domain.SortByPopularityDesc,
		MinVoteCount: minVotes,
		Page:         page,
	})
}

// search always asks for the first provider page.
func (e *Engine) search(ctx context.Context, tier, query string) ([]domain.RawMovie, error) {
	metrics.StrategyTiersTotal.WithLabelValues("fallback", tier).Inc()
	return e.provider.SearchMovies(ctx, query, 1)
}

// FilterByYear drops movies without a parseable release year or outside the
// range. A nil range keeps everything.
func FilterByYear(movies []domain.RawMovie, yearRange *domain.YearRange) []domain.RawMovie {
	if yearRange == nil {
		return movies
	}
	filtered := make([]domain.RawMovie, 0, len(movies))
	for _, movie := range movies {
		year, ok := movie.ReleaseYear()
		if !ok || !yearRange.Contains(year) {
			continue
		}
		filtered = append(filtered, movie)
	}
	return filtered
}

// CompositeScore weighs popularity against average rating.
func CompositeScore(movie domain.RawMovie) float64 {
	return movie.Popularity*popularityWeight + movie.VoteAverage*ratingWeight
}

// SortByCompositeScore orders by descending score, keeping provider order
// for ties.
func SortByCompositeScore(movies []domain.RawMovie) {
	sort.SliceStable(movies, func(i, j int) bool {
		return CompositeScore(movies[i]) > CompositeScore(movies[j])
	})
}

func fallbackTokens(vibeText string) []string {
	fields := strings.Fields(strings.ToLower(vibeText))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if utf8.RuneCountInString(field) >= minTokenLength {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func keywordGenres(tokens []string) []int {
	var genres []int
	seen := make(map[int]struct{})
	for _, token := range tokens {
		id, ok := vibe.KeywordGenre(token)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		genres = append(genres, id)
	}
	return genres
}

func limitMovies(movies []domain.RawMovie, limit int) []domain.RawMovie {
	if len(movies) > limit {
		return movies[:limit]
	}
	return movies
}

// moviePool accumulates fallback results, keeping the first record seen for
// each id.
type moviePool struct {
	movies []domain.RawMovie
	seen   map[int]struct{}
}

func newMoviePool() *moviePool {
	return &moviePool{seen: make(map[int]struct{})}
}

func (p *moviePool) seed(movies []domain.RawMovie) {
	p.merge(movies)
}

func (p *moviePool) merge(movies []domain.RawMovie) {
	for _, movie := range movies {
		if _, ok := p.seen[movie.ID]; ok {
			continue
		}
		p.seen[movie.ID] = struct{}{}
		p.movies = append(p.movies, movie)
	}
}

func (p *moviePool) len() int {
	return len(p.movies)
}

func (p *moviePool) items() []domain.RawMovie {
	return append([]domain.RawMovie(nil), p.movies...)
}

func truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}
