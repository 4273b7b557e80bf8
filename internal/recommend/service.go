package recommend

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"vibecheck/movieservice/internal/domain"
	"vibecheck/movieservice/internal/vibe"
)

const (
	searchFailedMessage  = "Failed to search for movies"
	detailsFailedMessage = "Failed to fetch movie details"
)

var ErrEmptyVibe = domain.NewStatusError(http.StatusBadRequest, "Invalid vibe parameter. Please provide a non-empty string.")

// Provider is the metadata backend the service needs.
type Provider interface {
	MovieProvider
	Enabled() bool
	MovieDetails(ctx context.Context, id int) (domain.RawMovie, error)
}

// Result is a recommendation plus how it was served.
type Result struct {
	domain.Recommendation
	Cached bool
	Page   int
}

type Service struct {
	provider      Provider
	analyzer      *vibe.Analyzer
	engine        *Engine
	cache         *resultCache
	cacheDisabled bool
	group         singleflight.Group
	logger        *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAnalyzer(analyzer *vibe.Analyzer) ServiceOption {
	return func(s *Service) {
		if analyzer != nil {
			s.analyzer = analyzer
		}
	}
}

func WithRedisCache(backend *RedisCacheBackend) ServiceOption {
	return func(s *Service) {
		s.cache.redis = backend
	}
}

func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cache.ttl = ttl
		}
	}
}

func WithCacheMaxEntries(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.cache.maxEntries = limit
		}
	}
}

func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.cacheDisabled = disabled
	}
}

func NewService(provider Provider, opts ...ServiceOption) *Service {
	svc := &Service{
		provider: provider,
		analyzer: vibe.NewAnalyzer(vibe.DefaultLexicon()),
		logger:   slog.Default(),
	}
	svc.cache = newResultCache(svc.logger)
	for _, opt := range opts {
		opt(svc)
	}
	svc.cache.logger = svc.logger
	svc.engine = NewEngine(provider, svc.logger)
	return svc
}

// Recommend serves a vibe search through the result cache. Only the first
// page is cached; concurrent identical searches share one resolution.
func (s *Service) Recommend(ctx context.Context, vibeText string, page int) (Result, error) {
	vibeText = strings.TrimSpace(vibeText)
	if vibeText == "" {
		return Result{}, ErrEmptyVibe
	}
	if page < 1 {
		page = 1
	}

	key := buildCacheKey(vibeText, page)
	cacheable := page == 1 && !s.cacheDisabled
	if cacheable {
		if recommendation, ok := s.cache.lookup(ctx, key); ok {
			return Result{Recommendation: recommendation, Cached: true, Page: page}, nil
		}
	}

	// The shared resolution outlives any single caller; each caller only
	// stops waiting on its own cancellation.
	jobCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		recommendation, err := s.SearchByVibe(jobCtx, vibeText, page)
		if err != nil {
			return nil, err
		}
		if cacheable {
			s.cache.store(jobCtx, key, recommendation)
		}
		return recommendation, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return Result{
			Recommendation: cloneRecommendation(res.Val.(domain.Recommendation)),
			Page:           page,
		}, nil
	}
}

// SearchByVibe analyses the vibe, resolves candidates, and formats one page.
func (s *Service) SearchByVibe(ctx context.Context, vibeText string, page int) (domain.Recommendation, error) {
	vibeText = strings.TrimSpace(vibeText)
	if vibeText == "" {
		return domain.Recommendation{}, ErrEmptyVibe
	}
	if !s.provider.Enabled() {
		return domain.Recommendation{}, domain.ErrProviderDisabled
	}
	if page < 1 {
		page = 1
	}

	params := s.analyzer.Analyze(vibeText)
	s.logger.Debug("vibe analysed",
		slog.String("vibe", truncate(vibeText, 80)),
		slog.Any("genres", params.Genres),
		slog.Any("keywords", params.Keywords),
		slog.Int("page", page),
	)

	candidates, err := s.engine.ResolveCandidates(ctx, vibeText, params, page)
	if err != nil {
		s.logger.Error("vibe search failed",
			slog.String("vibe", truncate(vibeText, 80)),
			slog.String("error", err.Error()),
		)
		return domain.Recommendation{}, domain.AsStatusError(err, searchFailedMessage)
	}

	movies := FormatMovies(Paginate(candidates, page))
	return domain.Recommendation{
		Movies:      movies,
		Explanation: Explain(vibeText, params, len(movies), page),
	}, nil
}

// SearchByParams runs a search from explicit genres, keywords and years.
func (s *Service) SearchByParams(ctx context.Context, params domain.SearchParameters) (domain.Recommendation, error) {
	if !s.provider.Enabled() {
		return domain.Recommendation{}, domain.ErrProviderDisabled
	}
	if params.Genres == nil {
		params.Genres = []int{}
	}
	if params.Keywords == nil {
		params.Keywords = []string{}
	}

	candidates, err := s.engine.ResolveByParams(ctx, params)
	if err != nil {
		s.logger.Error("parameter search failed",
			slog.Any("genres", params.Genres),
			slog.Any("keywords", params.Keywords),
			slog.String("error", err.Error()),
		)
		return domain.Recommendation{}, domain.AsStatusError(err, searchFailedMessage)
	}

	movies := FormatMovies(candidates)
	return domain.Recommendation{
		Movies:      movies,
		Explanation: ExplainParams(params, len(movies)),
	}, nil
}

// MovieDetails fetches and formats a single movie.
func (s *Service) MovieDetails(ctx context.Context, id int) (domain.Movie, error) {
	if !s.provider.Enabled() {
		return domain.Movie{}, domain.ErrProviderDisabled
	}
	raw, err := s.provider.MovieDetails(ctx, id)
	if err != nil {
		return domain.Movie{}, domain.AsStatusError(err, detailsFailedMessage)
	}
	return FormatMovie(raw), nil
}

func (s *Service) CacheStats() CacheStats {
	return s.cache.stats()
}
