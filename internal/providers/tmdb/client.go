package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"vibecheck/movieservice/internal/domain"
	"vibecheck/movieservice/internal/metrics"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultCacheTTL = time.Hour
	redisCacheKey   = "vibecheck:tmdb:"
	maxBodyBytes    = 2 * 1024 * 1024
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = domain.ErrProviderDisabled

var tracer = otel.Tracer("vibecheck/tmdb")

type Client struct {
	apiKey   string
	baseURL  string
	http     *http.Client
	redis    *redis.Client
	cacheTTL time.Duration
	throttle *Throttle
	breaker  *gobreaker.CircuitBreaker[[]byte]
	logger   *slog.Logger
}

type Config struct {
	APIKey   string
	BaseURL  string
	Client   *http.Client
	Redis    *redis.Client
	CacheTTL time.Duration
	// Throttle is shared by every call of this client; nil builds one with
	// DefaultMinInterval.
	Throttle *Throttle
	Breaker  BreakerConfig
	Logger   *slog.Logger
}

type movieListResponse struct {
	Page    int               `json:"page"`
	Results []domain.RawMovie `json:"results"`
}

type movieDetailsResponse struct {
	domain.RawMovie
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	throttle := cfg.Throttle
	if throttle == nil {
		throttle = NewThrottle(DefaultMinInterval)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		redis:    cfg.Redis,
		cacheTTL: cacheTTL,
		throttle: throttle,
		breaker:  newBreaker(cfg.Breaker, logger),
		logger:   logger,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Discover lists movies of the given genres.
func (c *Client) Discover(ctx context.Context, query domain.DiscoverQuery) ([]domain.RawMovie, error) {
	sortBy := query.SortBy
	if sortBy == "" {
		sortBy = domain.SortByPopularityDesc
	}
	params := url.Values{
		"with_genres": {joinInts(query.Genres)},
		"sort_by":     {sortBy},
		"page":        {strconv.Itoa(normalizePage(query.Page))},
	}
	if query.MinVoteCount > 0 {
		params.Set("vote_count.gte", strconv.Itoa(query.MinVoteCount))
	}
	return c.listMovies(ctx, "discover", "/discover/movie", params)
}

// SearchMovies runs a free-text title search.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) ([]domain.RawMovie, error) {
	params := url.Values{
		"query": {query},
		"page":  {strconv.Itoa(normalizePage(page))},
	}
	return c.listMovies(ctx, "search", "/search/movie", params)
}

// MovieDetails fetches one movie. Its embedded genre objects are flattened
// into GenreIDs so it formats like a list entry.
func (c *Client) MovieDetails(ctx context.Context, id int) (domain.RawMovie, error) {
	body, err := c.get(ctx, "details", "/movie/"+strconv.Itoa(id), url.Values{})
	if err != nil {
		return domain.RawMovie{}, err
	}
	var response movieDetailsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return domain.RawMovie{}, fmt.Errorf("decode tmdb movie %d: %w", id, err)
	}
	movie := response.RawMovie
	movie.GenreIDs = make([]int, 0, len(response.Genres))
	for _, genre := range response.Genres {
		movie.GenreIDs = append(movie.GenreIDs, genre.ID)
	}
	return movie, nil
}

func (c *Client) listMovies(ctx context.Context, endpoint, path string, params url.Values) ([]domain.RawMovie, error) {
	body, err := c.get(ctx, endpoint, path, params)
	if err != nil {
		return nil, err
	}
	var response movieListResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode tmdb %s response: %w", endpoint, err)
	}
	if response.Results == nil {
		return []domain.RawMovie{}, nil
	}
	return response.Results, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	ctx, span := tracer.Start(ctx, "tmdb."+endpoint)
	defer span.End()
	span.SetAttributes(
		attribute.String("tmdb.path", path),
		attribute.String("tmdb.params", params.Encode()),
	)

	cacheKey := endpoint + ":" + path + "?" + params.Encode()
	if body, ok := c.cacheGet(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("tmdb.cache_hit", true))
		metrics.ProviderCacheHitsTotal.Inc()
		return body, nil
	}

	if err := c.throttle.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "throttle wait cancelled")
		return nil, fmt.Errorf("tmdb throttle: %w", err)
	}

	startedAt := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, params)
	})
	metrics.ProviderRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startedAt).Seconds())

	if err != nil {
		status := "error"
		if isBreakerRejection(err) {
			status = "rejected"
			err = &domain.StatusError{
				Status:  http.StatusServiceUnavailable,
				Message: "TMDb API temporarily unavailable",
				Err:     err,
			}
		}
		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, status).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metrics.ProviderRequestsTotal.WithLabelValues(endpoint, "ok").Inc()

	c.cacheSet(ctx, cacheKey, body)
	return body, nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, error) {
	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb request %s: %w", path, scrubKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &domain.StatusError{
			Status:  resp.StatusCode,
			Message: "TMDb API error: " + http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read tmdb response: %w", err)
	}
	return body, nil
}

func (c *Client) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, redisCacheKey+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("tmdb cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	return data, true
}

func (c *Client) cacheSet(ctx context.Context, key string, body []byte) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, redisCacheKey+key, body, c.cacheTTL).Err(); err != nil {
		c.logger.Debug("tmdb cache write failed", slog.String("error", err.Error()))
	}
}

// scrubKey keeps the API key out of transport errors, which embed the URL.
func scrubKey(err error, apiKey string) error {
	var urlErr *url.Error
	if apiKey == "" || !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{
		Op:  urlErr.Op,
		URL: strings.ReplaceAll(urlErr.URL, apiKey, "REDACTED"),
		Err: urlErr.Err,
	}
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, strconv.Itoa(value))
	}
	return strings.Join(parts, ",")
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
