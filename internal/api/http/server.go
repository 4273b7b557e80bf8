package apihttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"vibecheck/movieservice/internal/domain"
	"vibecheck/movieservice/internal/recommend"
)

const (
	searchFailedMessage  = "Internal server error occurred while searching for movies."
	detailsFailedMessage = "Failed to fetch movie details"
	invalidBodyMessage   = "Invalid request body"
	invalidPageMessage   = "Invalid page parameter. Please provide a positive integer."
	invalidParamsMessage = "Invalid search parameters"
	flexibleFallbackFmt  = "Found %d movies matching your criteria"
)

const (
	defaultRateLimit       = 20
	defaultRateWindow      = time.Minute
	defaultImageHost       = "image.tmdb.org"
	maxRequestBodyBytes    = 1 << 20
	traceOperationName     = "vibecheck"
	developmentEnvironment = "development"
)

// RecommendationService is what the HTTP layer needs from the recommender.
type RecommendationService interface {
	Recommend(ctx context.Context, vibe string, page int) (recommend.Result, error)
	SearchByParams(ctx context.Context, params domain.SearchParameters) (domain.Recommendation, error)
	MovieDetails(ctx context.Context, id int) (domain.Movie, error)
	CacheStats() recommend.CacheStats
}

type Server struct {
	service     RecommendationService
	logger      *slog.Logger
	environment string
	corsOrigins []string
	rateLimit   int
	rateWindow  time.Duration
	imageHost   string
	imageClient *http.Client
	lookupIP    func(ctx context.Context, host string) ([]net.IPAddr, error)
	validate    *validator.Validate
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEnvironment sets the deployment environment; "development" exposes
// the cache stats endpoint.
func WithEnvironment(environment string) ServerOption {
	return func(s *Server) {
		s.environment = strings.ToLower(strings.TrimSpace(environment))
	}
}

func WithCORSOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = append([]string(nil), origins...)
	}
}

func WithRateLimit(limit int, window time.Duration) ServerOption {
	return func(s *Server) {
		if limit > 0 {
			s.rateLimit = limit
		}
		if window > 0 {
			s.rateWindow = window
		}
	}
}

// WithImageHost restricts the image proxy to one upstream host.
func WithImageHost(host string) ServerOption {
	return func(s *Server) {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			s.imageHost = host
		}
	}
}

func NewServer(service RecommendationService, options ...ServerOption) *Server {
	server := &Server{
		service:    service,
		logger:     slog.Default(),
		rateLimit:  defaultRateLimit,
		rateWindow: defaultRateWindow,
		imageHost:  defaultImageHost,
		lookupIP:   net.DefaultResolver.LookupIPAddr,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	server.imageClient = server.newImageProxyClient()
	return server
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		recoveryMiddleware(s.logger),
		metricsMiddleware,
		requestIDMiddleware,
		otelhttp.NewMiddleware(traceOperationName, otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		})),
		loggingMiddleware(s.logger),
		corsMiddleware(s.corsOrigins),
	)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimitMiddleware(s.rateLimit, s.rateWindow))
		r.Post("/movies/search", s.handleSearch)
		r.Post("/movies/search-flexible", s.handleSearchFlexible)
		r.Get("/movies/{id}", s.handleMovieDetails)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Get("/images", s.handleImageProxy)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
	})
}

type searchRequest struct {
	Vibe any  `json:"vibe"`
	Page *int `json:"page" validate:"omitempty,min=1"`
}

type searchResponse struct {
	Movies      []domain.Movie `json:"movies"`
	Explanation string         `json:"explanation"`
	Cached      bool           `json:"cached"`
	Page        int            `json:"page"`
	Timestamp   time.Time      `json:"timestamp"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBodyMessage)
		return
	}
	vibeText, ok := req.Vibe.(string)
	if !ok || strings.TrimSpace(vibeText) == "" {
		writeError(w, http.StatusBadRequest, recommend.ErrEmptyVibe.Message)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, invalidPageMessage)
		return
	}
	page := 1
	if req.Page != nil {
		page = *req.Page
	}

	result, err := s.service.Recommend(r.Context(), vibeText, page)
	if err != nil {
		statusErr := domain.AsStatusError(err, searchFailedMessage)
		s.logger.ErrorContext(r.Context(), "movie search failed",
			slog.String("vibe", truncate(vibeText, 120)),
			slog.Int("page", page),
			slog.Int("status", statusErr.Status),
			slog.String("error", err.Error()),
		)
		writeError(w, statusErr.Status, statusErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Movies:      result.Movies,
		Explanation: result.Explanation,
		Cached:      result.Cached,
		Page:        result.Page,
		Timestamp:   time.Now().UTC(),
	})
}

type flexibleSearchRequest struct {
	Vibe      string            `json:"vibe"`
	Genres    []int             `json:"genres" validate:"omitempty,max=19,dive,min=1"`
	Keywords  []string          `json:"keywords" validate:"omitempty,max=20,dive,max=100"`
	YearRange *domain.YearRange `json:"year_range"`
}

type flexibleSearchResponse struct {
	Movies      []domain.Movie `json:"movies"`
	Explanation string         `json:"explanation"`
	Cached      bool           `json:"cached"`
	Timestamp   time.Time      `json:"timestamp"`
}

func (s *Server) handleSearchFlexible(w http.ResponseWriter, r *http.Request) {
	var req flexibleSearchRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBodyMessage)
		return
	}
	if err := s.validate.Struct(req); err != nil || (req.YearRange != nil && !req.YearRange.Valid()) {
		writeError(w, http.StatusBadRequest, invalidParamsMessage)
		return
	}

	var (
		rec    domain.Recommendation
		cached bool
		err    error
	)
	if vibeText := strings.TrimSpace(req.Vibe); vibeText != "" {
		var result recommend.Result
		result, err = s.service.Recommend(r.Context(), vibeText, 1)
		rec, cached = result.Recommendation, result.Cached
	} else {
		rec, err = s.service.SearchByParams(r.Context(), domain.SearchParameters{
			Genres:    req.Genres,
			Keywords:  req.Keywords,
			YearRange: req.YearRange,
		})
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "flexible movie search failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, searchFailedMessage)
		return
	}

	explanation := rec.Explanation
	if explanation == "" {
		explanation = fmt.Sprintf(flexibleFallbackFmt, len(rec.Movies))
	}
	movies := rec.Movies
	if movies == nil {
		movies = []domain.Movie{}
	}
	writeJSON(w, http.StatusOK, flexibleSearchResponse{
		Movies:      movies,
		Explanation: explanation,
		Cached:      cached,
		Timestamp:   time.Now().UTC(),
	})
}

func (s *Server) handleMovieDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	movie, err := s.service.MovieDetails(r.Context(), id)
	if err != nil {
		statusErr := domain.AsStatusError(err, detailsFailedMessage)
		level := slog.LevelWarn
		if statusErr.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "movie details failed",
			slog.Int("movieId", id),
			slog.Int("status", statusErr.Status),
			slog.String("error", err.Error()),
		)
		writeError(w, statusErr.Status, statusErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"movie":  movie,
		"cached": false,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	if s.environment != developmentEnvironment {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, s.service.CacheStats())
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
