package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "vibecheck/movieservice/internal/api/http"
	"vibecheck/movieservice/internal/app"
	"vibecheck/movieservice/internal/metrics"
	"vibecheck/movieservice/internal/providers/tmdb"
	"vibecheck/movieservice/internal/recommend"
	"vibecheck/movieservice/internal/telemetry"
)

const serviceName = "vibecheck"

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", serviceName),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("environment", cfg.Environment),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Any("corsOrigins", cfg.CORSOrigins()),
		slog.Int("rateLimitPerMinute", cfg.RateLimitPerMinute),
		slog.Duration("tmdbMinInterval", cfg.TMDB.MinInterval()),
		slog.Bool("hasTMDBKey", cfg.TMDB.APIKey != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("resultCacheDisabled", cfg.Search.CacheDisabled),
		slog.Duration("resultCacheTTL", cfg.Search.CacheTTL()),
	)
	if cfg.TMDB.APIKey == "" {
		logger.Warn("TMDB_API_KEY is not set, movie searches will fail until it is configured")
	}

	redisClient := connectRedis(cfg.RedisURL, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	tmdbClient := buildTMDBClient(cfg, redisClient, logger)
	service := recommend.NewService(tmdbClient, buildServiceOptions(cfg, redisClient, logger)...)

	handler := apihttp.NewServer(service,
		apihttp.WithLogger(logger),
		apihttp.WithEnvironment(cfg.Environment),
		apihttp.WithCORSOrigins(cfg.CORSOrigins()...),
		apihttp.WithRateLimit(cfg.RateLimitPerMinute, time.Minute),
		apihttp.WithImageHost(cfg.TMDB.ImageHost),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A cold fallback search can queue a handful of throttled provider calls.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("vibecheck service started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("vibecheck service stopped")
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectRedis returns nil when Redis is not configured or unreachable; both
// caches then stay in memory.
func connectRedis(rawURL string, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(rawURL)
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return client
}

func buildServiceOptions(cfg app.Config, redisClient *redis.Client, logger *slog.Logger) []recommend.ServiceOption {
	opts := []recommend.ServiceOption{recommend.WithLogger(logger)}
	if cfg.Search.CacheDisabled {
		return append(opts, recommend.WithCacheDisabled(true))
	}
	opts = append(opts,
		recommend.WithCacheTTL(cfg.Search.CacheTTL()),
		recommend.WithCacheMaxEntries(cfg.Search.CacheMaxEntries),
	)
	if redisClient != nil {
		opts = append(opts, recommend.WithRedisCache(recommend.NewRedisCacheBackend(redisClient)))
	}
	return opts
}

func buildTMDBClient(cfg app.Config, redisClient *redis.Client, logger *slog.Logger) *tmdb.Client {
	client := tmdb.NewClient(tmdb.Config{
		APIKey:  cfg.TMDB.APIKey,
		BaseURL: cfg.TMDB.BaseURL,
		Client: &http.Client{
			Timeout:   cfg.TMDB.Timeout(),
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Redis:    redisClient,
		CacheTTL: cfg.TMDB.CacheTTL(),
		Throttle: tmdb.NewThrottle(cfg.TMDB.MinInterval()),
		Logger:   logger,
	})
	logger.Info("tmdb client initialized", slog.Bool("enabled", client.Enabled()))
	return client
}
