package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "VIBECHECK_CONFIG"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	HTTPAddr    string `koanf:"http_addr"`
	Port        string `koanf:"port" validate:"omitempty,numeric"`
	Environment string `koanf:"environment"`
	NodeEnv     string `koanf:"node_env"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat   string `koanf:"log_format" validate:"oneof=text json"`
	FrontendURL string `koanf:"frontend_url" validate:"required,url"`
	AgentURL    string `koanf:"agent_url" validate:"omitempty,url"`
	RedisURL    string `koanf:"redis_url" validate:"omitempty,url"`

	RateLimitPerMinute int `koanf:"rate_limit_per_minute" validate:"min=1"`

	TMDB   TMDBConfig   `koanf:"tmdb"`
	Search SearchConfig `koanf:"search"`
}

type TMDBConfig struct {
	APIKey          string `koanf:"api_key"`
	BaseURL         string `koanf:"base_url" validate:"required,url"`
	ImageHost       string `koanf:"image_host" validate:"required,hostname"`
	MinIntervalMS   int    `koanf:"min_interval_ms" validate:"min=1"`
	TimeoutSeconds  int    `koanf:"timeout_seconds" validate:"min=1"`
	CacheTTLMinutes int    `koanf:"cache_ttl_minutes" validate:"min=1"`
}

type SearchConfig struct {
	CacheTTLMinutes int  `koanf:"cache_ttl_minutes" validate:"min=1"`
	CacheDisabled   bool `koanf:"cache_disabled"`
	CacheMaxEntries int  `koanf:"cache_max_entries" validate:"min=1"`
}

func defaultConfig() Config {
	return Config{
		Port:               "3001",
		LogLevel:           "info",
		LogFormat:          "text",
		FrontendURL:        "http://localhost:5173",
		AgentURL:           "http://localhost:4000",
		RateLimitPerMinute: 20,
		TMDB: TMDBConfig{
			BaseURL:         "https://api.themoviedb.org/3",
			ImageHost:       "image.tmdb.org",
			MinIntervalMS:   250,
			TimeoutSeconds:  10,
			CacheTTLMinutes: 60,
		},
		Search: SearchConfig{
			CacheTTLMinutes: 60,
			CacheMaxEntries: 500,
		},
	}
}

// envKeys maps the supported environment variables to config paths. Anything
// else in the environment is ignored.
var envKeys = map[string]string{
	"HTTP_ADDR":                "http_addr",
	"PORT":                     "port",
	"APP_ENV":                  "environment",
	"NODE_ENV":                 "node_env",
	"LOG_LEVEL":                "log_level",
	"LOG_FORMAT":               "log_format",
	"FRONTEND_URL":             "frontend_url",
	"AGENT_URL":                "agent_url",
	"REDIS_URL":                "redis_url",
	"RATE_LIMIT_PER_MINUTE":    "rate_limit_per_minute",
	"TMDB_API_KEY":             "tmdb.api_key",
	"TMDB_BASE_URL":            "tmdb.base_url",
	"TMDB_IMAGE_HOST":          "tmdb.image_host",
	"TMDB_MIN_INTERVAL_MS":     "tmdb.min_interval_ms",
	"TMDB_TIMEOUT_SECONDS":     "tmdb.timeout_seconds",
	"TMDB_CACHE_TTL_MINUTES":   "tmdb.cache_ttl_minutes",
	"SEARCH_CACHE_TTL_MINUTES": "search.cache_ttl_minutes",
	"SEARCH_CACHE_DISABLED":    "search.cache_disabled",
	"SEARCH_CACHE_MAX_ENTRIES": "search.cache_max_entries",
}

// LoadConfig layers struct defaults, an optional YAML file and the
// environment, in that order, then validates the result.
func LoadConfig() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envTransform drops unknown and blank variables so they never mask a
// default or file value.
func envTransform(key, value string) (string, interface{}) {
	path, ok := envKeys[key]
	if !ok || strings.TrimSpace(value) == "" {
		return "", nil
	}
	return path, value
}

func findConfigFile() string {
	if path := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); path != "" {
		return path
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c *Config) normalize() {
	c.HTTPAddr = strings.TrimSpace(c.HTTPAddr)
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":" + strings.TrimSpace(c.Port)
	}
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Environment == "" {
		c.Environment = strings.ToLower(strings.TrimSpace(c.NodeEnv))
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
}

func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// CORSOrigins lists the browser origins allowed to call the API.
func (c Config) CORSOrigins() []string {
	origins := make([]string, 0, 2)
	for _, origin := range []string{c.FrontendURL, c.AgentURL} {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		duplicate := false
		for _, existing := range origins {
			if existing == origin {
				duplicate = true
				break
			}
		}
		if !duplicate {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c TMDBConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

func (c TMDBConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c TMDBConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c SearchConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}
