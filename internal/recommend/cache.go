package recommend

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"vibecheck/movieservice/internal/domain"
	"vibecheck/movieservice/internal/metrics"
)

const (
	defaultCacheTTL        = time.Hour
	defaultCacheMaxEntries = 500
)

type cachedRecommendation struct {
	recommendation domain.Recommendation
	updatedAt      time.Time
	expiresAt      time.Time
}

// CacheStats is the debug view of the result cache.
type CacheStats struct {
	Keys  []string         `json:"keys"`
	Stats CacheStatCounter `json:"stats"`
}

type CacheStatCounter struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Keys   int   `json:"keys"`
}

// resultCache keeps recommendations in memory and, when configured, in
// Redis. Redis is consulted first; the map is the fallback.
type resultCache struct {
	mu         sync.RWMutex
	entries    map[string]*cachedRecommendation
	ttl        time.Duration
	maxEntries int
	redis      *RedisCacheBackend
	hits       atomic.Int64
	misses     atomic.Int64
	logger     *slog.Logger
	now        func() time.Time
}

func newResultCache(logger *slog.Logger) *resultCache {
	return &resultCache{
		entries:    make(map[string]*cachedRecommendation),
		ttl:        defaultCacheTTL,
		maxEntries: defaultCacheMaxEntries,
		logger:     logger,
		now:        time.Now,
	}
}

func (c *resultCache) lookup(ctx context.Context, key string) (domain.Recommendation, bool) {
	now := c.now()
	if c.redis != nil {
		recommendation, found, err := c.redis.Get(ctx, key)
		if err != nil {
			c.logger.Debug("redis result cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		} else if found {
			c.recordHit()
			c.storeMemory(key, recommendation, now)
			return recommendation, true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.recordMiss()
		return domain.Recommendation{}, false
	}
	if !now.Before(entry.expiresAt) {
		delete(c.entries, key)
		c.recordMiss()
		return domain.Recommendation{}, false
	}
	c.recordHit()
	return cloneRecommendation(entry.recommendation), true
}

func (c *resultCache) store(ctx context.Context, key string, recommendation domain.Recommendation) {
	if c.redis != nil {
		if err := c.redis.Set(ctx, key, recommendation, c.ttl); err != nil {
			c.logger.Debug("redis result cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	c.storeMemory(key, recommendation, c.now())
}

func (c *resultCache) storeMemory(key string, recommendation domain.Recommendation, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cachedRecommendation{
		recommendation: cloneRecommendation(recommendation),
		updatedAt:      now,
		expiresAt:      now.Add(c.ttl),
	}
	c.trimLocked(now)
}

// trimLocked drops expired entries, then the oldest ones above maxEntries.
func (c *resultCache) trimLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) <= c.maxEntries {
		return
	}

	type pair struct {
		key   string
		entry *cachedRecommendation
	}
	items := make([]pair, 0, len(c.entries))
	for key, entry := range c.entries {
		items = append(items, pair{key: key, entry: entry})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].entry.updatedAt.Before(items[j].entry.updatedAt)
	})
	for i := 0; i < len(items)-c.maxEntries; i++ {
		delete(c.entries, items[i].key)
	}
}

func (c *resultCache) stats() CacheStats {
	now := c.now()
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for key, entry := range c.entries {
		if now.Before(entry.expiresAt) {
			keys = append(keys, key)
		}
	}
	c.mu.RUnlock()
	sort.Strings(keys)

	return CacheStats{
		Keys: keys,
		Stats: CacheStatCounter{
			Hits:   c.hits.Load(),
			Misses: c.misses.Load(),
			Keys:   len(keys),
		},
	}
}

func (c *resultCache) recordHit() {
	c.hits.Add(1)
	metrics.CacheHitsTotal.Inc()
}

func (c *resultCache) recordMiss() {
	c.misses.Add(1)
	metrics.CacheMissesTotal.Inc()
}

// normalizeVibe folds case, composes unicode and collapses whitespace so
// trivially different spellings of a vibe share a cache entry. Casers are
// stateful, so each call gets its own.
func normalizeVibe(vibeText string) string {
	folded := cases.Lower(language.Und).String(norm.NFC.String(vibeText))
	return strings.Join(strings.Fields(folded), " ")
}

func buildCacheKey(vibeText string, page int) string {
	return "movies:" + normalizeVibe(vibeText) + ":page" + strconv.Itoa(page)
}

func cloneRecommendation(recommendation domain.Recommendation) domain.Recommendation {
	cloned := recommendation
	if recommendation.Movies != nil {
		cloned.Movies = make([]domain.Movie, len(recommendation.Movies))
		for i, movie := range recommendation.Movies {
			copied := movie
			copied.Genres = append(make([]string, 0, len(movie.Genres)), movie.Genres...)
			cloned.Movies[i] = copied
		}
	}
	return cloned
}
