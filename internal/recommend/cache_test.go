package recommend

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"vibecheck/movieservice/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestCache() (*resultCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := newResultCache(discardLogger())
	cache.now = clock.Now
	return cache, clock
}

func sampleRecommendation(title string) domain.Recommendation {
	return domain.Recommendation{
		Movies:      []domain.Movie{{ID: 1, Title: title, Overview: "x", Genres: []string{"Drama"}}},
		Explanation: "Here are 1 recommendations perfect for your current vibe!",
	}
}

// ---------------------------------------------------------------------------
// lookup / store
// ---------------------------------------------------------------------------

func TestCacheLookupMissOnEmpty(t *testing.T) {
	cache, _ := newTestCache()
	if _, found := cache.lookup(context.Background(), "key"); found {
		t.Fatal("expected cache miss on empty cache")
	}
	if stats := cache.stats(); stats.Stats.Misses != 1 || stats.Stats.Hits != 0 {
		t.Fatalf("unexpected stats: %+v", stats.Stats)
	}
}

func TestCacheLookupHitFresh(t *testing.T) {
	cache, clock := newTestCache()
	cache.store(context.Background(), "key", sampleRecommendation("Heat"))

	clock.now = clock.now.Add(59 * time.Minute)
	got, found := cache.lookup(context.Background(), "key")
	if !found {
		t.Fatal("expected cache hit")
	}
	if got.Movies[0].Title != "Heat" {
		t.Fatalf("unexpected recommendation: %+v", got)
	}
}

func TestCacheLookupExpires(t *testing.T) {
	cache, clock := newTestCache()
	cache.store(context.Background(), "key", sampleRecommendation("Heat"))

	clock.now = clock.now.Add(time.Hour)
	if _, found := cache.lookup(context.Background(), "key"); found {
		t.Fatal("entry should expire after the TTL")
	}
	if len(cache.stats().Keys) != 0 {
		t.Fatal("expired entry should be dropped")
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	cache, _ := newTestCache()
	original := sampleRecommendation("Heat")
	cache.store(context.Background(), "key", original)
	original.Movies[0].Genres[0] = "Mutated"

	got, _ := cache.lookup(context.Background(), "key")
	got.Movies[0].Title = "Changed"

	again, _ := cache.lookup(context.Background(), "key")
	if again.Movies[0].Title != "Heat" || again.Movies[0].Genres[0] != "Drama" {
		t.Fatalf("cache entry was mutated: %+v", again.Movies[0])
	}
}

func TestCacheTrimsOldestAboveLimit(t *testing.T) {
	cache, clock := newTestCache()
	cache.maxEntries = 3

	for i := 0; i < 5; i++ {
		cache.store(context.Background(), fmt.Sprintf("k%d", i), sampleRecommendation("m"))
		clock.now = clock.now.Add(time.Second)
	}

	stats := cache.stats()
	if !reflect.DeepEqual(stats.Keys, []string{"k2", "k3", "k4"}) {
		t.Fatalf("keys = %v", stats.Keys)
	}
	if stats.Stats.Keys != 3 {
		t.Fatalf("key count = %d", stats.Stats.Keys)
	}
}

// ---------------------------------------------------------------------------
// keys
// ---------------------------------------------------------------------------

func TestBuildCacheKeyNormalizesVibe(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Rainy Day", "rainy day"},
		{"  rainy   day ", "rainy day"},
		{"CAFÉ noir", "café noir"},
		// Decomposed e + combining acute composes to the same key.
		{"cafe\u0301", "caf\u00e9"},
	}
	for _, tt := range tests {
		if ka, kb := buildCacheKey(tt.a, 1), buildCacheKey(tt.b, 1); ka != kb {
			t.Fatalf("keys differ: %q vs %q", ka, kb)
		}
	}
	if buildCacheKey("rainy", 1) == buildCacheKey("rainy", 2) {
		t.Fatal("page must be part of the key")
	}
	if got := buildCacheKey("Rainy Day", 1); got != "movies:rainy day:page1" {
		t.Fatalf("key = %q", got)
	}
}
