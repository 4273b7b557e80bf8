package recommend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"vibecheck/movieservice/internal/domain"
)

type searchCall struct {
	query string
	page  int
}

type fakeProvider struct {
	mu            sync.Mutex
	disabled      bool
	discoverFn    func(query domain.DiscoverQuery) ([]domain.RawMovie, error)
	discoverCtxFn func(ctx context.Context, query domain.DiscoverQuery) ([]domain.RawMovie, error)
	searchFn      func(query string, page int) ([]domain.RawMovie, error)
	detailsFn     func(id int) (domain.RawMovie, error)
	discoverCalls []domain.DiscoverQuery
	searchCalls   []searchCall
}

func (f *fakeProvider) Enabled() bool {
	return !f.disabled
}

func (f *fakeProvider) Discover(ctx context.Context, query domain.DiscoverQuery) ([]domain.RawMovie, error) {
	f.mu.Lock()
	f.discoverCalls = append(f.discoverCalls, query)
	f.mu.Unlock()
	if f.discoverCtxFn != nil {
		return f.discoverCtxFn(ctx, query)
	}
	if f.discoverFn == nil {
		return []domain.RawMovie{}, nil
	}
	return f.discoverFn(query)
}

func (f *fakeProvider) SearchMovies(_ context.Context, query string, page int) ([]domain.RawMovie, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, searchCall{query: query, page: page})
	f.mu.Unlock()
	if f.searchFn == nil {
		return []domain.RawMovie{}, nil
	}
	return f.searchFn(query, page)
}

func (f *fakeProvider) MovieDetails(_ context.Context, id int) (domain.RawMovie, error) {
	if f.detailsFn == nil {
		return domain.RawMovie{}, domain.NewStatusError(http.StatusNotFound, "TMDb API error: Not Found")
	}
	return f.detailsFn(id)
}

func (f *fakeProvider) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.discoverCalls) + len(f.searchCalls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func moviesWithIDs(ids ...int) []domain.RawMovie {
	movies := make([]domain.RawMovie, 0, len(ids))
	for _, id := range ids {
		movies = append(movies, domain.RawMovie{ID: id, Title: "movie"})
	}
	return movies
}

func idRange(from, count int) []int {
	ids := make([]int, 0, count)
	for i := 0; i < count; i++ {
		ids = append(ids, from+i)
	}
	return ids
}

func movieIDs(movies []domain.RawMovie) []int {
	ids := make([]int, 0, len(movies))
	for _, movie := range movies {
		ids = append(ids, movie.ID)
	}
	return ids
}

func TestGenreBranchEscalatesThroughAllTiers(t *testing.T) {
	tierResults := [][]domain.RawMovie{
		moviesWithIDs(1, 2, 3),
		moviesWithIDs(4, 5),
		moviesWithIDs(6),
	}
	provider := &fakeProvider{}
	provider.discoverFn = func(domain.DiscoverQuery) ([]domain.RawMovie, error) {
		return tierResults[len(provider.discoverCalls)-1], nil
	}
	engine := NewEngine(provider, discardLogger())

	params := domain.SearchParameters{Genres: []int{18, 9648}}
	got, err := engine.ResolveCandidates(context.Background(), "rainy mystery night", params, 2)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	want := []domain.DiscoverQuery{
		{Genres: []int{18, 9648}, SortBy: domain.SortByPopularityDesc, MinVoteCount: 50, Page: 2},
		{Genres: []int{18, 9648}, SortBy: domain.SortByPopularityDesc, MinVoteCount: 10, Page: 2},
		{Genres: []int{18}, SortBy: domain.SortByPopularityDesc, MinVoteCount: 10, Page: 2},
	}
	if !reflect.DeepEqual(provider.discoverCalls, want) {
		t.Fatalf("discover calls = %+v, want %+v", provider.discoverCalls, want)
	}
	// Only the last tier's results survive.
	if ids := movieIDs(got); !reflect.DeepEqual(ids, []int{6}) {
		t.Fatalf("ids = %v, want [6]", ids)
	}
	if len(provider.searchCalls) != 0 {
		t.Fatalf("genre branch must not search, got %+v", provider.searchCalls)
	}
}

func TestGenreBranchStopsWhenEnoughResults(t *testing.T) {
	provider := &fakeProvider{discoverFn: func(domain.DiscoverQuery) ([]domain.RawMovie, error) {
		return moviesWithIDs(idRange(1, 10)...), nil
	}}
	engine := NewEngine(provider, discardLogger())

	got, err := engine.ResolveCandidates(context.Background(), "x", domain.SearchParameters{Genres: []int{35, 18}}, 1)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(provider.discoverCalls) != 1 || len(got) != 10 {
		t.Fatalf("calls = %d, results = %d", len(provider.discoverCalls), len(got))
	}
}

func TestGenreBranchSingleGenreSkipsThirdTier(t *testing.T) {
	provider := &fakeProvider{discoverFn: func(domain.DiscoverQuery) ([]domain.RawMovie, error) {
		return moviesWithIDs(1), nil
	}}
	engine := NewEngine(provider, discardLogger())

	if _, err := engine.ResolveCandidates(context.Background(), "x", domain.SearchParameters{Genres: []int{27}}, 1); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(provider.discoverCalls) != 2 {
		t.Fatalf("expected two tiers, got %d", len(provider.discoverCalls))
	}
}

func TestGenreBranchPropagatesProviderErrors(t *testing.T) {
	providerErr := domain.NewStatusError(http.StatusUnauthorized, "TMDb API error: Unauthorized")
	provider := &fakeProvider{discoverFn: func(domain.DiscoverQuery) ([]domain.RawMovie, error) {
		return nil, providerErr
	}}
	engine := NewEngine(provider, discardLogger())

	_, err := engine.ResolveCandidates(context.Background(), "x", domain.SearchParameters{Genres: []int{18, 9648}}, 1)
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if provider.totalCalls() != 1 {
		t.Fatalf("errors must not escalate tiers, got %d calls", provider.totalCalls())
	}
}

func TestYearFilterDoesNotBackfill(t *testing.T) {
	dates := []string{"1992-01-01", "1985-06-01", "1995-03-03", "", "1999-12-31", "2001-01-01", "1990-05-05", "1998-07-07"}
	records := make([]domain.RawMovie, 0, len(dates))
	for i, date := range dates {
		records = append(records, domain.RawMovie{ID: i + 1, ReleaseDate: date})
	}
	provider := &fakeProvider{discoverFn: func(domain.DiscoverQuery) ([]domain.RawMovie, error) {
		return records, nil
	}}
	engine := NewEngine(provider, discardLogger())

	params := domain.SearchParameters{Genres: []int{18}, YearRange: &domain.YearRange{Start: 1990, End: 1999}}
	got, err := engine.ResolveCandidates(context.Background(), "90s drama", params, 1)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	page := FormatMovies(Paginate(got, 1))
	if len(page) != 5 {
		t.Fatalf("expected 5 movies after filtering, got %d", len(page))
	}
	if ids := movieIDs(got); !reflect.DeepEqual(ids, []int{1, 3, 5, 7, 8}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestFallbackDeduplicatesAcrossTiers(t *testing.T) {
	provider := &fakeProvider{searchFn: func(query string, page int) ([]domain.RawMovie, error) {
		switch query {
		case "zorblax":
			return moviesWithIDs(42, 7), nil
		case "zorblax qx":
			return moviesWithIDs(42, 9), nil
		default:
			return []domain.RawMovie{}, nil
		}
	}}
	engine := NewEngine(provider, discardLogger())

	got, err := engine.ResolveCandidates(context.Background(), "zorblax qx", domain.SearchParameters{}, 1)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	count := 0
	for _, movie := range got {
		if movie.ID == 42 {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("id 42 appears %d times in %v", count, movieIDs(got))
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 unique movies, got %v", movieIDs(got))
	}

	// "qx" is too short to be a token; the whole vibe runs because the pool
	// stayed under five.
	wantSearches := []searchCall{{query: "zorblax", page: 1}, {query: "zorblax qx", page: 1}}
	if !reflect.DeepEqual(provider.searchCalls, wantSearches) {
		t.Fatalf("search calls = %+v, want %+v", provider.searchCalls, wantSearches)
	}
	if len(provider.discoverCalls) != 0 {
		t.Fatalf("no keyword genres, discover should not run: %+v", provider.discoverCalls)
	}
}

func TestFallbackKeywordDiscoverUsesRequestedPage(t *testing.T) {
	provider := &fakeProvider{discoverFn: func(domain.DiscoverQuery) ([]domain.RawMovie, error) {
		return moviesWithIDs(idRange(100, 12)...), nil
	}}
	engine := NewEngine(provider, discardLogger())

	got, err := engine.ResolveCandidates(context.Background(), "funny scary dark science night", domain.SearchParameters{}, 3)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	want := []domain.DiscoverQuery{{
		Genres:       []int{35, 27, 53},
		SortBy:       domain.SortByPopularityDesc,
		MinVoteCount: 20,
		Page:         3,
	}}
	if !reflect.DeepEqual(provider.discoverCalls, want) {
		t.Fatalf("discover calls = %+v, want %+v", provider.discoverCalls, want)
	}
	if len(provider.searchCalls) != 0 {
		t.Fatalf("a full discover pool should skip searches, got %+v", provider.searchCalls)
	}
	if len(got) != 12 {
		t.Fatalf("expected 12 movies, got %d", len(got))
	}
}

func TestFallbackSearchesAtMostThreeTokens(t *testing.T) {
	provider := &fakeProvider{searchFn: func(query string, page int) ([]domain.RawMovie, error) {
		if page != 1 {
			t.Errorf("search page = %d, want 1", page)
		}
		return moviesWithIDs(len(query)), nil
	}}
	engine := NewEngine(provider, discardLogger())

	if _, err := engine.ResolveCandidates(context.Background(), "alpha bravo charlie delta", domain.SearchParameters{}, 2); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	queries := make([]string, 0, len(provider.searchCalls))
	for _, call := range provider.searchCalls {
		queries = append(queries, call.query)
	}
	want := []string{"alpha", "bravo", "charlie", "alpha bravo charlie delta"}
	if !reflect.DeepEqual(queries, want) {
		t.Fatalf("queries = %v, want %v", queries, want)
	}
}

func TestFallbackSortsByCompositeScoreAndCapsPool(t *testing.T) {
	records := []domain.RawMovie{
		{ID: 1, Popularity: 50, VoteAverage: 10},
		{ID: 2, Popularity: 100, VoteAverage: 5},
	}
	for i := 0; i < 25; i++ {
		records = append(records, domain.RawMovie{ID: 10 + i, Popularity: 1})
	}
	provider := &fakeProvider{searchFn: func(query string, page int) ([]domain.RawMovie, error) {
		return records, nil
	}}
	engine := NewEngine(provider, discardLogger())

	got, err := engine.ResolveCandidates(context.Background(), "quixotic", domain.SearchParameters{}, 1)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("pool size = %d, want 20", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected order: %v", movieIDs(got)[:3])
	}
	// Ties keep provider order.
	if got[2].ID != 10 || got[19].ID != 27 {
		t.Fatalf("tie order not stable: %v", movieIDs(got))
	}
}

func TestCompositeScore(t *testing.T) {
	tests := []struct {
		popularity, rating, want float64
	}{
		{100, 10, 73},
		{50, 10, 38},
		{100, 5, 71.5},
		{0, 0, 0},
	}
	for _, tt := range tests {
		got := CompositeScore(domain.RawMovie{Popularity: tt.popularity, VoteAverage: tt.rating})
		if math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("score(%v, %v) = %v, want %v", tt.popularity, tt.rating, got, tt.want)
		}
	}
	if CompositeScore(domain.RawMovie{Popularity: 100, VoteAverage: 5}) <= CompositeScore(domain.RawMovie{Popularity: 50, VoteAverage: 10}) {
		t.Fatal("popular movie must outrank the better rated but obscure one")
	}
}

func TestFallbackErrorYieldsEmptyPool(t *testing.T) {
	provider := &fakeProvider{searchFn: func(query string, page int) ([]domain.RawMovie, error) {
		if query == "bravo" {
			return nil, domain.NewStatusError(http.StatusBadGateway, "TMDb API error: Bad Gateway")
		}
		return moviesWithIDs(1), nil
	}}
	engine := NewEngine(provider, discardLogger())

	got, err := engine.ResolveCandidates(context.Background(), "alpha bravo charlie", domain.SearchParameters{}, 1)
	if err != nil {
		t.Fatalf("fallback errors should not propagate: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil pool, got %#v", got)
	}
	if len(provider.searchCalls) != 2 {
		t.Fatalf("fallback should stop at the failing call, got %+v", provider.searchCalls)
	}
}

func TestFallbackCancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &fakeProvider{searchFn: func(query string, page int) ([]domain.RawMovie, error) {
		cancel()
		return nil, context.Canceled
	}}
	engine := NewEngine(provider, discardLogger())

	if _, err := engine.ResolveCandidates(ctx, "alpha", domain.SearchParameters{}, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestResolveByParamsUsesGenresFirst(t *testing.T) {
	provider := &fakeProvider{discoverFn: func(domain.DiscoverQuery) ([]domain.RawMovie, error) {
		return moviesWithIDs(idRange(1, 12)...), nil
	}}
	engine := NewEngine(provider, discardLogger())

	got, err := engine.ResolveByParams(context.Background(), domain.SearchParameters{
		Genres:   []int{28},
		Keywords: []string{"heist"},
	})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("expected first 8 movies, got %d", len(got))
	}
	want := domain.DiscoverQuery{Genres: []int{28}, SortBy: domain.SortByPopularityDesc, Page: 1}
	if len(provider.discoverCalls) != 1 || !reflect.DeepEqual(provider.discoverCalls[0], want) {
		t.Fatalf("discover calls = %+v", provider.discoverCalls)
	}
	if len(provider.searchCalls) != 0 {
		t.Fatalf("keywords should not be searched, got %+v", provider.searchCalls)
	}
}

func TestResolveByParamsFallsBackToFirstProductiveKeyword(t *testing.T) {
	provider := &fakeProvider{searchFn: func(query string, page int) ([]domain.RawMovie, error) {
		if query == "heist" {
			return moviesWithIDs(idRange(1, 10)...), nil
		}
		return []domain.RawMovie{}, nil
	}}
	engine := NewEngine(provider, discardLogger())

	got, err := engine.ResolveByParams(context.Background(), domain.SearchParameters{
		Keywords: []string{"zzz", "heist", "caper", "noir"},
	})
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("expected 8 movies, got %d", len(got))
	}
	if len(provider.searchCalls) != 2 {
		t.Fatalf("search should stop at the first hit, got %+v", provider.searchCalls)
	}
}

func TestFallbackTokens(t *testing.T) {
	got := fallbackTokens("  A Cozy   ÉTÉ at the sea ")
	want := []string{"cozy", "été", "the", "sea"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
}
