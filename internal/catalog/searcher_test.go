package catalog

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marquee/internal/logging"
	"marquee/internal/services"
	"marquee/internal/tmdb"
)

type stubBackend struct {
	calls   atomic.Int32
	mu      sync.Mutex
	queries []string
	fail    map[string]error
	results map[string][]tmdb.Movie
}

func (s *stubBackend) SearchMovie(_ context.Context, query string) (*tmdb.Page, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if err, ok := s.fail[query]; ok {
		return nil, err
	}
	return &tmdb.Page{Page: 1, Results: s.results[query]}, nil
}

func TestLookupReturnsProviderResults(t *testing.T) {
	backend := &stubBackend{results: map[string][]tmdb.Movie{
		"Heat": {{ID: 949, Title: "Heat"}},
	}}
	searcher := New(backend, logging.NewNop())
	t.Cleanup(searcher.Close)

	got := searcher.Lookup(context.Background(), "  Heat  ")
	if len(got) != 1 || got[0].ID != 949 {
		t.Fatalf("unexpected results: %#v", got)
	}
	if backend.queries[0] != "Heat" {
		t.Fatalf("expected trimmed query, got %q", backend.queries[0])
	}
}

func TestLookupDegradesToEmptyOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	backend := &stubBackend{fail: map[string]error{
		"Broken": services.Wrap(services.ErrUnavailable, "tmdb", "search", "tmdb returned 503", nil),
	}}
	searcher := New(backend, logger)

	got := searcher.Lookup(context.Background(), "Broken")
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %#v", got)
	}
	out := buf.String()
	if !strings.Contains(out, `"event_type":"catalog_lookup_failed"`) {
		t.Fatalf("expected failure to be logged with event type, got %s", out)
	}
	if !strings.Contains(out, `"title":"Broken"`) {
		t.Fatalf("expected title in log, got %s", out)
	}
}

func TestLookupEmptyTitleSkipsBackend(t *testing.T) {
	backend := &stubBackend{}
	searcher := New(backend, logging.NewNop())
	for _, title := range []string{"", "   ", "\t\n"} {
		if got := searcher.Lookup(context.Background(), title); got == nil || len(got) != 0 {
			t.Fatalf("Lookup(%q) = %#v, want empty", title, got)
		}
	}
	if backend.calls.Load() != 0 {
		t.Fatalf("expected no backend calls, got %d", backend.calls.Load())
	}
}

func TestLookupUnconfigured(t *testing.T) {
	searcher := New(nil, logging.NewNop())
	if searcher.Configured() {
		t.Fatal("expected unconfigured searcher")
	}
	if got := searcher.Lookup(context.Background(), "Heat"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty results, got %#v", got)
	}
}

func TestLookupCachesSuccessesOnly(t *testing.T) {
	backend := &stubBackend{
		results: map[string][]tmdb.Movie{"The Godfather": {{ID: 238, Title: "The Godfather"}}},
		fail:    map[string]error{"Flaky": errors.New("connection reset")},
	}
	searcher := New(backend, logging.NewNop(), WithCacheTTL(time.Minute))
	t.Cleanup(searcher.Close)

	ctx := context.Background()
	first := searcher.Lookup(ctx, "The Godfather")
	second := searcher.Lookup(ctx, "the   GODFATHER")
	if backend.calls.Load() != 1 {
		t.Fatalf("expected one backend call for equivalent titles, got %d", backend.calls.Load())
	}
	if len(first) != 1 || len(second) != 1 || second[0].ID != 238 {
		t.Fatalf("unexpected cached results: %#v %#v", first, second)
	}

	second[0].Title = "mutated"
	if third := searcher.Lookup(ctx, "The Godfather"); third[0].Title != "The Godfather" {
		t.Fatalf("cache entry was mutated through a returned slice: %#v", third)
	}

	searcher.Lookup(ctx, "Flaky")
	searcher.Lookup(ctx, "Flaky")
	if backend.calls.Load() != 3 {
		t.Fatalf("expected failed lookups to bypass the cache, got %d calls", backend.calls.Load())
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	decomposed := "Ame\u0301lie"
	composed := "AM\u00c9LIE"
	if cacheKey(decomposed) != cacheKey(composed) {
		t.Fatalf("expected composed and decomposed forms to share a key: %q vs %q", cacheKey(decomposed), cacheKey(composed))
	}
	if cacheKey("Heat") == cacheKey("Heat 2") {
		t.Fatal("distinct titles must not share a key")
	}
}
