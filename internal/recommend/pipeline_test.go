package recommend_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/llm"
	"marquee/internal/logging"
	"marquee/internal/recommend"
	"marquee/internal/services"
	"marquee/internal/testsupport"
	"marquee/internal/tmdb"
)

type fakeCompletion struct {
	available bool
	reply     string
	err       error
	calls     atomic.Int32
	prompts   []string
}

func (f *fakeCompletion) Available() bool { return f.available }

func (f *fakeCompletion) Complete(_ context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

// echoCatalog returns one movie per lookup whose title echoes the query,
// optionally waiting so later titles finish first.
type echoCatalog struct {
	mu      sync.Mutex
	queries []string
	delay   func(title string) time.Duration
	empty   map[string]bool
}

func (c *echoCatalog) Lookup(_ context.Context, title string) []tmdb.Movie {
	c.mu.Lock()
	c.queries = append(c.queries, title)
	c.mu.Unlock()
	if c.delay != nil {
		time.Sleep(c.delay(title))
	}
	if title == "" || c.empty[title] {
		return []tmdb.Movie{}
	}
	return []tmdb.Movie{{ID: int64(len(title)), Title: title}}
}

func (c *echoCatalog) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

func assertAligned(t *testing.T, result recommend.ResolutionResult) {
	t.Helper()
	if len(result.Titles) != len(result.ResultsByTitle) {
		t.Fatalf("titles (%d) and results (%d) are not aligned", len(result.Titles), len(result.ResultsByTitle))
	}
	for i, r := range result.ResultsByTitle {
		if r == nil {
			t.Fatalf("results[%d] is nil", i)
		}
	}
}

func TestRunNominal(t *testing.T) {
	completion := &fakeCompletion{
		available: true,
		reply:     "Ocean's Eleven, The Italian Job, Logan Lucky, Baby Driver, Now You See Me",
	}
	// Earlier titles take longer so completion order is the reverse of input order.
	cat := &echoCatalog{delay: func(title string) time.Duration {
		order := map[string]int{"Ocean's Eleven": 5, "The Italian Job": 4, "Logan Lucky": 3, "Baby Driver": 2, "Now You See Me": 1}
		return time.Duration(order[title]) * 5 * time.Millisecond
	}}
	store := recommend.NewStateStore()
	pipeline := recommend.NewPipeline(completion, cat, logging.NewNop(), recommend.WithStateStore(store))

	outcome, err := pipeline.Run(context.Background(), "funny heist movies")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != recommend.StateSucceeded || outcome.Source != recommend.SourceCompletion {
		t.Fatalf("unexpected outcome state=%v source=%v", outcome.State, outcome.Source)
	}
	want := []string{"Ocean's Eleven", "The Italian Job", "Logan Lucky", "Baby Driver", "Now You See Me"}
	if !reflect.DeepEqual(outcome.Result.Titles, want) {
		t.Fatalf("titles = %q, want %q", outcome.Result.Titles, want)
	}
	assertAligned(t, outcome.Result)
	for i, title := range want {
		if got := outcome.Result.ResultsByTitle[i][0].Title; got != title {
			t.Fatalf("results[%d] belongs to %q, want %q", i, got, title)
		}
	}
	if completion.calls.Load() != 1 {
		t.Fatalf("expected one completion call, got %d", completion.calls.Load())
	}
	if completion.prompts[0] != recommend.BuildInstruction("funny heist movies") {
		t.Fatalf("completion received unexpected instruction %q", completion.prompts[0])
	}

	snap := store.Snapshot()
	if snap.State != recommend.StateSucceeded || snap.Busy || snap.Result == nil || snap.Result.Len() != 5 {
		t.Fatalf("unexpected published snapshot: %#v", snap)
	}
}

func TestRunLooksUpTitlesConcurrently(t *testing.T) {
	const titles = 5
	var (
		mu      sync.Mutex
		arrived int
		release = make(chan struct{})
	)
	cat := lookupFunc(func(_ context.Context, title string) []tmdb.Movie {
		mu.Lock()
		arrived++
		if arrived == titles {
			close(release)
		}
		mu.Unlock()
		select {
		case <-release:
		case <-time.After(2 * time.Second):
			t.Errorf("lookup %q was not overlapped with the others", title)
		}
		return []tmdb.Movie{{Title: title}}
	})
	completion := &fakeCompletion{available: true, reply: "a, b, c, d, e"}
	pipeline := recommend.NewPipeline(completion, cat, logging.NewNop())

	outcome, err := pipeline.Run(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	assertAligned(t, outcome.Result)
}

type lookupFunc func(ctx context.Context, title string) []tmdb.Movie

func (f lookupFunc) Lookup(ctx context.Context, title string) []tmdb.Movie { return f(ctx, title) }

func TestRunUnconfiguredBackendUsesFallback(t *testing.T) {
	completion := &fakeCompletion{available: false}
	cat := &echoCatalog{}
	store := recommend.NewStateStore()
	pipeline := recommend.NewPipeline(completion, cat, logging.NewNop(), recommend.WithStateStore(store))

	outcome, err := pipeline.Run(context.Background(), "space operas")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if completion.calls.Load() != 0 {
		t.Fatalf("unavailable backend must not be called, got %d calls", completion.calls.Load())
	}
	if outcome.State != recommend.StateFailedFallback || outcome.Source != recommend.SourceFallback {
		t.Fatalf("unexpected outcome state=%v source=%v", outcome.State, outcome.Source)
	}
	if !reflect.DeepEqual(outcome.Result.Titles, recommend.FallbackTitles()) {
		t.Fatalf("titles = %q, want fallback list", outcome.Result.Titles)
	}
	if outcome.Notice == "" {
		t.Fatal("expected an informational notice for fallback results")
	}
	assertAligned(t, outcome.Result)
	if cat.calls() != len(recommend.FallbackTitles()) {
		t.Fatalf("expected a lookup per fallback title, got %d", cat.calls())
	}
	if snap := store.Snapshot(); snap.State != recommend.StateFailedFallback || snap.Notice == "" {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestRunNilCompletionUsesFallback(t *testing.T) {
	pipeline := recommend.NewPipeline(nil, &echoCatalog{}, logging.NewNop())
	outcome, err := pipeline.Run(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !reflect.DeepEqual(outcome.Result.Titles, recommend.FallbackTitles()) {
		t.Fatalf("titles = %q, want fallback list", outcome.Result.Titles)
	}
}

func TestRunCompletionFailureUsesFallback(t *testing.T) {
	completion := &fakeCompletion{available: true, err: errors.New("connection reset by peer")}
	pipeline := recommend.NewPipeline(completion, &echoCatalog{}, logging.NewNop())

	outcome, err := pipeline.Run(context.Background(), "noir")
	if err != nil {
		t.Fatalf("completion failures must be recovered, got %v", err)
	}
	if outcome.State != recommend.StateFailedFallback {
		t.Fatalf("expected FailedFallback, got %v", outcome.State)
	}
	if !reflect.DeepEqual(outcome.Result.Titles, recommend.FallbackTitles()) {
		t.Fatalf("titles = %q, want fallback list", outcome.Result.Titles)
	}
	if completion.calls.Load() != 1 {
		t.Fatalf("expected a single completion attempt, got %d", completion.calls.Load())
	}
}

func TestRunShortCompletionNotPadded(t *testing.T) {
	completion := &fakeCompletion{available: true, reply: "Heat, Ronin,"}
	pipeline := recommend.NewPipeline(completion, &echoCatalog{}, logging.NewNop())

	outcome, err := pipeline.Run(context.Background(), "heists")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != recommend.StateSucceeded {
		t.Fatalf("expected Succeeded, got %v", outcome.State)
	}
	if !reflect.DeepEqual(outcome.Result.Titles, []string{"Heat", "Ronin", ""}) {
		t.Fatalf("unexpected titles %q", outcome.Result.Titles)
	}
	assertAligned(t, outcome.Result)
	if got := outcome.Result.ResultsByTitle[2]; len(got) != 0 {
		t.Fatalf("empty fragment should have no matches, got %#v", got)
	}
}

func TestRunEmptyPromptRejectedWithoutIO(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t"} {
		completion := &fakeCompletion{available: true, reply: "a, b"}
		cat := &echoCatalog{}
		store := recommend.NewStateStore()
		pipeline := recommend.NewPipeline(completion, cat, logging.NewNop(), recommend.WithStateStore(store))

		_, err := pipeline.Run(context.Background(), prompt)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("Run(%q) error = %v, want validation error", prompt, err)
		}
		if completion.calls.Load() != 0 || cat.calls() != 0 {
			t.Fatalf("Run(%q) performed I/O: completion=%d catalog=%d", prompt, completion.calls.Load(), cat.calls())
		}
		snap := store.Snapshot()
		if snap.State != recommend.StateIdle || snap.Busy {
			t.Fatalf("validation must not start a run: %#v", snap)
		}
		if snap.Error == "" {
			t.Fatal("expected validation message in snapshot")
		}
	}
}

func TestRunAlwaysReachesTerminalState(t *testing.T) {
	prompts := []string{"x", "películas de terror japonesas", "映画", "🎬🍿", "a,b,,c", "'; DROP TABLE movies; --"}
	replies := []string{"", ",,,", "one", "Amélie, 千と千尋の神隠し"}
	for _, prompt := range prompts {
		for _, reply := range replies {
			completion := &fakeCompletion{available: true, reply: reply}
			store := recommend.NewStateStore()
			pipeline := recommend.NewPipeline(completion, &echoCatalog{}, logging.NewNop(), recommend.WithStateStore(store))
			outcome, err := pipeline.Run(context.Background(), prompt)
			if err != nil {
				t.Fatalf("Run(%q) with reply %q returned error: %v", prompt, reply, err)
			}
			if !outcome.State.Terminal() {
				t.Fatalf("Run(%q) ended in non-terminal state %v", prompt, outcome.State)
			}
			assertAligned(t, outcome.Result)
			if snap := store.Snapshot(); snap.Busy || !snap.State.Terminal() {
				t.Fatalf("store left busy after Run(%q): %#v", prompt, snap)
			}
		}
	}
}

func TestRunDegradesSingleLookup(t *testing.T) {
	completion := &fakeCompletion{available: true, reply: "Heat, Ronin, Thief"}
	cat := &echoCatalog{empty: map[string]bool{"Ronin": true}}
	pipeline := recommend.NewPipeline(completion, cat, logging.NewNop())

	outcome, err := pipeline.Run(context.Background(), "heists")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	results := outcome.Result.ResultsByTitle
	if len(results[1]) != 0 {
		t.Fatalf("expected empty results for failed title, got %#v", results[1])
	}
	if results[0][0].Title != "Heat" || results[2][0].Title != "Thief" {
		t.Fatalf("other titles were affected: %#v", results)
	}
}

func TestRunLookupLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	cat := lookupFunc(func(_ context.Context, title string) []tmdb.Movie {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return []tmdb.Movie{{Title: title}}
	})
	completion := &fakeCompletion{available: true, reply: "a, b, c, d, e"}
	pipeline := recommend.NewPipeline(completion, cat, logging.NewNop(), recommend.WithLookupLimit(2))

	outcome, err := pipeline.Run(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	assertAligned(t, outcome.Result)
	if peak.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent lookups, saw %d", peak.Load())
	}
}

// TestRunPartialCatalogOutage drives the real TMDB client and catalog searcher
// against a fake provider where two of five searches fail.
func TestRunPartialCatalogOutage(t *testing.T) {
	fakeTMDB := testsupport.NewFakeTMDB(t)
	fakeLLM := testsupport.NewFakeCompletion(t, "Ocean's Eleven, The Italian Job, Logan Lucky, Baby Driver, Now You See Me")
	cfg := testsupport.NewConfig(t, testsupport.WithTMDB(fakeTMDB), testsupport.WithCompletion(fakeLLM))

	for i, title := range []string{"Ocean's Eleven", "Logan Lucky", "Now You See Me"} {
		fakeTMDB.AddSearchResult(title, tmdb.Movie{ID: int64(100 + i), Title: title})
	}
	fakeTMDB.FailSearch("The Italian Job", http.StatusInternalServerError)
	fakeTMDB.FailSearch("Baby Driver", http.StatusServiceUnavailable)

	searcher, _ := catalog.NewFromConfig(cfg, logging.NewNop())
	t.Cleanup(searcher.Close)
	client := llm.NewClient(llm.ConfigFrom(cfg))
	pipeline := recommend.NewPipeline(client, searcher, logging.NewNop())

	outcome, err := pipeline.Run(context.Background(), "funny heist movies")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != recommend.StateSucceeded {
		t.Fatalf("expected Succeeded, got %v", outcome.State)
	}
	assertAligned(t, outcome.Result)
	if outcome.Result.Len() != 5 {
		t.Fatalf("expected 5 entries, got %d", outcome.Result.Len())
	}
	for i, title := range outcome.Result.Titles {
		got := outcome.Result.ResultsByTitle[i]
		switch title {
		case "The Italian Job", "Baby Driver":
			if len(got) != 0 {
				t.Fatalf("expected empty results for %q, got %#v", title, got)
			}
		default:
			if len(got) != 1 || got[0].Title != title {
				t.Fatalf("unexpected results for %q: %#v", title, got)
			}
		}
	}
	if fakeLLM.Requests() != 1 {
		t.Fatalf("expected one completion request, got %d", fakeLLM.Requests())
	}
	if len(fakeTMDB.Queries()) != 5 {
		t.Fatalf("expected 5 catalog searches, got %d", len(fakeTMDB.Queries()))
	}
}

func TestRunCompletionHTTPFailureFallsBack(t *testing.T) {
	fakeTMDB := testsupport.NewFakeTMDB(t)
	fakeLLM := testsupport.NewFakeCompletion(t, "")
	fakeLLM.Fail(http.StatusBadGateway)
	cfg := testsupport.NewConfig(t, testsupport.WithTMDB(fakeTMDB), testsupport.WithCompletion(fakeLLM))
	for _, title := range recommend.FallbackTitles() {
		fakeTMDB.AddSearchResult(title, tmdb.Movie{ID: int64(len(title)), Title: title})
	}

	searcher, _ := catalog.NewFromConfig(cfg, logging.NewNop())
	t.Cleanup(searcher.Close)
	pipeline := recommend.NewPipeline(llm.NewClient(llm.ConfigFrom(cfg)), searcher, logging.NewNop())

	outcome, err := pipeline.Run(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if outcome.State != recommend.StateFailedFallback {
		t.Fatalf("expected FailedFallback, got %v", outcome.State)
	}
	for i, title := range recommend.FallbackTitles() {
		if got := outcome.Result.ResultsByTitle[i]; len(got) != 1 || got[0].Title != title {
			t.Fatalf("results[%d] = %#v, want match for %q", i, got, title)
		}
	}
}

// TestRunBlankCompletionAccepted drives the real completion client: a
// well-formed reply with blank content is a successful run, not a fallback.
func TestRunBlankCompletionAccepted(t *testing.T) {
	for _, reply := range []string{"", "   ", ","} {
		fakeTMDB := testsupport.NewFakeTMDB(t)
		fakeLLM := testsupport.NewFakeCompletion(t, reply)
		cfg := testsupport.NewConfig(t, testsupport.WithTMDB(fakeTMDB), testsupport.WithCompletion(fakeLLM))

		searcher, _ := catalog.NewFromConfig(cfg, logging.NewNop())
		t.Cleanup(searcher.Close)
		pipeline := recommend.NewPipeline(llm.NewClient(llm.ConfigFrom(cfg)), searcher, logging.NewNop())

		outcome, err := pipeline.Run(context.Background(), "anything")
		if err != nil {
			t.Fatalf("reply %q: Run returned error: %v", reply, err)
		}
		if outcome.State != recommend.StateSucceeded || outcome.Source != recommend.SourceCompletion {
			t.Fatalf("reply %q: got %v from %s, want Succeeded from completion", reply, outcome.State, outcome.Source)
		}
		if !reflect.DeepEqual(outcome.Result.Titles, recommend.ParseTitles(reply)) {
			t.Fatalf("reply %q: titles %q", reply, outcome.Result.Titles)
		}
		assertAligned(t, outcome.Result)
		for i, got := range outcome.Result.ResultsByTitle {
			if len(got) != 0 {
				t.Fatalf("reply %q: results[%d] = %#v, want none", reply, i, got)
			}
		}
		if len(fakeTMDB.Queries()) != 0 {
			t.Fatalf("reply %q: empty titles must not reach the catalog, got %q", reply, fakeTMDB.Queries())
		}
	}
}

func ExampleParseTitles() {
	fmt.Printf("%q\n", recommend.ParseTitles("Gadar, Sholay , Don , Golmaal , koi mil Gaya"))
	// Output: ["Gadar" "Sholay" "Don" "Golmaal" "koi mil Gaya"]
}
