package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"marquee/internal/tmdb"
)

// FakeTMDB is an in-process TMDB API serving canned search results,
// listings, and videos.
type FakeTMDB struct {
	server *httptest.Server

	mu       sync.Mutex
	search   map[string][]tmdb.Movie
	failing  map[string]int
	listings map[string][]tmdb.Movie
	videos   map[int64][]tmdb.Video
	details  map[int64]tmdb.Details
	delay    time.Duration
	queries  []string
	requests int
}

// NewFakeTMDB starts a fake TMDB server that is closed when the test ends.
func NewFakeTMDB(t testing.TB) *FakeTMDB {
	t.Helper()

	f := &FakeTMDB{
		search:   make(map[string][]tmdb.Movie),
		failing:  make(map[string]int),
		listings: make(map[string][]tmdb.Movie),
		videos:   make(map[int64][]tmdb.Video),
		details:  make(map[int64]tmdb.Details),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search/movie", f.handleSearch)
	mux.HandleFunc("GET /movie/{segment}", f.handleMovie)
	mux.HandleFunc("GET /movie/{id}/videos", f.handleVideos)
	f.server = httptest.NewServer(f.authenticate(mux))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL to configure as tmdb.base_url.
func (f *FakeTMDB) URL() string {
	return f.server.URL
}

// AddSearchResult registers the movies returned for an exact query.
func (f *FakeTMDB) AddSearchResult(query string, movies ...tmdb.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search[query] = append(f.search[query], movies...)
	for _, m := range movies {
		f.details[m.ID] = tmdb.Details{Movie: m}
	}
}

// FailSearch makes searches for query answer with status.
func (f *FakeTMDB) FailSearch(query string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[query] = status
}

// SetListing registers the movies returned for a listing category.
func (f *FakeTMDB) SetListing(category tmdb.Category, movies ...tmdb.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings[string(category)] = movies
	for _, m := range movies {
		f.details[m.ID] = tmdb.Details{Movie: m}
	}
}

// SetVideos registers the videos for a movie ID.
func (f *FakeTMDB) SetVideos(movieID int64, videos ...tmdb.Video) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[movieID] = videos
}

// SetDelay slows every response down, for exercising concurrency.
func (f *FakeTMDB) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Queries returns the search queries received so far, in arrival order.
func (f *FakeTMDB) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

// Requests returns the total number of requests served.
func (f *FakeTMDB) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *FakeTMDB) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		delay := f.delay
		f.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if r.URL.Query().Get("api_key") == "" && r.Header.Get("Authorization") == "" {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]any{
				"status_code":    7,
				"status_message": "Invalid API key: You must be granted a valid key.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeTMDB) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	f.mu.Lock()
	f.queries = append(f.queries, query)
	status, failing := f.failing[query]
	movies := f.search[query]
	f.mu.Unlock()

	if failing {
		writeFakeJSON(w, status, map[string]any{"status_code": 11, "status_message": "Internal error"})
		return
	}
	writeFakePage(w, movies)
}

func (f *FakeTMDB) handleMovie(w http.ResponseWriter, r *http.Request) {
	segment := r.PathValue("segment")
	if id, err := strconv.ParseInt(segment, 10, 64); err == nil {
		f.mu.Lock()
		details, ok := f.details[id]
		f.mu.Unlock()
		if !ok {
			writeFakeJSON(w, http.StatusNotFound, map[string]any{"status_code": 34, "status_message": "The resource you requested could not be found."})
			return
		}
		writeFakeJSON(w, http.StatusOK, details)
		return
	}
	f.mu.Lock()
	movies, ok := f.listings[segment]
	f.mu.Unlock()
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"status_code": 34})
		return
	}
	writeFakePage(w, movies)
}

func (f *FakeTMDB) handleVideos(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"status_code": 34})
		return
	}
	f.mu.Lock()
	videos := f.videos[id]
	f.mu.Unlock()
	if videos == nil {
		videos = []tmdb.Video{}
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"id": id, "results": videos})
}

func writeFakePage(w http.ResponseWriter, movies []tmdb.Movie) {
	if movies == nil {
		movies = []tmdb.Movie{}
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{
		"page":          1,
		"results":       movies,
		"total_pages":   1,
		"total_results": len(movies),
	})
}

func writeFakeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
