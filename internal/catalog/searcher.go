package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/tmdb"
)

// MovieSearcher is the subset of the TMDB client used for title lookups.
type MovieSearcher interface {
	SearchMovie(ctx context.Context, query string) (*tmdb.Page, error)
}

// Searcher resolves a free-text title into catalog entries. Lookup never
// fails: transport errors, provider errors, and malformed payloads all
// degrade to an empty result that is logged for operators.
type Searcher struct {
	backend MovieSearcher
	logger  *slog.Logger
	cache   *ttlcache.Cache[string, []tmdb.Movie]
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithCacheTTL enables result caching for the given duration. Zero or
// negative durations disable the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Searcher) {
		if ttl <= 0 {
			s.cache = nil
			return
		}
		s.cache = ttlcache.New[string, []tmdb.Movie](
			ttlcache.WithTTL[string, []tmdb.Movie](ttl),
			ttlcache.WithDisableTouchOnHit[string, []tmdb.Movie](),
		)
	}
}

// New constructs a Searcher. A nil backend yields a Searcher whose lookups
// always return empty results.
func New(backend MovieSearcher, logger *slog.Logger, opts ...Option) *Searcher {
	s := &Searcher{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache != nil {
		go s.cache.Start()
	}
	if backend == nil {
		logging.WarnWithContext(s.logger, "catalog provider not configured", "catalog_unconfigured",
			logging.String(logging.FieldErrorHint, "set tmdb.api_key or TMDB_API_KEY"),
			logging.String(logging.FieldImpact, "title lookups return no results"),
		)
	}
	return s
}

// NewFromConfig wires a TMDB-backed Searcher from configuration. Missing or
// placeholder credentials produce an unconfigured Searcher rather than an error.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Searcher, *tmdb.Client) {
	opts := []Option{WithCacheTTL(time.Duration(cfg.TMDB.CacheTTLSeconds) * time.Second)}
	if !cfg.CatalogConfigured() {
		return New(nil, logger, opts...), nil
	}
	client, err := tmdb.New(
		cfg.TMDB.APIKey,
		cfg.TMDB.BaseURL,
		cfg.TMDB.Language,
		tmdb.WithTimeout(time.Duration(cfg.TMDB.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		logging.WarnWithContext(logging.NewComponentLogger(logger, "catalog"), "tmdb client init failed", "catalog_init_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "title lookups return no results"),
		)
		return New(nil, logger, opts...), nil
	}
	return New(client, logger, opts...), client
}

// Configured reports whether lookups reach a real catalog provider.
func (s *Searcher) Configured() bool {
	return s != nil && s.backend != nil
}

// Close stops the cache expiration loop.
func (s *Searcher) Close() {
	if s != nil && s.cache != nil {
		s.cache.Stop()
	}
}

// Lookup returns the catalog matches for title. The returned slice is never
// nil.
func (s *Searcher) Lookup(ctx context.Context, title string) []tmdb.Movie {
	title = strings.TrimSpace(title)
	if title == "" || s == nil || s.backend == nil {
		return []tmdb.Movie{}
	}

	key := cacheKey(title)
	if s.cache != nil {
		if item := s.cache.Get(key); item != nil {
			return cloneMovies(item.Value())
		}
	}

	logger := logging.WithContext(ctx, s.logger)
	start := time.Now()
	page, err := s.backend.SearchMovie(ctx, title)
	if err != nil {
		logging.WarnWithContext(logger, "catalog lookup failed", "catalog_lookup_failed",
			logging.String("title", title),
			logging.Duration("latency", time.Since(start)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check TMDB credentials and connectivity"),
			logging.String(logging.FieldImpact, "title shows no catalog matches"),
		)
		return []tmdb.Movie{}
	}
	results := []tmdb.Movie{}
	if page != nil && page.Results != nil {
		results = page.Results
	}
	logger.Debug("catalog lookup complete",
		logging.String("title", title),
		logging.Int("matches", len(results)),
		logging.Duration("latency", time.Since(start)),
	)
	if s.cache != nil {
		s.cache.Set(key, cloneMovies(results), ttlcache.DefaultTTL)
	}
	return results
}

// cacheKey folds case, collapses whitespace, and normalizes to NFC so that
// "the  GODFATHER" and "The Godfather" share an entry. Casers are stateful,
// so each call gets its own.
func cacheKey(title string) string {
	collapsed := strings.Join(strings.Fields(title), " ")
	return norm.NFC.String(cases.Fold().String(norm.NFC.String(collapsed)))
}

func cloneMovies(in []tmdb.Movie) []tmdb.Movie {
	out := make([]tmdb.Movie, len(in))
	copy(out, in)
	return out
}
