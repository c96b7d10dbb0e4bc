package app

import (
	"errors"
	"fmt"
	"log/slog"

	"marquee/internal/catalog"
	"marquee/internal/config"
	"marquee/internal/llm"
	"marquee/internal/logging"
	"marquee/internal/recommend"
	"marquee/internal/tmdb"
	"marquee/internal/watchlist"
)

// lookupLimit caps concurrent catalog lookups per run. A run asks for five
// titles, so this only matters for unusually long completion replies.
const lookupLimit = 8

// Services holds the long-lived collaborators shared by the CLI and the API
// server.
type Services struct {
	Config     *config.Config
	Logger     *slog.Logger
	Catalog    *catalog.Searcher
	TMDB       *tmdb.Client
	Completion *llm.Client
	State      *recommend.StateStore
	Pipeline   *recommend.Pipeline
	Watchlist  *watchlist.Store
}

// Options toggles optional collaborators.
type Options struct {
	// OpenWatchlist opens the SQLite watchlist when it is enabled in config.
	OpenWatchlist bool
}

// New wires services from configuration. Missing credentials degrade the
// corresponding backend instead of failing.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Services, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	searcher, client := catalog.NewFromConfig(cfg, logger)
	completion := llm.NewClient(llm.ConfigFrom(cfg))
	state := recommend.NewStateStore()

	svc := &Services{
		Config:     cfg,
		Logger:     logger,
		Catalog:    searcher,
		TMDB:       client,
		Completion: completion,
		State:      state,
		Pipeline: recommend.NewPipeline(completion, searcher, logger,
			recommend.WithStateStore(state),
			recommend.WithLookupLimit(lookupLimit),
		),
	}

	if opts.OpenWatchlist && cfg.Watchlist.Enabled {
		store, err := watchlist.Open(cfg)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("open watchlist: %w", err)
		}
		svc.Watchlist = store
	}
	return svc, nil
}

// Close releases the watchlist database and stops the lookup cache.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	if s.Catalog != nil {
		s.Catalog.Close()
	}
	if s.Watchlist != nil {
		err := s.Watchlist.Close()
		s.Watchlist = nil
		return err
	}
	return nil
}
