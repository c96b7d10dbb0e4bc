package recommend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"marquee/internal/logging"
	"marquee/internal/services"
	"marquee/internal/tmdb"
)

const (
	fallbackNotice   = "AI suggestions are unavailable right now; showing popular picks instead."
	validationNotice = "Enter a prompt to get recommendations."
)

// ErrEmptyPrompt is returned by Run for a blank prompt.
var ErrEmptyPrompt = services.Wrap(services.ErrValidation, "recommend", "run", "prompt must not be empty", nil)

// Pipeline turns a free-text prompt into catalog results.
type Pipeline struct {
	completion  CompletionSource
	catalog     CatalogLookup
	state       *StateStore
	logger      *slog.Logger
	lookupLimit int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithStateStore publishes every run to store.
func WithStateStore(store *StateStore) PipelineOption {
	return func(p *Pipeline) {
		p.state = store
	}
}

// WithLookupLimit caps the number of concurrent catalog lookups. Zero means
// every title is looked up at once.
func WithLookupLimit(limit int) PipelineOption {
	return func(p *Pipeline) {
		if limit >= 0 {
			p.lookupLimit = limit
		}
	}
}

// NewPipeline wires a pipeline. A nil completion source behaves as an
// unconfigured backend.
func NewPipeline(completion CompletionSource, catalog CatalogLookup, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		completion: completion,
		catalog:    catalog,
		logger:     logging.NewComponentLogger(logger, "recommend"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the store the pipeline publishes to, if any.
func (p *Pipeline) State() *StateStore {
	return p.state
}

// Run resolves prompt into a ResolutionResult. The only error it returns is
// a validation error for an empty prompt, which happens before any network
// call. Completion problems fall back to FallbackTitles and lookup problems
// degrade to empty result lists.
func (p *Pipeline) Run(ctx context.Context, prompt string) (Outcome, error) {
	logger := logging.WithContext(ctx, p.logger)
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		if p.state != nil {
			p.state.RecordValidation(prompt, validationNotice)
		}
		logger.Debug("prompt rejected", logging.String("reason", "empty"))
		return Outcome{}, ErrEmptyPrompt
	}

	var gen uint64
	if p.state != nil {
		gen = p.state.Begin(trimmed)
	}
	start := time.Now()

	titles, source := p.resolveTitles(ctx, logger, trimmed)
	results := p.lookupAll(ctx, titles)

	outcome := Outcome{
		Result: ResolutionResult{Titles: titles, ResultsByTitle: results},
		State:  StateSucceeded,
		Source: source,
	}
	if source == SourceFallback {
		outcome.State = StateFailedFallback
		outcome.Notice = fallbackNotice
	}

	published := true
	if p.state != nil {
		published = p.state.Publish(gen, outcome)
	}
	logger.Info("recommendations resolved",
		logging.String("state", outcome.State.String()),
		logging.String("source", string(source)),
		logging.Int("titles", len(titles)),
		logging.Int("matched", countMatched(results)),
		logging.Duration("duration", time.Since(start)),
		logging.Bool("published", published),
	)
	return outcome, nil
}

func (p *Pipeline) resolveTitles(ctx context.Context, logger *slog.Logger, prompt string) ([]string, Source) {
	if p.completion == nil || !p.completion.Available() {
		logger.Info("completion backend not configured; using fallback titles",
			logging.String(logging.FieldEventType, "completion_unavailable"),
		)
		return FallbackTitles(), SourceFallback
	}
	text, err := p.completion.Complete(ctx, BuildInstruction(prompt))
	if err != nil {
		logging.WarnWithContext(logger, "completion request failed; using fallback titles", "completion_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check llm.api_key and provider status"),
			logging.String(logging.FieldImpact, "fallback titles shown instead of AI suggestions"),
		)
		return FallbackTitles(), SourceFallback
	}
	titles := ParseTitles(text)
	if len(titles) != TitleCount {
		logger.Debug("completion returned unexpected title count",
			logging.Int("expected", TitleCount),
			logging.Int("got", len(titles)),
		)
	}
	return titles, SourceCompletion
}

// lookupAll queries every title concurrently and joins by index, so
// results[i] always belongs to titles[i] regardless of completion order.
func (p *Pipeline) lookupAll(ctx context.Context, titles []string) [][]tmdb.Movie {
	results := make([][]tmdb.Movie, len(titles))
	var g errgroup.Group
	if p.lookupLimit > 0 {
		g.SetLimit(p.lookupLimit)
	}
	for i, title := range titles {
		g.Go(func() error {
			var matches []tmdb.Movie
			if p.catalog != nil {
				matches = p.catalog.Lookup(ctx, strings.TrimSpace(title))
			}
			if matches == nil {
				matches = []tmdb.Movie{}
			}
			results[i] = matches
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func countMatched(results [][]tmdb.Movie) int {
	matched := 0
	for _, r := range results {
		if len(r) > 0 {
			matched++
		}
	}
	return matched
}
