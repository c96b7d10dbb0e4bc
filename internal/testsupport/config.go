package testsupport

import (
	"path/filepath"
	"testing"

	"marquee/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The TMDB key defaults to "test" and the LLM key is left empty, so the
// completion backend is unavailable unless WithCompletion is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.TMDB.CacheTTLSeconds = 0
	cfgVal.LLM.APIKey = ""
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Watchlist.Path = filepath.Join(base, "data", "watchlist.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithTMDB points the catalog client at a fake TMDB server.
func WithTMDB(fake *FakeTMDB) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = fake.URL()
	}
}

// WithCompletion points the LLM client at a fake completion server and
// configures a usable key.
func WithCompletion(fake *FakeCompletion) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = fake.URL()
		b.cfg.LLM.APIKey = "sk-test"
	}
}

// WithCacheTTL enables the catalog lookup cache.
func WithCacheTTL(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.CacheTTLSeconds = seconds
	}
}

// WithoutWatchlist disables the watchlist store.
func WithoutWatchlist() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watchlist.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
