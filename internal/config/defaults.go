package config

const (
	defaultConfigPath          = "~/.config/marquee/config.toml"
	defaultDataDir             = "~/.local/share/marquee"
	defaultLogDir              = "~/.local/share/marquee/logs"
	defaultAPIBind             = "127.0.0.1:7480"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBLanguage        = "en-US"
	defaultTMDBImageBaseURL    = "https://image.tmdb.org/t/p/w500"
	defaultTMDBTimeoutSeconds  = 10
	defaultTMDBCacheTTLSeconds = 600
	defaultLLMBaseURL          = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel            = "gpt-3.5-turbo"
	defaultLLMTimeoutSeconds   = 30
	defaultWatchlistFile       = "watchlist.db"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:         defaultTMDBBaseURL,
			Language:        defaultTMDBLanguage,
			ImageBaseURL:    defaultTMDBImageBaseURL,
			TimeoutSeconds:  defaultTMDBTimeoutSeconds,
			CacheTTLSeconds: defaultTMDBCacheTTLSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Watchlist: Watchlist{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
