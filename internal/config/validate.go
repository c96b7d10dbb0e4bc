package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Missing credentials are not
// validation errors: an absent backend degrades at runtime instead.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateWatchlist(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q must be host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if err := validateHTTPURL("tmdb.base_url", c.TMDB.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("tmdb.image_base_url", c.TMDB.ImageBaseURL); err != nil {
		return err
	}
	if c.TMDB.TimeoutSeconds < 0 {
		return errors.New("tmdb.timeout_seconds must be positive")
	}
	if c.TMDB.CacheTTLSeconds < 0 {
		return errors.New("tmdb.cache_ttl_seconds must be >= 0 (0 disables caching)")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if err := validateHTTPURL("llm.base_url", c.LLM.BaseURL); err != nil {
		return err
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWatchlist() error {
	if c.Watchlist.Enabled && strings.TrimSpace(c.Watchlist.Path) == "" {
		return errors.New("watchlist.path must be set when watchlist.enabled is true")
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}
