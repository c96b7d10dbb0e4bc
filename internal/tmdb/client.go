package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marquee/internal/services"
)

const component = "tmdb"

// Client provides access to the TMDB v3 API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	bearer     bool
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a TMDB client. Read access tokens (JWTs) are sent as a bearer
// token; anything else is treated as a v3 api_key.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new", "tmdb api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new", "tmdb base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		bearer:     strings.HasPrefix(apiKey, "eyJ"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovie runs GET /search/movie for the supplied title. Adult titles are
// excluded and only the first page is requested.
func (c *Client) SearchMovie(ctx context.Context, query string) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, component, "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")

	var payload Page
	if err := c.getJSON(ctx, "/search/movie", params, "search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ListMovies fetches one page of a movie listing such as now_playing.
func (c *Client) ListMovies(ctx context.Context, category Category, page int) (*Page, error) {
	if _, ok := ParseCategory(string(category)); !ok {
		return nil, services.Wrap(services.ErrValidation, component, "list", fmt.Sprintf("unknown category %q", category), nil)
	}
	if page <= 0 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	var payload Page
	if err := c.getJSON(ctx, "/movie/"+string(category), params, "list "+string(category), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieDetails fetches movie details by TMDB ID.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*Details, error) {
	if movieID <= 0 {
		return nil, services.Wrap(services.ErrValidation, component, "details", "movie id must be positive", nil)
	}
	var payload Details
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", movieID), url.Values{}, "details", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieVideos fetches the trailers, teasers, and clips attached to a movie.
func (c *Client) MovieVideos(ctx context.Context, movieID int64) ([]Video, error) {
	if movieID <= 0 {
		return nil, services.Wrap(services.ErrValidation, component, "videos", "movie id must be positive", nil)
	}
	var payload videosResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d/videos", movieID), url.Values{}, "videos", &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, operation string, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, component, operation, "parse tmdb url", err)
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	if !c.bearer {
		params.Set("api_key", c.apiKey)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, component, operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, component, operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Wrap(
			statusMarker(resp.StatusCode),
			component,
			operation,
			fmt.Sprintf("tmdb returned %d (latency=%v): %s", resp.StatusCode, latency, strings.TrimSpace(string(snippet))),
			nil,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, component, operation, "decode tmdb response", err)
	}
	return nil
}

func statusMarker(status int) error {
	switch {
	case status == http.StatusNotFound:
		return services.ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.ErrConfiguration
	case status == http.StatusTooManyRequests || status >= 500:
		return services.ErrUnavailable
	default:
		return services.ErrTransient
	}
}
