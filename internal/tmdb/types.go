package tmdb

import (
	"encoding/json"
	"errors"
	"strings"
)

// Movie is a single catalog entry as returned by TMDB search and listing
// endpoints. Fields are passed through unmodified.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
}

// DisplayTitle returns the localized title, falling back to the original.
func (m Movie) DisplayTitle() string {
	if title := strings.TrimSpace(m.Title); title != "" {
		return title
	}
	return strings.TrimSpace(m.OriginalTitle)
}

// Year returns the release year portion of ReleaseDate, or "" when unknown.
func (m Movie) Year() string {
	date := strings.TrimSpace(m.ReleaseDate)
	if len(date) < 4 {
		return ""
	}
	year, _, _ := strings.Cut(date, "-")
	return year
}

// PosterURL joins the poster path onto the supplied image base (for example
// https://image.tmdb.org/t/p/w500). It returns "" when the movie has no poster.
func (m Movie) PosterURL(imageBase string) string {
	if m.PosterPath == "" {
		return ""
	}
	return strings.TrimRight(imageBase, "/") + "/" + strings.TrimLeft(m.PosterPath, "/")
}

// Page models the TMDB paginated movie response.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

var errMissingResults = errors.New("response missing results array")

// UnmarshalJSON rejects payloads that lack a results array so a provider
// error body is never mistaken for an empty page.
func (p *Page) UnmarshalJSON(data []byte) error {
	type rawPage struct {
		Page         int              `json:"page"`
		Results      *json.RawMessage `json:"results"`
		TotalPages   int              `json:"total_pages"`
		TotalResults int              `json:"total_results"`
	}
	var raw rawPage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Results == nil || string(*raw.Results) == "null" {
		return errMissingResults
	}
	var results []Movie
	if err := json.Unmarshal(*raw.Results, &results); err != nil {
		return err
	}
	if results == nil {
		results = []Movie{}
	}
	*p = Page{
		Page:         raw.Page,
		Results:      results,
		TotalPages:   raw.TotalPages,
		TotalResults: raw.TotalResults,
	}
	return nil
}

// Details captures the fields of GET /movie/{id} used by the CLI and API.
type Details struct {
	Movie
	Runtime int     `json:"runtime"`
	Tagline string  `json:"tagline"`
	Status  string  `json:"status"`
	Genres  []Genre `json:"genres"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Video describes an entry of GET /movie/{id}/videos.
type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// WatchURL returns a browser URL for YouTube-hosted videos.
func (v Video) WatchURL() string {
	if !strings.EqualFold(v.Site, "YouTube") || v.Key == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + v.Key
}

type videosResponse struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

// Category names a TMDB movie listing endpoint.
type Category string

const (
	CategoryNowPlaying Category = "now_playing"
	CategoryPopular    Category = "popular"
	CategoryTopRated   Category = "top_rated"
	CategoryUpcoming   Category = "upcoming"
)

// Categories lists every supported listing in display order.
func Categories() []Category {
	return []Category{CategoryNowPlaying, CategoryPopular, CategoryTopRated, CategoryUpcoming}
}

// ParseCategory accepts the API spelling as well as dashed/spaced variants.
func ParseCategory(value string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, c := range Categories() {
		if string(c) == normalized {
			return c, true
		}
	}
	return "", false
}
