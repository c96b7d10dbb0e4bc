package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Movie is a catalog entry in a transport-friendly format.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"originalTitle,omitempty"`
	OriginalLanguage string  `json:"originalLanguage,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	ReleaseDate      string  `json:"releaseDate,omitempty"`
	Year             string  `json:"year,omitempty"`
	PosterPath       string  `json:"posterPath,omitempty"`
	PosterURL        string  `json:"posterUrl,omitempty"`
	BackdropPath     string  `json:"backdropPath,omitempty"`
	GenreIDs         []int   `json:"genreIds,omitempty"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"voteAverage"`
	VoteCount        int64   `json:"voteCount"`
	Adult            bool    `json:"adult"`
}

// Recommendation is the outcome of one prompt resolution. ResultsByTitle[i]
// holds the catalog matches for Titles[i].
type Recommendation struct {
	State          string    `json:"state"`
	Source         string    `json:"source"`
	Notice         string    `json:"notice,omitempty"`
	Titles         []string  `json:"titles"`
	ResultsByTitle [][]Movie `json:"resultsByTitle"`
}

// RecommendationRequest is the body of POST /api/recommendations.
type RecommendationRequest struct {
	Prompt string `json:"prompt"`
}

// RecommendationState is the shared pipeline state exposed to the UI.
type RecommendationState struct {
	State      string          `json:"state"`
	Busy       bool            `json:"busy"`
	Generation uint64          `json:"generation"`
	Prompt     string          `json:"prompt,omitempty"`
	Notice     string          `json:"notice,omitempty"`
	Error      string          `json:"error,omitempty"`
	UpdatedAt  string          `json:"updatedAt,omitempty"`
	Result     *Recommendation `json:"result,omitempty"`
}

// MovieListResponse is returned by GET /api/movies/{category}.
type MovieListResponse struct {
	Category     string  `json:"category"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"totalPages"`
	TotalResults int     `json:"totalResults"`
	Movies       []Movie `json:"movies"`
}

// Video describes a playable clip attached to a movie.
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
	URL      string `json:"url,omitempty"`
}

// TrailerResponse is returned by GET /api/movies/{id}/trailer.
type TrailerResponse struct {
	MovieID int64  `json:"movieId"`
	Trailer *Video `json:"trailer,omitempty"`
}

// WatchlistEntry is a saved movie.
type WatchlistEntry struct {
	List    string `json:"list"`
	Movie   Movie  `json:"movie"`
	AddedAt string `json:"addedAt,omitempty"`
}

// WatchlistResponse is returned by GET /api/watchlist/{list}.
type WatchlistResponse struct {
	List    string           `json:"list"`
	Count   int              `json:"count"`
	Entries []WatchlistEntry `json:"entries"`
}

// WatchlistAddRequest is the body of POST /api/watchlist/{list}. When only
// MovieID is supplied the server resolves the movie from the catalog.
type WatchlistAddRequest struct {
	MovieID int64  `json:"movieId,omitempty"`
	Movie   *Movie `json:"movie,omitempty"`
}

// BackendStatus reports whether an upstream dependency is usable.
type BackendStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Detail     string `json:"detail,omitempty"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Catalog         BackendStatus       `json:"catalog"`
	Completion      BackendStatus       `json:"completion"`
	Watchlist       BackendStatus       `json:"watchlist"`
	Recommendations RecommendationState `json:"recommendations"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
