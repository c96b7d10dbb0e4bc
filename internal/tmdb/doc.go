// Package tmdb is a thin client for The Movie Database v3 API.
//
// It covers the endpoints marquee needs: title search, the four movie
// listings (now playing, popular, top rated, upcoming), movie details, and
// the videos list used to pick a trailer. Responses are decoded into explicit
// types; a page without a results array is treated as a decode failure.
// Errors carry the services sentinel markers so callers can classify them.
package tmdb
