// Package api defines wire-format types and converters for the HTTP API and
// the CLI's JSON output. It translates internal catalog, pipeline, and
// watchlist models into transport-friendly DTOs that the browser front-end
// can render without coupling to internal types.
//
// # Key Types
//
// Recommendation: one prompt resolution, titles plus positionally aligned
// catalog matches.
//
// RecommendationState: the shared pipeline state (busy flag, generation,
// latest result).
//
// MovieListResponse, TrailerResponse, WatchlistResponse: catalog browsing
// and saved-list payloads.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Pipeline
// states are exposed as lowercase strings. Timestamps use RFC3339 with
// milliseconds. Poster paths are resolved to absolute URLs using the
// configured image base.
package api
