// Package server exposes marquee over HTTP for the browser front-end.
//
// Routes are registered on a net/http ServeMux using method patterns. Every
// request is stamped with an X-Request-ID correlation id that flows into
// structured logs, and an optional bearer token (paths.api_token) guards the
// whole API. Watchlist routes identify the caller through the X-User-ID
// header.
//
// Recommendation runs are detached from the request context so a client
// disconnect never leaves the shared state stuck in the running state. The
// /api/recommendations/events route streams state snapshots as server-sent
// events so clients can observe the busy flag.
//
// A flock on <data_dir>/marquee.lock keeps a second server from starting
// against the same data directory.
package server
