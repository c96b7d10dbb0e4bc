// Package recommend resolves a free-text prompt into movie catalog entries.
//
// A run asks the completion backend for five comma-separated titles, falls
// back to a fixed list when the backend is unconfigured or fails, then looks
// every title up concurrently and joins the results by index. The only hard
// failure is an empty prompt, rejected before any network call.
//
// StateStore is the shared application state consumed by the HTTP API and
// CLI: an observable busy flag plus the latest published result. Runs are
// numbered so that the most recently started run always wins.
package recommend
