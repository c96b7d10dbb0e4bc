// Package watchlist persists each user's watch-later and favorites lists in
// SQLite.
//
// Entries are keyed by (user, list, TMDB movie id) and returned newest
// first. The full catalog entry is stored alongside so lists render without
// another catalog round trip. Every operation requires a user id; an empty
// id is rejected as a validation error.
package watchlist
