// Command marquee suggests movies for a free-text prompt and browses TMDB
// from the terminal.
//
// Subcommands:
//
//	recommend <prompt...>      run the prompt pipeline and print matches
//	movies <category>          now_playing, popular, top_rated, upcoming
//	trailer <movie-id>         best trailer link for a movie
//	watchlist add|remove|list  manage watch_later and favorites
//	serve                      run the HTTP API for the web front-end
//	status                     report configured backends
//	config init|validate       configuration helpers
//
// Tables and status lines go to stdout; logs go to stderr. Most read
// commands accept --json for machine-readable output.
package main
