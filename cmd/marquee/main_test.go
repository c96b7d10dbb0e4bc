package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marquee/internal/api"
	"marquee/internal/tmdb"
)

func TestRecommendCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.tmdb.AddSearchResult("Heat", tmdb.Movie{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15"})

	out, _, err := runCLI(t, []string{"recommend", "--json", "slow", "burn", "heists"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var rec api.Recommendation
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if rec.State != "succeeded" || len(rec.Titles) != 2 {
		t.Fatalf("unexpected recommendation: %#v", rec)
	}
	if len(rec.ResultsByTitle[0]) != 1 || len(rec.ResultsByTitle[1]) != 0 {
		t.Fatalf("unexpected alignment: %#v", rec.ResultsByTitle)
	}
	prompts := env.llm.Prompts()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "slow burn heists") {
		t.Fatalf("prompt not forwarded: %#v", prompts)
	}
}

func TestRecommendCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)
	env.tmdb.AddSearchResult("Heat", tmdb.Movie{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", VoteAverage: 7.9})

	out, _, err := runCLI(t, []string{"recommend", "heists"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	requireContains(t, out, "suggestions  ready     2 titles")
	requireContains(t, out, "1. Heat\n~~~~~~~")
	requireContains(t, out, "1995")
	requireContains(t, out, "2. Ronin\n")
	requireContains(t, out, "No catalog matches.")
}

func TestRecommendCommandTagsLogsWithCorrelationID(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, []string{"--log-level", "info", "recommend", "heists"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	requireContains(t, stderr, "recommendations resolved")
	requireContains(t, stderr, "correlation_id")

	_, again, err := runCLI(t, []string{"--log-level", "info", "recommend", "heists"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if correlationID(stderr) == "" || correlationID(stderr) == correlationID(again) {
		t.Fatalf("expected a fresh correlation id per invocation:\n%s\n%s", stderr, again)
	}
}

func correlationID(logs string) string {
	for _, field := range strings.FieldsFunc(logs, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' }) {
		field = strings.Trim(field, "{}")
		for _, prefix := range []string{"correlation_id=", `"correlation_id":`} {
			if rest, ok := strings.CutPrefix(field, prefix); ok {
				return strings.Trim(rest, `"`)
			}
		}
	}
	return ""
}

func TestRecommendCommandFallback(t *testing.T) {
	env := setupCLITestEnv(t)
	env.llm.Fail(http.StatusServiceUnavailable)

	out, _, err := runCLI(t, []string{"recommend", "anything"}, env.configPath)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	requireContains(t, out, "suggestions  degraded")
	requireContains(t, out, "\n5. ")
}

func TestRecommendCommandRejectsBlankPrompt(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"recommend", "  "}, env.configPath); err == nil {
		t.Fatal("expected blank prompt to fail")
	}
	if env.llm.Requests() != 0 {
		t.Fatal("blank prompt reached the completion backend")
	}
}

func TestMoviesAndTrailerCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.tmdb.SetListing(tmdb.CategoryTopRated, tmdb.Movie{ID: 238, Title: "The Godfather", ReleaseDate: "1972-03-14"})
	env.tmdb.SetVideos(238, tmdb.Video{Key: "sY1S34973zA", Name: "Official Trailer", Site: "YouTube", Type: "Trailer"})

	out, _, err := runCLI(t, []string{"movies", "top-rated"}, env.configPath)
	if err != nil {
		t.Fatalf("movies: %v", err)
	}
	requireContains(t, out, "The Godfather")
	requireContains(t, out, "Page 1 of 1")

	if _, _, err := runCLI(t, []string{"movies", "trending"}, env.configPath); err == nil {
		t.Fatal("expected unknown category error")
	}

	out, _, err = runCLI(t, []string{"trailer", "238"}, env.configPath)
	if err != nil {
		t.Fatalf("trailer: %v", err)
	}
	requireContains(t, out, "Official Trailer")
	requireContains(t, out, "https://www.youtube.com/watch?v=sY1S34973zA")

	out, _, err = runCLI(t, []string{"trailer", "239"}, env.configPath)
	if err != nil {
		t.Fatalf("trailer without videos: %v", err)
	}
	requireContains(t, out, "No trailer found")
}

func TestWatchlistCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.tmdb.AddSearchResult("Heat", tmdb.Movie{ID: 949, Title: "Heat"})
	env.tmdb.AddSearchResult("Ronin", tmdb.Movie{ID: 8195, Title: "Ronin"})

	for _, id := range []string{"949", "8195"} {
		out, _, err := runCLI(t, []string{"watchlist", "--user", "alice", "add", "favorites", id}, env.configPath)
		if err != nil {
			t.Fatalf("watchlist add %s: %v", id, err)
		}
		requireContains(t, out, "Added")
	}
	out, _, err := runCLI(t, []string{"watchlist", "--user", "alice", "add", "favorites", "949"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	requireContains(t, out, "already on favorites")

	out, _, err = runCLI(t, []string{"watchlist", "--user", "alice", "list", "favorites", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("watchlist list: %v", err)
	}
	var resp api.WatchlistResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if resp.Count != 2 || resp.Entries[0].Movie.ID != 8195 {
		t.Fatalf("unexpected list: %#v", resp)
	}

	if _, _, err := runCLI(t, []string{"watchlist", "--user", "alice", "remove", "favorites", "949"}, env.configPath); err != nil {
		t.Fatalf("watchlist remove: %v", err)
	}
	if _, _, err := runCLI(t, []string{"watchlist", "--user", "alice", "remove", "favorites", "949"}, env.configPath); err == nil {
		t.Fatal("expected error removing a missing entry")
	}

	out, _, err = runCLI(t, []string{"watchlist", "--user", "bob", "list", "favorites"}, env.configPath)
	if err != nil {
		t.Fatalf("watchlist list other user: %v", err)
	}
	requireContains(t, out, "favorites is empty")

	if _, _, err := runCLI(t, []string{"watchlist", "--user", "alice", "list", "seen"}, env.configPath); err == nil {
		t.Fatal("expected unknown list error")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "tmdb")
	requireContains(t, out, "ready")
	requireContains(t, out, "watchlist")
	requireContains(t, out, "auth no")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
