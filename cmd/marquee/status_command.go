package main

import (
	"net"

	"github.com/spf13/cobra"

	"marquee/internal/app"
	"marquee/internal/config"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which backends are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, app.Options{OpenWatchlist: true}, func(svc *app.Services) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				printLines(out, renderHeading("marquee", colorize))
				printLines(out, renderStatus(collectStatus(svc, ctx.configPath), colorize))
				return nil
			})
		},
	}
}

func collectStatus(svc *app.Services, configPath string) []statusEntry {
	cfg := svc.Config
	entries := []statusEntry{{"config", backendNote, configPath}}

	if svc.Catalog.Configured() {
		entries = append(entries, statusEntry{"tmdb", backendReady, cfg.TMDB.BaseURL})
	} else {
		entries = append(entries, statusEntry{"tmdb", backendDegraded, "no API key; lookups return nothing"})
	}

	if svc.Completion.Available() {
		entries = append(entries, statusEntry{"completion", backendReady, svc.Completion.Model()})
	} else {
		entries = append(entries, statusEntry{"completion", backendDegraded, "no API key; fallback titles will be used"})
	}

	if svc.Watchlist != nil {
		entries = append(entries, statusEntry{"watchlist", backendReady, svc.Watchlist.Path()})
	} else {
		entries = append(entries, statusEntry{"watchlist", backendOff, "disabled"})
	}

	return append(entries, apiStatus(cfg))
}

// apiStatus flags a listener reachable beyond loopback that has no token.
func apiStatus(cfg *config.Config) statusEntry {
	entry := statusEntry{name: "api", state: backendReady, detail: cfg.Paths.APIBind + " (auth " + yesNo(cfg.Paths.APIToken != "") + ")"}
	if cfg.Paths.APIToken != "" {
		return entry
	}
	host, _, err := net.SplitHostPort(cfg.Paths.APIBind)
	if err != nil {
		return entry
	}
	if ip := net.ParseIP(host); host == "localhost" || (ip != nil && ip.IsLoopback()) {
		return entry
	}
	entry.state = backendDegraded
	entry.detail = cfg.Paths.APIBind + " is reachable without api_token"
	return entry
}
