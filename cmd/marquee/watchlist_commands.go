package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/api"
	"marquee/internal/app"
	"marquee/internal/services"
	"marquee/internal/watchlist"
)

func newWatchlistCommand(ctx *commandContext) *cobra.Command {
	var user string

	watchCmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "Manage watch-later and favorites lists",
	}
	watchCmd.PersistentFlags().StringVar(&user, "user", defaultUser(), "User the list belongs to")

	watchCmd.AddCommand(newWatchlistAddCommand(ctx, &user))
	watchCmd.AddCommand(newWatchlistRemoveCommand(ctx, &user))
	watchCmd.AddCommand(newWatchlistListCommand(ctx, &user))
	return watchCmd
}

func defaultUser() string {
	if value := strings.TrimSpace(os.Getenv("MARQUEE_USER")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("USER"))
}

func listNames() string {
	names := make([]string, 0, 2)
	for _, l := range watchlist.Lists() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

func parseListArg(value string) (watchlist.List, error) {
	list, ok := watchlist.ParseList(value)
	if !ok {
		return "", fmt.Errorf("unknown list %q (expected one of %s)", value, listNames())
	}
	return list, nil
}

// withWatchlist opens services with the watchlist store and fails early when
// the store is disabled.
func withWatchlist(ctx *commandContext, cmd *cobra.Command, fn func(*app.Services) error) error {
	return ctx.withServices(cmd, app.Options{OpenWatchlist: true}, func(svc *app.Services) error {
		if svc.Watchlist == nil {
			return errors.New("watchlist is disabled; set watchlist.enabled = true")
		}
		return fn(svc)
	})
}

func newWatchlistAddCommand(ctx *commandContext, user *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <list> <movie-id>",
		Short: "Save a movie to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := parseListArg(args[0])
			if err != nil {
				return err
			}
			id, err := parseMovieID(args[1])
			if err != nil {
				return err
			}
			return withWatchlist(ctx, cmd, func(svc *app.Services) error {
				if svc.TMDB == nil {
					return errCatalogUnconfigured
				}
				details, err := svc.TMDB.MovieDetails(cmd.Context(), id)
				if err != nil {
					return err
				}
				entry, err := svc.Watchlist.Add(cmd.Context(), *user, list, details.Movie)
				if errors.Is(err, services.ErrDuplicate) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already on %s\n", details.DisplayTitle(), list)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", entry.Movie.DisplayTitle(), entry.List)
				return nil
			})
		},
	}
}

func newWatchlistRemoveCommand(ctx *commandContext, user *string) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <list> <movie-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a movie from a list",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := parseListArg(args[0])
			if err != nil {
				return err
			}
			id, err := parseMovieID(args[1])
			if err != nil {
				return err
			}
			return withWatchlist(ctx, cmd, func(svc *app.Services) error {
				if err := svc.Watchlist.Remove(cmd.Context(), *user, list, id); err != nil {
					if errors.Is(err, services.ErrNotFound) {
						return fmt.Errorf("movie %d is not on %s", id, list)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed movie %d from %s\n", id, list)
				return nil
			})
		},
	}
}

func newWatchlistListCommand(ctx *commandContext, user *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list <list>",
		Aliases: []string{"ls"},
		Short:   "Show a list, newest first",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := parseListArg(args[0])
			if err != nil {
				return err
			}
			return withWatchlist(ctx, cmd, func(svc *app.Services) error {
				entries, err := svc.Watchlist.List(cmd.Context(), *user, list)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromEntries(list, entries, svc.Config.TMDB.ImageBaseURL))
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintf(out, "%s is empty\n", list)
					return nil
				}
				columns := append([]column{}, movieColumns...)
				columns = append(columns, column{header: "Added"})
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, append(movieRow(e.Movie), e.AddedAt.Local().Format("2006-01-02 15:04")))
				}
				fmt.Fprintln(out, renderTable(columns, rows))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the list as JSON")
	return cmd
}
