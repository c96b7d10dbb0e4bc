package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/api"
	"marquee/internal/app"
	"marquee/internal/tmdb"
)

var errCatalogUnconfigured = errors.New("tmdb is not configured; set tmdb.api_key or export TMDB_API_KEY")

func newMoviesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var page int

	categories := make([]string, 0, 4)
	for _, c := range tmdb.Categories() {
		categories = append(categories, string(c))
	}

	cmd := &cobra.Command{
		Use:       "movies <category>",
		Short:     "Browse TMDB listings (" + strings.Join(categories, ", ") + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: categories,
		RunE: func(cmd *cobra.Command, args []string) error {
			category, ok := tmdb.ParseCategory(args[0])
			if !ok {
				return fmt.Errorf("unknown category %q (expected one of %s)", args[0], strings.Join(categories, ", "))
			}
			if page < 1 {
				return errors.New("page must be at least 1")
			}
			return ctx.withServices(cmd, app.Options{}, func(svc *app.Services) error {
				if svc.TMDB == nil {
					return errCatalogUnconfigured
				}
				result, err := svc.TMDB.ListMovies(cmd.Context(), category, page)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromPage(category, result, svc.Config.TMDB.ImageBaseURL))
				}
				out := cmd.OutOrStdout()
				if len(result.Results) == 0 {
					fmt.Fprintln(out, "No movies found.")
					return nil
				}
				fmt.Fprintln(out, renderMovieTable(result.Results))
				fmt.Fprintf(out, "Page %d of %d\n", result.Page, result.TotalPages)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the listing as JSON")
	cmd.Flags().IntVar(&page, "page", 1, "Result page")
	return cmd
}

func newTrailerCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "trailer <movie-id>",
		Short: "Show the best trailer for a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}
			return ctx.withServices(cmd, app.Options{}, func(svc *app.Services) error {
				if svc.TMDB == nil {
					return errCatalogUnconfigured
				}
				videos, err := svc.TMDB.MovieVideos(cmd.Context(), id)
				if err != nil {
					return err
				}
				video, ok := tmdb.SelectTrailer(videos)
				if jsonOutput {
					resp := api.TrailerResponse{MovieID: id}
					if ok {
						dto := api.FromVideo(video)
						resp.Trailer = &dto
					}
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if !ok {
					fmt.Fprintf(out, "No trailer found for movie %d\n", id)
					return nil
				}
				fmt.Fprintf(out, "%s (%s, %s)\n", video.Name, video.Type, video.Site)
				if link := video.WatchURL(); link != "" {
					fmt.Fprintln(out, link)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the trailer as JSON")
	return cmd
}

func parseMovieID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", value)
	}
	return id, nil
}
