package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/api"
	"marquee/internal/app"
	"marquee/internal/recommend"
)

func newRecommendCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "recommend <prompt...>",
		Short: "Suggest movies for a free-text prompt",
		Long: "Ask the completion backend for five movie titles matching the prompt and\n" +
			"look each one up in TMDB. When the backend is unavailable a fixed list of\n" +
			"popular picks is used instead.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			return ctx.withServices(cmd, app.Options{}, func(svc *app.Services) error {
				outcome, err := svc.Pipeline.Run(cmd.Context(), prompt)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromOutcome(outcome, svc.Config.TMDB.ImageBaseURL))
				}
				renderOutcome(cmd, outcome)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the result as JSON")
	return cmd
}

func renderOutcome(cmd *cobra.Command, outcome recommend.Outcome) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	summary := statusEntry{"suggestions", backendReady, fmt.Sprintf("%d titles", outcome.Result.Len())}
	if outcome.Source == recommend.SourceFallback {
		summary = statusEntry{"suggestions", backendDegraded, outcome.Notice}
	}
	printLines(out, renderStatus([]statusEntry{summary}, colorize))

	result := outcome.Result
	for i, title := range result.Titles {
		if title == "" {
			title = "(blank)"
		}
		fmt.Fprintln(out)
		printLines(out, renderHeading(fmt.Sprintf("%d. %s", i+1, title), colorize))
		var matches int
		if i < len(result.ResultsByTitle) {
			matches = len(result.ResultsByTitle[i])
		}
		if matches == 0 {
			fmt.Fprintln(out, "No catalog matches.")
			continue
		}
		fmt.Fprintln(out, renderMovieTable(result.ResultsByTitle[i]))
	}
}
