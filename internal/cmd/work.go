package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"issue-lite/internal/index"
)

// newWorkCmd creates the work command, which tracks time spent.
func newWorkCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Track time spent on issues",
		Long: `Track time spent on issues. Each author has at most one running
interval per issue; stopped intervals add up to the issue's time spent.

Subcommands:
  start  Start working on an issue
  stop   Stop working on an issue`,
	}

	sub := func(use, short, verb string, fn func(ctx context.Context, app *App, id string) (*index.Snapshot, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " [issue-id]",
			Short: short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := provider.Get()
				if err != nil {
					return err
				}
				if _, err := app.Author(); err != nil {
					return err
				}
				ctx := cmd.Context()
				id, err := resolveIssue(ctx, app, issueArg(args))
				if err != nil {
					return err
				}
				snap, err := fn(ctx, app, id)
				if err != nil {
					return err
				}
				now := app.Clock.Now()
				if app.JSON {
					return writeJSON(app.Out, toIssueJSON(id, snap, now))
				}
				fmt.Fprintf(app.Out, "%s work on %s (total %s)\n", verb, shortID(id), index.FormatDuration(snap.TimeSpent(now)))
				return nil
			},
		}
	}

	cmd.AddCommand(sub("start", "Start working on an issue", "Started",
		func(ctx context.Context, app *App, id string) (*index.Snapshot, error) {
			return app.Issues.StartWork(ctx, id)
		}))
	cmd.AddCommand(sub("stop", "Stop working on an issue", "Stopped",
		func(ctx context.Context, app *App, id string) (*index.Snapshot, error) {
			return app.Issues.StopWork(ctx, id)
		}))

	return cmd
}
