package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"issue-lite/internal/index"
)

// newChainCmd creates the chain command with subcommands.
func newChainCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Link issues together",
		Long: `Link issues together.

An issue chained to others cannot be closed until all of them are
closed. Attached issues are a weaker, append-only reference.

Subcommands:
  link    Chain issues to an issue
  unlink  Remove issues from the chain
  attach  Attach issues to an issue`,
	}

	type op func(ctx context.Context, app *App, id string, others []string) (*index.Snapshot, error)
	sub := func(use, short, verb string, fn op) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <issue-id> <other-id> [other-id...]",
			Short: short,
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := provider.Get()
				if err != nil {
					return err
				}
				if _, err := app.Author(); err != nil {
					return err
				}
				ctx := cmd.Context()
				ids, err := resolveIssues(ctx, app, args)
				if err != nil {
					return err
				}
				snap, err := fn(ctx, app, ids[0], ids[1:])
				if err != nil {
					return err
				}
				if app.JSON {
					return writeJSON(app.Out, toIssueJSON(ids[0], snap, app.Clock.Now()))
				}
				for _, other := range ids[1:] {
					fmt.Fprintf(app.Out, "%s %s %s\n", shortID(ids[0]), verb, shortID(other))
				}
				return nil
			},
		}
	}

	cmd.AddCommand(sub("link", "Chain issues to an issue", "chained to",
		func(ctx context.Context, app *App, id string, others []string) (*index.Snapshot, error) {
			return app.Issues.Link(ctx, id, others...)
		}))
	cmd.AddCommand(sub("unlink", "Remove issues from the chain", "unchained from",
		func(ctx context.Context, app *App, id string, others []string) (*index.Snapshot, error) {
			return app.Issues.Unlink(ctx, id, others...)
		}))
	cmd.AddCommand(sub("attach", "Attach issues to an issue", "attached to",
		func(ctx context.Context, app *App, id string, others []string) (*index.Snapshot, error) {
			return app.Issues.Attach(ctx, id, others...)
		}))

	return cmd
}

// newParentCmd creates the parent command.
func newParentCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "parent <issue-id> <parent-id>",
		Short: "Set the parent of an issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if _, err := app.Author(); err != nil {
				return err
			}
			ctx := cmd.Context()
			ids, err := resolveIssues(ctx, app, args)
			if err != nil {
				return err
			}
			snap, err := app.Issues.SetParent(ctx, ids[0], ids[1])
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, toIssueJSON(ids[0], snap, app.Clock.Now()))
			}
			fmt.Fprintf(app.Out, "Parent of %s is %s\n", shortID(ids[0]), shortID(ids[1]))
			return nil
		},
	}
}

// newStatusCmd creates the status command, which forces an issue's
// status and project fields.
func newStatusCmd(provider *AppProvider) *cobra.Command {
	var projectTag, projectName string

	cmd := &cobra.Command{
		Use:   "status <issue-id> [status]",
		Short: "Set the status or project of an issue",
		Long: `Force the status of an issue to any value, and optionally record the
project it belongs to. Closing should use "issue close", which checks
chained issues.

Examples:
  issue status 3fa2 in-review
  issue status 3fa2 --project-tag web --project-name Frontend`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if _, err := app.Author(); err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := resolveIssue(ctx, app, args[0])
			if err != nil {
				return err
			}
			snap, err := app.Issues.SetProject(ctx, id, projectTag, projectName)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if snap, err = app.Issues.SetStatus(ctx, id, args[1]); err != nil {
					return err
				}
			}
			if app.JSON {
				return writeJSON(app.Out, toIssueJSON(id, snap, app.Clock.Now()))
			}
			fmt.Fprintf(app.Out, "%s is %s\n", shortID(id), snap.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectTag, "project-tag", "", "Project tag")
	cmd.Flags().StringVar(&projectName, "project-name", "", "Project name")

	return cmd
}
