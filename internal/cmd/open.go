package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"issue-lite/internal/issues"
)

const openTemplate = `
# Describe the issue. The first line is its title.
# Lines starting with %MARKER% are ignored; an empty message aborts.
`

// newOpenCmd creates the open command.
func newOpenCmd(provider *AppProvider) *cobra.Command {
	var (
		tags       []string
		milestones []string
		parent     string
		chain      []string
	)

	cmd := &cobra.Command{
		Use:   "open [message]",
		Short: "Open a new issue",
		Long: `Open a new issue. Without a message argument the editor is started.

Tags must have been created with "issue tag new" first.

Examples:
  issue open "Fix crash on startup" -t bug
  issue open --milestone v1.0
  issue open "Write docs" --parent 3fa2 --chain 91bc`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if _, err := app.Author(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if parent != "" {
				if parent, err = resolveIssue(ctx, app, parent); err != nil {
					return err
				}
			}
			if chain, err = resolveIssues(ctx, app, chain); err != nil {
				return err
			}

			var message string
			if len(args) == 1 {
				message = args[0]
			} else {
				message, err = app.compose(ctx, openTemplate)
				if err != nil {
					return err
				}
			}

			id, snap, err := app.Issues.Open(ctx, issues.OpenRequest{
				Message:    message,
				Tags:       tags,
				Milestones: milestones,
				Parent:     parent,
				Chained:    chain,
			})
			if err != nil {
				return err
			}

			if app.JSON {
				return writeJSON(app.Out, toIssueJSON(id, snap, app.Clock.Now()))
			}
			fmt.Fprintf(app.Out, "%s Opened issue: %s\n", app.SuccessColor("✓"), id)
			fmt.Fprintf(app.Out, "  Title: %s\n", snap.Title())
			if len(snap.Tags) > 0 {
				fmt.Fprintf(app.Out, "  Tags: %s\n", strings.Join(snap.Tags, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag the issue (repeatable)")
	cmd.Flags().StringSliceVar(&milestones, "milestone", nil, "Add a milestone (repeatable)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent issue id")
	cmd.Flags().StringSliceVar(&chain, "chain", nil, "Issues that must be closed before this one")

	return cmd
}

// newReopenCmd creates the reopen command.
func newReopenCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <issue-id> [issue-id...]",
		Short: "Reopen closed issues",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if _, err := app.Author(); err != nil {
				return err
			}
			ctx := cmd.Context()
			done, errs := eachIssue(ctx, app, args, func(id string) error {
				_, err := app.Issues.Reopen(ctx, id)
				return err
			})
			if app.JSON {
				return writeJSON(app.Out, map[string]any{"reopened": nonNilStrings(done), "errors": errorStrings(errs)})
			}
			for _, id := range done {
				fmt.Fprintf(app.Out, "Reopened %s\n", id)
			}
			return reportErrors(app, errs)
		},
	}
}

// newEditCmd creates the edit command, which replaces an issue message.
func newEditCmd(provider *AppProvider) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "edit [issue-id]",
		Short: "Replace the message of an issue",
		Long: `Replace the message of an issue, in the editor unless -m is given.
Without an id the last issue used is edited.`,
		Args: cobra.MaximumNArgs(1),
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
			if message == "" {
				snap, err := app.Issues.Snapshot(ctx, id)
				if err != nil {
					return err
				}
				message, err = app.compose(ctx, snap.Message+"\n"+openTemplate)
				if err != nil {
					return err
				}
			}
			snap, err := app.Issues.SetMessage(ctx, id, message)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, toIssueJSON(id, snap, app.Clock.Now()))
			}
			fmt.Fprintf(app.Out, "Updated message of %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "New message")

	return cmd
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
