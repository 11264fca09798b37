package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"issue-lite/internal/index"
	"issue-lite/internal/issues"
)

// newListCmd creates the ls command.
func newListCmd(provider *AppProvider) *cobra.Command {
	var (
		all     bool
		closed  bool
		status  string
		tags    []string
		since   string
		until   string
		author  string
		keyword string
		ready   bool
		blocked bool
	)

	cmd := &cobra.Command{
		Use:     "ls [keyword]",
		Aliases: []string{"list"},
		Short:   "List issues with filtering",
		Long: `List issues, oldest first. By default only open issues are listed.

--since and --until take a date (2024-01-31, 2024-01-31T15:04) or a
delta back from now (90m, 6h, 3d, 2w, 1M, 1y).

Examples:
  issue ls
  issue ls --all -t bug
  issue ls --closed --since 2w
  issue ls --author alice crash
  issue ls --ready`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			now := app.Clock.Now()

			f := issues.Filter{Tags: tags, Author: author, Keyword: keyword, Ready: ready, Blocked: blocked}
			if len(args) == 1 {
				f.Keyword = args[0]
			}
			switch {
			case all:
			case closed:
				f.Status = index.StatusClosed
			case status != "":
				f.Status = status
			default:
				f.Status = index.StatusOpen
			}
			if since != "" {
				if f.Since, err = issues.ParseTime(since, now); err != nil {
					return err
				}
			}
			if until != "" {
				if f.Until, err = issues.ParseTime(until, now); err != nil {
					return err
				}
			}

			entries, err := app.Issues.List(ctx, f)
			if err != nil {
				return err
			}

			if app.JSON {
				out := make([]IssueJSON, 0, len(entries))
				for _, e := range entries {
					out = append(out, toIssueJSON(e.ID, e.Snapshot, now))
				}
				return writeJSON(app.Out, out)
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s %s", app.IDColor(shortID(e.ID)), e.Snapshot.Title())
				if len(e.Snapshot.Tags) > 0 {
					line += " [" + strings.Join(e.Snapshot.Tags, ", ") + "]"
				}
				if e.Snapshot.Status != index.StatusOpen {
					line += " (" + e.Snapshot.Status + ")"
				}
				fmt.Fprintln(app.Out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "List issues of every status")
	cmd.Flags().BoolVar(&closed, "closed", false, "List closed issues")
	cmd.Flags().StringVar(&status, "status", "", "List issues with this status")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Require the tag (repeatable)")
	cmd.Flags().StringVar(&since, "since", "", "Opened at or after this time")
	cmd.Flags().StringVar(&until, "until", "", "Opened at or before this time")
	cmd.Flags().StringVar(&author, "author", "", "Opener name or email contains this")
	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Message contains this (case-insensitive)")
	cmd.Flags().BoolVar(&ready, "ready", false, "Only open issues whose chained issues are all closed")
	cmd.Flags().BoolVar(&blocked, "blocked", false, "Only open issues waiting on chained issues")
	cmd.MarkFlagsMutuallyExclusive("ready", "blocked")

	return cmd
}
