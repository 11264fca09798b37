package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"issue-lite/internal/issues"
)

// newShowCmd creates the show command.
func newShowCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "show [issue-id]",
		Short: "Show an issue with its comments",
		Long: `Show an issue with its comments. Without an id the last issue used
is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := resolveIssue(ctx, app, issueArg(args))
			if err != nil {
				return err
			}
			d, err := app.Issues.Show(ctx, id)
			if err != nil {
				return err
			}

			now := app.Clock.Now()
			if app.JSON {
				out := toIssueJSON(d.ID, d.Snapshot, now)
				out.BlockedBy = d.BlockedBy
				for _, c := range d.Comments {
					out.Comments = append(out.Comments, toCommentJSON(c))
				}
				return writeJSON(app.Out, out)
			}
			printIssue(app, app.Out, d, now)
			return nil
		},
	}
}

func printIssue(app *App, w io.Writer, d issues.Details, now time.Time) {
	s := d.Snapshot
	issue := toIssueJSON(d.ID, s, now)
	fmt.Fprintf(w, "%s %s\n", app.IDColor("issue"), d.ID)
	fmt.Fprintf(w, "Status:  %s\n", s.Status)
	if issue.OpenedBy != "" {
		fmt.Fprintf(w, "Opened:  %s by %s\n", issue.OpenedAt, issue.OpenedBy)
	}
	if issue.ClosedBy != "" {
		fmt.Fprintf(w, "Closed:  %s by %s\n", issue.ClosedAt, issue.ClosedBy)
	}
	if s.ClosingGitCommit != "" {
		fmt.Fprintf(w, "Commit:  %s\n", s.ClosingGitCommit)
	}
	if len(s.Tags) > 0 {
		fmt.Fprintf(w, "Tags:    %s\n", strings.Join(s.Tags, ", "))
	}
	if len(s.Milestones) > 0 {
		fmt.Fprintf(w, "Milestones: %s\n", strings.Join(s.Milestones, ", "))
	}
	if s.Parent != "" {
		fmt.Fprintf(w, "Parent:  %s\n", s.Parent)
	}
	if len(s.Chained) > 0 {
		fmt.Fprintf(w, "Chained: %s\n", strings.Join(s.Chained, ", "))
	}
	if len(d.BlockedBy) > 0 {
		fmt.Fprintf(w, "Blocked by: %s\n", strings.Join(d.BlockedBy, ", "))
	}
	if len(s.Attached) > 0 {
		fmt.Fprintf(w, "Attached: %s\n", strings.Join(s.Attached, ", "))
	}
	if issue.TimeSpent != "" {
		fmt.Fprintf(w, "Time spent: %s\n", issue.TimeSpent)
	}
	if len(s.Parameters) > 0 {
		keys := make([]string, 0, len(s.Parameters))
		for k := range s.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "Parameters:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s = %v\n", k, s.Parameters[k])
		}
	}
	fmt.Fprintln(w)
	for _, line := range strings.Split(s.Message, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	for _, c := range d.Comments {
		cj := toCommentJSON(c)
		fmt.Fprintf(w, "\n%s %s\n%s, %s\n\n", app.IDColor("comment"), shortID(c.ID), cj.Author, cj.Timestamp)
		for _, line := range strings.Split(c.Message, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// newLogCmd creates the log command, which prints an issue's diff log.
func newLogCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "log [issue-id]",
		Short: "Show the change log of an issue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := resolveIssue(ctx, app, issueArg(args))
			if err != nil {
				return err
			}
			diffs, err := app.Issues.Log(ctx, id)
			if err != nil {
				return err
			}
			out := make([]DiffJSON, 0, len(diffs))
			for _, d := range diffs {
				dj, err := toDiffJSON(d)
				if err != nil {
					return err
				}
				out = append(out, dj)
			}
			if app.JSON {
				return writeJSON(app.Out, out)
			}
			for _, dj := range out {
				fmt.Fprintf(app.Out, "%s  %-18s %s\n", dj.Timestamp, dj.Action, dj.Author)
				if len(dj.Params) > 0 {
					fmt.Fprintf(app.Out, "    %s\n", formatParams(dj.Params))
				}
			}
			return nil
		},
	}
}

func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}
