package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"issue-lite/internal/shortlog"
)

// newEventsCmd creates the events command, which shows recent activity.
func newEventsCmd(provider *AppProvider) *cobra.Command {
	var (
		limit  int
		squash int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent activity, newest first",
		Long: `Show recently opened, closed, commented, tagged and viewed issues.

--squash collapses repeated activity: 1 keeps only the most important of
adjacent events on the same issue, 2 does so across the whole log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			events := shortlog.Squash(app.Events.Read(), squash)
			if limit > 0 && len(events) > limit {
				events = events[:limit]
			}
			if app.JSON {
				if events == nil {
					events = []shortlog.Event{}
				}
				return writeJSON(app.Out, events)
			}
			for _, e := range events {
				line := fmt.Sprintf("%s  %-10s %s", formatTime(e.Timestamp), e.Event, app.IDColor(shortID(e.IssueUID)))
				if len(e.Parameters) > 0 {
					line += "  " + formatParams(e.Parameters)
				}
				fmt.Fprintln(app.Out, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many events (0: all)")
	cmd.Flags().IntVarP(&squash, "squash", "s", 0, "Squash level (0-2)")

	return cmd
}
