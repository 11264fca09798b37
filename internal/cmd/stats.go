package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"issue-lite/internal/index"
)

// StatsJSON is the JSON output format of the stats command.
type StatsJSON struct {
	Total           int            `json:"total"`
	ByStatus        map[string]int `json:"by_status"`
	ByTag           map[string]int `json:"by_tag"`
	ByAuthor        map[string]int `json:"by_author"`
	Comments        int            `json:"comments"`
	TimeSpent       string         `json:"time_spent"`
	MeanTimeToClose string         `json:"mean_time_to_close"`
}

// newStatsCmd creates the stats command.
func newStatsCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show repository statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			st, err := app.Issues.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			out := StatsJSON{
				Total:           st.Total,
				ByStatus:        st.ByStatus,
				ByTag:           st.ByTag,
				ByAuthor:        st.ByAuthor,
				Comments:        st.Comments,
				TimeSpent:       index.FormatDuration(st.TimeSpent),
				MeanTimeToClose: index.FormatDuration(st.MeanTimeToClose),
			}
			if app.JSON {
				return writeJSON(app.Out, out)
			}

			fmt.Fprintf(app.Out, "Issues:   %d (%d open, %d closed)\n", st.Total,
				st.ByStatus[index.StatusOpen], st.ByStatus[index.StatusClosed])
			for _, s := range sortedKeys(st.ByStatus) {
				if s != index.StatusOpen && s != index.StatusClosed {
					fmt.Fprintf(app.Out, "  %s: %d\n", s, st.ByStatus[s])
				}
			}
			fmt.Fprintf(app.Out, "Comments: %d\n", st.Comments)
			fmt.Fprintf(app.Out, "Time spent: %s\n", out.TimeSpent)
			if st.ByStatus[index.StatusClosed] > 0 {
				fmt.Fprintf(app.Out, "Mean time to close: %s\n", out.MeanTimeToClose)
			}
			if len(st.ByTag) > 0 {
				fmt.Fprintln(app.Out, "Tags:")
				for _, t := range sortedKeys(st.ByTag) {
					fmt.Fprintf(app.Out, "  %s: %d\n", t, st.ByTag[t])
				}
			}
			if len(st.ByAuthor) > 0 {
				fmt.Fprintln(app.Out, "Opened by:")
				for _, a := range sortedKeys(st.ByAuthor) {
					fmt.Fprintf(app.Out, "  %s: %d\n", a, st.ByAuthor[a])
				}
			}
			return nil
		},
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
