package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ChildJSON is the JSON output format of one descendant.
type ChildJSON struct {
	IssueJSON
	Depth int `json:"depth"`
}

// newChildrenCmd creates the children command.
func newChildrenCmd(provider *AppProvider) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "children [issue-id]",
		Short: "Show the issues below an issue",
		Long: `Show the issues whose parent chain leads to the given issue, as an
indented tree.

Examples:
  issue children 3fa2
  issue children 3fa2 --depth 1`,
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
			nodes, snaps, err := app.Issues.Children(ctx, id)
			if err != nil {
				return err
			}
			now := app.Clock.Now()

			if app.JSON {
				out := []ChildJSON{}
				for _, n := range nodes {
					if depth > 0 && n.Depth > depth {
						continue
					}
					out = append(out, ChildJSON{IssueJSON: toIssueJSON(n.ID, snaps[n.ID], now), Depth: n.Depth})
				}
				return writeJSON(app.Out, out)
			}
			for _, n := range nodes {
				if depth > 0 && n.Depth > depth {
					continue
				}
				s := snaps[n.ID]
				fmt.Fprintf(app.Out, "%s%s [%s] %s\n", strings.Repeat("  ", n.Depth-1), app.IDColor(shortID(n.ID)), s.Status, s.Title())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 0, "Limit the tree depth (0: unlimited)")

	return cmd
}
