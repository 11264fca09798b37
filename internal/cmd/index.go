package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newIndexCmd creates the index command.
func newIndexCmd(provider *AppProvider) *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "index [issue-id...]",
		Short: "Rebuild issue snapshots from their logs",
		Long: `Rebuild the snapshots of the given issues, or of every issue, by
replaying their logs.

With --reverse the opposite is done: a log is synthesized from an
existing snapshot. This is only meant for upgrading repositories created
by clients that stored snapshots without logs; parameters, links and
history cannot be recovered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 0 && !reverse {
				failed, err := app.Indexer.IndexAll(ctx)
				if app.JSON {
					if jerr := writeJSON(app.Out, map[string]any{"failed": nonNilStrings(failed)}); jerr != nil {
						return jerr
					}
				} else if len(failed) > 0 {
					fmt.Fprintf(app.Out, "%d issues could not be indexed\n", len(failed))
				}
				return err
			}

			if len(args) == 0 {
				if args, err = app.Store.ListIssues(ctx); err != nil {
					return err
				}
			}
			author := app.Issues.Author()
			done, errs := eachIssue(ctx, app, args, func(id string) error {
				if reverse {
					_, err := app.Indexer.Revindex(ctx, id, author)
					return err
				}
				_, err := app.Indexer.Index(ctx, id)
				return err
			})
			if app.JSON {
				return writeJSON(app.Out, map[string]any{"indexed": nonNilStrings(done), "errors": errorStrings(errs)})
			}
			for _, id := range done {
				fmt.Fprintf(app.Out, "Indexed %s\n", id)
			}
			return reportErrors(app, errs)
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "Synthesize logs from existing snapshots")

	return cmd
}
