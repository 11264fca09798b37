package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"issue-lite/internal/issues"
)

// newCloseCmd creates the close command.
func newCloseCmd(provider *AppProvider) *cobra.Command {
	var (
		gitCommit string
		gitTime   float64
	)

	cmd := &cobra.Command{
		Use:   "close <issue-id> [issue-id...]",
		Short: "Close one or more issues",
		Long: `Close one or more issues.

An issue cannot be closed while any issue chained to it is still open.
Each id is processed independently; failures are reported and the
remaining ids are still closed. Issues chained to each other are closed
in dependency order.

Examples:
  issue close 3fa2
  issue close 3fa2 91bc --git-commit 1a2b3c4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if _, err := app.Author(); err != nil {
				return err
			}
			ctx := cmd.Context()

			req := issues.CloseRequest{GitCommit: gitCommit}
			if cmd.Flags().Changed("git-timestamp") {
				req.GitTimestamp = &gitTime
			}
			var resolved []string
			var errs []error
			for _, ref := range args {
				id, err := resolveIssue(ctx, app, ref)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", ref, err))
					continue
				}
				resolved = append(resolved, id)
			}
			// Chained issues given together are closed first.
			closed, closeErrs := eachIssue(ctx, app, app.Issues.CloseOrder(ctx, resolved), func(id string) error {
				_, err := app.Issues.Close(ctx, id, req)
				var chained *issues.ChainedOpenError
				if errors.As(err, &chained) {
					short := make([]string, len(chained.Dependents))
					for i, d := range chained.Dependents {
						short[i] = shortID(d)
					}
					return fmt.Errorf("%w: %s", issues.ErrChainedOpen, strings.Join(short, ", "))
				}
				return err
			})
			errs = append(errs, closeErrs...)

			if app.JSON {
				result := map[string]any{"closed": nonNilStrings(closed)}
				if len(errs) > 0 {
					result["errors"] = errorStrings(errs)
				}
				if err := writeJSON(app.Out, result); err != nil {
					return err
				}
				if len(errs) > 0 {
					return errs[0]
				}
				return nil
			}

			for _, id := range closed {
				fmt.Fprintf(app.Out, "Closed %s\n", id)
			}
			return reportErrors(app, errs)
		},
	}

	cmd.Flags().StringVar(&gitCommit, "git-commit", "", "Commit that closed the issue")
	cmd.Flags().Float64Var(&gitTime, "git-timestamp", 0, "Unix time of the closing commit; used as the close time")

	return cmd
}

// newDropCmd creates the drop command.
func newDropCmd(provider *AppProvider) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "drop <issue-id> [issue-id...]",
		Short: "Irreversibly remove issues",
		Long: `Remove issues together with their logs and comments.
Replicas that already hold an issue keep it and may bring it back on pull.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if !force {
				return errors.New("dropping issues cannot be undone; pass --force to confirm")
			}
			ctx := cmd.Context()
			dropped, errs := eachIssue(ctx, app, args, func(id string) error {
				return app.Issues.Drop(ctx, id)
			})
			if app.JSON {
				return writeJSON(app.Out, map[string]any{"dropped": nonNilStrings(dropped), "errors": errorStrings(errs)})
			}
			for _, id := range dropped {
				fmt.Fprintf(app.Out, "Dropped %s\n", id)
			}
			return reportErrors(app, errs)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Confirm removal")

	return cmd
}
