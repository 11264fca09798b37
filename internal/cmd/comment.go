package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const commentTemplate = `
# Write a comment for issue %ISSUE%.
# Lines starting with %MARKER% are ignored; an empty comment aborts.
`

// newCommentCmd creates the comment command.
func newCommentCmd(provider *AppProvider) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "comment [issue-id]",
		Short: "Comment on an issue",
		Long: `Attach a comment to an issue, in the editor unless -m is given.
Without an id the last issue used is commented.

Examples:
  issue comment 3fa2 -m "Reproduced on arm64"
  issue comment`,
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
				tmpl := strings.ReplaceAll(commentTemplate, "%ISSUE%", shortID(id))
				if message, err = app.compose(ctx, tmpl); err != nil {
					return err
				}
			}
			cid, err := app.Issues.Comment(ctx, id, message)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, map[string]string{"issue": id, "comment": cid})
			}
			fmt.Fprintf(app.Out, "Commented on %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Comment text")

	return cmd
}
