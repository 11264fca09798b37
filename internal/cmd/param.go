package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newParamCmd creates the param command with subcommands.
func newParamCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "param",
		Short: "Manage issue parameters",
		Long: `Manage free-form key/value parameters of an issue.

Subcommands:
  set   Set a parameter
  rm    Remove a parameter`,
	}

	cmd.AddCommand(newParamSetCmd(provider))
	cmd.AddCommand(newParamRemoveCmd(provider))

	return cmd
}

func newParamSetCmd(provider *AppProvider) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "set <issue-id> <key> <value>",
		Short: "Set a parameter",
		Long: `Set a parameter. With --raw the value is parsed as JSON, so numbers,
lists and objects keep their type.

Examples:
  issue param set 3fa2 priority high
  issue param set 3fa2 estimate 3 --raw`,
		Args: cobra.ExactArgs(3),
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
			var value any = args[2]
			if raw {
				if err := json.Unmarshal([]byte(args[2]), &value); err != nil {
					return fmt.Errorf("parsing value: %w", err)
				}
			}
			snap, err := app.Issues.SetParam(ctx, id, args[1], value)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, toIssueJSON(id, snap, app.Clock.Now()))
			}
			fmt.Fprintf(app.Out, "Set %s = %v on %s\n", args[1], value, shortID(id))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Parse the value as JSON")

	return cmd
}

func newParamRemoveCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <issue-id> <key>",
		Short: "Remove a parameter",
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
			id, err := resolveIssue(ctx, app, args[0])
			if err != nil {
				return err
			}
			snap, err := app.Issues.RemoveParam(ctx, id, args[1])
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, toIssueJSON(id, snap, app.Clock.Now()))
			}
			fmt.Fprintf(app.Out, "Removed %s from %s\n", args[1], shortID(id))
			return nil
		},
	}
}
