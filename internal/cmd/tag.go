package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"issue-lite/internal/config"
	"issue-lite/internal/tags"
)

// newTagCmd creates the tag command with subcommands.
func newTagCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
		Long: `Manage tags. Tags must be created before issues can use them.

Subcommands:
  ls    List tags with usage counts
  new   Create a tag
  add   Tag an issue
  rm    Untag an issue`,
	}

	cmd.AddCommand(newTagListCmd(provider))
	cmd.AddCommand(newTagNewCmd(provider))
	cmd.AddCommand(newTagAddCmd(provider))
	cmd.AddCommand(newTagRemoveCmd(provider))

	return cmd
}

// TagJSON is the JSON output format of a tag.
type TagJSON struct {
	Name     string   `json:"name"`
	Created  bool     `json:"created"`
	Mentions int      `json:"mentions"`
	Issues   []string `json:"issues"`
}

func newTagListCmd(provider *AppProvider) *cobra.Command {
	var virtualOnly bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List tags",
		Long: `List created tags and tags referenced by issues without having been
created; the latter are marked "(not created)".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			g, err := tags.Gather(cmd.Context(), app.Store)
			if err != nil {
				return err
			}
			var out []TagJSON
			for _, t := range g.Tags {
				if virtualOnly && t.Real {
					continue
				}
				out = append(out, TagJSON{Name: t.Name, Created: t.Real, Mentions: t.Mentions, Issues: t.Issues})
			}
			if app.JSON {
				if out == nil {
					out = []TagJSON{}
				}
				return writeJSON(app.Out, out)
			}
			for _, t := range out {
				line := fmt.Sprintf("%s (%d issues)", t.Name, len(t.Issues))
				if !t.Created {
					line += " " + app.WarnColor("(not created)")
				}
				fmt.Fprintln(app.Out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&virtualOnly, "virtual", false, "Only list tags that were never created")

	return cmd
}

func newTagNewCmd(provider *AppProvider) *cobra.Command {
	var (
		force   bool
		project string
	)

	cmd := &cobra.Command{
		Use:   "new <name> [name...]",
		Short: "Create tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			author, err := app.Author()
			if err != nil {
				return err
			}
			if project == "" {
				project, _ = app.Config.Get(config.KeyProjectName)
			}
			var created []string
			var errs []error
			for _, name := range args {
				if err := tags.Make(cmd.Context(), app.Store, name, author, app.Now(), project, force); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					continue
				}
				created = append(created, name)
			}
			if app.JSON {
				if err := writeJSON(app.Out, map[string]any{"created": nonNilStrings(created), "errors": errorStrings(errs)}); err != nil {
					return err
				}
			} else {
				for _, name := range created {
					fmt.Fprintf(app.Out, "Created tag %s\n", name)
				}
			}
			return reportErrors(app, errs)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Recreate an existing tag")
	cmd.Flags().StringVar(&project, "project", "", "Project name recorded on the tag (default: project.name)")

	return cmd
}

func newTagAddCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "add <issue-id> <tag> [tag...]",
		Short: "Tag an issue",
		Args:  cobra.MinimumNArgs(2),
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
			snap, err := app.Issues.AddTags(ctx, id, args[1:]...)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, toIssueJSON(id, snap, app.Clock.Now()))
			}
			fmt.Fprintf(app.Out, "Tags of %s: %s\n", shortID(id), strings.Join(snap.Tags, ", "))
			return nil
		},
	}
}

func newTagRemoveCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <issue-id> <tag> [tag...]",
		Short: "Remove tags from an issue",
		Args:  cobra.MinimumNArgs(2),
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
			snap, err := app.Issues.RemoveTags(ctx, id, args[1:]...)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, toIssueJSON(id, snap, app.Clock.Now()))
			}
			fmt.Fprintf(app.Out, "Tags of %s: %s\n", shortID(id), strings.Join(snap.Tags, ", "))
			return nil
		},
	}
}
