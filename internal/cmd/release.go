package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"issue-lite/internal/release"
)

// newReleaseCmd creates the release command with subcommands.
func newReleaseCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Manage releases",
		Long: `Manage releases. At most one release is open at a time. Closing it
records every issue opened or closed since it was opened.

"-" names the open release.

Subcommands:
  open   Open a release
  close  Close the open release
  ls     List releases
  notes  Show or set release notes`,
	}

	cmd.AddCommand(newReleaseOpenCmd(provider))
	cmd.AddCommand(newReleaseCloseCmd(provider))
	cmd.AddCommand(newReleaseListCmd(provider))
	cmd.AddCommand(newReleaseNotesCmd(provider))

	return cmd
}

// ReleaseJSON is the JSON output format of a release.
type ReleaseJSON struct {
	Name         string   `json:"name"`
	Open         bool     `json:"open"`
	OpenedBy     string   `json:"opened_by,omitempty"`
	OpenedAt     string   `json:"opened_at,omitempty"`
	ClosedBy     string   `json:"closed_by,omitempty"`
	ClosedAt     string   `json:"closed_at,omitempty"`
	OpenedIssues []string `json:"opened_issues"`
	ClosedIssues []string `json:"closed_issues"`
}

func toReleaseJSON(r release.Release) ReleaseJSON {
	out := ReleaseJSON{
		Name:         r.Name,
		Open:         r.IsOpen(),
		OpenedIssues: nonNilStrings(r.OpenedIssues),
		ClosedIssues: nonNilStrings(r.ClosedIssues),
	}
	if r.Opened != nil {
		out.OpenedBy = formatAuthor(r.Opened.Author)
		out.OpenedAt = formatTime(r.Opened.Timestamp)
	}
	if r.Closed != nil {
		out.ClosedBy = formatAuthor(r.Closed.Author)
		out.ClosedAt = formatTime(r.Closed.Timestamp)
	}
	return out
}

func newReleaseOpenCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "open <name>",
		Short: "Open a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			author, err := app.Author()
			if err != nil {
				return err
			}
			if err := app.Releases.Open(cmd.Context(), args[0], author, app.Now()); err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, map[string]string{"opened": args[0]})
			}
			fmt.Fprintf(app.Out, "Opened release %s\n", args[0])
			return nil
		},
	}
}

func newReleaseCloseCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "close [name|-]",
		Short: "Close the open release",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			author, err := app.Author()
			if err != nil {
				return err
			}
			name := release.Current
			if len(args) == 1 {
				name = args[0]
			}
			rel, err := app.Releases.Close(cmd.Context(), name, author, app.Now())
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, toReleaseJSON(rel))
			}
			fmt.Fprintf(app.Out, "Closed release %s: %d issues opened, %d closed\n",
				rel.Name, len(rel.OpenedIssues), len(rel.ClosedIssues))
			return nil
		},
	}
}

func newReleaseListCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			rels, err := app.Releases.List(cmd.Context())
			if err != nil {
				return err
			}
			if app.JSON {
				out := make([]ReleaseJSON, 0, len(rels))
				for _, r := range rels {
					out = append(out, toReleaseJSON(r))
				}
				return writeJSON(app.Out, out)
			}
			for _, r := range rels {
				rj := toReleaseJSON(r)
				state := "closed " + rj.ClosedAt
				if r.IsOpen() {
					state = app.SuccessColor("open")
				}
				fmt.Fprintf(app.Out, "%s\topened %s\t%s\n", r.Name, rj.OpenedAt, state)
			}
			return nil
		},
	}
}

func newReleaseNotesCmd(provider *AppProvider) *cobra.Command {
	var (
		message string
		file    string
		edit    bool
	)

	cmd := &cobra.Command{
		Use:   "notes [name|-]",
		Short: "Show or set release notes",
		Long: `Print the notes of a release (default: the open one). With -m, --file
or --edit the notes are replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			name := release.Current
			if len(args) == 1 {
				name = args[0]
			}

			switch {
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				message = string(data)
			case edit:
				current, err := app.Releases.Notes(name)
				if err != nil {
					return err
				}
				if message, err = app.compose(cmd.Context(), current); err != nil {
					return err
				}
			}
			if message != "" {
				if err := app.Releases.SetNotes(name, strings.TrimSpace(message)+"\n"); err != nil {
					return err
				}
			}

			notes, err := app.Releases.Notes(name)
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, map[string]string{"notes": notes})
			}
			fmt.Fprint(app.Out, notes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Replace the notes with this text")
	cmd.Flags().StringVar(&file, "file", "", "Replace the notes with the content of a file")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "Edit the notes in the editor")

	return cmd
}
