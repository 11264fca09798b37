package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"issue-lite/internal/pack"
	"issue-lite/internal/repository"
	"issue-lite/internal/synclock"
	"issue-lite/internal/transport"
)

// newPackCmd creates the pack command.
func newPackCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "pack",
		Short: "Rebuild the manifest of local objects",
		Long: `Rebuild .issue/pack.json, the list of every issue, diff batch and
comment held locally. Replicas pulling from this one read it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			m, err := app.Reconciler().Pack(cmd.Context())
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, m)
			}
			issues, diffs, comments := m.Count()
			fmt.Fprintf(app.Out, "Packed %d issues, %d diffs, %d comments\n", issues, diffs, comments)
			return nil
		},
	}
}

// ReportJSON is the JSON output format of a pull or push.
type ReportJSON struct {
	Remote      string   `json:"remote"`
	Probe       bool     `json:"probe"`
	Issues      int      `json:"missing_issues"`
	Diffs       int      `json:"missing_diffs"`
	Comments    int      `json:"missing_comments"`
	Transferred int      `json:"transferred"`
	Failed      int      `json:"failed"`
	Reindexed   []string `json:"reindexed"`
}

func printReport(app *App, verb string, r pack.Report) error {
	issues, diffs, comments := r.Delta.Counts()
	if app.JSON {
		return writeJSON(app.Out, ReportJSON{
			Remote:      r.Remote,
			Probe:       r.Probe,
			Issues:      issues,
			Diffs:       diffs,
			Comments:    comments,
			Transferred: r.Transferred,
			Failed:      r.Failed,
			Reindexed:   nonNilStrings(r.Reindexed),
		})
	}
	if r.Probe {
		fmt.Fprintf(app.Out, "%s %s would transfer %d issues, %d diffs, %d comments\n", verb, r.Remote, issues, diffs, comments)
		return nil
	}
	fmt.Fprintf(app.Out, "%s %s: %d objects transferred", verb, r.Remote, r.Transferred)
	if r.Failed > 0 {
		fmt.Fprintf(app.Out, ", %s", app.WarnColor(fmt.Sprintf("%d failed", r.Failed)))
	}
	if len(r.Reindexed) > 0 {
		fmt.Fprintf(app.Out, ", %d issues re-indexed", len(r.Reindexed))
	}
	fmt.Fprintln(app.Out)
	return nil
}

// remotesFor returns the endpoints named in args, or every remote.
func remotesFor(app *App, args []string) ([]string, repository.Remotes, error) {
	rs, err := app.Repo.Remotes()
	if err != nil {
		return nil, nil, err
	}
	names := args
	if len(names) == 0 {
		names = rs.Names()
	}
	for _, n := range names {
		if _, err := rs.Get(n); err != nil {
			return nil, nil, err
		}
	}
	return names, rs, nil
}

func newSyncCmd(provider *AppProvider, use, short, long, verb string, push bool) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   use + " [remote...]",
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			names, rs, err := remotesFor(app, args)
			if err != nil {
				return err
			}
			rec := app.Reconciler()
			var errs []error
			for _, name := range names {
				remote, _ := rs.Get(name)
				ep, err := transport.Open(ctx, remote.URL(), app.S3Config())
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					continue
				}
				var report pack.Report
				if push {
					report, err = pushLocked(ctx, app, rec, ep, probe)
				} else {
					report, err = rec.Pull(ctx, ep, pack.Options{Probe: probe})
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
					continue
				}
				report.Remote = name
				if err := printReport(app, verb, report); err != nil {
					return err
				}
			}
			return reportErrors(app, errs)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Only report what would be transferred")

	return cmd
}

// pushLocked pushes to ep while holding the exchange's push lock. Remotes
// that are not exchanges are handed to Push unlocked so it can refuse
// them without anything being written.
func pushLocked(ctx context.Context, app *App, rec *pack.Reconciler, ep transport.Endpoint, probe bool) (pack.Report, error) {
	opts := pack.Options{Probe: probe}
	role, err := pack.RemoteRole(ctx, ep)
	if err != nil {
		return pack.Report{}, err
	}
	if probe || role != repository.RoleExchange {
		return rec.Push(ctx, ep, opts)
	}

	holder := synclock.Holder()
	if _, err := synclock.Acquire(ctx, ep, holder, app.Clock.Now()); err != nil {
		return pack.Report{}, err
	}
	defer func() {
		if err := synclock.Release(ctx, ep, holder); err != nil {
			app.Logger.Warn().Err(err).Str("remote", ep.String()).Msg("releasing push lock")
		}
	}()
	return rec.Push(ctx, ep, opts)
}

// newPullCmd creates the pull command.
func newPullCmd(provider *AppProvider) *cobra.Command {
	return newSyncCmd(provider, "pull", "Fetch objects from remotes",
		`Fetch the issues, diffs and comments a remote has and this replica
lacks, then re-index the issues that changed. The remote must have run
"issue pack" (pushes do this automatically). Without names every remote
is pulled.`, "Pulled", false)
}

// newPushCmd creates the push command.
func newPushCmd(provider *AppProvider) *cobra.Command {
	return newSyncCmd(provider, "push", "Send objects to exchange remotes",
		`Send the issues, diffs and comments an exchange remote lacks, then
update its manifest. Remotes whose role is not "exchange" are refused.
Without names every remote is pushed.`, "Pushed", true)
}

// newRemoteCmd creates the remote command with subcommands.
func newRemoteCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage remotes",
		Long: `Manage the replicas this one pulls from and pushes to. A remote URL
is a directory path, a file:// URL or an s3://bucket/prefix URL.

Subcommands:
  ls    List remotes
  set   Add or change a remote
  rm    Remove a remote
  show  Show a remote's role and manifest size`,
	}

	cmd.AddCommand(newRemoteListCmd(provider))
	cmd.AddCommand(newRemoteSetCmd(provider))
	cmd.AddCommand(newRemoteRemoveCmd(provider))
	cmd.AddCommand(newRemoteShowCmd(provider))

	return cmd
}

func newRemoteListCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			rs, err := app.Repo.Remotes()
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, rs)
			}
			printRemotes(app.Out, rs)
			return nil
		},
	}
}

func printRemotes(w io.Writer, rs repository.Remotes) {
	for _, n := range rs.Names() {
		r := rs[n]
		fmt.Fprintf(w, "%s\t%s\t%s\n", n, r.URL(), r.Status())
	}
}

func newRemoteSetCmd(provider *AppProvider) *cobra.Command {
	var exchange bool

	cmd := &cobra.Command{
		Use:   "set <name> <url>",
		Short: "Add or change a remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			rs, err := app.Repo.Remotes()
			if err != nil {
				return err
			}
			status := repository.RoleEndpoint
			if exchange {
				status = repository.RoleExchange
			}
			rs[args[0]] = repository.Remote{"url": args[1], "status": status}
			if err := app.Repo.SaveRemotes(rs); err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, rs[args[0]])
			}
			fmt.Fprintf(app.Out, "Remote %s -> %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&exchange, "exchange", false, "Record the remote as an exchange")

	return cmd
}

func newRemoteRemoveCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			rs, err := app.Repo.Remotes()
			if err != nil {
				return err
			}
			if _, err := rs.Get(args[0]); err != nil {
				return err
			}
			delete(rs, args[0])
			if err := app.Repo.SaveRemotes(rs); err != nil {
				return err
			}
			if !app.JSON {
				fmt.Fprintf(app.Out, "Removed remote %s\n", args[0])
			}
			return nil
		},
	}
}

func newRemoteShowCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a remote's role and manifest size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rs, err := app.Repo.Remotes()
			if err != nil {
				return err
			}
			remote, err := rs.Get(args[0])
			if err != nil {
				return err
			}
			ep, err := transport.Open(ctx, remote.URL(), app.S3Config())
			if err != nil {
				return err
			}
			role, err := pack.RemoteRole(ctx, ep)
			if err != nil {
				return err
			}
			m := pack.NewManifest()
			data, err := ep.ReadFile(ctx, pack.ManifestFile)
			switch {
			case err == nil:
				if m, err = pack.Parse(data); err != nil {
					return err
				}
			case !errors.Is(err, transport.ErrNotExist):
				return err
			}
			issues, diffs, comments := m.Count()
			if app.JSON {
				return writeJSON(app.Out, map[string]any{
					"name": args[0], "url": remote.URL(), "status": role,
					"issues": issues, "diffs": diffs, "comments": comments,
				})
			}
			fmt.Fprintf(app.Out, "%s (%s) %s\n", args[0], role, remote.URL())
			fmt.Fprintf(app.Out, "  %d issues, %d diffs, %d comments\n", issues, diffs, comments)
			return nil
		},
	}
}
