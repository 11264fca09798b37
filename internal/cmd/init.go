package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"issue-lite/internal/repository"
)

// newInitCmd creates the init command. It does not use the provider's
// App since the repository does not exist yet.
func newInitCmd(provider *AppProvider) *cobra.Command {
	var (
		exchange bool
		force    bool
		upgrade  bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize an issue repository",
		Long: `Create .issue/ in the given directory (default: current directory).

An exchange repository is a hub other replicas may push to; the
default endpoint role only pulls and pushes.

Examples:
  issue init
  issue init --exchange /srv/issues
  issue init --upgrade`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			where := provider.RepoPath
			if len(args) == 1 {
				where = args[0]
			}
			if where == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("getting current directory: %w", err)
				}
				where = cwd
			}
			role := repository.RoleEndpoint
			if exchange {
				role = repository.RoleExchange
			}
			repo, err := repository.Init(where, repository.InitOptions{Role: role, Force: force, Upgrade: upgrade})
			if err != nil {
				if errors.Is(err, repository.ErrRepositoryExists) {
					return fmt.Errorf("%w (use --force to reinitialize or --upgrade to repair)", err)
				}
				return err
			}
			if provider.JSONOutput {
				return writeJSON(provider.out(), map[string]string{"path": repo.Root(), "status": role})
			}
			fmt.Fprintf(provider.out(), "Initialized %s repository in %s\n", role, repo.Root())
			return nil
		},
	}

	cmd.Flags().BoolVar(&exchange, "exchange", false, "Initialize as an exchange hub")
	cmd.Flags().BoolVar(&force, "force", false, "Remove an existing repository first")
	cmd.Flags().BoolVar(&upgrade, "upgrade", false, "Create missing directories of an existing repository")

	return cmd
}

// newWhereCmd prints the repository location.
func newWhereCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "where",
		Short: "Print the path of the repository in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			role, err := app.Repo.Role()
			if err != nil {
				return err
			}
			if app.JSON {
				return writeJSON(app.Out, map[string]string{"path": app.Repo.Root(), "status": role})
			}
			fmt.Fprintln(app.Out, app.Repo.Root())
			return nil
		},
	}
}
