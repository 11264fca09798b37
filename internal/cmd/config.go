package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"issue-lite/internal/config"
	"issue-lite/internal/config/yamlstore"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd(provider *AppProvider) *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage configuration settings.

Values are read from ~/.issueconfig.json, $XDG_CONFIG_HOME/issue/config.yaml,
.issue/config.json and .issue/config.yaml, later files winning, then from
ISSUE_AUTHOR_NAME and ISSUE_AUTHOR_EMAIL. set and unset write the
repository file, or the global file with --global.

Subcommands:
  get    Get a configuration value
  set    Set a configuration value
  unset  Remove a configuration value
  dump   Print every configuration value`,
	}

	cmd.PersistentFlags().BoolVar(&global, "global", false, "Use the global config file")

	cmd.AddCommand(newConfigGetCmd(provider, &global))
	cmd.AddCommand(newConfigSetCmd(provider, &global))
	cmd.AddCommand(newConfigUnsetCmd(provider, &global))
	cmd.AddCommand(newConfigDumpCmd(provider, &global))

	return cmd
}

// configStore returns the store that reads or writes hit. The global
// file does not need a repository.
func configStore(provider *AppProvider, global bool) (config.Store, error) {
	if global {
		path := config.DefaultPaths("").Global
		if path == "" {
			return nil, errors.New("cannot locate the global config directory")
		}
		return yamlstore.New(path)
	}
	app, err := provider.Get()
	if err != nil {
		return nil, err
	}
	return app.Config, nil
}

func newConfigGetCmd(provider *AppProvider, global *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Print the value of a key, or "key (not set)" if it is missing.

Examples:
  issue config get author.email
  issue config get --global editor`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := configStore(provider, *global)
			if err != nil {
				return err
			}
			key := args[0]
			value, ok := store.Get(key)
			if provider.JSONOutput {
				return writeJSON(provider.out(), map[string]any{"key": key, "value": value, "set": ok})
			}
			if ok {
				fmt.Fprintln(provider.out(), value)
			} else {
				fmt.Fprintf(provider.out(), "%s (not set)\n", key)
			}
			return nil
		},
	}
}

func newConfigSetCmd(provider *AppProvider, global *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration key to a value.

Examples:
  issue config set author.name "Alice Liddell"
  issue config set --global author.email alice@example.com
  issue config set events_log_size 200`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateKey(args[0]); err != nil {
				return err
			}
			store, err := configStore(provider, *global)
			if err != nil {
				return err
			}
			if err := store.Set(args[0], args[1]); err != nil {
				return fmt.Errorf("setting config: %w", err)
			}
			if provider.JSONOutput {
				return writeJSON(provider.out(), map[string]string{"key": args[0], "value": args[1]})
			}
			fmt.Fprintf(provider.out(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigUnsetCmd(provider *AppProvider, global *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := configStore(provider, *global)
			if err != nil {
				return err
			}
			if err := store.Unset(args[0]); err != nil {
				return fmt.Errorf("unsetting config: %w", err)
			}
			if !provider.JSONOutput {
				fmt.Fprintf(provider.out(), "Unset %s\n", args[0])
			}
			return nil
		},
	}
}

func newConfigDumpCmd(provider *AppProvider, global *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every configuration value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := configStore(provider, *global)
			if err != nil {
				return err
			}
			all := store.All()
			if provider.JSONOutput {
				return writeJSON(provider.out(), all)
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(provider.out(), "%s = %s\n", k, all[k])
			}
			return nil
		},
	}
}
