package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version can be overridden at build time via
// -ldflags "-X issue-lite/internal/cmd.Version=1.2.3".
var Version = "0.1.0"

func newVersionCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider.JSONOutput {
				return writeJSON(provider.out(), map[string]string{"version": Version})
			}
			fmt.Fprintf(provider.out(), "issue version %s\n", Version)
			return nil
		},
	}
}
