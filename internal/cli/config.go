package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration commands run with: the file named by
--config over the built-in defaults. Text output is TOML and can be
saved as a starting config file.

Examples:
  reorder config > reorder.toml
  reorder config --config reorder.toml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			if formatter.JSON() {
				return formatter.Success(rootOpts.Config)
			}

			data, err := rootOpts.Config.Marshal()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to render config", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
