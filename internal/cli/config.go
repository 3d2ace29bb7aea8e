package cli

import (
	"github.com/gatorkit/gator-cli/internal/cli/render"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved gator configuration",
		Long: `Show the configuration gator resolved from gator.toml, .env files,
GATOR_* environment variables and flags.

Missing values are reported with the key an operation would fail on.
Use --yaml to print the configuration in gator.toml terms.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowConfig.Run(cmd.Context())
			if err != nil {
				return err
			}

			renderer := render.NewConfigRenderer(cmd.OutOrStdout(), asYAML)
			return renderer.RenderConfig(result)
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the configuration as YAML")

	return cmd
}
