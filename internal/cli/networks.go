package cli

import (
	"github.com/gatorkit/gator-cli/internal/cli/render"
	"github.com/spf13/cobra"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List available networks",
		Long: `List the built-in networks and those configured in gator.toml.

A network is ready once its [environments.<chainId>] section names every
delegation framework contract. Select one with --network.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListNetworks.Run(cmd.Context())
			if err != nil {
				return err
			}

			return render.NewNetworksRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}
}
