package cli

import (
	"github.com/gatorkit/gator-cli/internal/cli/render"
	"github.com/spf13/cobra"
)

// NewToggleCmd creates the toggle command
func NewToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Disable and re-enable a delegation",
		Long: `Create a signed delegation, then disable it, try to disable it again,
and enable it, reading its on-chain status between the steps.

The second disable is rejected by the delegation manager and is reported
as a rejected step rather than an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			signatory, err := resolveSignatory(cmd, app)
			if err != nil {
				return err
			}

			result, err := app.RunToggleExample.Run(cmd.Context(), signatory)
			if err != nil {
				return err
			}

			renderer := render.NewSessionRenderer(cmd.OutOrStdout(), app.Config.Network, app.Config.JSON)
			return renderer.RenderToggle(result)
		},
	}
}
