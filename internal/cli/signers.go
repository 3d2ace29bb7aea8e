package cli

import (
	"fmt"

	"github.com/gatorkit/gator-cli/internal/cli/render"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/spf13/cobra"
)

// NewSignersCmd creates the signers command
func NewSignersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signers",
		Short: "List the signatories and try them out",
		Long: `List the available signatories.

A signatory is unavailable when its configuration is missing:
  injected  requires GATOR_WALLET_URL
  hosted    requires GATOR_AUTH_CLIENT_ID and GATOR_AUTH_URL

Use "gator signers login" to log in and create a smart account with one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListSignatories.Run(cmd.Context(), app.Config.Signatory)
			if err != nil {
				return err
			}

			return render.NewSignatoriesRenderer(cmd.OutOrStdout(), app.Config.JSON).Render(result)
		},
	}

	cmd.AddCommand(NewSignersLoginCmd())

	return cmd
}

// NewSignersLoginCmd logs in with a signatory and creates its smart account
func NewSignersLoginCmd() *cobra.Command {
	var (
		deploy bool
		logout bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a signatory and create its smart account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			name, err := resolveSignatory(cmd, app)
			if err != nil {
				return err
			}

			session := app.Session
			if _, err := session.SelectSignatory(name); err != nil {
				return err
			}

			identity, err := session.Login(cmd.Context())
			if err != nil {
				return err
			}
			app.Progress.Info(fmt.Sprintf("Logged in with %s as %s", name, identity.Owner.Hex()))

			if _, err := session.CreateDelegator(cmd.Context()); err != nil {
				return err
			}

			renderer := render.NewSessionRenderer(cmd.OutOrStdout(), app.Config.Network, app.Config.JSON)

			if deploy {
				receipt, err := session.DeployDelegator(cmd.Context())
				if err != nil {
					return err
				}
				renderer.RenderReceipt(usecase.ActionDeploy, receipt)
			}

			renderer.RenderAccount("Smart account", session.Snapshot().Delegator)

			if logout {
				if !session.CanLogout() {
					fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning(fmt.Sprintf("%s signatory does not support logout", name)))
					return nil
				}
				if err := session.Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess("Logged out"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&deploy, "deploy", false, "Deploy the smart account with an empty user operation")
	cmd.Flags().BoolVar(&logout, "logout", false, "Log out after creating the account")

	return cmd
}
