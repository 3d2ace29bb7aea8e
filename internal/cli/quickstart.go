package cli

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gatorkit/gator-cli/internal/adapters/delegation"
	"github.com/gatorkit/gator-cli/internal/cli/render"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/spf13/cobra"
)

// executionFlags describe the action the delegate executes on redemption
type executionFlags struct {
	target string
	value  string
	data   string
}

func (f *executionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", "", "Execution target address (default 0x0)")
	cmd.Flags().StringVar(&f.value, "value", "", "Execution value in wei (default 0)")
	cmd.Flags().StringVar(&f.data, "data", "", "Execution calldata as hex (default 0x)")
}

// parse returns nil when no flag is set so the default execution applies
func (f *executionFlags) parse() (*models.Execution, error) {
	if f.target == "" && f.value == "" && f.data == "" {
		return nil, nil
	}

	execution := &models.Execution{Value: new(big.Int), CallData: []byte{}}
	if f.target != "" {
		if !common.IsHexAddress(f.target) {
			return nil, fmt.Errorf("invalid --target address %q", f.target)
		}
		execution.Target = common.HexToAddress(f.target)
	}
	if f.value != "" {
		value, ok := new(big.Int).SetString(f.value, 10)
		if !ok || value.Sign() < 0 {
			return nil, fmt.Errorf("invalid --value %q", f.value)
		}
		execution.Value = value
	}
	if f.data != "" {
		data, err := hexutil.Decode(f.data)
		if err != nil {
			return nil, fmt.Errorf("invalid --data: %w", err)
		}
		execution.CallData = data
	}
	return execution, nil
}

func parseCaveats(raw []string) ([]models.CaveatSpec, error) {
	specs := make([]models.CaveatSpec, 0, len(raw))
	for _, r := range raw {
		spec, err := delegation.ParseCaveatSpec(r)
		if err != nil {
			return nil, fmt.Errorf("invalid --caveat: %w", err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// NewQuickstartCmd creates the quickstart command
func NewQuickstartCmd() *cobra.Command {
	var (
		caveats   []string
		noCaveats bool
		deploy    bool
		execution executionFlags
	)

	cmd := &cobra.Command{
		Use:   "quickstart",
		Short: "Create two accounts, delegate between them and redeem the delegation",
		Long: `Run the quickstart flow:

  1. create a delegate smart account owned by a fresh burner key
  2. create a delegator smart account owned by the selected signatory
  3. create a root delegation from the delegator to the delegate
  4. sign the delegation with the delegator's signatory
  5. redeem the delegation as the delegate through the bundler

Both accounts are counterfactual. The delegator is deployed inside the
redemption user operation unless --deploy-delegator deploys it first.

By default the delegation only allows zero-value calls to the zero address.

Examples:
  gator quickstart
  gator quickstart --signatory injected
  gator quickstart --caveat allowedTargets=0x0000000000000000000000000000000000000000 --caveat limitedCalls=1
  gator quickstart --caveat "allowedMethods=transfer(address,uint256)" --target 0x... --data 0x...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			specs, err := parseCaveats(caveats)
			if err != nil {
				return err
			}
			exec, err := execution.parse()
			if err != nil {
				return err
			}

			signatory, err := resolveSignatory(cmd, app)
			if err != nil {
				return err
			}

			result, err := app.RunQuickstart.Run(cmd.Context(), usecase.RunQuickstartParams{
				Signatory:       signatory,
				Caveats:         specs,
				NoCaveats:       noCaveats,
				DeployDelegator: deploy,
				Execution:       exec,
			})
			if err != nil {
				return err
			}

			renderer := render.NewSessionRenderer(cmd.OutOrStdout(), app.Config.Network, app.Config.JSON)
			return renderer.Render(result)
		},
	}

	cmd.Flags().StringArrayVar(&caveats, "caveat", nil, "Caveat as type=param,param (repeatable, replaces the default caveats)")
	cmd.Flags().BoolVar(&noCaveats, "no-caveats", false, "Create an unrestricted delegation")
	cmd.Flags().BoolVar(&deploy, "deploy-delegator", false, "Deploy the delegator in its own user operation before redeeming")
	execution.register(cmd)
	cmd.MarkFlagsMutuallyExclusive("caveat", "no-caveats")

	return cmd
}
