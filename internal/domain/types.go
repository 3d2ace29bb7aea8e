package domain

// SignatoryName identifies a signing strategy
type SignatoryName string

const (
	SignatoryBurner   SignatoryName = "burner"
	SignatoryInjected SignatoryName = "injected"
	SignatoryHosted   SignatoryName = "hosted"
)

// SignatoryNames lists the strategies in display order
var SignatoryNames = []SignatoryName{
	SignatoryBurner,
	SignatoryInjected,
	SignatoryHosted,
}

// Description returns a short human readable description of the strategy
func (n SignatoryName) Description() string {
	switch n {
	case SignatoryBurner:
		return "Ephemeral private key generated in memory"
	case SignatoryInjected:
		return "External wallet connected over JSON-RPC"
	case SignatoryHosted:
		return "Hosted authentication wallet"
	default:
		return string(n)
	}
}

// ParseSignatoryName validates a signatory name
func ParseSignatoryName(s string) (SignatoryName, error) {
	for _, n := range SignatoryNames {
		if string(n) == s {
			return n, nil
		}
	}
	return "", ErrUnknownSignatory
}

// DeploymentState represents the on-chain state of a smart account
type DeploymentState string

const (
	DeploymentStateCounterfactual DeploymentState = "counterfactual"
	DeploymentStateDeploying      DeploymentState = "deployment in progress"
	DeploymentStateDeployed       DeploymentState = "deployed"
)

// OperationStage represents the stage of an in-flight user operation
type OperationStage string

const (
	StageIdle      OperationStage = "idle"
	StageBuilding  OperationStage = "building"
	StageSubmitted OperationStage = "submitted"
	StageSettled   OperationStage = "settled"
)

// Example describes one of the runnable example flows
type Example struct {
	Name        string
	Command     string
	Description string
}

// Examples lists the example flows shipped with the CLI
var Examples = []Example{
	{
		Name:        "Quickstart",
		Command:     "quickstart",
		Description: "Create two accounts, delegate with caveats and redeem the delegation.",
	},
	{
		Name:        "Custom Signers",
		Command:     "signers",
		Description: "See the various signer options in action.",
	},
	{
		Name:        "Enable and Disable Delegations",
		Command:     "toggle",
		Description: "Toggle the ability to redeem a delegation.",
	},
}
