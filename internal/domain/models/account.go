package models

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gatorkit/gator-cli/internal/domain"
)

// Signer produces EIP-712 signatures on behalf of an account owner
type Signer interface {
	Address() common.Address
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
}

// Identity is the result of a successful signatory login
type Identity struct {
	Signatory domain.SignatoryName
	Owner     common.Address
	Signer    Signer
}

// DeployParams are the initializer arguments of a Hybrid DeleGator
type DeployParams struct {
	Owner   common.Address `json:"owner"`
	KeyIDs  []string       `json:"keyIds"`
	XValues []string       `json:"xValues"`
	YValues []string       `json:"yValues"`
}

// SmartAccount describes a (possibly counterfactual) DeleGator smart account
type SmartAccount struct {
	Address        common.Address         `json:"address"`
	Owner          common.Address         `json:"owner"`
	Implementation string                 `json:"implementation"`
	DeployParams   DeployParams           `json:"deployParams"`
	DeploySalt     common.Hash            `json:"deploySalt"`
	Factory        common.Address         `json:"factory"`
	FactoryData    []byte                 `json:"factoryData"`
	State          domain.DeploymentState `json:"state"`

	Signer Signer `json:"-"`
}

// IsDeployed reports whether the account code is known to be on-chain
func (a *SmartAccount) IsDeployed() bool {
	return a.State == domain.DeploymentStateDeployed
}

// MarkDeploying moves a counterfactual account into the deploying state.
// It returns the previous state so callers can restore it on failure.
func (a *SmartAccount) MarkDeploying() domain.DeploymentState {
	prev := a.State
	if a.State == domain.DeploymentStateCounterfactual {
		a.State = domain.DeploymentStateDeploying
	}
	return prev
}

// MarkDeployed records a successful on-chain settlement.
// It returns true only on the transition into the deployed state.
func (a *SmartAccount) MarkDeployed() bool {
	if a.State == domain.DeploymentStateDeployed {
		return false
	}
	a.State = domain.DeploymentStateDeployed
	return true
}

// RestoreState resets the deployment state after a failed submission
func (a *SmartAccount) RestoreState(prev domain.DeploymentState) {
	if a.State != domain.DeploymentStateDeployed {
		a.State = prev
	}
}
