package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// RedeemDelegationParams contains parameters for redeeming a delegation
type RedeemDelegationParams struct {
	Redeemer   *models.SmartAccount
	Delegation *models.Delegation
	// Delegator is deployed in the same operation when it is still counterfactual
	Delegator *models.SmartAccount
	// Execution defaults to an empty call to the zero address
	Execution *models.Execution
	OnStage   func(domain.OperationStage)
}

// RedeemDelegation submits a user operation from the delegate that redeems a delegation
type RedeemDelegation struct {
	codec     DelegationCodec
	chain     ChainReader
	submitter *OperationSubmitter
	log       *slog.Logger
}

// NewRedeemDelegation creates a new RedeemDelegation use case
func NewRedeemDelegation(codec DelegationCodec, chain ChainReader, submitter *OperationSubmitter, log *slog.Logger) *RedeemDelegation {
	return &RedeemDelegation{
		codec:     codec,
		chain:     chain,
		submitter: submitter,
		log:       log,
	}
}

// Run executes the use case
func (uc *RedeemDelegation) Run(ctx context.Context, params RedeemDelegationParams) (*models.UserOperationReceipt, error) {
	redeemer, delegation := params.Redeemer, params.Delegation
	if redeemer == nil {
		return nil, fmt.Errorf("redeemer: %w", domain.ErrNoAccount)
	}
	if delegation == nil {
		return nil, domain.ErrNoDelegation
	}

	// Both checks are local and must fail before anything reaches the network
	if redeemer.Address != delegation.Delegate {
		return nil, &domain.MismatchError{Redeemer: redeemer.Address, Delegate: delegation.Delegate}
	}
	if !delegation.IsSigned() {
		return nil, domain.ErrUnsignedDelegation
	}

	execution := models.Execution{Value: big.NewInt(0), CallData: []byte{}}
	if params.Execution != nil {
		execution = *params.Execution
	}

	redeemData, err := uc.codec.EncodeRedeemDelegations([]*models.Delegation{delegation}, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to encode redemption: %w", err)
	}

	calls := []models.Call{{To: redeemer.Address, Value: big.NewInt(0), Data: redeemData}}

	var deploys []*models.SmartAccount
	if delegator := params.Delegator; delegator != nil && delegator.Address == delegation.Delegator && !delegator.IsDeployed() {
		deployed, err := uc.chain.IsDeployed(ctx, delegator.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to check delegator deployment: %w", err)
		}
		if deployed {
			delegator.MarkDeployed()
		} else {
			uc.log.Debug("deploying delegator alongside redemption", "delegator", delegator.Address)
			deploy := models.Call{To: delegator.Factory, Value: big.NewInt(0), Data: delegator.FactoryData}
			calls = append([]models.Call{deploy}, calls...)
			deploys = append(deploys, delegator)
		}
	}

	receipt, err := uc.submitter.Submit(ctx, SubmitOperationParams{
		Account: redeemer,
		Calls:   calls,
		Deploys: deploys,
		OnStage: params.OnStage,
	})
	if err != nil {
		return receipt, fmt.Errorf("failed to redeem delegation: %w", err)
	}

	uc.log.Info("delegation redeemed",
		"redeemer", redeemer.Address,
		"delegator", delegation.Delegator,
		"userOpHash", receipt.UserOpHash,
		"tx", receipt.TransactionHash)

	return receipt, nil
}
