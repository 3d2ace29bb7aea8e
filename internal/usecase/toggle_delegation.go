package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// ToggleDelegationParams contains parameters for enabling or disabling a delegation
type ToggleDelegationParams struct {
	Delegator  *models.SmartAccount
	Delegation *models.Delegation
	OnStage    func(domain.OperationStage)
}

// DelegationStatus is the on-chain status of a delegation
type DelegationStatus struct {
	Hash     common.Hash
	Disabled bool
}

// Enabled reports whether the delegation can be redeemed
func (s DelegationStatus) Enabled() bool {
	return !s.Disabled
}

// ToggleDelegation disables and re-enables delegations from the delegator account
type ToggleDelegation struct {
	codec     DelegationCodec
	chain     ChainReader
	submitter *OperationSubmitter
	log       *slog.Logger
}

// NewToggleDelegation creates a new ToggleDelegation use case
func NewToggleDelegation(codec DelegationCodec, chain ChainReader, submitter *OperationSubmitter, log *slog.Logger) *ToggleDelegation {
	return &ToggleDelegation{
		codec:     codec,
		chain:     chain,
		submitter: submitter,
		log:       log,
	}
}

// Disable submits disableDelegation from the delegator account
func (uc *ToggleDelegation) Disable(ctx context.Context, params ToggleDelegationParams) (*models.UserOperationReceipt, error) {
	return uc.toggle(ctx, params, "disable", uc.codec.EncodeDisableDelegation)
}

// Enable submits enableDelegation from the delegator account
func (uc *ToggleDelegation) Enable(ctx context.Context, params ToggleDelegationParams) (*models.UserOperationReceipt, error) {
	return uc.toggle(ctx, params, "enable", uc.codec.EncodeEnableDelegation)
}

func (uc *ToggleDelegation) toggle(
	ctx context.Context,
	params ToggleDelegationParams,
	action string,
	encode func(*models.Delegation) ([]byte, error),
) (*models.UserOperationReceipt, error) {
	if params.Delegation == nil {
		return nil, domain.ErrNoDelegation
	}
	if params.Delegator == nil {
		return nil, fmt.Errorf("delegator: %w", domain.ErrNoAccount)
	}
	if params.Delegator.Address != params.Delegation.Delegator {
		return nil, fmt.Errorf("account %s is not the delegator %s",
			params.Delegator.Address.Hex(), params.Delegation.Delegator.Hex())
	}

	data, err := encode(params.Delegation)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", action, err)
	}

	receipt, err := uc.submitter.Submit(ctx, SubmitOperationParams{
		Account: params.Delegator,
		Calls:   []models.Call{{To: params.Delegator.Address, Value: big.NewInt(0), Data: data}},
		OnStage: params.OnStage,
	})
	if err != nil {
		return receipt, fmt.Errorf("failed to %s delegation: %w", action, err)
	}

	uc.log.Info("delegation toggled", "action", action, "delegator", params.Delegator.Address, "tx", receipt.TransactionHash)
	return receipt, nil
}

// Status reads whether the delegation has been disabled on-chain
func (uc *ToggleDelegation) Status(ctx context.Context, delegation *models.Delegation) (*DelegationStatus, error) {
	if delegation == nil {
		return nil, domain.ErrNoDelegation
	}

	hash, err := uc.codec.Hash(delegation)
	if err != nil {
		return nil, fmt.Errorf("failed to hash delegation: %w", err)
	}

	disabled, err := uc.chain.IsDelegationDisabled(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read delegation status: %w", err)
	}

	return &DelegationStatus{Hash: hash, Disabled: disabled}, nil
}
