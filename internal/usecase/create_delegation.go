package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// CreateDelegationParams contains parameters for building a delegation
type CreateDelegationParams struct {
	Delegator *models.SmartAccount
	Delegate  common.Address
	Caveats   []models.CaveatSpec
	// Authority defaults to the root authority
	Authority *common.Hash
}

// CreateDelegation builds unsigned delegations
type CreateDelegation struct {
	caveats CaveatBuilder
	log     *slog.Logger
}

// NewCreateDelegation creates a new CreateDelegation use case
func NewCreateDelegation(caveats CaveatBuilder, log *slog.Logger) *CreateDelegation {
	return &CreateDelegation{
		caveats: caveats,
		log:     log,
	}
}

// Run executes the use case
func (uc *CreateDelegation) Run(ctx context.Context, params CreateDelegationParams) (*models.Delegation, error) {
	if params.Delegator == nil {
		return nil, fmt.Errorf("delegator: %w", domain.ErrNoAccount)
	}
	if params.Delegate == (common.Address{}) {
		return nil, fmt.Errorf("delegate: %w", domain.ErrNoAccount)
	}

	caveats := []models.Caveat{}
	if len(params.Caveats) > 0 {
		built, err := uc.caveats.Build(params.Caveats)
		if err != nil {
			return nil, fmt.Errorf("failed to build caveats: %w", err)
		}
		caveats = built
	}

	salt, err := newDelegationSalt()
	if err != nil {
		return nil, err
	}

	authority := models.RootAuthority
	if params.Authority != nil {
		authority = *params.Authority
	}

	delegation := &models.Delegation{
		Delegate:  params.Delegate,
		Delegator: params.Delegator.Address,
		Authority: authority,
		Caveats:   caveats,
		Salt:      salt,
	}

	uc.log.Debug("created delegation",
		"delegator", delegation.Delegator,
		"delegate", delegation.Delegate,
		"caveats", len(caveats))

	return delegation, nil
}

// newDelegationSalt returns a random 64-bit salt
func newDelegationSalt() (*big.Int, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return new(big.Int).SetBytes(buf[:]), nil
}

// SignDelegation signs delegations with the delegator account's signer
type SignDelegation struct {
	codec DelegationCodec
	log   *slog.Logger
}

// NewSignDelegation creates a new SignDelegation use case
func NewSignDelegation(codec DelegationCodec, log *slog.Logger) *SignDelegation {
	return &SignDelegation{
		codec: codec,
		log:   log,
	}
}

// Run signs the delegation and returns a signed copy. The input is left untouched.
func (uc *SignDelegation) Run(ctx context.Context, delegator *models.SmartAccount, delegation *models.Delegation) (*models.Delegation, error) {
	if delegation == nil {
		return nil, domain.ErrNoDelegation
	}
	if delegator == nil {
		return nil, fmt.Errorf("delegator: %w", domain.ErrNoAccount)
	}
	if delegator.Address != delegation.Delegator {
		return nil, fmt.Errorf("account %s is not the delegator %s", delegator.Address.Hex(), delegation.Delegator.Hex())
	}
	if delegator.Signer == nil {
		return nil, &domain.SigningError{Signer: delegator.Owner, Err: domain.ErrNotLoggedIn}
	}

	typedData, err := uc.codec.TypedData(delegation)
	if err != nil {
		return nil, fmt.Errorf("failed to build delegation typed data: %w", err)
	}

	signature, err := delegator.Signer.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, &domain.SigningError{Signer: delegator.Signer.Address(), Err: err}
	}

	signed := delegation.WithSignature(signature)
	if !signed.IsSigned() {
		return nil, &domain.SigningError{Signer: delegator.Signer.Address(), Err: errors.New("signatory returned an empty signature")}
	}

	if err := uc.Verify(delegator, signed); err != nil {
		return nil, err
	}

	uc.log.Debug("signed delegation", "delegator", delegator.Address, "signer", delegator.Signer.Address())
	return signed, nil
}

// Verify checks that the signature of a delegation recovers to the delegator owner
func (uc *SignDelegation) Verify(delegator *models.SmartAccount, delegation *models.Delegation) error {
	if !delegation.IsSigned() {
		return domain.ErrUnsignedDelegation
	}

	recovered, err := uc.codec.RecoverSigner(delegation)
	if err != nil {
		return &domain.SigningError{Signer: delegator.Owner, Err: err}
	}
	if recovered != delegator.Owner {
		return &domain.SigningError{
			Signer: delegator.Owner,
			Err:    fmt.Errorf("signature recovers to %s", recovered.Hex()),
		}
	}
	return nil
}
