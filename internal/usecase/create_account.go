package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// CreateAccountParams contains parameters for creating a smart account
type CreateAccountParams struct {
	Identity *models.Identity
	// CheckDeployment queries the chain so an account that already has code starts as deployed
	CheckDeployment bool
}

// CreateAccount derives a new counterfactual smart account for an identity
type CreateAccount struct {
	factory AccountFactory
	chain   ChainReader
	log     *slog.Logger
}

// NewCreateAccount creates a new CreateAccount use case
func NewCreateAccount(factory AccountFactory, chain ChainReader, log *slog.Logger) *CreateAccount {
	return &CreateAccount{
		factory: factory,
		chain:   chain,
		log:     log,
	}
}

// Run executes the use case
func (uc *CreateAccount) Run(ctx context.Context, params CreateAccountParams) (*models.SmartAccount, error) {
	if params.Identity == nil {
		return nil, domain.ErrNotLoggedIn
	}

	account, err := uc.factory.NewAccount(ctx, params.Identity.Owner, params.Identity.Signer)
	if err != nil {
		return nil, fmt.Errorf("failed to create smart account: %w", err)
	}

	if params.CheckDeployment {
		deployed, err := uc.chain.IsDeployed(ctx, account.Address)
		if err != nil {
			// The account stays counterfactual; submission checks again before building
			uc.log.Warn("could not query deployment status", "account", account.Address, "error", err)
		} else if deployed {
			account.MarkDeployed()
		}
	}

	uc.log.Debug("created smart account",
		"signatory", params.Identity.Signatory,
		"owner", account.Owner,
		"address", account.Address,
		"state", account.State)

	return account, nil
}
