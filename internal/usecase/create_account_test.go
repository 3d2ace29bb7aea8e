package usecase_test

import (
	"context"
	"testing"

	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	identity := newIdentity(domain.SignatoryBurner, "owner")

	t.Run("accounts are counterfactual without a deployment check", func(t *testing.T) {
		chain := &MockChainReader{}
		uc := usecase.NewCreateAccount(&fakeFactory{}, chain, discardLogger())

		account, err := uc.Run(ctx, usecase.CreateAccountParams{Identity: identity})
		require.NoError(t, err)
		assert.Equal(t, domain.DeploymentStateCounterfactual, account.State)
		assert.Equal(t, identity.Owner, account.Owner)
		assert.Equal(t, identity.Signer, account.Signer)
		assert.Empty(t, chain.Calls)
	})

	t.Run("existing code marks the account deployed", func(t *testing.T) {
		chain := &MockChainReader{}
		chain.On("IsDeployed", mock.Anything, mock.Anything).Return(true, nil)
		uc := usecase.NewCreateAccount(&fakeFactory{}, chain, discardLogger())

		account, err := uc.Run(ctx, usecase.CreateAccountParams{Identity: identity, CheckDeployment: true})
		require.NoError(t, err)
		assert.Equal(t, domain.DeploymentStateDeployed, account.State)
	})

	t.Run("failed deployment check keeps the account counterfactual", func(t *testing.T) {
		chain := &MockChainReader{}
		chain.On("IsDeployed", mock.Anything, mock.Anything).Return(false, &domain.NetworkError{Service: "rpc", Err: assert.AnError})
		uc := usecase.NewCreateAccount(&fakeFactory{}, chain, discardLogger())

		account, err := uc.Run(ctx, usecase.CreateAccountParams{Identity: identity, CheckDeployment: true})
		require.NoError(t, err)
		assert.Equal(t, domain.DeploymentStateCounterfactual, account.State)
	})

	t.Run("requires a login", func(t *testing.T) {
		uc := usecase.NewCreateAccount(&fakeFactory{}, &MockChainReader{}, discardLogger())
		_, err := uc.Run(ctx, usecase.CreateAccountParams{})
		assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
	})
}
