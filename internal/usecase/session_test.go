package usecase_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSession(t *testing.T) {
	ctx := context.Background()
	hash := common.HexToHash("0x0abc")

	t.Run("full lifecycle with the burner signatory", func(t *testing.T) {
		h := newHarness(t)
		h.expectSettlement(hash, true)
		h.prepareDelegation(t, ctx)

		snapshot := h.session.Snapshot()
		require.NotNil(t, snapshot.Delegation)
		assert.True(t, snapshot.Delegation.IsSigned())
		assert.Equal(t, snapshot.Delegate.Address, snapshot.Delegation.Delegate)
		assert.Equal(t, snapshot.Delegator.Address, snapshot.Delegation.Delegator)
		assert.Equal(t, models.RootAuthority, snapshot.Delegation.Authority)
		assert.Len(t, snapshot.Delegation.Caveats, 2)

		receipt, err := h.session.Redeem(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, hash, receipt.UserOpHash)

		snapshot = h.session.Snapshot()
		assert.Equal(t, domain.DeploymentStateDeployed, snapshot.Delegate.State)
		assert.Equal(t, domain.DeploymentStateDeployed, snapshot.Delegator.State)
		assert.Equal(t, domain.StageIdle, snapshot.Stage)
		assert.False(t, snapshot.Busy)
		assert.Equal(t, receipt, snapshot.LastReceipt(usecase.ActionRedeem))
	})

	t.Run("snapshots are copies", func(t *testing.T) {
		h := newHarness(t)
		h.prepareDelegation(t, ctx)

		snapshot := h.session.Snapshot()
		snapshot.Delegator.State = domain.DeploymentStateDeployed

		assert.Equal(t, domain.DeploymentStateCounterfactual, h.session.Snapshot().Delegator.State)
	})

	t.Run("switching signatory clears derived state", func(t *testing.T) {
		h := newHarness(t)
		h.prepareDelegation(t, ctx)

		signatory, err := h.session.SelectSignatory(domain.SignatoryInjected)
		require.NoError(t, err)
		assert.Equal(t, domain.SignatoryInjected, signatory.Name)

		snapshot := h.session.Snapshot()
		assert.Equal(t, domain.SignatoryInjected, snapshot.Signatory.Name)
		assert.False(t, snapshot.LoggedIn())
		assert.Nil(t, snapshot.Delegate)
		assert.Nil(t, snapshot.Delegator)
		assert.Nil(t, snapshot.Delegation)
		assert.Empty(t, snapshot.Receipts)

		_, err = h.session.Redeem(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrNoDelegation)
	})

	t.Run("unknown signatory", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.session.SelectSignatory("ledger")
		assert.ErrorIs(t, err, domain.ErrUnknownSignatory)
	})

	t.Run("unavailable signatory fails login without contacting a provider", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.session.SelectSignatory(domain.SignatoryHosted)
		require.NoError(t, err)

		_, err = h.session.Login(ctx)
		assert.ErrorIs(t, err, domain.ErrSignatoryUnavailable)
		assert.Contains(t, err.Error(), "no auth client id configured")

		_, err = h.session.CreateDelegator(ctx)
		assert.ErrorIs(t, err, domain.ErrSignatoryUnavailable)

		assert.Empty(t, h.burner.Calls)
		assert.Empty(t, h.injected.Calls)
		assert.Nil(t, h.session.Snapshot().Delegator)
	})

	t.Run("provider errors become authentication errors", func(t *testing.T) {
		h := newHarness(t)
		h.injected.On("Login", mock.Anything).Return(nil, assert.AnError)
		_, err := h.session.SelectSignatory(domain.SignatoryInjected)
		require.NoError(t, err)

		_, err = h.session.Login(ctx)
		var authErr *domain.AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, domain.SignatoryInjected, authErr.Signatory)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("logout is refused when the provider cannot log out", func(t *testing.T) {
		h := newHarness(t)
		h.prepareDelegation(t, ctx)
		h.burner.On("CanLogout").Return(false)

		assert.False(t, h.session.CanLogout())
		assert.ErrorIs(t, h.session.Logout(ctx), domain.ErrLogoutUnsupported)
		assert.NotNil(t, h.session.Snapshot().Delegation)
	})

	t.Run("logout drops the delegator side", func(t *testing.T) {
		h := newHarness(t)
		h.injected.On("Login", mock.Anything).Return(newIdentity(domain.SignatoryInjected, "wallet"), nil)
		h.burner.On("Login", mock.Anything).Return(newIdentity(domain.SignatoryBurner, "burner"), nil)
		h.injected.On("CanLogout").Return(true)
		h.injected.On("Logout", mock.Anything).Return(nil)

		_, err := h.session.SelectSignatory(domain.SignatoryInjected)
		require.NoError(t, err)
		_, err = h.session.CreateDelegate(ctx)
		require.NoError(t, err)
		_, err = h.session.CreateDelegator(ctx)
		require.NoError(t, err)

		assert.True(t, h.session.CanLogout())
		require.NoError(t, h.session.Logout(ctx))

		snapshot := h.session.Snapshot()
		assert.False(t, snapshot.LoggedIn())
		assert.Nil(t, snapshot.Delegator)
		assert.NotNil(t, snapshot.Delegate)
		assert.ErrorIs(t, h.session.Logout(ctx), domain.ErrNotLoggedIn)
	})

	t.Run("delegation requires both accounts", func(t *testing.T) {
		h := newHarness(t)
		h.burner.On("Login", mock.Anything).Return(newIdentity(domain.SignatoryBurner, "burner"), nil)
		_, err := h.session.SelectSignatory(domain.SignatoryBurner)
		require.NoError(t, err)

		_, err = h.session.CreateDelegation(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrNoAccount)

		_, err = h.session.CreateDelegate(ctx)
		require.NoError(t, err)
		_, err = h.session.CreateDelegation(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrNoAccount)
	})

	t.Run("new delegator drops the previous delegation", func(t *testing.T) {
		h := newHarness(t)
		h.prepareDelegation(t, ctx)

		_, err := h.session.CreateDelegator(ctx)
		require.NoError(t, err)
		assert.Nil(t, h.session.Snapshot().Delegation)
	})

	t.Run("deploy delegator records a receipt once", func(t *testing.T) {
		h := newHarness(t)
		h.expectSettlement(hash, true)
		h.prepareDelegation(t, ctx)

		_, err := h.session.DeployDelegator(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DeploymentStateDeployed, h.session.Snapshot().Delegator.State)
		assert.NotNil(t, h.session.Snapshot().LastReceipt(usecase.ActionDeploy))

		_, err = h.session.DeployDelegator(ctx)
		assert.Error(t, err)
	})

	t.Run("disable then status", func(t *testing.T) {
		h := newHarness(t)
		h.expectSettlement(hash, true)
		h.chain.On("IsDelegationDisabled", mock.Anything, delegationHash).Return(true, nil)
		h.prepareDelegation(t, ctx)

		_, err := h.session.Disable(ctx)
		require.NoError(t, err)

		status, err := h.session.Status(ctx)
		require.NoError(t, err)
		assert.True(t, status.Disabled)
		assert.NotNil(t, h.session.Snapshot().LastReceipt(usecase.ActionDisable))
	})
}

func TestSignDelegation(t *testing.T) {
	ctx := context.Background()

	t.Run("signature must recover to the delegator owner", func(t *testing.T) {
		h := newHarness(t)
		_, delegator, delegation := redemptionFixture(t, ctx, h)
		delegation.Signature = nil

		delegator.Signer = fakeSigner{address: common.HexToAddress("0xbad")}
		_, err := h.signDeleg.Run(ctx, delegator, delegation)

		var signingErr *domain.SigningError
		require.ErrorAs(t, err, &signingErr)
		assert.Contains(t, err.Error(), "recovers to")
	})

	t.Run("signing leaves the input untouched", func(t *testing.T) {
		h := newHarness(t)
		_, delegator, delegation := redemptionFixture(t, ctx, h)
		unsigned := *delegation
		unsigned.Signature = nil

		signed, err := h.signDeleg.Run(ctx, delegator, &unsigned)
		require.NoError(t, err)
		assert.True(t, signed.IsSigned())
		assert.False(t, unsigned.IsSigned())
	})

	t.Run("unsigned delegation does not verify", func(t *testing.T) {
		h := newHarness(t)
		_, delegator, delegation := redemptionFixture(t, ctx, h)
		delegation.Signature = models.EmptySignature

		assert.ErrorIs(t, h.signDeleg.Verify(delegator, delegation), domain.ErrUnsignedDelegation)
	})
}

func TestCreateDelegation(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewCreateDelegation(fakeCaveatBuilder{}, discardLogger())
	delegator := &models.SmartAccount{Address: common.HexToAddress("0xd1")}
	delegate := common.HexToAddress("0xd2")

	t.Run("salts differ between delegations", func(t *testing.T) {
		first, err := uc.Run(ctx, usecase.CreateDelegationParams{Delegator: delegator, Delegate: delegate})
		require.NoError(t, err)
		second, err := uc.Run(ctx, usecase.CreateDelegationParams{Delegator: delegator, Delegate: delegate})
		require.NoError(t, err)

		assert.NotEqual(t, first.Salt, second.Salt)
		assert.Empty(t, first.Caveats)
		assert.False(t, first.IsSigned())
		assert.True(t, first.IsRoot())
	})

	t.Run("caveat errors are reported", func(t *testing.T) {
		_, err := uc.Run(ctx, usecase.CreateDelegationParams{
			Delegator: delegator,
			Delegate:  delegate,
			Caveats:   []models.CaveatSpec{{Type: "bogus"}},
		})
		assert.ErrorIs(t, err, domain.ErrUnknownCaveat)
	})

	t.Run("missing delegate", func(t *testing.T) {
		_, err := uc.Run(ctx, usecase.CreateDelegationParams{Delegator: delegator})
		assert.ErrorIs(t, err, domain.ErrNoAccount)
	})
}
