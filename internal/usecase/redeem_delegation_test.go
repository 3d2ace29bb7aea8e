package usecase_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// redemptionFixture returns a counterfactual delegate and delegator with a signed delegation between them
func redemptionFixture(t *testing.T, ctx context.Context, h *harness) (*models.SmartAccount, *models.SmartAccount, *models.Delegation) {
	t.Helper()

	delegate, err := h.createAcct.Run(ctx, usecase.CreateAccountParams{Identity: newIdentity(domain.SignatoryBurner, "delegate")})
	require.NoError(t, err)
	delegator, err := h.createAcct.Run(ctx, usecase.CreateAccountParams{Identity: newIdentity(domain.SignatoryInjected, "delegator")})
	require.NoError(t, err)

	delegation, err := usecase.NewCreateDelegation(fakeCaveatBuilder{}, discardLogger()).Run(ctx, usecase.CreateDelegationParams{
		Delegator: delegator,
		Delegate:  delegate.Address,
		Caveats:   usecase.DefaultCaveats(),
	})
	require.NoError(t, err)

	signed, err := h.signDeleg.Run(ctx, delegator, delegation)
	require.NoError(t, err)
	return delegate, delegator, signed
}

func TestRedeemDelegation(t *testing.T) {
	ctx := context.Background()
	hash := common.HexToHash("0x0456")

	t.Run("redeemer that is not the delegate never reaches the network", func(t *testing.T) {
		h := newHarness(t)
		_, delegator, delegation := redemptionFixture(t, ctx, h)
		stranger := deployedAccount("stranger")

		_, err := h.redeem.Run(ctx, usecase.RedeemDelegationParams{
			Redeemer:   stranger,
			Delegation: delegation,
			Delegator:  delegator,
		})

		var mismatch *domain.MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, stranger.Address, mismatch.Redeemer)
		assert.Equal(t, delegation.Delegate, mismatch.Delegate)
		assert.Contains(t, err.Error(), "redeemer account address not equal to delegate")
		assert.Empty(t, h.bundler.Calls)
		assert.Empty(t, h.chain.Calls)
		assert.Empty(t, h.opCodec.encoded)
	})

	t.Run("unsigned delegation never reaches the network", func(t *testing.T) {
		h := newHarness(t)
		delegate, delegator, delegation := redemptionFixture(t, ctx, h)
		unsigned := *delegation
		unsigned.Signature = nil

		_, err := h.redeem.Run(ctx, usecase.RedeemDelegationParams{
			Redeemer:   delegate,
			Delegation: &unsigned,
			Delegator:  delegator,
		})

		assert.ErrorIs(t, err, domain.ErrUnsignedDelegation)
		assert.Empty(t, h.bundler.Calls)
		assert.Empty(t, h.chain.Calls)
	})

	t.Run("deploys the counterfactual delegator in the same operation", func(t *testing.T) {
		h := newHarness(t)
		delegate, delegator, delegation := redemptionFixture(t, ctx, h)

		var statesInFlight []domain.DeploymentState
		h.bundler.On("SendUserOperation", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { statesInFlight = append(statesInFlight, delegate.State, delegator.State) }).
			Return(hash, nil)
		h.expectSettlement(hash, true)

		receipt, err := h.redeem.Run(ctx, usecase.RedeemDelegationParams{
			Redeemer:   delegate,
			Delegation: delegation,
			Delegator:  delegator,
		})
		require.NoError(t, err)
		assert.True(t, receipt.Success)

		assert.Equal(t, []domain.DeploymentState{domain.DeploymentStateDeploying, domain.DeploymentStateDeploying}, statesInFlight)
		assert.Equal(t, domain.DeploymentStateDeployed, delegate.State)
		assert.Equal(t, domain.DeploymentStateDeployed, delegator.State)

		calls := h.opCodec.lastCalls()
		require.Len(t, calls, 2)
		assert.Equal(t, delegator.Factory, calls[0].To)
		assert.Equal(t, delegator.FactoryData, calls[0].Data)
		assert.Equal(t, delegate.Address, calls[1].To)
	})

	t.Run("deployed delegator is not deployed again", func(t *testing.T) {
		h := newHarness(t)
		delegate, delegator, delegation := redemptionFixture(t, ctx, h)
		delegator.MarkDeployed()
		h.expectSettlement(hash, true)

		_, err := h.redeem.Run(ctx, usecase.RedeemDelegationParams{
			Redeemer:   delegate,
			Delegation: delegation,
			Delegator:  delegator,
		})
		require.NoError(t, err)
		assert.Len(t, h.opCodec.lastCalls(), 1)
	})

	t.Run("rejected operation restores counterfactual state", func(t *testing.T) {
		h := newHarness(t)
		delegate, delegator, delegation := redemptionFixture(t, ctx, h)

		h.bundler.On("EstimateUserOperationGas", mock.Anything, mock.Anything).
			Return(nil, &domain.RedemptionFailure{Reason: "AA24 signature error"})
		h.expectSettlement(hash, true)

		_, err := h.redeem.Run(ctx, usecase.RedeemDelegationParams{
			Redeemer:   delegate,
			Delegation: delegation,
			Delegator:  delegator,
		})

		var failure *domain.RedemptionFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "AA24 signature error", failure.Reason)
		assert.Equal(t, domain.DeploymentStateCounterfactual, delegate.State)
		assert.Equal(t, domain.DeploymentStateCounterfactual, delegator.State)
		h.bundler.AssertNotCalled(t, "SendUserOperation", mock.Anything, mock.Anything)
	})

	t.Run("reverted execution still deploys the redeemer", func(t *testing.T) {
		h := newHarness(t)
		delegate, delegator, delegation := redemptionFixture(t, ctx, h)
		h.expectSettlement(hash, false)

		receipt, err := h.redeem.Run(ctx, usecase.RedeemDelegationParams{
			Redeemer:   delegate,
			Delegation: delegation,
			Delegator:  delegator,
		})

		var failure *domain.RedemptionFailure
		require.ErrorAs(t, err, &failure)
		require.NotNil(t, receipt)
		assert.Equal(t, domain.DeploymentStateDeployed, delegate.State)
		assert.Equal(t, domain.DeploymentStateCounterfactual, delegator.State)
	})

	t.Run("custom execution is passed through", func(t *testing.T) {
		h := newHarness(t)
		delegate, delegator, delegation := redemptionFixture(t, ctx, h)
		delegator.MarkDeployed()
		h.expectSettlement(hash, true)

		_, err := h.redeem.Run(ctx, usecase.RedeemDelegationParams{
			Redeemer:   delegate,
			Delegation: delegation,
			Delegator:  delegator,
			Execution:  &models.Execution{Target: common.HexToAddress("0xbeef"), Value: big.NewInt(0), CallData: []byte{}},
		})
		require.NoError(t, err)
	})
}

func TestToggleDelegation(t *testing.T) {
	ctx := context.Background()
	hash := common.HexToHash("0x0789")

	t.Run("disabling twice surfaces the bundler rejection", func(t *testing.T) {
		h := newHarness(t)
		_, delegator, delegation := redemptionFixture(t, ctx, h)
		delegator.MarkDeployed()

		h.bundler.On("EstimateUserOperationGas", mock.Anything, mock.Anything).Return(testGas, nil).Once()
		h.bundler.On("EstimateUserOperationGas", mock.Anything, mock.Anything).
			Return(nil, &domain.RedemptionFailure{Reason: "DelegationManager:already-disabled"}).Once()
		h.expectSettlement(hash, true)

		_, err := h.toggle.Disable(ctx, usecase.ToggleDelegationParams{Delegator: delegator, Delegation: delegation})
		require.NoError(t, err)
		assert.Equal(t, []byte{0xd1}, h.opCodec.lastCalls()[0].Data)
		assert.Equal(t, delegator.Address, h.opCodec.lastCalls()[0].To)

		_, err = h.toggle.Disable(ctx, usecase.ToggleDelegationParams{Delegator: delegator, Delegation: delegation})
		var failure *domain.RedemptionFailure
		require.ErrorAs(t, err, &failure)
		assert.Contains(t, failure.Reason, "already-disabled")
	})

	t.Run("enable encodes enableDelegation", func(t *testing.T) {
		h := newHarness(t)
		_, delegator, delegation := redemptionFixture(t, ctx, h)
		delegator.MarkDeployed()
		h.expectSettlement(hash, true)

		_, err := h.toggle.Enable(ctx, usecase.ToggleDelegationParams{Delegator: delegator, Delegation: delegation})
		require.NoError(t, err)
		assert.Equal(t, []byte{0xe1}, h.opCodec.lastCalls()[0].Data)
	})

	t.Run("only the delegator can toggle", func(t *testing.T) {
		h := newHarness(t)
		delegate, _, delegation := redemptionFixture(t, ctx, h)

		_, err := h.toggle.Disable(ctx, usecase.ToggleDelegationParams{Delegator: delegate, Delegation: delegation})
		assert.Error(t, err)
		assert.Empty(t, h.bundler.Calls)
	})

	t.Run("status reads the disabled flag by delegation hash", func(t *testing.T) {
		h := newHarness(t)
		_, _, delegation := redemptionFixture(t, ctx, h)
		h.chain.On("IsDelegationDisabled", mock.Anything, delegationHash).Return(true, nil)

		status, err := h.toggle.Status(ctx, delegation)
		require.NoError(t, err)
		assert.Equal(t, delegationHash, status.Hash)
		assert.True(t, status.Disabled)
		assert.False(t, status.Enabled())
	})

	t.Run("status without delegation", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.toggle.Status(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrNoDelegation)
	})
}
