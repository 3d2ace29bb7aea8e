package usecase_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func deployedAccount(seed string) *models.SmartAccount {
	identity := newIdentity(domain.SignatoryBurner, seed)
	return &models.SmartAccount{
		Address: common.BytesToAddress(identity.Owner.Bytes()[:19]),
		Owner:   identity.Owner,
		State:   domain.DeploymentStateDeployed,
		Signer:  identity.Signer,
	}
}

func emptyCall() []models.Call {
	return []models.Call{{To: common.Address{}, Value: big.NewInt(0), Data: []byte{}}}
}

func TestOperationSubmitter(t *testing.T) {
	ctx := context.Background()
	hash := common.HexToHash("0x0123")

	t.Run("fetches fresh fees for every submission", func(t *testing.T) {
		h := newHarness(t)
		account := deployedAccount("fees")

		h.bundler.On("GetUserOperationGasPrice", mock.Anything).
			Return(&models.FeeParameters{MaxFeePerGas: big.NewInt(30), MaxPriorityFeePerGas: big.NewInt(2)}, nil).Once()
		h.bundler.On("GetUserOperationGasPrice", mock.Anything).
			Return(&models.FeeParameters{MaxFeePerGas: big.NewInt(45), MaxPriorityFeePerGas: big.NewInt(3)}, nil).Once()

		var sent []*models.UserOperation
		h.bundler.On("SendUserOperation", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = append(sent, args.Get(1).(*models.UserOperation)) }).
			Return(hash, nil)
		h.expectSettlement(hash, true)

		for i := 0; i < 2; i++ {
			_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})
			require.NoError(t, err)
		}

		require.Len(t, sent, 2)
		assert.Equal(t, big.NewInt(30), sent[0].MaxFeePerGas)
		assert.Equal(t, big.NewInt(45), sent[1].MaxFeePerGas)
		assert.Equal(t, big.NewInt(3), sent[1].MaxPriorityFeePerGas)
		h.bundler.AssertNumberOfCalls(t, "GetUserOperationGasPrice", 2)
	})

	t.Run("deployed account uses on-chain nonce and no init code", func(t *testing.T) {
		h := newHarness(t)
		account := deployedAccount("nonce")

		var sent *models.UserOperation
		h.bundler.On("SendUserOperation", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(*models.UserOperation) }).
			Return(hash, nil)
		h.expectSettlement(hash, true)

		_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})
		require.NoError(t, err)

		require.NotNil(t, sent)
		assert.Equal(t, big.NewInt(1), sent.Nonce)
		assert.Nil(t, sent.Factory)
		assert.Nil(t, sent.Paymaster)
		assert.Len(t, sent.Signature, 65)
		h.chain.AssertNotCalled(t, "IsDeployed", mock.Anything, mock.Anything)
	})

	t.Run("counterfactual account sends factory and zero nonce", func(t *testing.T) {
		h := newHarness(t)
		account := deployedAccount("counterfactual")
		account.State = domain.DeploymentStateCounterfactual
		account.Factory = common.HexToAddress("0xfac7")
		account.FactoryData = []byte{0x01}

		var sent *models.UserOperation
		h.bundler.On("SendUserOperation", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(*models.UserOperation) }).
			Return(hash, nil)
		h.expectSettlement(hash, true)

		_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})
		require.NoError(t, err)

		require.NotNil(t, sent.Factory)
		assert.Equal(t, account.Factory, *sent.Factory)
		assert.Equal(t, 0, sent.Nonce.Sign())
		assert.Equal(t, domain.DeploymentStateDeployed, account.State)
		h.chain.AssertNotCalled(t, "GetNonce", mock.Anything, mock.Anything)
	})

	t.Run("sponsored operation carries final paymaster data", func(t *testing.T) {
		h := newHarness(t)
		h.cfg.PaymasterPolicyID = "sp_policy"
		account := deployedAccount("sponsored")
		paymaster := common.HexToAddress("0x9a9a")

		h.paymaster.On("GetPaymasterStubData", mock.Anything, mock.Anything).
			Return(&models.Sponsorship{Paymaster: paymaster, PaymasterData: []byte{0x00}}, nil)
		h.paymaster.On("GetPaymasterData", mock.Anything, mock.Anything).
			Return(&models.Sponsorship{Paymaster: paymaster, PaymasterData: []byte{0x01, 0x02}, IsFinal: true}, nil)

		var sent *models.UserOperation
		h.bundler.On("SendUserOperation", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(*models.UserOperation) }).
			Return(hash, nil)
		h.expectSettlement(hash, true)

		_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})
		require.NoError(t, err)

		require.NotNil(t, sent.Paymaster)
		assert.Equal(t, paymaster, *sent.Paymaster)
		assert.Equal(t, []byte{0x01, 0x02}, sent.PaymasterData)
		h.paymaster.AssertExpectations(t)
	})

	t.Run("unsponsored operation never calls the paymaster", func(t *testing.T) {
		h := newHarness(t)
		h.expectSettlement(hash, true)

		_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: deployedAccount("plain"), Calls: emptyCall()})
		require.NoError(t, err)
		assert.Empty(t, h.paymaster.Calls)
	})

	t.Run("failed receipt is a redemption failure but deploys the sender", func(t *testing.T) {
		h := newHarness(t)
		h.expectSettlement(hash, false)
		account := deployedAccount("reverted")
		account.State = domain.DeploymentStateCounterfactual

		receipt, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})

		var failure *domain.RedemptionFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, hash, failure.UserOpHash)
		assert.Equal(t, "AA23 reverted", failure.Reason)
		require.NotNil(t, receipt)
		assert.False(t, receipt.Success)
		assert.Equal(t, common.HexToHash("0x7a"), receipt.TransactionHash)
		assert.Equal(t, domain.DeploymentStateDeployed, account.State)
	})

	t.Run("failed receipt restores batched deploys", func(t *testing.T) {
		h := newHarness(t)
		h.expectSettlement(hash, false)
		account := deployedAccount("sender")
		account.State = domain.DeploymentStateCounterfactual
		batched := deployedAccount("batched")
		batched.State = domain.DeploymentStateCounterfactual

		_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{
			Account: account,
			Calls:   emptyCall(),
			Deploys: []*models.SmartAccount{batched},
		})

		var failure *domain.RedemptionFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, domain.DeploymentStateDeployed, account.State)
		assert.Equal(t, domain.DeploymentStateCounterfactual, batched.State)
	})

	t.Run("error before settlement restores the sender", func(t *testing.T) {
		h := newHarness(t)
		h.bundler.On("SendUserOperation", mock.Anything, mock.Anything).Return(common.Hash{}, assert.AnError)
		h.expectSettlement(hash, true)
		account := deployedAccount("unsent")
		account.State = domain.DeploymentStateCounterfactual

		receipt, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})

		assert.ErrorIs(t, err, assert.AnError)
		assert.Nil(t, receipt)
		assert.Equal(t, domain.DeploymentStateCounterfactual, account.State)
	})

	t.Run("account without signer is rejected before any call", func(t *testing.T) {
		h := newHarness(t)
		account := deployedAccount("nosigner")
		account.Signer = nil

		_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})

		var signingErr *domain.SigningError
		require.ErrorAs(t, err, &signingErr)
		assert.ErrorIs(t, err, domain.ErrNotLoggedIn)
		assert.Empty(t, h.bundler.Calls)
	})

	t.Run("times out waiting for a receipt", func(t *testing.T) {
		h := newHarness(t)
		h.bundler.On("GetUserOperationReceipt", mock.Anything, hash).Return(nil, nil)
		h.expectSettlement(hash, true)

		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: deployedAccount("timeout"), Calls: emptyCall()})
		assert.ErrorIs(t, err, domain.ErrReceiptTimeout)
	})

	t.Run("rejects a second operation while one is in flight", func(t *testing.T) {
		h := newHarness(t)
		account := deployedAccount("busy")

		started := make(chan struct{})
		release := make(chan struct{})
		h.bundler.On("GetUserOperationGasPrice", mock.Anything).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(testFees, nil).Once()
		h.expectSettlement(hash, true)

		var wg sync.WaitGroup
		var firstErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, firstErr = h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})
		}()

		<-started
		assert.True(t, h.submitter.Busy(account.Address))

		_, err := h.submitter.Submit(ctx, usecase.SubmitOperationParams{Account: account, Calls: emptyCall()})
		var busy *domain.BusyError
		require.True(t, errors.As(err, &busy))
		assert.Equal(t, account.Address, busy.Account)

		close(release)
		wg.Wait()
		assert.NoError(t, firstErr)
		assert.False(t, h.submitter.Busy(account.Address))
	})
}
