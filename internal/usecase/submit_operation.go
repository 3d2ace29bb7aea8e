package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

const defaultPollInterval = 2 * time.Second

// SubmitOperationParams contains parameters for submitting a user operation
type SubmitOperationParams struct {
	Account *models.SmartAccount
	Calls   []models.Call
	// Deploys lists other accounts whose factory call is part of Calls
	Deploys []*models.SmartAccount
	OnStage func(domain.OperationStage)
}

// OperationSubmitter builds, sponsors, signs and submits user operations and waits for settlement.
// Only one operation may be in flight per sender account.
type OperationSubmitter struct {
	cfg       *config.RuntimeConfig
	chain     ChainReader
	bundler   Bundler
	paymaster Paymaster
	codec     UserOperationCodec
	decoder   CallDecoder
	progress  ProgressSink
	log       *slog.Logger

	mu       sync.Mutex
	inFlight map[common.Address]struct{}
}

// NewOperationSubmitter creates a new OperationSubmitter
func NewOperationSubmitter(
	cfg *config.RuntimeConfig,
	chain ChainReader,
	bundler Bundler,
	paymaster Paymaster,
	codec UserOperationCodec,
	decoder CallDecoder,
	progress ProgressSink,
	log *slog.Logger,
) *OperationSubmitter {
	if progress == nil {
		progress = NopProgress{}
	}
	return &OperationSubmitter{
		cfg:       cfg,
		chain:     chain,
		bundler:   bundler,
		paymaster: paymaster,
		codec:     codec,
		decoder:   decoder,
		progress:  progress,
		log:       log,
		inFlight:  make(map[common.Address]struct{}),
	}
}

// Busy reports whether an operation is in flight for the account
func (s *OperationSubmitter) Busy(account common.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[account]
	return ok
}

func (s *OperationSubmitter) acquire(account common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[account]; ok {
		return &domain.BusyError{Account: account}
	}
	s.inFlight[account] = struct{}{}
	return nil
}

func (s *OperationSubmitter) release(account common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, account)
}

// Submit executes the calls from the account and waits for the receipt
func (s *OperationSubmitter) Submit(ctx context.Context, params SubmitOperationParams) (*models.UserOperationReceipt, error) {
	account := params.Account
	if account == nil {
		return nil, domain.ErrNoAccount
	}
	if account.Signer == nil {
		return nil, &domain.SigningError{Signer: account.Owner, Err: domain.ErrNotLoggedIn}
	}

	if err := s.acquire(account.Address); err != nil {
		return nil, err
	}
	defer s.release(account.Address)

	stage := func(stage domain.OperationStage, message string, spinner bool) {
		if params.OnStage != nil {
			params.OnStage(stage)
		}
		s.progress.OnProgress(ctx, ProgressEvent{Stage: stage, Message: message, Spinner: spinner})
	}
	defer stage(domain.StageIdle, "", false)

	stage(domain.StageBuilding, "Building user operation...", true)

	if !account.IsDeployed() {
		deployed, err := s.chain.IsDeployed(ctx, account.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to check deployment of %s: %w", account.Address.Hex(), err)
		}
		if deployed {
			account.MarkDeployed()
		}
	}

	// Every counterfactual account touched by this operation is deploying until settlement
	pending := make([]*models.SmartAccount, 0, len(params.Deploys)+1)
	for _, a := range append([]*models.SmartAccount{account}, params.Deploys...) {
		if a != nil && !a.IsDeployed() {
			pending = append(pending, a)
		}
	}
	previous := make([]domain.DeploymentState, len(pending))
	for i, a := range pending {
		previous[i] = a.MarkDeploying()
	}

	receipt, err := s.submit(ctx, account, params.Calls, stage)
	if err != nil {
		// An included operation ran the sender's factory during validation,
		// even when execution reverted. Batched deploys revert with the batch.
		for i, a := range pending {
			if receipt != nil && a == account {
				if a.MarkDeployed() {
					s.log.Info("account deployed", "account", a.Address, "tx", receipt.TransactionHash)
				}
				continue
			}
			a.RestoreState(previous[i])
		}
		return receipt, err
	}

	for _, a := range pending {
		if a.MarkDeployed() {
			s.log.Info("account deployed", "account", a.Address, "tx", receipt.TransactionHash)
		}
	}
	return receipt, nil
}

func (s *OperationSubmitter) submit(
	ctx context.Context,
	account *models.SmartAccount,
	calls []models.Call,
	stage func(domain.OperationStage, string, bool),
) (*models.UserOperationReceipt, error) {
	op, err := s.build(ctx, account, calls)
	if err != nil {
		return nil, err
	}
	if s.decoder != nil {
		for i, call := range s.decoder.DescribeCalls(op.Sender, calls) {
			s.log.Debug("user operation call", "index", i, "call", call)
		}
	}

	typedData, err := s.codec.TypedData(op)
	if err != nil {
		return nil, fmt.Errorf("failed to build user operation typed data: %w", err)
	}
	signature, err := account.Signer.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, &domain.SigningError{Signer: account.Signer.Address(), Err: err}
	}
	op.Signature = signature

	stage(domain.StageSubmitted, "Waiting for the user operation to settle...", true)

	hash, err := s.bundler.SendUserOperation(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("failed to send user operation: %w", err)
	}
	if local, err := s.codec.Hash(op); err == nil && local != hash {
		s.log.Warn("bundler returned an unexpected user operation hash", "expected", local, "got", hash)
	}
	s.log.Debug("user operation sent", "hash", hash, "sender", op.Sender)

	receipt, err := s.waitForReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}

	stage(domain.StageSettled, "User operation settled", false)

	if !receipt.Success {
		reason := receipt.Reason
		if reason == "" {
			reason = "execution reverted"
		}
		return receipt, &domain.RedemptionFailure{UserOpHash: hash, Reason: reason}
	}
	return receipt, nil
}

// build assembles a fresh user operation. Fees are never reused between submissions.
func (s *OperationSubmitter) build(ctx context.Context, account *models.SmartAccount, calls []models.Call) (*models.UserOperation, error) {
	callData, err := s.codec.EncodeCalls(calls)
	if err != nil {
		return nil, fmt.Errorf("failed to encode calls: %w", err)
	}

	nonce := big.NewInt(0)
	if account.IsDeployed() {
		if nonce, err = s.chain.GetNonce(ctx, account.Address); err != nil {
			return nil, fmt.Errorf("failed to read nonce: %w", err)
		}
	}

	fees, err := s.bundler.GetUserOperationGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	op := &models.UserOperation{
		Sender:    account.Address,
		Nonce:     nonce,
		CallData:  callData,
		Signature: s.codec.StubSignature(),
		Calls:     calls,
	}
	if !account.IsDeployed() {
		factory := account.Factory
		op.Factory = &factory
		op.FactoryData = account.FactoryData
	}
	op.ApplyFees(fees)

	sponsored := s.cfg.SponsorshipEnabled()
	var stub *models.Sponsorship
	if sponsored {
		if stub, err = s.paymaster.GetPaymasterStubData(ctx, op); err != nil {
			return nil, fmt.Errorf("failed to fetch paymaster stub data: %w", err)
		}
		op.ApplySponsorship(stub)
	}

	gas, err := s.bundler.EstimateUserOperationGas(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate user operation gas: %w", err)
	}
	op.ApplyGas(gas)

	if sponsored && !stub.IsFinal {
		final, err := s.paymaster.GetPaymasterData(ctx, op)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch paymaster data: %w", err)
		}
		op.ApplySponsorship(final)
	}

	return op, nil
}

func (s *OperationSubmitter) waitForReceipt(ctx context.Context, hash common.Hash) (*models.UserOperationReceipt, error) {
	interval := s.cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := s.bundler.GetUserOperationReceipt(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch receipt for %s: %w", hash.Hex(), err)
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", domain.ErrReceiptTimeout, hash.Hex())
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
