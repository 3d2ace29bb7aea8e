package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// Signatories

// SignatoryProvider authenticates a user and yields an owner address with a signer
type SignatoryProvider interface {
	Login(ctx context.Context) (*models.Identity, error)
	// CanLogout reports whether the provider holds a session that Logout can end
	CanLogout() bool
	Logout(ctx context.Context) error
}

// SignatoryStatus tells whether a signatory can be used with the current configuration
type SignatoryStatus int

const (
	SignatoryActive SignatoryStatus = iota
	SignatoryUnavailable
)

func (s SignatoryStatus) String() string {
	if s == SignatoryActive {
		return "available"
	}
	return "unavailable"
}

// Signatory is a named signing strategy. Provider is nil unless Status is SignatoryActive.
type Signatory struct {
	Name     domain.SignatoryName
	Status   SignatoryStatus
	Reason   string
	Provider SignatoryProvider
}

// Available reports whether the signatory can log in
func (s Signatory) Available() bool {
	return s.Status == SignatoryActive && s.Provider != nil
}

// SignatoryRegistry lists the signatories known to the CLI
type SignatoryRegistry interface {
	List() []Signatory
	Get(name domain.SignatoryName) (Signatory, error)
}

// SignatorySelector asks the user to choose a signatory interactively
type SignatorySelector interface {
	SelectSignatory(ctx context.Context, signatories []Signatory) (domain.SignatoryName, error)
}

// Accounts and delegations

// AccountFactory derives counterfactual smart accounts
type AccountFactory interface {
	NewAccount(ctx context.Context, owner common.Address, signer models.Signer) (*models.SmartAccount, error)
}

// CaveatBuilder encodes caveat specs against the configured enforcers
type CaveatBuilder interface {
	Build(specs []models.CaveatSpec) ([]models.Caveat, error)
}

// DelegationCodec encodes delegations for signing and for on-chain calls
type DelegationCodec interface {
	TypedData(delegation *models.Delegation) (apitypes.TypedData, error)
	Hash(delegation *models.Delegation) (common.Hash, error)
	RecoverSigner(delegation *models.Delegation) (common.Address, error)
	EncodeRedeemDelegations(chain []*models.Delegation, execution models.Execution) ([]byte, error)
	EncodeDisableDelegation(delegation *models.Delegation) ([]byte, error)
	EncodeEnableDelegation(delegation *models.Delegation) ([]byte, error)
}

// UserOperationCodec encodes account calls and user operation signatures
type UserOperationCodec interface {
	EncodeCalls(calls []models.Call) ([]byte, error)
	TypedData(op *models.UserOperation) (apitypes.TypedData, error)
	Hash(op *models.UserOperation) (common.Hash, error)
	StubSignature() []byte
}

// CallDecoder describes account calls for logs
type CallDecoder interface {
	DescribeCalls(sender common.Address, calls []models.Call) []string
}

// Networks

// NetworkResolver resolves configured networks and their contract environments
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, input string) (*config.Network, error)
	ResolveEnvironment(ctx context.Context, chainID uint64) (*config.Environment, error)
}

// Chain access

// ChainReader reads on-chain state through the network RPC endpoint
type ChainReader interface {
	IsDeployed(ctx context.Context, address common.Address) (bool, error)
	GetNonce(ctx context.Context, sender common.Address) (*big.Int, error)
	IsDelegationDisabled(ctx context.Context, delegationHash common.Hash) (bool, error)
}

// Bundler talks to an ERC-4337 bundler
type Bundler interface {
	GetUserOperationGasPrice(ctx context.Context) (*models.FeeParameters, error)
	EstimateUserOperationGas(ctx context.Context, op *models.UserOperation) (*models.GasEstimate, error)
	SendUserOperation(ctx context.Context, op *models.UserOperation) (common.Hash, error)
	// GetUserOperationReceipt returns nil without error while the operation is pending
	GetUserOperationReceipt(ctx context.Context, hash common.Hash) (*models.UserOperationReceipt, error)
}

// Paymaster sponsors user operations following ERC-7677
type Paymaster interface {
	GetPaymasterStubData(ctx context.Context, op *models.UserOperation) (*models.Sponsorship, error)
	GetPaymasterData(ctx context.Context, op *models.UserOperation) (*models.Sponsorship, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    domain.OperationStage
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
