package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/stretchr/testify/mock"
)

// MockChainReader is a mock implementation of ChainReader
type MockChainReader struct {
	mock.Mock
}

func (m *MockChainReader) IsDeployed(ctx context.Context, address common.Address) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}

func (m *MockChainReader) GetNonce(ctx context.Context, sender common.Address) (*big.Int, error) {
	args := m.Called(ctx, sender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainReader) IsDelegationDisabled(ctx context.Context, hash common.Hash) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

// MockBundler is a mock implementation of Bundler
type MockBundler struct {
	mock.Mock
}

func (m *MockBundler) GetUserOperationGasPrice(ctx context.Context) (*models.FeeParameters, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeeParameters), args.Error(1)
}

func (m *MockBundler) EstimateUserOperationGas(ctx context.Context, op *models.UserOperation) (*models.GasEstimate, error) {
	args := m.Called(ctx, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GasEstimate), args.Error(1)
}

func (m *MockBundler) SendUserOperation(ctx context.Context, op *models.UserOperation) (common.Hash, error) {
	args := m.Called(ctx, op)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *MockBundler) GetUserOperationReceipt(ctx context.Context, hash common.Hash) (*models.UserOperationReceipt, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserOperationReceipt), args.Error(1)
}

// MockPaymaster is a mock implementation of Paymaster
type MockPaymaster struct {
	mock.Mock
}

func (m *MockPaymaster) GetPaymasterStubData(ctx context.Context, op *models.UserOperation) (*models.Sponsorship, error) {
	args := m.Called(ctx, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Sponsorship), args.Error(1)
}

func (m *MockPaymaster) GetPaymasterData(ctx context.Context, op *models.UserOperation) (*models.Sponsorship, error) {
	args := m.Called(ctx, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Sponsorship), args.Error(1)
}

// MockSignatoryProvider is a mock implementation of SignatoryProvider
type MockSignatoryProvider struct {
	mock.Mock
}

func (m *MockSignatoryProvider) Login(ctx context.Context) (*models.Identity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

func (m *MockSignatoryProvider) CanLogout() bool {
	return m.Called().Bool(0)
}

func (m *MockSignatoryProvider) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// fakeSigner signs by embedding its address in the signature so fakeDelegationCodec can recover it
type fakeSigner struct {
	address common.Address
}

func (s fakeSigner) Address() common.Address { return s.address }

func (s fakeSigner) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	sig := make([]byte, 65)
	copy(sig, s.address.Bytes())
	sig[64] = 27
	return sig, nil
}

func newIdentity(name domain.SignatoryName, seed string) *models.Identity {
	owner := common.BytesToAddress(crypto.Keccak256([]byte(seed)))
	return &models.Identity{Signatory: name, Owner: owner, Signer: fakeSigner{address: owner}}
}

// fakeFactory derives a distinct counterfactual account per call
type fakeFactory struct {
	mu    sync.Mutex
	count int
}

func (f *fakeFactory) NewAccount(ctx context.Context, owner common.Address, signer models.Signer) (*models.SmartAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	salt := common.BigToHash(big.NewInt(int64(f.count)))
	return &models.SmartAccount{
		Address:     common.BytesToAddress(crypto.Keccak256(owner.Bytes(), salt.Bytes())),
		Owner:       owner,
		DeploySalt:  salt,
		Factory:     common.HexToAddress("0xfac7"),
		FactoryData: []byte{0x01, 0x02},
		State:       domain.DeploymentStateCounterfactual,
		Signer:      signer,
	}, nil
}

type fakeCaveatBuilder struct{}

func (fakeCaveatBuilder) Build(specs []models.CaveatSpec) ([]models.Caveat, error) {
	caveats := make([]models.Caveat, 0, len(specs))
	for _, spec := range specs {
		if spec.Type == "bogus" {
			return nil, domain.ErrUnknownCaveat
		}
		caveats = append(caveats, models.Caveat{Type: spec.Type, Enforcer: common.HexToAddress("0xe0"), Terms: []byte{0x01}, Args: []byte{}})
	}
	return caveats, nil
}

var delegationHash = common.HexToHash("0xde1e")

type fakeDelegationCodec struct{}

func (fakeDelegationCodec) TypedData(d *models.Delegation) (apitypes.TypedData, error) {
	return apitypes.TypedData{PrimaryType: "Delegation"}, nil
}

func (fakeDelegationCodec) Hash(d *models.Delegation) (common.Hash, error) {
	return delegationHash, nil
}

func (fakeDelegationCodec) RecoverSigner(d *models.Delegation) (common.Address, error) {
	return common.BytesToAddress(d.Signature[:20]), nil
}

func (fakeDelegationCodec) EncodeRedeemDelegations(chain []*models.Delegation, execution models.Execution) ([]byte, error) {
	return []byte{0xaa}, nil
}

func (fakeDelegationCodec) EncodeDisableDelegation(d *models.Delegation) ([]byte, error) {
	return []byte{0xd1}, nil
}

func (fakeDelegationCodec) EncodeEnableDelegation(d *models.Delegation) ([]byte, error) {
	return []byte{0xe1}, nil
}

// fakeOperationCodec records the calls of every encoded operation
type fakeOperationCodec struct {
	mu      sync.Mutex
	encoded [][]models.Call
}

func (c *fakeOperationCodec) EncodeCalls(calls []models.Call) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded = append(c.encoded, calls)
	return []byte{byte(len(calls))}, nil
}

func (c *fakeOperationCodec) TypedData(op *models.UserOperation) (apitypes.TypedData, error) {
	return apitypes.TypedData{PrimaryType: "PackedUserOperation"}, nil
}

func (c *fakeOperationCodec) Hash(op *models.UserOperation) (common.Hash, error) {
	return common.Hash{}, nil
}

func (c *fakeOperationCodec) StubSignature() []byte {
	return make([]byte, 65)
}

func (c *fakeOperationCodec) lastCalls() []models.Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.encoded) == 0 {
		return nil
	}
	return c.encoded[len(c.encoded)-1]
}

// stubRegistry serves a fixed set of signatories
type stubRegistry struct {
	signatories []usecase.Signatory
}

func (r *stubRegistry) List() []usecase.Signatory {
	return append([]usecase.Signatory(nil), r.signatories...)
}

func (r *stubRegistry) Get(name domain.SignatoryName) (usecase.Signatory, error) {
	for _, s := range r.signatories {
		if s.Name == name {
			return s, nil
		}
	}
	return usecase.Signatory{}, domain.ErrUnknownSignatory
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness wires the use cases against mocks
type harness struct {
	cfg        *config.RuntimeConfig
	chain      *MockChainReader
	bundler    *MockBundler
	paymaster  *MockPaymaster
	opCodec    *fakeOperationCodec
	burner     *MockSignatoryProvider
	injected   *MockSignatoryProvider
	registry   *stubRegistry
	submitter  *usecase.OperationSubmitter
	redeem     *usecase.RedeemDelegation
	toggle     *usecase.ToggleDelegation
	signDeleg  *usecase.SignDelegation
	createAcct *usecase.CreateAccount
	session    *usecase.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		cfg: &config.RuntimeConfig{
			Network:      &config.Network{Name: "sepolia", ChainID: 11155111, RPCURL: "http://localhost:8545"},
			BundlerURL:   "http://localhost:4337",
			PollInterval: time.Millisecond,
		},
		chain:     &MockChainReader{},
		bundler:   &MockBundler{},
		paymaster: &MockPaymaster{},
		opCodec:   &fakeOperationCodec{},
		burner:    &MockSignatoryProvider{},
		injected:  &MockSignatoryProvider{},
	}
	h.registry = &stubRegistry{signatories: []usecase.Signatory{
		{Name: domain.SignatoryBurner, Status: usecase.SignatoryActive, Provider: h.burner},
		{Name: domain.SignatoryInjected, Status: usecase.SignatoryActive, Provider: h.injected},
		{Name: domain.SignatoryHosted, Status: usecase.SignatoryUnavailable, Reason: "no auth client id configured"},
	}}

	log := discardLogger()
	h.submitter = usecase.NewOperationSubmitter(h.cfg, h.chain, h.bundler, h.paymaster, h.opCodec, nil, usecase.NopProgress{}, log)
	h.createAcct = usecase.NewCreateAccount(&fakeFactory{}, h.chain, log)
	h.signDeleg = usecase.NewSignDelegation(fakeDelegationCodec{}, log)
	h.redeem = usecase.NewRedeemDelegation(fakeDelegationCodec{}, h.chain, h.submitter, log)
	h.toggle = usecase.NewToggleDelegation(fakeDelegationCodec{}, h.chain, h.submitter, log)
	h.session = usecase.NewSession(
		h.registry,
		h.createAcct,
		usecase.NewCreateDelegation(fakeCaveatBuilder{}, log),
		h.signDeleg,
		h.redeem,
		h.toggle,
		h.submitter,
		log,
	)
	return h
}

var testFees = &models.FeeParameters{MaxFeePerGas: big.NewInt(30), MaxPriorityFeePerGas: big.NewInt(2)}

var testGas = &models.GasEstimate{
	PreVerificationGas:   big.NewInt(50000),
	VerificationGasLimit: big.NewInt(200000),
	CallGasLimit:         big.NewInt(100000),
}

// expectSettlement sets up a bundler that accepts and settles every operation
func (h *harness) expectSettlement(hash common.Hash, success bool) {
	h.chain.On("IsDeployed", mock.Anything, mock.Anything).Return(false, nil).Maybe()
	h.chain.On("GetNonce", mock.Anything, mock.Anything).Return(big.NewInt(1), nil).Maybe()
	h.bundler.On("GetUserOperationGasPrice", mock.Anything).Return(testFees, nil).Maybe()
	h.bundler.On("EstimateUserOperationGas", mock.Anything, mock.Anything).Return(testGas, nil).Maybe()
	h.bundler.On("SendUserOperation", mock.Anything, mock.Anything).Return(hash, nil).Maybe()
	receipt := &models.UserOperationReceipt{UserOpHash: hash, TransactionHash: common.HexToHash("0x7a"), Success: success}
	if !success {
		receipt.Reason = "AA23 reverted"
	}
	h.bundler.On("GetUserOperationReceipt", mock.Anything, hash).Return(receipt, nil).Maybe()
}

// prepareDelegation runs the session up to a signed delegation with the burner signatory
func (h *harness) prepareDelegation(t *testing.T, ctx context.Context) {
	t.Helper()
	h.burner.On("Login", mock.Anything).Return(newIdentity(domain.SignatoryBurner, "burner"), nil)

	_, err := h.session.SelectSignatory(domain.SignatoryBurner)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.session.CreateDelegate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := h.session.CreateDelegator(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := h.session.CreateDelegation(ctx, usecase.DefaultCaveats()); err != nil {
		t.Fatal(err)
	}
	if _, err := h.session.SignDelegation(ctx); err != nil {
		t.Fatal(err)
	}
}
