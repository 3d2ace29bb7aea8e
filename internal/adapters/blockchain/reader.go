package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gatorkit/gator-cli/internal/adapters/abi"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

const callTimeout = 10 * time.Second

// backend is the subset of ethclient.Client used by the reader
type backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader implements usecase.ChainReader over the network RPC endpoint.
// The connection is opened on first use.
type Reader struct {
	cfg *config.RuntimeConfig
	log *slog.Logger

	mu      sync.Mutex
	client  backend
	connect func(ctx context.Context, url string) (backend, error)
}

// NewReader creates a new chain reader
func NewReader(cfg *config.RuntimeConfig, log *slog.Logger) *Reader {
	return &Reader{
		cfg: cfg,
		log: log.With("component", "chain"),
		connect: func(ctx context.Context, url string) (backend, error) {
			return ethclient.DialContext(ctx, url)
		},
	}
}

func (r *Reader) backend(ctx context.Context) (backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}

	network, err := r.cfg.RequireNetwork()
	if err != nil {
		return nil, err
	}
	client, err := r.connect(ctx, network.RPCURL)
	if err != nil {
		return nil, &domain.NetworkError{Service: "rpc", Err: err}
	}

	// Verify chain ID matches
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, &domain.NetworkError{Service: "rpc", Err: fmt.Errorf("failed to get chain ID: %w", err)}
	}
	if chainID.Uint64() != network.ChainID {
		return nil, &domain.ConfigurationError{
			Key:    "rpc_url",
			Reason: fmt.Sprintf("chain ID mismatch: expected %d, got %d", network.ChainID, chainID.Uint64()),
		}
	}

	r.log.Debug("connected to network", "network", network.Name, "chainId", network.ChainID)
	r.client = client
	return client, nil
}

// IsDeployed reports whether there is code at the address
func (r *Reader) IsDeployed(ctx context.Context, address common.Address) (bool, error) {
	client, err := r.backend(ctx)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	code, err := client.CodeAt(ctx, address, nil)
	if err != nil {
		return false, &domain.NetworkError{Service: "rpc", Err: fmt.Errorf("failed to check code: %w", err)}
	}
	return len(code) > 0, nil
}

// GetNonce reads the key-0 nonce of the sender from the EntryPoint
func (r *Reader) GetNonce(ctx context.Context, sender common.Address) (*big.Int, error) {
	env, err := r.cfg.RequireEnvironment()
	if err != nil {
		return nil, err
	}
	out, err := r.call(ctx, env.EntryPoint, abi.EntryPoint, "getNonce", sender, new(big.Int))
	if err != nil {
		return nil, err
	}
	nonce, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getNonce result %T", out[0])
	}
	return nonce, nil
}

// IsDelegationDisabled reads disabledDelegations(hash) from the DelegationManager
func (r *Reader) IsDelegationDisabled(ctx context.Context, delegationHash common.Hash) (bool, error) {
	env, err := r.cfg.RequireEnvironment()
	if err != nil {
		return false, err
	}
	out, err := r.call(ctx, env.DelegationManager, abi.DelegationManager, "disabledDelegations", delegationHash)
	if err != nil {
		return false, err
	}
	disabled, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected disabledDelegations result %T", out[0])
	}
	return disabled, nil
}

func (r *Reader) call(ctx context.Context, to common.Address, contract gethabi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	client, err := r.backend(ctx)
	if err != nil {
		return nil, err
	}

	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	output, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, &domain.NetworkError{Service: "rpc", Err: fmt.Errorf("%s call failed: %w", method, err)}
	}

	values, err := contract.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return values, nil
}

var _ usecase.ChainReader = (*Reader)(nil)
