package bundler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

const service = "bundler"

// Client implements usecase.Bundler over the ERC-4337 bundler JSON-RPC API
type Client struct {
	cfg *config.RuntimeConfig
	log *slog.Logger

	mu     sync.Mutex
	client *rpc.Client
}

// NewClient creates a bundler client. The connection is opened on first use.
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: log.With("component", service),
	}
}

func (c *Client) conn(ctx context.Context) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	url, err := c.cfg.RequireBundlerURL()
	if err != nil {
		return nil, err
	}
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, &domain.NetworkError{Service: service, Err: err}
	}
	c.client = client
	return client, nil
}

// Close closes the underlying connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

// GetUserOperationGasPrice returns the fast tier of pimlico_getUserOperationGasPrice
func (c *Client) GetUserOperationGasPrice(ctx context.Context) (*models.FeeParameters, error) {
	var tiers gasPriceTiers
	if err := c.call(ctx, &tiers, "pimlico_getUserOperationGasPrice"); err != nil {
		return nil, networkError(err)
	}
	if tiers.Fast.MaxFeePerGas == nil || tiers.Fast.MaxPriorityFeePerGas == nil {
		return nil, &domain.NetworkError{Service: service, Err: errors.New("gas price response is missing the fast tier")}
	}
	return &models.FeeParameters{
		MaxFeePerGas:         tiers.Fast.MaxFeePerGas.ToInt(),
		MaxPriorityFeePerGas: tiers.Fast.MaxPriorityFeePerGas.ToInt(),
	}, nil
}

// EstimateUserOperationGas calls eth_estimateUserOperationGas. A simulation revert is a RedemptionFailure.
func (c *Client) EstimateUserOperationGas(ctx context.Context, op *models.UserOperation) (*models.GasEstimate, error) {
	env, err := c.cfg.RequireEnvironment()
	if err != nil {
		return nil, err
	}

	var estimate gasEstimate
	if err := c.call(ctx, &estimate, "eth_estimateUserOperationGas", NewRPCUserOperation(op), env.EntryPoint); err != nil {
		return nil, rejection(common.Hash{}, err)
	}
	if estimate.CallGasLimit == nil || estimate.VerificationGasLimit == nil || estimate.PreVerificationGas == nil {
		return nil, &domain.NetworkError{Service: service, Err: errors.New("gas estimate is missing required limits")}
	}
	return &models.GasEstimate{
		PreVerificationGas:            estimate.PreVerificationGas.ToInt(),
		VerificationGasLimit:          estimate.VerificationGasLimit.ToInt(),
		CallGasLimit:                  estimate.CallGasLimit.ToInt(),
		PaymasterVerificationGasLimit: Int(estimate.PaymasterVerificationGasLimit),
		PaymasterPostOpGasLimit:       Int(estimate.PaymasterPostOpGasLimit),
	}, nil
}

// SendUserOperation calls eth_sendUserOperation and returns the user operation hash
func (c *Client) SendUserOperation(ctx context.Context, op *models.UserOperation) (common.Hash, error) {
	env, err := c.cfg.RequireEnvironment()
	if err != nil {
		return common.Hash{}, err
	}

	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendUserOperation", NewRPCUserOperation(op), env.EntryPoint); err != nil {
		return common.Hash{}, rejection(common.Hash{}, err)
	}
	return hash, nil
}

// GetUserOperationReceipt returns nil while the bundler has no receipt for hash
func (c *Client) GetUserOperationReceipt(ctx context.Context, hash common.Hash) (*models.UserOperationReceipt, error) {
	var receipt *operationReceipt
	if err := c.call(ctx, &receipt, "eth_getUserOperationReceipt", hash); err != nil {
		return nil, networkError(err)
	}
	if receipt == nil {
		return nil, nil
	}

	out := &models.UserOperationReceipt{
		UserOpHash:      receipt.UserOpHash,
		Sender:          receipt.Sender,
		TransactionHash: receipt.Receipt.TransactionHash,
		Success:         receipt.Success,
		Reason:          receipt.Reason,
		ActualGasCost:   Int(receipt.ActualGasCost),
		ActualGasUsed:   Int(receipt.ActualGasUsed),
	}
	if receipt.Receipt.BlockNumber != nil {
		out.BlockNumber = receipt.Receipt.BlockNumber.ToInt().Uint64()
	}
	if out.UserOpHash == (common.Hash{}) {
		out.UserOpHash = hash
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	client, err := c.conn(ctx)
	if err != nil {
		return err
	}
	c.log.Debug("bundler request", "method", method)
	return client.CallContext(ctx, result, method, args...)
}

// rejection maps a JSON-RPC error from the bundler to a RedemptionFailure
func rejection(hash common.Hash, err error) error {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return networkError(err)
	}
	reason := rpcErr.Error()
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		reason = fmt.Sprintf("%s (%v)", reason, dataErr.ErrorData())
	}
	return &domain.RedemptionFailure{UserOpHash: hash, Reason: reason}
}

func networkError(err error) error {
	var cfgErr *domain.ConfigurationError
	var netErr *domain.NetworkError
	if errors.As(err, &cfgErr) || errors.As(err, &netErr) {
		return err
	}
	return &domain.NetworkError{Service: service, Err: err}
}

var _ usecase.Bundler = (*Client)(nil)
