package paymaster

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gatorkit/gator-cli/internal/adapters/bundler"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

const service = "paymaster"

// sponsorshipContext is the ERC-7677 context object
type sponsorshipContext struct {
	SponsorshipPolicyID string `json:"sponsorshipPolicyId"`
}

type sponsorship struct {
	Paymaster                     common.Address `json:"paymaster"`
	PaymasterData                 hexutil.Bytes  `json:"paymasterData"`
	PaymasterVerificationGasLimit *hexutil.Big   `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *hexutil.Big   `json:"paymasterPostOpGasLimit,omitempty"`
	IsFinal                       bool           `json:"isFinal,omitempty"`
}

// Client implements usecase.Paymaster over the ERC-7677 paymaster web service API
type Client struct {
	cfg *config.RuntimeConfig
	log *slog.Logger

	mu     sync.Mutex
	client *rpc.Client
}

// NewClient creates a paymaster client. The connection is opened on first use.
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		log: log.With("component", service),
	}
}

// GetPaymasterStubData returns placeholder sponsorship fields for gas estimation
func (c *Client) GetPaymasterStubData(ctx context.Context, op *models.UserOperation) (*models.Sponsorship, error) {
	return c.sponsor(ctx, "pm_getPaymasterStubData", op)
}

// GetPaymasterData returns the final sponsorship fields for an estimated operation
func (c *Client) GetPaymasterData(ctx context.Context, op *models.UserOperation) (*models.Sponsorship, error) {
	result, err := c.sponsor(ctx, "pm_getPaymasterData", op)
	if err != nil {
		return nil, err
	}
	result.IsFinal = true
	return result, nil
}

func (c *Client) sponsor(ctx context.Context, method string, op *models.UserOperation) (*models.Sponsorship, error) {
	network, err := c.cfg.RequireNetwork()
	if err != nil {
		return nil, err
	}
	env, err := c.cfg.RequireEnvironment()
	if err != nil {
		return nil, err
	}
	client, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	c.log.Debug("paymaster request", "method", method, "sender", op.Sender)

	var result sponsorship
	err = client.CallContext(ctx, &result, method,
		bundler.NewRPCUserOperation(op),
		env.EntryPoint,
		hexutil.EncodeUint64(network.ChainID),
		sponsorshipContext{SponsorshipPolicyID: c.cfg.PaymasterPolicyID},
	)
	if err != nil {
		return nil, &domain.NetworkError{Service: service, Err: err}
	}
	if result.Paymaster == (common.Address{}) {
		return nil, &domain.NetworkError{Service: service, Err: errors.New("response has no paymaster address")}
	}

	return &models.Sponsorship{
		Paymaster:                     result.Paymaster,
		PaymasterData:                 result.PaymasterData,
		PaymasterVerificationGasLimit: bundler.Int(result.PaymasterVerificationGasLimit),
		PaymasterPostOpGasLimit:       bundler.Int(result.PaymasterPostOpGasLimit),
		IsFinal:                       result.IsFinal,
	}, nil
}

func (c *Client) conn(ctx context.Context) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	url := c.cfg.PaymasterURL
	if url == "" {
		url = c.cfg.BundlerURL
	}
	if url == "" {
		return nil, &domain.ConfigurationError{Key: "paymaster_url"}
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

var _ usecase.Paymaster = (*Client)(nil)
