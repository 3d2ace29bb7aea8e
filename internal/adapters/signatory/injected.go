package signatory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// Injected uses an external wallet that exposes an EIP-1193 style JSON-RPC endpoint
type Injected struct {
	cfg  *config.RuntimeConfig
	log  *slog.Logger
	dial dialFunc

	mu     sync.Mutex
	client rpcClient
}

// NewInjected creates an injected wallet signatory
func NewInjected(cfg *config.RuntimeConfig, log *slog.Logger) *Injected {
	return &Injected{
		cfg:  cfg,
		log:  log.With("signatory", domain.SignatoryInjected),
		dial: dialRPC,
	}
}

// Login connects to the wallet, switches it to the configured chain and requests an account
func (p *Injected) Login(ctx context.Context) (*models.Identity, error) {
	client, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}

	if network := p.cfg.Network; network != nil && network.ChainID != 0 {
		var chainID hexutil.Big
		if err := client.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
			return nil, p.fail(err)
		}
		if chainID.ToInt().Uint64() != network.ChainID {
			p.log.Info("switching wallet chain", "from", chainID.ToInt(), "to", network.ChainID)
			params := map[string]string{"chainId": hexutil.EncodeUint64(network.ChainID)}
			if err := client.CallContext(ctx, nil, "wallet_switchEthereumChain", params); err != nil {
				return nil, p.fail(err)
			}
		}
	}

	owner, err := requestAccounts(ctx, client, "eth_requestAccounts")
	if err != nil {
		return nil, p.fail(err)
	}

	return &models.Identity{
		Signatory: domain.SignatoryInjected,
		Owner:     owner,
		Signer: &RemoteSigner{
			client:  client,
			address: owner,
			service: "wallet",
		},
	}, nil
}

func (p *Injected) connect(ctx context.Context) (rpcClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := p.dial(ctx, p.cfg.WalletURL)
	if err != nil {
		return nil, &domain.NetworkError{Service: "wallet", Err: err}
	}
	p.client = client
	return client, nil
}

func (p *Injected) fail(err error) error {
	if isTransportError(err) {
		return &domain.NetworkError{Service: "wallet", Err: err}
	}
	return &domain.AuthenticationError{Signatory: domain.SignatoryInjected, Err: err}
}

// CanLogout is false, the wallet owns its own session
func (p *Injected) CanLogout() bool {
	return false
}

// Logout is not supported
func (p *Injected) Logout(ctx context.Context) error {
	return domain.ErrLogoutUnsupported
}

var _ usecase.SignatoryProvider = (*Injected)(nil)
