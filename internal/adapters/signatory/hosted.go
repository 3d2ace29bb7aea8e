package signatory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// ClientIDHeader carries the auth client id on every hosted wallet request
const ClientIDHeader = "X-Client-Id"

// Hosted uses a hosted authentication wallet reached over JSON-RPC
type Hosted struct {
	cfg  *config.RuntimeConfig
	log  *slog.Logger
	dial dialFunc

	mu     sync.Mutex
	client rpcClient
}

// NewHosted creates a hosted wallet signatory
func NewHosted(cfg *config.RuntimeConfig, log *slog.Logger) *Hosted {
	return &Hosted{
		cfg:  cfg,
		log:  log.With("signatory", domain.SignatoryHosted),
		dial: dialRPC,
	}
}

// Login opens an authenticated session and returns the wallet account
func (p *Hosted) Login(ctx context.Context) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		client, err := p.dial(ctx, p.cfg.AuthURL, rpc.WithHeader(ClientIDHeader, p.cfg.AuthClientID))
		if err != nil {
			return nil, &domain.NetworkError{Service: "auth", Err: err}
		}
		p.client = client
	}

	owner, err := requestAccounts(ctx, p.client, "eth_accounts", "eth_requestAccounts")
	if err != nil {
		if isTransportError(err) {
			return nil, &domain.NetworkError{Service: "auth", Err: err}
		}
		return nil, &domain.AuthenticationError{Signatory: domain.SignatoryHosted, Err: err}
	}

	p.log.Debug("hosted wallet connected", "owner", owner)
	return &models.Identity{
		Signatory: domain.SignatoryHosted,
		Owner:     owner,
		Signer: &RemoteSigner{
			client:  p.client,
			address: owner,
			service: "auth",
		},
	}, nil
}

// CanLogout reports whether a session is open
func (p *Hosted) CanLogout() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client != nil
}

// Logout closes the session
func (p *Hosted) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return domain.ErrNotLoggedIn
	}
	p.client.Close()
	p.client = nil
	return nil
}

var _ usecase.SignatoryProvider = (*Hosted)(nil)
