package signatory

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// Burner generates a fresh private key on every login. The key never leaves memory.
type Burner struct{}

// NewBurner creates a burner signatory
func NewBurner() *Burner {
	return &Burner{}
}

// Login generates a new key
func (b *Burner) Login(ctx context.Context) (*models.Identity, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate burner key: %w", err)
	}
	signer := NewLocalSigner(key)
	return &models.Identity{
		Signatory: domain.SignatoryBurner,
		Owner:     signer.Address(),
		Signer:    signer,
	}, nil
}

// CanLogout is always false, a burner key has no session
func (b *Burner) CanLogout() bool {
	return false
}

// Logout is not supported
func (b *Burner) Logout(ctx context.Context) error {
	return domain.ErrLogoutUnsupported
}

var _ usecase.SignatoryProvider = (*Burner)(nil)
