package account

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gatorkit/gator-cli/internal/adapters/abi"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// ImplementationHybrid is the only account implementation gator deploys
const ImplementationHybrid = "Hybrid"

// saltSize matches the 8 random bytes the example dapp uses for deploy salts
const saltSize = 8

// Factory derives counterfactual Hybrid DeleGator accounts deployed through the SimpleFactory
type Factory struct {
	cfg *config.RuntimeConfig
	log *slog.Logger
}

// NewFactory creates a new account factory
func NewFactory(cfg *config.RuntimeConfig, log *slog.Logger) *Factory {
	return &Factory{
		cfg: cfg,
		log: log.With("component", "AccountFactory"),
	}
}

// NewAccount derives a new account for the owner with a random salt
func (f *Factory) NewAccount(ctx context.Context, owner common.Address, signer models.Signer) (*models.SmartAccount, error) {
	env, err := f.cfg.RequireEnvironment()
	if err != nil {
		return nil, err
	}

	salt, err := randomSalt()
	if err != nil {
		return nil, err
	}

	account, err := Derive(env, owner, salt)
	if err != nil {
		return nil, err
	}
	account.Signer = signer

	f.log.Debug("derived account", "owner", owner, "salt", salt, "address", account.Address)
	return account, nil
}

// Derive computes the counterfactual account for an owner and salt
func Derive(env *config.Environment, owner common.Address, salt common.Hash) (*models.SmartAccount, error) {
	initData, err := abi.DeleGator.Pack("initialize", owner, []string{}, []*big.Int{}, []*big.Int{})
	if err != nil {
		return nil, fmt.Errorf("failed to encode initializer: %w", err)
	}

	ctorArgs, err := abi.EncodeProxyConstructor(env.HybridDeleGator, initData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proxy constructor: %w", err)
	}

	bytecode := make([]byte, 0, len(env.ProxyCreationCode)+len(ctorArgs))
	bytecode = append(bytecode, env.ProxyCreationCode...)
	bytecode = append(bytecode, ctorArgs...)

	factoryData, err := abi.SimpleFactory.Pack("deploy", bytecode, [32]byte(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to encode factory call: %w", err)
	}

	return &models.SmartAccount{
		Address:        crypto.CreateAddress2(env.SimpleFactory, salt, crypto.Keccak256(bytecode)),
		Owner:          owner,
		Implementation: ImplementationHybrid,
		DeployParams: models.DeployParams{
			Owner:   owner,
			KeyIDs:  []string{},
			XValues: []string{},
			YValues: []string{},
		},
		DeploySalt:  salt,
		Factory:     env.SimpleFactory,
		FactoryData: factoryData,
		State:       domain.DeploymentStateCounterfactual,
	}, nil
}

func randomSalt() (common.Hash, error) {
	buf := make([]byte, saltSize)
	if _, err := rand.Read(buf); err != nil {
		return common.Hash{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	return common.BytesToHash(buf), nil
}

var _ usecase.AccountFactory = (*Factory)(nil)
