package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	WorkDir string

	// Context settings
	Network     *Network     // nil if not resolvable
	Environment *Environment // contract addresses for Network.ChainID
	Signatory   domain.SignatoryName

	// Services
	BundlerURL        string
	PaymasterURL      string // defaults to BundlerURL
	PaymasterPolicyID string // sponsorship is skipped when empty
	AuthClientID      string
	AuthURL           string
	WalletURL         string

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration
	PollInterval   time.Duration
}

// Network represents network configuration
type Network struct {
	ChainID     uint64 `json:"chainId" toml:"chain_id"`
	Name        string `json:"name" toml:"name"`
	RPCURL      string `json:"rpcUrl" toml:"rpc_url"`
	ExplorerURL string `json:"explorerUrl,omitempty" toml:"explorer_url"`
}

// Environment holds the addresses of the delegation framework deployment on a chain
type Environment struct {
	EntryPoint        common.Address            `json:"entryPoint"`
	DelegationManager common.Address            `json:"delegationManager"`
	SimpleFactory     common.Address            `json:"simpleFactory"`
	HybridDeleGator   common.Address            `json:"hybridDeleGator"`
	ProxyCreationCode []byte                    `json:"-"`
	CaveatEnforcers   map[string]common.Address `json:"caveatEnforcers"`
}

// RequireNetwork returns the network or a configuration error when it is missing
func (c *RuntimeConfig) RequireNetwork() (*Network, error) {
	if c.Network == nil {
		return nil, &domain.ConfigurationError{Key: "network"}
	}
	if c.Network.RPCURL == "" {
		return nil, &domain.ConfigurationError{Key: "rpc_url"}
	}
	if c.Network.ChainID == 0 {
		return nil, &domain.ConfigurationError{Key: "chain_id"}
	}
	return c.Network, nil
}

// RequireEnvironment returns the delegation framework environment or a configuration error
func (c *RuntimeConfig) RequireEnvironment() (*Environment, error) {
	if c.Environment == nil {
		return nil, &domain.ConfigurationError{Key: "environment", Reason: "no delegation framework addresses configured for the network"}
	}
	if err := c.Environment.Validate(); err != nil {
		return nil, err
	}
	return c.Environment, nil
}

// Validate checks that every contract needed to create and redeem delegations is configured
func (e *Environment) Validate() error {
	checks := []struct {
		key  string
		addr common.Address
	}{
		{"environment.entry_point", e.EntryPoint},
		{"environment.delegation_manager", e.DelegationManager},
		{"environment.simple_factory", e.SimpleFactory},
		{"environment.hybrid_delegator", e.HybridDeleGator},
	}
	for _, check := range checks {
		if check.addr == (common.Address{}) {
			return &domain.ConfigurationError{Key: check.key}
		}
	}
	if len(e.ProxyCreationCode) == 0 {
		return &domain.ConfigurationError{Key: "environment.proxy_creation_code"}
	}
	return nil
}

// RequireBundlerURL returns the bundler endpoint or a configuration error
func (c *RuntimeConfig) RequireBundlerURL() (string, error) {
	if c.BundlerURL == "" {
		return "", &domain.ConfigurationError{Key: "bundler_url"}
	}
	return c.BundlerURL, nil
}

// SponsorshipEnabled reports whether user operations are sent to the paymaster
func (c *RuntimeConfig) SponsorshipEnabled() bool {
	return c.PaymasterPolicyID != ""
}
