package usecase

import (
	"context"

	"github.com/gatorkit/gator-cli/internal/domain/config"
)

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
	Current  string
}

// NetworkStatus represents a network and whether gator can run against it
type NetworkStatus struct {
	Name        string
	ChainID     uint64
	ExplorerURL string
	HasRPC      bool
	// Ready is set when the delegation framework environment is complete
	Ready bool
	Error error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	config   *config.RuntimeConfig
	resolver NetworkResolver
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(cfg *config.RuntimeConfig, resolver NetworkResolver) *ListNetworks {
	return &ListNetworks{
		config:   cfg,
		resolver: resolver,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context) (*ListNetworksResult, error) {
	names := uc.resolver.GetNetworks(ctx)

	result := &ListNetworksResult{
		Networks: make([]NetworkStatus, 0, len(names)),
	}
	if uc.config.Network != nil {
		result.Current = uc.config.Network.Name
	}

	for _, name := range names {
		status := NetworkStatus{Name: name}

		network, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
			result.Networks = append(result.Networks, status)
			continue
		}
		status.ChainID = network.ChainID
		status.ExplorerURL = network.ExplorerURL
		status.HasRPC = network.RPCURL != ""
		if name == result.Current && uc.config.Network.RPCURL != "" {
			status.HasRPC = true
		}

		env, err := uc.resolver.ResolveEnvironment(ctx, network.ChainID)
		if err == nil {
			err = env.Validate()
		}
		status.Ready = err == nil
		status.Error = err

		result.Networks = append(result.Networks, status)
	}

	return result, nil
}
