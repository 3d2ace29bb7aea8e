package network

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	gatorconfig "github.com/gatorkit/gator-cli/internal/config"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// Resolver resolves networks and their delegation framework environments from
// the built-in networks and the project's gator.toml
type Resolver struct {
	cfg *config.RuntimeConfig
	log *slog.Logger

	once sync.Once
	file *gatorconfig.GatorFile
	err  error
}

// NewResolver creates a new network resolver
func NewResolver(cfg *config.RuntimeConfig, log *slog.Logger) *Resolver {
	return &Resolver{
		cfg: cfg,
		log: log.With("component", "network"),
	}
}

func (r *Resolver) gatorFile() (*gatorconfig.GatorFile, error) {
	r.once.Do(func() {
		r.file, r.err = gatorconfig.LoadGatorFile(r.cfg.WorkDir)
	})
	return r.file, r.err
}

// GetNetworks returns all network names
func (r *Resolver) GetNetworks(ctx context.Context) []string {
	file, err := r.gatorFile()
	if err != nil {
		r.log.Warn("failed to load network configuration", "error", err)
		file = &gatorconfig.GatorFile{}
	}
	return file.NetworkNames()
}

// ResolveNetwork resolves a network by name (case-insensitive) or chain ID
func (r *Resolver) ResolveNetwork(ctx context.Context, input string) (*config.Network, error) {
	if input == "" {
		return nil, &domain.ConfigurationError{Key: "network", Reason: "network not specified"}
	}

	file, err := r.gatorFile()
	if err != nil {
		return nil, err
	}

	if network, err := file.ResolveNetwork(input); err == nil {
		return network, nil
	}

	chainID, parseErr := strconv.ParseUint(input, 10, 64)
	for _, name := range file.NetworkNames() {
		if !strings.EqualFold(name, input) && parseErr != nil {
			continue
		}
		network, err := file.ResolveNetwork(name)
		if err != nil {
			continue
		}
		if strings.EqualFold(name, input) || network.ChainID == chainID {
			return network, nil
		}
	}

	return nil, &domain.ConfigurationError{Key: "network", Reason: fmt.Sprintf("network '%s' is not configured", input)}
}

// ResolveEnvironment returns the delegation framework environment configured for a chain
func (r *Resolver) ResolveEnvironment(ctx context.Context, chainID uint64) (*config.Environment, error) {
	file, err := r.gatorFile()
	if err != nil {
		return nil, err
	}
	return file.ResolveEnvironment(chainID)
}

var _ usecase.NetworkResolver = (*Resolver)(nil)
