package network

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGatorFile = `
[networks.local]
chain_id = 31337
rpc_url = "http://localhost:8545"

[environments.31337]
delegation_manager = "0x1111111111111111111111111111111111111111"
`

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gator.toml"), []byte(testGatorFile), 0644))
	return NewResolver(&config.RuntimeConfig{WorkDir: dir}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	resolver := testResolver(t)

	t.Run("lists built-in and configured networks", func(t *testing.T) {
		names := resolver.GetNetworks(ctx)
		assert.Contains(t, names, "local")
		assert.Contains(t, names, "sepolia")
		assert.IsIncreasing(t, names)
	})

	tests := []struct {
		name    string
		input   string
		chainID uint64
	}{
		{"by name", "local", 31337},
		{"case insensitive", "Sepolia", 11155111},
		{"by chain id", "84532", 84532},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network, err := resolver.ResolveNetwork(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.chainID, network.ChainID)
		})
	}

	t.Run("unknown network", func(t *testing.T) {
		_, err := resolver.ResolveNetwork(ctx, "nowhere")
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "network", cfgErr.Key)
	})

	t.Run("environment from gator.toml", func(t *testing.T) {
		env, err := resolver.ResolveEnvironment(ctx, 31337)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), env.DelegationManager)

		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, env.Validate(), &cfgErr)
		assert.Equal(t, "environment.simple_factory", cfgErr.Key)
	})
}
