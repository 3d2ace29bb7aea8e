package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/samber/lo"
)

// GatorFileName is the optional project configuration file
const GatorFileName = "gator.toml"

// EntryPointV07 is the canonical ERC-4337 v0.7 EntryPoint address
var EntryPointV07 = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")

// GatorFile represents the raw gator.toml structure
type GatorFile struct {
	Networks     map[string]config.Network    `toml:"networks"`
	Environments map[string]EnvironmentConfig `toml:"environments"`
}

// EnvironmentConfig represents an [environments.<chainId>] section in gator.toml
type EnvironmentConfig struct {
	EntryPoint        string            `toml:"entry_point"`
	DelegationManager string            `toml:"delegation_manager"`
	SimpleFactory     string            `toml:"simple_factory"`
	HybridDeleGator   string            `toml:"hybrid_delegator"`
	ProxyCreationCode string            `toml:"proxy_creation_code"`
	CaveatEnforcers   map[string]string `toml:"caveat_enforcers"`
}

// builtinNetworks are available without a gator.toml
var builtinNetworks = map[string]config.Network{
	"sepolia": {
		ChainID:     11155111,
		Name:        "sepolia",
		ExplorerURL: "https://sepolia.etherscan.io",
	},
	"mainnet": {
		ChainID:     1,
		Name:        "mainnet",
		ExplorerURL: "https://etherscan.io",
	},
	"base-sepolia": {
		ChainID:     84532,
		Name:        "base-sepolia",
		ExplorerURL: "https://sepolia.basescan.org",
	},
	"linea-sepolia": {
		ChainID:     59141,
		Name:        "linea-sepolia",
		ExplorerURL: "https://sepolia.lineascan.build",
	},
}

// LoadGatorFile loads gator.toml from the working directory.
// Returns an empty file if gator.toml doesn't exist.
func LoadGatorFile(workDir string) (*GatorFile, error) {
	path := filepath.Join(workDir, GatorFileName)

	file := &GatorFile{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return file, nil
	}

	if _, err := toml.DecodeFile(path, file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", GatorFileName, err)
	}

	for name, network := range file.Networks {
		network.RPCURL = os.ExpandEnv(network.RPCURL)
		network.ExplorerURL = os.ExpandEnv(network.ExplorerURL)
		if network.Name == "" {
			network.Name = name
		}
		file.Networks[name] = network
	}

	return file, nil
}

// NetworkNames returns the built-in and configured network names, sorted
func (f *GatorFile) NetworkNames() []string {
	names := lo.Uniq(append(lo.Keys(builtinNetworks), lo.Keys(f.Networks)...))
	sort.Strings(names)
	return names
}

// ResolveNetwork resolves a network by name from gator.toml, falling back to built-in networks
func (f *GatorFile) ResolveNetwork(name string) (*config.Network, error) {
	if network, ok := f.Networks[name]; ok {
		if builtin, ok := builtinNetworks[name]; ok {
			if network.ChainID == 0 {
				network.ChainID = builtin.ChainID
			}
			if network.ExplorerURL == "" {
				network.ExplorerURL = builtin.ExplorerURL
			}
		}
		return &network, nil
	}

	if builtin, ok := builtinNetworks[name]; ok {
		return &builtin, nil
	}

	return nil, &domain.ConfigurationError{Key: "network", Reason: fmt.Sprintf("network '%s' is not configured", name)}
}

// ResolveEnvironment builds the delegation framework environment for a chain
func (f *GatorFile) ResolveEnvironment(chainID uint64) (*config.Environment, error) {
	env := &config.Environment{
		EntryPoint:      EntryPointV07,
		CaveatEnforcers: make(map[string]common.Address),
	}

	raw, ok := f.Environments[strconv.FormatUint(chainID, 10)]
	if !ok {
		return env, nil
	}

	var err error
	if env.EntryPoint, err = parseOptionalAddress("entry_point", raw.EntryPoint, EntryPointV07); err != nil {
		return nil, err
	}
	if env.DelegationManager, err = parseOptionalAddress("delegation_manager", raw.DelegationManager, common.Address{}); err != nil {
		return nil, err
	}
	if env.SimpleFactory, err = parseOptionalAddress("simple_factory", raw.SimpleFactory, common.Address{}); err != nil {
		return nil, err
	}
	if env.HybridDeleGator, err = parseOptionalAddress("hybrid_delegator", raw.HybridDeleGator, common.Address{}); err != nil {
		return nil, err
	}

	if code := os.ExpandEnv(raw.ProxyCreationCode); code != "" {
		env.ProxyCreationCode, err = hexutil.Decode(code)
		if err != nil {
			return nil, &domain.ConfigurationError{Key: "environment.proxy_creation_code", Reason: err.Error()}
		}
	}

	for caveat, addr := range raw.CaveatEnforcers {
		enforcer, err := parseOptionalAddress("caveat_enforcers."+caveat, addr, common.Address{})
		if err != nil {
			return nil, err
		}
		env.CaveatEnforcers[caveat] = enforcer
	}

	return env, nil
}

func parseOptionalAddress(key, raw string, fallback common.Address) (common.Address, error) {
	raw = os.ExpandEnv(raw)
	if raw == "" {
		return fallback, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, &domain.ConfigurationError{Key: "environment." + key, Reason: fmt.Sprintf("invalid address %q", raw)}
	}
	return common.HexToAddress(raw), nil
}
