package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envAliases lets gator reuse the .env files of the example dapp
var envAliases = map[string][]string{
	"rpc_url":             {"GATOR_RPC_URL", "NEXT_PUBLIC_RPC_URL"},
	"bundler_url":         {"GATOR_BUNDLER_URL", "NEXT_PUBLIC_BUNDLER_URL"},
	"paymaster_policy_id": {"GATOR_PAYMASTER_POLICY_ID", "NEXT_PUBLIC_PAYMASTER_POLICY_ID"},
	"auth_client_id":      {"GATOR_AUTH_CLIENT_ID", "NEXT_PUBLIC_WEB3AUTH_CLIENT_ID"},
}

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	workDir := v.GetString("work_dir")
	if workDir == "" {
		var err error
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
	}

	cfg := &config.RuntimeConfig{
		WorkDir:           workDir,
		BundlerURL:        v.GetString("bundler_url"),
		PaymasterURL:      v.GetString("paymaster_url"),
		PaymasterPolicyID: v.GetString("paymaster_policy_id"),
		AuthClientID:      v.GetString("auth_client_id"),
		AuthURL:           v.GetString("auth_url"),
		WalletURL:         v.GetString("wallet_url"),
		Debug:             v.GetBool("debug"),
		NonInteractive:    v.GetBool("non_interactive"),
		JSON:              v.GetBool("json"),
		Timeout:           v.GetDuration("timeout"),
		PollInterval:      v.GetDuration("poll_interval"),
	}

	if cfg.PaymasterURL == "" {
		cfg.PaymasterURL = cfg.BundlerURL
	}

	signatory, err := domain.ParseSignatoryName(v.GetString("signatory"))
	if err != nil {
		return nil, fmt.Errorf("invalid signatory %q: %w", v.GetString("signatory"), err)
	}
	cfg.Signatory = signatory

	gatorFile, err := LoadGatorFile(workDir)
	if err != nil {
		return nil, err
	}

	// Resolve network if specified
	if networkName := v.GetString("network"); networkName != "" {
		network, err := gatorFile.ResolveNetwork(networkName)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve network %s: %w", networkName, err)
		}
		if rpcURL := v.GetString("rpc_url"); rpcURL != "" {
			network.RPCURL = rpcURL
		}
		cfg.Network = network

		env, err := gatorFile.ResolveEnvironment(network.ChainID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve environment for chain %d: %w", network.ChainID, err)
		}
		cfg.Environment = env
	}

	return cfg, nil
}

// LoadDotEnv loads .env files from the working directory without overriding the process environment
func LoadDotEnv(workDir string) {
	envFiles := []string{
		filepath.Join(workDir, ".env"),
		filepath.Join(workDir, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(workDir string) *viper.Viper {
	LoadDotEnv(workDir)

	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("GATOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	for key, names := range envAliases {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	// Set defaults
	v.SetDefault("work_dir", workDir)
	v.SetDefault("network", "sepolia")
	v.SetDefault("signatory", string(domain.SignatoryBurner))
	v.SetDefault("timeout", "5m")
	v.SetDefault("poll_interval", "2s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("json", false)

	return v
}
