package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out  io.Writer
	yaml bool
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer, asYAML bool) *ConfigRenderer {
	return &ConfigRenderer{
		out:  out,
		yaml: asYAML,
	}
}

// getRelativePath returns the relative path from current directory
func getRelativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}

	relPath, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}

	return relPath
}

type networkDoc struct {
	Name     string `yaml:"name"`
	ChainID  uint64 `yaml:"chain_id"`
	RPCURL   string `yaml:"rpc_url,omitempty"`
	Explorer string `yaml:"explorer_url,omitempty"`
}

type environmentDoc struct {
	EntryPoint        string            `yaml:"entry_point"`
	DelegationManager string            `yaml:"delegation_manager"`
	SimpleFactory     string            `yaml:"simple_factory"`
	HybridDeleGator   string            `yaml:"hybrid_delegator"`
	CaveatEnforcers   map[string]string `yaml:"caveat_enforcers,omitempty"`
}

type configDoc struct {
	Network           *networkDoc     `yaml:"network,omitempty"`
	Environment       *environmentDoc `yaml:"environment,omitempty"`
	Signatory         string          `yaml:"signatory"`
	BundlerURL        string          `yaml:"bundler_url,omitempty"`
	PaymasterURL      string          `yaml:"paymaster_url,omitempty"`
	PaymasterPolicyID string          `yaml:"paymaster_policy_id,omitempty"`
	AuthClientID      string          `yaml:"auth_client_id,omitempty"`
	AuthURL           string          `yaml:"auth_url,omitempty"`
	WalletURL         string          `yaml:"wallet_url,omitempty"`
	Timeout           string          `yaml:"timeout"`
	PollInterval      string          `yaml:"poll_interval"`
}

func configView(cfg *config.RuntimeConfig) configDoc {
	doc := configDoc{
		Signatory:         string(cfg.Signatory),
		BundlerURL:        cfg.BundlerURL,
		PaymasterURL:      cfg.PaymasterURL,
		PaymasterPolicyID: cfg.PaymasterPolicyID,
		AuthClientID:      cfg.AuthClientID,
		AuthURL:           cfg.AuthURL,
		WalletURL:         cfg.WalletURL,
		Timeout:           cfg.Timeout.String(),
		PollInterval:      cfg.PollInterval.String(),
	}
	if n := cfg.Network; n != nil {
		doc.Network = &networkDoc{Name: n.Name, ChainID: n.ChainID, RPCURL: n.RPCURL, Explorer: n.ExplorerURL}
	}
	if e := cfg.Environment; e != nil {
		doc.Environment = &environmentDoc{
			EntryPoint:        e.EntryPoint.Hex(),
			DelegationManager: e.DelegationManager.Hex(),
			SimpleFactory:     e.SimpleFactory.Hex(),
			HybridDeleGator:   e.HybridDeleGator.Hex(),
			CaveatEnforcers:   lo.MapValues(e.CaveatEnforcers, func(addr common.Address, _ string) string { return addr.Hex() }),
		}
	}
	return doc
}

// RenderConfig renders the configuration display
func (r *ConfigRenderer) RenderConfig(result *usecase.ShowConfigResult) error {
	if r.yaml {
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(configView(result.Config))
	}

	cfg := result.Config
	fmt.Fprintln(r.out, "📋 Current config:")

	if cfg.Network != nil {
		fmt.Fprintf(r.out, "Network:    %s (chain %d)\n", cfg.Network.Name, cfg.Network.ChainID)
		fmt.Fprintf(r.out, "RPC:        %s\n", orUnset(cfg.Network.RPCURL))
	} else {
		fmt.Fprintf(r.out, "Network:    %s\n", "(not set)")
	}
	fmt.Fprintf(r.out, "Bundler:    %s\n", orUnset(cfg.BundlerURL))
	if cfg.SponsorshipEnabled() {
		fmt.Fprintf(r.out, "Paymaster:  %s (policy %s)\n", orUnset(cfg.PaymasterURL), cfg.PaymasterPolicyID)
	} else {
		fmt.Fprintf(r.out, "Paymaster:  %s\n", "(sponsorship disabled)")
	}
	fmt.Fprintf(r.out, "Signatory:  %s\n", cfg.Signatory)

	fmt.Fprintln(r.out)
	for _, s := range result.Signatories {
		if s.Available() {
			fmt.Fprintf(r.out, "  ✅ %s\n", s.Name)
		} else {
			fmt.Fprintf(r.out, "  ⚠️  %s - %s\n", s.Name, s.Reason)
		}
	}

	if len(result.Missing) > 0 {
		fmt.Fprintln(r.out)
		for _, key := range result.Missing {
			fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("missing configuration: %s", key)))
		}
	}

	if result.Exists {
		fmt.Fprintf(r.out, "\n📁 config file: %s\n", getRelativePath(result.ConfigPath))
	} else {
		fmt.Fprintf(r.out, "\n📁 no %s found, using built-in networks and environment variables\n", filepath.Base(result.ConfigPath))
	}

	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
