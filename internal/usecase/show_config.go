package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
)

// gatorFileName mirrors the project file read by the config provider
const gatorFileName = "gator.toml"

// ShowConfigResult contains the result of showing configuration
type ShowConfigResult struct {
	Config      *config.RuntimeConfig
	ConfigPath  string
	Exists      bool
	Signatories []Signatory
	// Missing lists configuration keys that an operation would fail on
	Missing []string
}

// ShowConfig is a use case for showing configuration
type ShowConfig struct {
	cfg      *config.RuntimeConfig
	registry SignatoryRegistry
}

// NewShowConfig creates a new ShowConfig use case
func NewShowConfig(cfg *config.RuntimeConfig, registry SignatoryRegistry) *ShowConfig {
	return &ShowConfig{
		cfg:      cfg,
		registry: registry,
	}
}

// Run executes the show config use case
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	path := filepath.Join(uc.cfg.WorkDir, gatorFileName)
	_, err := os.Stat(path)

	result := &ShowConfigResult{
		Config:      uc.cfg,
		ConfigPath:  path,
		Exists:      err == nil,
		Signatories: uc.registry.List(),
	}

	if _, err := uc.cfg.RequireNetwork(); err != nil {
		result.Missing = append(result.Missing, configKey(err))
	}
	if _, err := uc.cfg.RequireBundlerURL(); err != nil {
		result.Missing = append(result.Missing, configKey(err))
	}
	if _, err := uc.cfg.RequireEnvironment(); err != nil {
		result.Missing = append(result.Missing, configKey(err))
	}

	return result, nil
}

// configKey extracts the key from a configuration error
func configKey(err error) string {
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.Key
	}
	return err.Error()
}
