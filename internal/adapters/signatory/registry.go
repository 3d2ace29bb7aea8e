package signatory

import (
	"fmt"
	"log/slog"

	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// Registry holds the signatories built from the runtime configuration
type Registry struct {
	signatories []usecase.Signatory
}

// NewRegistry creates the registry. Signatories whose configuration is missing are listed as unavailable.
func NewRegistry(cfg *config.RuntimeConfig, log *slog.Logger) *Registry {
	log = log.With("component", "signatory")

	injected := usecase.Signatory{Name: domain.SignatoryInjected}
	if cfg.WalletURL == "" {
		injected.Status = usecase.SignatoryUnavailable
		injected.Reason = "no wallet endpoint configured (GATOR_WALLET_URL)"
	} else {
		injected.Provider = NewInjected(cfg, log)
	}

	hosted := usecase.Signatory{Name: domain.SignatoryHosted}
	switch {
	case cfg.AuthClientID == "":
		hosted.Status = usecase.SignatoryUnavailable
		hosted.Reason = "no auth client id configured (GATOR_AUTH_CLIENT_ID)"
	case cfg.AuthURL == "":
		hosted.Status = usecase.SignatoryUnavailable
		hosted.Reason = "no auth endpoint configured (GATOR_AUTH_URL)"
	default:
		hosted.Provider = NewHosted(cfg, log)
	}

	return &Registry{
		signatories: []usecase.Signatory{
			{Name: domain.SignatoryBurner, Provider: NewBurner()},
			injected,
			hosted,
		},
	}
}

// List returns every signatory in display order
func (r *Registry) List() []usecase.Signatory {
	out := make([]usecase.Signatory, len(r.signatories))
	copy(out, r.signatories)
	return out
}

// Get returns the named signatory
func (r *Registry) Get(name domain.SignatoryName) (usecase.Signatory, error) {
	for _, s := range r.signatories {
		if s.Name == name {
			return s, nil
		}
	}
	return usecase.Signatory{}, fmt.Errorf("%w: %s", domain.ErrUnknownSignatory, name)
}

var _ usecase.SignatoryRegistry = (*Registry)(nil)
