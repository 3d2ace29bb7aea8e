//go:build wireinject
// +build wireinject

package app

import (
	"github.com/gatorkit/gator-cli/internal/adapters"
	"github.com/gatorkit/gator-cli/internal/config"
	"github.com/gatorkit/gator-cli/internal/logging"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/google/wire"
	"github.com/spf13/viper"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewCreateAccount,
		usecase.NewCreateDelegation,
		usecase.NewSignDelegation,
		usecase.NewOperationSubmitter,
		usecase.NewRedeemDelegation,
		usecase.NewToggleDelegation,
		usecase.NewSession,
		usecase.NewRunQuickstart,
		usecase.NewRunToggleExample,
		usecase.NewListSignatories,
		usecase.NewShowConfig,
		usecase.NewListNetworks,

		// App
		NewApp,
	)
	return nil, nil
}
