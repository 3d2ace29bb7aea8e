package app

import (
	"github.com/gatorkit/gator-cli/internal/adapters/bundler"
	"github.com/gatorkit/gator-cli/internal/adapters/paymaster"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	Selector usecase.SignatorySelector
	Progress usecase.ProgressSink

	// Session holds the interactive delegation lifecycle state
	Session *usecase.Session

	// Use cases
	RunQuickstart      *usecase.RunQuickstart
	RunToggleExample   *usecase.RunToggleExample
	ListSignatories    *usecase.ListSignatories
	ShowConfig         *usecase.ShowConfig
	ListNetworks       *usecase.ListNetworks
	ToggleDelegation   *usecase.ToggleDelegation
	OperationSubmitter *usecase.OperationSubmitter

	closers []func()
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	selector usecase.SignatorySelector,
	progress usecase.ProgressSink,
	session *usecase.Session,
	runQuickstart *usecase.RunQuickstart,
	runToggleExample *usecase.RunToggleExample,
	listSignatories *usecase.ListSignatories,
	showConfig *usecase.ShowConfig,
	listNetworks *usecase.ListNetworks,
	toggleDelegation *usecase.ToggleDelegation,
	submitter *usecase.OperationSubmitter,
	bundlerClient *bundler.Client,
	paymasterClient *paymaster.Client,
) (*App, error) {
	return &App{
		Config:             cfg,
		Selector:           selector,
		Progress:           progress,
		Session:            session,
		RunQuickstart:      runQuickstart,
		RunToggleExample:   runToggleExample,
		ListSignatories:    listSignatories,
		ShowConfig:         showConfig,
		ListNetworks:       listNetworks,
		ToggleDelegation:   toggleDelegation,
		OperationSubmitter: submitter,
		closers:            []func(){bundlerClient.Close, paymasterClient.Close},
	}, nil
}

// Close releases the RPC connections held by the app
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
}
