package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// DefaultCaveats restricts the delegate to zero-value calls to the zero address
func DefaultCaveats() []models.CaveatSpec {
	return []models.CaveatSpec{
		{Type: "allowedTargets", Params: []any{[]common.Address{{}}}},
		{Type: "valueLte", Params: []any{big.NewInt(0)}},
	}
}

// RunQuickstartParams contains parameters for the quickstart flow
type RunQuickstartParams struct {
	Signatory domain.SignatoryName
	// Caveats defaults to DefaultCaveats unless NoCaveats is set
	Caveats   []models.CaveatSpec
	NoCaveats bool
	// DeployDelegator deploys the delegator in its own operation before redeeming
	DeployDelegator bool
	Execution       *models.Execution
}

// RunQuickstartResult contains the result of the quickstart flow
type RunQuickstartResult struct {
	Session       SessionSnapshot
	DeployReceipt *models.UserOperationReceipt
	Receipt       *models.UserOperationReceipt
}

// RunQuickstart creates two accounts, delegates between them and redeems the delegation
type RunQuickstart struct {
	session  *Session
	progress ProgressSink
	log      *slog.Logger
}

// NewRunQuickstart creates a new RunQuickstart use case
func NewRunQuickstart(session *Session, progress ProgressSink, log *slog.Logger) *RunQuickstart {
	return &RunQuickstart{
		session:  session,
		progress: progress,
		log:      log,
	}
}

// Run executes the use case
func (uc *RunQuickstart) Run(ctx context.Context, params RunQuickstartParams) (*RunQuickstartResult, error) {
	result := &RunQuickstartResult{}

	if err := prepareDelegation(ctx, uc.session, uc.progress, params.Signatory, uc.caveats(params)); err != nil {
		return nil, err
	}

	if params.DeployDelegator {
		uc.progress.Info("Deploying delegator account...")
		receipt, err := uc.session.DeployDelegator(ctx)
		if err != nil {
			return nil, err
		}
		result.DeployReceipt = receipt
	}

	uc.progress.Info("Redeeming delegation as the delegate...")
	receipt, err := uc.session.Redeem(ctx, params.Execution)
	if err != nil {
		return nil, err
	}

	result.Receipt = receipt
	result.Session = uc.session.Snapshot()
	return result, nil
}

func (uc *RunQuickstart) caveats(params RunQuickstartParams) []models.CaveatSpec {
	switch {
	case params.NoCaveats:
		return nil
	case len(params.Caveats) > 0:
		return params.Caveats
	default:
		return DefaultCaveats()
	}
}

// prepareDelegation selects the signatory, creates both accounts and a signed delegation
func prepareDelegation(ctx context.Context, session *Session, progress ProgressSink, name domain.SignatoryName, caveats []models.CaveatSpec) error {
	if _, err := session.SelectSignatory(name); err != nil {
		return err
	}

	progress.Info("Creating delegate account...")
	delegate, err := session.CreateDelegate(ctx)
	if err != nil {
		return err
	}
	progress.Info(fmt.Sprintf("Delegate: %s (%s)", delegate.Address.Hex(), delegate.State))

	progress.Info(fmt.Sprintf("Creating delegator account with the %s signatory...", name))
	delegator, err := session.CreateDelegator(ctx)
	if err != nil {
		return err
	}
	progress.Info(fmt.Sprintf("Delegator: %s (%s)", delegator.Address.Hex(), delegator.State))

	progress.Info("Creating delegation...")
	if _, err := session.CreateDelegation(ctx, caveats); err != nil {
		return err
	}

	progress.Info("Signing delegation...")
	if _, err := session.SignDelegation(ctx); err != nil {
		return err
	}
	return nil
}

// ToggleStep is one step of the toggle flow
type ToggleStep struct {
	Action  string
	Receipt *models.UserOperationReceipt
	Status  *DelegationStatus
	Err     error
}

// RunToggleExampleResult contains the result of the toggle flow
type RunToggleExampleResult struct {
	Session SessionSnapshot
	Steps   []ToggleStep
}

// RunToggleExample disables and re-enables a delegation, showing that a second disable is rejected
type RunToggleExample struct {
	session  *Session
	progress ProgressSink
	log      *slog.Logger
}

// NewRunToggleExample creates a new RunToggleExample use case
func NewRunToggleExample(session *Session, progress ProgressSink, log *slog.Logger) *RunToggleExample {
	return &RunToggleExample{
		session:  session,
		progress: progress,
		log:      log,
	}
}

// Run executes the use case
func (uc *RunToggleExample) Run(ctx context.Context, signatory domain.SignatoryName) (*RunToggleExampleResult, error) {
	if err := prepareDelegation(ctx, uc.session, uc.progress, signatory, nil); err != nil {
		return nil, err
	}

	result := &RunToggleExampleResult{}

	status := func() error {
		s, err := uc.session.Status(ctx)
		if err != nil {
			return err
		}
		result.Steps = append(result.Steps, ToggleStep{Action: "status", Status: s})
		return nil
	}

	if err := status(); err != nil {
		return nil, err
	}

	uc.progress.Info("Disabling delegation...")
	receipt, err := uc.session.Disable(ctx)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, ToggleStep{Action: ActionDisable, Receipt: receipt})

	if err := status(); err != nil {
		return nil, err
	}

	uc.progress.Info("Disabling the delegation again, this should be rejected...")
	receipt, err = uc.session.Disable(ctx)
	var failure *domain.RedemptionFailure
	if err != nil && !errors.As(err, &failure) {
		return nil, err
	}
	result.Steps = append(result.Steps, ToggleStep{Action: ActionDisable, Receipt: receipt, Err: err})

	uc.progress.Info("Enabling delegation...")
	receipt, err = uc.session.Enable(ctx)
	if err != nil {
		return nil, err
	}
	result.Steps = append(result.Steps, ToggleStep{Action: ActionEnable, Receipt: receipt})

	if err := status(); err != nil {
		return nil, err
	}

	result.Session = uc.session.Snapshot()
	return result, nil
}
