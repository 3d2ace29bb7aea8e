package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// Receipt actions recorded by the session
const (
	ActionDeploy  = "deploy"
	ActionRedeem  = "redeem"
	ActionDisable = "disable"
	ActionEnable  = "enable"
)

// ReceiptRecord is a settled user operation together with the action that produced it
type ReceiptRecord struct {
	Action  string
	Receipt *models.UserOperationReceipt
}

// SessionSnapshot is a point-in-time copy of the session state
type SessionSnapshot struct {
	Signatory  Signatory
	Identity   *models.Identity
	Delegate   *models.SmartAccount
	Delegator  *models.SmartAccount
	Delegation *models.Delegation
	Receipts   []ReceiptRecord
	Stage      domain.OperationStage
	Busy       bool
}

// LoggedIn reports whether the selected signatory has produced an identity
func (s SessionSnapshot) LoggedIn() bool {
	return s.Identity != nil
}

// LastReceipt returns the most recent receipt for an action
func (s SessionSnapshot) LastReceipt(action string) *models.UserOperationReceipt {
	for i := len(s.Receipts) - 1; i >= 0; i-- {
		if s.Receipts[i].Action == action {
			return s.Receipts[i].Receipt
		}
	}
	return nil
}

// Session orchestrates the delegation lifecycle for one signatory at a time.
//
// Network calls run without holding the session lock on copies of the session
// state. Results are written back only if the session was not reset meanwhile,
// so switching signatory never leaks state from a previous strategy.
type Session struct {
	registry    SignatoryRegistry
	createAcct  *CreateAccount
	createDeleg *CreateDelegation
	signDeleg   *SignDelegation
	redeemDeleg *RedeemDelegation
	toggleDeleg *ToggleDelegation
	submitter   *OperationSubmitter
	log         *slog.Logger

	mu         sync.Mutex
	generation uint64
	signatory  Signatory
	identity   *models.Identity
	delegate   *models.SmartAccount
	delegator  *models.SmartAccount
	delegation *models.Delegation
	receipts   []ReceiptRecord
	stage      domain.OperationStage
}

// NewSession creates a new Session
func NewSession(
	registry SignatoryRegistry,
	createAccount *CreateAccount,
	createDelegation *CreateDelegation,
	signDelegation *SignDelegation,
	redeemDelegation *RedeemDelegation,
	toggleDelegation *ToggleDelegation,
	submitter *OperationSubmitter,
	log *slog.Logger,
) *Session {
	return &Session{
		registry:    registry,
		createAcct:  createAccount,
		createDeleg: createDelegation,
		signDeleg:   signDelegation,
		redeemDeleg: redeemDelegation,
		toggleDeleg: toggleDelegation,
		submitter:   submitter,
		log:         log,
		stage:       domain.StageIdle,
	}
}

// Signatories lists the known signatories
func (s *Session) Signatories() []Signatory {
	return s.registry.List()
}

// SelectSignatory switches the signing strategy and clears all state derived from the previous one
func (s *Session) SelectSignatory(name domain.SignatoryName) (Signatory, error) {
	signatory, err := s.registry.Get(name)
	if err != nil {
		return Signatory{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.signatory = signatory
	s.log.Debug("selected signatory", "signatory", name, "status", signatory.Status)
	return signatory, nil
}

// resetLocked clears identity, accounts, delegation and receipts
func (s *Session) resetLocked() {
	s.generation++
	s.identity = nil
	s.delegate = nil
	s.delegator = nil
	s.delegation = nil
	s.receipts = nil
}

// Login authenticates with the selected signatory
func (s *Session) Login(ctx context.Context) (*models.Identity, error) {
	s.mu.Lock()
	signatory, gen := s.signatory, s.generation
	s.mu.Unlock()

	identity, err := login(ctx, signatory)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, errStale
	}
	s.identity = identity
	return identity, nil
}

func login(ctx context.Context, signatory Signatory) (*models.Identity, error) {
	if signatory.Name == "" {
		return nil, fmt.Errorf("no signatory selected: %w", domain.ErrUnknownSignatory)
	}
	if !signatory.Available() {
		if signatory.Reason != "" {
			return nil, fmt.Errorf("%s: %s: %w", signatory.Name, signatory.Reason, domain.ErrSignatoryUnavailable)
		}
		return nil, fmt.Errorf("%s: %w", signatory.Name, domain.ErrSignatoryUnavailable)
	}

	identity, err := signatory.Provider.Login(ctx)
	if err != nil {
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &domain.AuthenticationError{Signatory: signatory.Name, Err: err}
	}
	return identity, nil
}

// CanLogout reports whether the current signatory session can be ended
func (s *Session) CanLogout() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity != nil && s.signatory.Available() && s.signatory.Provider.CanLogout()
}

// Logout ends the signatory session and drops the delegator state
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	signatory, identity := s.signatory, s.identity
	s.mu.Unlock()

	if identity == nil {
		return domain.ErrNotLoggedIn
	}
	if !signatory.Available() || !signatory.Provider.CanLogout() {
		return domain.ErrLogoutUnsupported
	}
	if err := signatory.Provider.Logout(ctx); err != nil {
		return fmt.Errorf("failed to log out of %s: %w", signatory.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.identity = nil
	s.delegator = nil
	s.delegation = nil
	s.receipts = nil
	return nil
}

// CreateDelegate creates the delegate account with a fresh burner key
func (s *Session) CreateDelegate(ctx context.Context) (*models.SmartAccount, error) {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	burner, err := s.registry.Get(domain.SignatoryBurner)
	if err != nil {
		return nil, err
	}
	identity, err := login(ctx, burner)
	if err != nil {
		return nil, err
	}
	account, err := s.createAcct.Run(ctx, CreateAccountParams{Identity: identity})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, errStale
	}
	s.delegate = account
	return cloneAccount(account), nil
}

// CreateDelegator creates the delegator account owned by the selected signatory,
// logging in first when needed. Any existing delegation is dropped.
func (s *Session) CreateDelegator(ctx context.Context) (*models.SmartAccount, error) {
	s.mu.Lock()
	identity := s.identity
	s.mu.Unlock()

	if identity == nil {
		var err error
		if identity, err = s.Login(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	account, err := s.createAcct.Run(ctx, CreateAccountParams{Identity: identity})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, errStale
	}
	s.delegator = account
	s.delegation = nil
	s.receipts = nil
	return cloneAccount(account), nil
}

// DeployDelegator deploys the delegator account with an empty call
func (s *Session) DeployDelegator(ctx context.Context) (*models.UserOperationReceipt, error) {
	s.mu.Lock()
	delegator, gen := cloneAccount(s.delegator), s.generation
	s.mu.Unlock()

	if delegator == nil {
		return nil, fmt.Errorf("delegator: %w", domain.ErrNoAccount)
	}
	if delegator.IsDeployed() {
		return nil, fmt.Errorf("delegator %s is already deployed", delegator.Address.Hex())
	}

	receipt, err := s.submitter.Submit(ctx, SubmitOperationParams{
		Account: delegator,
		Calls:   []models.Call{{To: common.Address{}, Value: big.NewInt(0), Data: []byte{}}},
		OnStage: s.stageTracker(gen),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.storeAccountsLocked(nil, delegator)
		s.recordLocked(ActionDeploy, receipt)
	}
	return receipt, err
}

// CreateDelegation creates an unsigned root delegation from the delegator to the delegate
func (s *Session) CreateDelegation(ctx context.Context, caveats []models.CaveatSpec) (*models.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delegate == nil {
		return nil, fmt.Errorf("delegate: %w", domain.ErrNoAccount)
	}
	if s.delegator == nil {
		return nil, fmt.Errorf("delegator: %w", domain.ErrNoAccount)
	}

	delegation, err := s.createDeleg.Run(ctx, CreateDelegationParams{
		Delegator: s.delegator,
		Delegate:  s.delegate.Address,
		Caveats:   caveats,
	})
	if err != nil {
		return nil, err
	}
	s.delegation = delegation
	return delegation, nil
}

// SignDelegation signs the current delegation with the delegator's signer
func (s *Session) SignDelegation(ctx context.Context) (*models.Delegation, error) {
	s.mu.Lock()
	delegator, delegation, gen := cloneAccount(s.delegator), s.delegation, s.generation
	s.mu.Unlock()

	if delegation == nil {
		return nil, domain.ErrNoDelegation
	}

	signed, err := s.signDeleg.Run(ctx, delegator, delegation)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.delegation != delegation {
		return nil, errStale
	}
	s.delegation = signed
	return signed, nil
}

// Redeem redeems the current delegation as the delegate account
func (s *Session) Redeem(ctx context.Context, execution *models.Execution) (*models.UserOperationReceipt, error) {
	s.mu.Lock()
	delegate, delegator := cloneAccount(s.delegate), cloneAccount(s.delegator)
	delegation, gen := s.delegation, s.generation
	s.mu.Unlock()

	if delegation == nil {
		return nil, domain.ErrNoDelegation
	}

	receipt, err := s.redeemDeleg.Run(ctx, RedeemDelegationParams{
		Redeemer:   delegate,
		Delegation: delegation,
		Delegator:  delegator,
		Execution:  execution,
		OnStage:    s.stageTracker(gen),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.storeAccountsLocked(delegate, delegator)
		s.recordLocked(ActionRedeem, receipt)
	}
	return receipt, err
}

// Disable disables the current delegation from the delegator account
func (s *Session) Disable(ctx context.Context) (*models.UserOperationReceipt, error) {
	return s.toggle(ctx, ActionDisable, s.toggleDeleg.Disable)
}

// Enable re-enables the current delegation from the delegator account
func (s *Session) Enable(ctx context.Context) (*models.UserOperationReceipt, error) {
	return s.toggle(ctx, ActionEnable, s.toggleDeleg.Enable)
}

func (s *Session) toggle(
	ctx context.Context,
	action string,
	run func(context.Context, ToggleDelegationParams) (*models.UserOperationReceipt, error),
) (*models.UserOperationReceipt, error) {
	s.mu.Lock()
	delegator, delegation, gen := cloneAccount(s.delegator), s.delegation, s.generation
	s.mu.Unlock()

	receipt, err := run(ctx, ToggleDelegationParams{
		Delegator:  delegator,
		Delegation: delegation,
		OnStage:    s.stageTracker(gen),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.storeAccountsLocked(nil, delegator)
		s.recordLocked(action, receipt)
	}
	return receipt, err
}

// Status reads the on-chain status of the current delegation
func (s *Session) Status(ctx context.Context) (*DelegationStatus, error) {
	s.mu.Lock()
	delegation := s.delegation
	s.mu.Unlock()

	return s.toggleDeleg.Status(ctx, delegation)
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := SessionSnapshot{
		Signatory:  s.signatory,
		Identity:   s.identity,
		Delegate:   cloneAccount(s.delegate),
		Delegator:  cloneAccount(s.delegator),
		Delegation: s.delegation,
		Receipts:   append([]ReceiptRecord(nil), s.receipts...),
		Stage:      s.stage,
	}
	for _, account := range []*models.SmartAccount{s.delegate, s.delegator} {
		if account != nil && s.submitter.Busy(account.Address) {
			snapshot.Busy = true
		}
	}
	return snapshot
}

func (s *Session) stageTracker(gen uint64) func(domain.OperationStage) {
	return func(stage domain.OperationStage) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen == s.generation {
			s.stage = stage
		}
	}
}

// storeAccountsLocked writes back deployment state from copies used during a submission
func (s *Session) storeAccountsLocked(delegate, delegator *models.SmartAccount) {
	if delegate != nil && s.delegate != nil && s.delegate.Address == delegate.Address {
		s.delegate.State = delegate.State
	}
	if delegator != nil && s.delegator != nil && s.delegator.Address == delegator.Address {
		s.delegator.State = delegator.State
	}
}

func (s *Session) recordLocked(action string, receipt *models.UserOperationReceipt) {
	if receipt != nil {
		s.receipts = append(s.receipts, ReceiptRecord{Action: action, Receipt: receipt})
	}
}

// errStale is returned when the session was reset while an action was running
var errStale = errors.New("session changed while the action was running")

func cloneAccount(account *models.SmartAccount) *models.SmartAccount {
	if account == nil {
		return nil
	}
	clone := *account
	return &clone
}
