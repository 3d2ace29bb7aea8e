package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/gatorkit/gator-cli/internal/cli/render"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// consoleSession is the part of usecase.Session driven by the console
type consoleSession interface {
	Signatories() []usecase.Signatory
	SelectSignatory(name domain.SignatoryName) (usecase.Signatory, error)
	Login(ctx context.Context) (*models.Identity, error)
	CanLogout() bool
	Logout(ctx context.Context) error
	CreateDelegate(ctx context.Context) (*models.SmartAccount, error)
	CreateDelegator(ctx context.Context) (*models.SmartAccount, error)
	DeployDelegator(ctx context.Context) (*models.UserOperationReceipt, error)
	CreateDelegation(ctx context.Context, caveats []models.CaveatSpec) (*models.Delegation, error)
	SignDelegation(ctx context.Context) (*models.Delegation, error)
	Redeem(ctx context.Context, execution *models.Execution) (*models.UserOperationReceipt, error)
	Disable(ctx context.Context) (*models.UserOperationReceipt, error)
	Enable(ctx context.Context) (*models.UserOperationReceipt, error)
	Status(ctx context.Context) (*usecase.DelegationStatus, error)
	Snapshot() usecase.SessionSnapshot
}

var _ consoleSession = (*usecase.Session)(nil)

type consoleAction int

const (
	actionSwitchSignatory consoleAction = iota
	actionLogin
	actionLogout
	actionCreateDelegate
	actionCreateDelegator
	actionDeployDelegator
	actionCreateDelegation
	actionSignDelegation
	actionRedeem
	actionDisable
	actionEnable
	actionStatus
)

var consoleActions = []consoleAction{
	actionSwitchSignatory,
	actionLogin,
	actionLogout,
	actionCreateDelegate,
	actionCreateDelegator,
	actionDeployDelegator,
	actionCreateDelegation,
	actionSignDelegation,
	actionRedeem,
	actionDisable,
	actionEnable,
	actionStatus,
}

func (a consoleAction) String() string {
	switch a {
	case actionSwitchSignatory:
		return "Switch signatory"
	case actionLogin:
		return "Log in"
	case actionLogout:
		return "Log out"
	case actionCreateDelegate:
		return "Create delegate account"
	case actionCreateDelegator:
		return "Create delegator account"
	case actionDeployDelegator:
		return "Deploy delegator account"
	case actionCreateDelegation:
		return "Create delegation"
	case actionSignDelegation:
		return "Sign delegation"
	case actionRedeem:
		return "Redeem delegation"
	case actionDisable:
		return "Disable delegation"
	case actionEnable:
		return "Enable delegation"
	case actionStatus:
		return "Check delegation status"
	default:
		return "unknown"
	}
}

// actionEnabled reports whether an action makes sense for the session state
func actionEnabled(action consoleAction, s usecase.SessionSnapshot, canLogout bool) bool {
	if s.Busy {
		return false
	}
	signed := s.Delegation != nil && s.Delegation.IsSigned()
	switch action {
	case actionSwitchSignatory, actionCreateDelegate:
		return true
	case actionLogin:
		return s.Signatory.Available() && !s.LoggedIn()
	case actionLogout:
		return s.LoggedIn() && canLogout
	case actionCreateDelegator:
		return s.Signatory.Available()
	case actionDeployDelegator:
		return s.Delegator != nil && s.Delegator.State == domain.DeploymentStateCounterfactual
	case actionCreateDelegation:
		return s.Delegate != nil && s.Delegator != nil
	case actionSignDelegation:
		return s.Delegation != nil && !signed
	case actionRedeem, actionDisable, actionEnable, actionStatus:
		return signed
	}
	return false
}

// actionDoneMsg reports the outcome of an action run as a tea.Cmd
type actionDoneMsg struct {
	action  consoleAction
	message string
	err     error
}

type consoleModel struct {
	ctx     context.Context
	session consoleSession
	network *config.Network

	cursor   int
	running  bool
	snapshot usecase.SessionSnapshot
	message  string
	err      error
	quitting bool
}

func newConsoleModel(ctx context.Context, session consoleSession, network *config.Network) consoleModel {
	return consoleModel{
		ctx:      ctx,
		session:  session,
		network:  network,
		snapshot: session.Snapshot(),
	}
}

// Init is the initial command for bubbletea
func (m consoleModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(consoleActions)-1 {
				m.cursor++
			}
		case "enter", " ":
			action := consoleActions[m.cursor]
			if m.running || !actionEnabled(action, m.snapshot, m.session.CanLogout()) {
				return m, nil
			}
			if action == actionSwitchSignatory {
				m.message, m.err = m.switchSignatory()
				m.snapshot = m.session.Snapshot()
				return m, nil
			}
			m.running = true
			m.message, m.err = fmt.Sprintf("%s...", action), nil
			return m, m.run(action)
		}
	case actionDoneMsg:
		m.running = false
		m.message, m.err = msg.message, msg.err
		m.snapshot = m.session.Snapshot()
	}
	return m, nil
}

// switchSignatory cycles to the next signatory, resetting the session
func (m consoleModel) switchSignatory() (string, error) {
	names := lo.Map(m.session.Signatories(), func(s usecase.Signatory, _ int) domain.SignatoryName { return s.Name })
	if len(names) == 0 {
		return "", domain.ErrUnknownSignatory
	}
	next := names[0]
	if i := lo.IndexOf(names, m.snapshot.Signatory.Name); i >= 0 {
		next = names[(i+1)%len(names)]
	}
	signatory, err := m.session.SelectSignatory(next)
	if err != nil {
		return "", err
	}
	if !signatory.Available() {
		return fmt.Sprintf("Selected %s (unavailable: %s)", next, signatory.Reason), nil
	}
	return fmt.Sprintf("Selected %s", next), nil
}

func (m consoleModel) run(action consoleAction) tea.Cmd {
	ctx, session, network := m.ctx, m.session, m.network
	return func() tea.Msg {
		message, err := runConsoleAction(ctx, session, network, action)
		return actionDoneMsg{action: action, message: message, err: err}
	}
}

func runConsoleAction(ctx context.Context, session consoleSession, network *config.Network, action consoleAction) (string, error) {
	receiptMessage := func(verb string, receipt *models.UserOperationReceipt, err error) (string, error) {
		if err != nil {
			return "", err
		}
		msg := fmt.Sprintf("%s in %s", verb, receipt.TransactionHash.Hex())
		if link := render.UserOperationLink(network, receipt.UserOpHash); link != "" {
			msg += "\n" + link
		}
		return msg, nil
	}

	switch action {
	case actionLogin:
		identity, err := session.Login(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Logged in as %s", identity.Owner.Hex()), nil
	case actionLogout:
		if err := session.Logout(ctx); err != nil {
			return "", err
		}
		return "Logged out", nil
	case actionCreateDelegate:
		account, err := session.CreateDelegate(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Delegate account %s", account.Address.Hex()), nil
	case actionCreateDelegator:
		account, err := session.CreateDelegator(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Delegator account %s", account.Address.Hex()), nil
	case actionDeployDelegator:
		receipt, err := session.DeployDelegator(ctx)
		return receiptMessage("Delegator deployed", receipt, err)
	case actionCreateDelegation:
		if _, err := session.CreateDelegation(ctx, usecase.DefaultCaveats()); err != nil {
			return "", err
		}
		return "Delegation created", nil
	case actionSignDelegation:
		if _, err := session.SignDelegation(ctx); err != nil {
			return "", err
		}
		return "Delegation signed", nil
	case actionRedeem:
		receipt, err := session.Redeem(ctx, nil)
		return receiptMessage("Delegation redeemed", receipt, err)
	case actionDisable:
		receipt, err := session.Disable(ctx)
		return receiptMessage("Delegation disabled", receipt, err)
	case actionEnable:
		receipt, err := session.Enable(ctx)
		return receiptMessage("Delegation enabled", receipt, err)
	case actionStatus:
		status, err := session.Status(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Delegation %s is %s", render.ShortHash(status.Hash), render.StatusLabel(status)), nil
	}
	return "", fmt.Errorf("unsupported action %s", action)
}

// View renders the UI
func (m consoleModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	b.WriteString(color.New(color.FgCyan, color.Bold).Sprint("gator console\n\n"))

	s := m.snapshot
	signatory := string(s.Signatory.Name)
	if signatory == "" {
		signatory = faint.Sprint("none selected")
	} else if !s.Signatory.Available() {
		signatory += faint.Sprintf(" (unavailable: %s)", s.Signatory.Reason)
	}
	fmt.Fprintf(&b, "%s %s\n", bold.Sprint("Signatory: "), signatory)
	if s.Identity != nil {
		fmt.Fprintf(&b, "%s %s\n", bold.Sprint("Owner:     "), s.Identity.Owner.Hex())
	}
	fmt.Fprintf(&b, "%s %s\n", bold.Sprint("Delegate:  "), accountLine(s.Delegate))
	fmt.Fprintf(&b, "%s %s\n", bold.Sprint("Delegator: "), accountLine(s.Delegator))
	fmt.Fprintf(&b, "%s %s\n", bold.Sprint("Delegation:"), delegationLine(s.Delegation))
	if s.Stage != "" && s.Stage != domain.StageIdle {
		fmt.Fprintf(&b, "%s %s\n", bold.Sprint("Operation: "), color.New(color.FgYellow).Sprint(s.Stage))
	}
	b.WriteString("\n")

	canLogout := m.session.CanLogout()
	for i, action := range consoleActions {
		cursor := " "
		if m.cursor == i {
			cursor = color.New(color.FgCyan).Sprint("▸")
		}
		label := action.String()
		if m.running || !actionEnabled(action, s, canLogout) {
			label = faint.Sprint(label)
		}
		fmt.Fprintf(&b, "%s %s\n", cursor, label)
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(render.FormatError(m.err.Error()) + "\n")
	case m.message != "":
		b.WriteString(m.message + "\n")
	}

	b.WriteString(color.New(color.FgYellow).Sprint("\n↑/↓: move  Enter: run  q: quit\n"))
	return b.String()
}

func accountLine(account *models.SmartAccount) string {
	if account == nil {
		return color.New(color.Faint).Sprint("not created")
	}
	return fmt.Sprintf("%s %s", account.Address.Hex(), render.StateLabel(account.State))
}

func delegationLine(delegation *models.Delegation) string {
	if delegation == nil {
		return color.New(color.Faint).Sprint("not created")
	}

	route := fmt.Sprintf("%s → %s", render.ShortAddress(delegation.Delegator), render.ShortAddress(delegation.Delegate))
	if delegation.IsSigned() {
		return fmt.Sprintf("%s %s", route, color.New(color.FgGreen).Sprintf("signed, %d caveats", len(delegation.Caveats)))
	}
	return fmt.Sprintf("%s %s", route, color.New(color.FgYellow).Sprintf("unsigned, %d caveats", len(delegation.Caveats)))
}

// NewConsoleCmd creates the interactive console command
func NewConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Walk through the delegation lifecycle step by step",
		Long: `Open an interactive console holding one session: pick a signatory,
create the accounts, create and sign a delegation, then redeem,
disable or enable it. Actions that don't apply to the current state
are greyed out and nothing else can run while an operation is in flight.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if app.Config.NonInteractive {
				return fmt.Errorf("console requires an interactive terminal")
			}

			if _, err := app.Session.SelectSignatory(app.Config.Signatory); err != nil {
				return err
			}

			model := newConsoleModel(cmd.Context(), app.Session, app.Config.Network)
			if _, err := tea.NewProgram(model).Run(); err != nil {
				return fmt.Errorf("console failed: %w", err)
			}
			return nil
		},
	}
}
