package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// SessionRenderer renders accounts, delegations and receipts
type SessionRenderer struct {
	out     io.Writer
	network *config.Network
	json    bool
}

// NewSessionRenderer creates a new session renderer
func NewSessionRenderer(out io.Writer, network *config.Network, asJSON bool) *SessionRenderer {
	return &SessionRenderer{
		out:     out,
		network: network,
		json:    asJSON,
	}
}

// Render renders the quickstart result
func (r *SessionRenderer) Render(result *usecase.RunQuickstartResult) error {
	if r.json {
		return r.writeJSON(quickstartView(result))
	}

	r.RenderSnapshot(result.Session)
	if result.DeployReceipt != nil {
		r.RenderReceipt(usecase.ActionDeploy, result.DeployReceipt)
	}
	r.RenderReceipt(usecase.ActionRedeem, result.Receipt)
	return nil
}

// RenderToggle renders the toggle example steps
func (r *SessionRenderer) RenderToggle(result *usecase.RunToggleExampleResult) error {
	if r.json {
		return r.writeJSON(toggleView(result))
	}

	r.RenderSnapshot(result.Session)
	fmt.Fprintln(r.out, color.New(color.Bold).Sprint("Steps"))
	for i, step := range result.Steps {
		prefix := fmt.Sprintf("%d. %s", i+1, title(step.Action))
		switch {
		case step.Status != nil:
			fmt.Fprintf(r.out, "  %s: %s\n", prefix, StatusLabel(step.Status))
		case step.Err != nil:
			fmt.Fprintf(r.out, "  %s: %s\n", prefix, color.New(color.FgYellow).Sprintf("rejected (%v)", step.Err))
		case step.Receipt != nil:
			fmt.Fprintf(r.out, "  %s: %s\n", prefix, color.New(color.FgGreen).Sprint("settled"))
			r.receiptLinks(step.Receipt, "       ")
		}
	}
	return nil
}

// RenderSnapshot renders the accounts and delegation of a session
func (r *SessionRenderer) RenderSnapshot(snapshot usecase.SessionSnapshot) {
	if snapshot.Signatory.Name != "" {
		fmt.Fprintf(r.out, "%s %s\n\n", color.New(color.Bold).Sprint("Signatory:"), snapshot.Signatory.Name)
	}
	if snapshot.Delegate != nil {
		r.RenderAccount("Delegate account", snapshot.Delegate)
	}
	if snapshot.Delegator != nil {
		r.RenderAccount("Delegator account", snapshot.Delegator)
	}
	if snapshot.Delegation != nil {
		r.RenderDelegation(snapshot.Delegation)
	}
}

// RenderAccount renders a smart account
func (r *SessionRenderer) RenderAccount(label string, account *models.SmartAccount) {
	fmt.Fprintln(r.out, color.New(color.Bold).Sprint(label))

	rows := []table.Row{
		{"Address", account.Address.Hex()},
		{"Owner", account.Owner.Hex()},
		{"Implementation", account.Implementation},
		{"State", StateLabel(account.State)},
	}
	if link := AddressLink(r.network, account.Address); link != "" {
		rows = append(rows, table.Row{"Explorer", color.New(color.Faint).Sprint(link)})
	}
	fmt.Fprintln(r.out, keyValueTable(rows))
	fmt.Fprintln(r.out)
}

// RenderDelegation renders a delegation as YAML
func (r *SessionRenderer) RenderDelegation(delegation *models.Delegation) {
	fmt.Fprintln(r.out, color.New(color.Bold).Sprint("Delegation"))
	data, err := yaml.Marshal(delegationView(delegation))
	if err != nil {
		fmt.Fprintln(r.out, FormatError(err.Error()))
		return
	}
	fmt.Fprintln(r.out, indent(string(data), "  "))
}

// RenderReceipt renders a settled user operation
func (r *SessionRenderer) RenderReceipt(action string, receipt *models.UserOperationReceipt) {
	if receipt == nil {
		return
	}
	if receipt.Success {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s settled in block %d", title(action), receipt.BlockNumber)))
	} else {
		fmt.Fprintln(r.out, FormatError(fmt.Sprintf("%s reverted: %s", action, receipt.Reason)))
	}
	r.receiptLinks(receipt, "   ")
}

func (r *SessionRenderer) receiptLinks(receipt *models.UserOperationReceipt, prefix string) {
	fmt.Fprintf(r.out, "%sUser operation: %s\n", prefix, receipt.UserOpHash.Hex())
	fmt.Fprintf(r.out, "%sTransaction:    %s\n", prefix, receipt.TransactionHash.Hex())
	if link := UserOperationLink(r.network, receipt.UserOpHash); link != "" {
		fmt.Fprintf(r.out, "%s%s\n", prefix, color.New(color.Faint).Sprint(link))
	}
	if link := TransactionLink(r.network, receipt.TransactionHash); link != "" {
		fmt.Fprintf(r.out, "%s%s\n", prefix, color.New(color.Faint).Sprint(link))
	}
}

// StateLabel colors a deployment state
func StateLabel(state domain.DeploymentState) string {
	switch state {
	case domain.DeploymentStateDeployed:
		return color.New(color.FgGreen).Sprint(state)
	case domain.DeploymentStateDeploying:
		return color.New(color.FgYellow).Sprint(state)
	default:
		return color.New(color.FgCyan).Sprint(state)
	}
}

// StatusLabel colors a delegation status
func StatusLabel(status *usecase.DelegationStatus) string {
	if status.Disabled {
		return color.New(color.FgRed).Sprint("disabled")
	}
	return color.New(color.FgGreen).Sprint("enabled")
}

func (r *SessionRenderer) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(r.out, string(data))
	return nil
}

func keyValueTable(rows []table.Row) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateHeader = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box = table.BoxStyle{
		PaddingLeft:  "  ",
		PaddingRight: "  ",
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, Colors: text.Colors{text.Faint}},
		{Number: 2, Align: text.AlignLeft},
	})
	t.AppendRows(rows)
	return t.Render()
}

func indent(s, prefix string) string {
	lines := lo.Filter(strings.Split(s, "\n"), func(line string, _ int) bool { return line != "" })
	return prefix + strings.Join(lines, "\n"+prefix)
}

// Views used for JSON and YAML output

type caveatView struct {
	Type     string `json:"type" yaml:"type"`
	Enforcer string `json:"enforcer" yaml:"enforcer"`
	Terms    string `json:"terms" yaml:"terms"`
}

type delegationDoc struct {
	Delegate  string       `json:"delegate" yaml:"delegate"`
	Delegator string       `json:"delegator" yaml:"delegator"`
	Authority string       `json:"authority" yaml:"authority"`
	Caveats   []caveatView `json:"caveats" yaml:"caveats"`
	Salt      string       `json:"salt" yaml:"salt"`
	Signature string       `json:"signature,omitempty" yaml:"signature,omitempty"`
}

func delegationView(d *models.Delegation) *delegationDoc {
	if d == nil {
		return nil
	}
	view := &delegationDoc{
		Delegate:  d.Delegate.Hex(),
		Delegator: d.Delegator.Hex(),
		Authority: d.Authority.Hex(),
		Caveats: lo.Map(d.Caveats, func(c models.Caveat, _ int) caveatView {
			return caveatView{Type: c.Type, Enforcer: c.Enforcer.Hex(), Terms: hexutil.Encode(c.Terms)}
		}),
	}
	if d.Salt != nil {
		view.Salt = d.Salt.String()
	}
	if d.IsSigned() {
		view.Signature = hexutil.Encode(d.Signature)
	}
	return view
}

type accountDoc struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	State   string `json:"state"`
}

func accountView(a *models.SmartAccount) *accountDoc {
	if a == nil {
		return nil
	}
	return &accountDoc{Address: a.Address.Hex(), Owner: a.Owner.Hex(), State: string(a.State)}
}

type receiptDoc struct {
	Action          string `json:"action,omitempty"`
	UserOpHash      string `json:"userOpHash"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
	Success         bool   `json:"success"`
	Reason          string `json:"reason,omitempty"`
	Error           string `json:"error,omitempty"`
}

func receiptView(action string, r *models.UserOperationReceipt) *receiptDoc {
	if r == nil {
		return nil
	}
	return &receiptDoc{
		Action:          action,
		UserOpHash:      r.UserOpHash.Hex(),
		TransactionHash: r.TransactionHash.Hex(),
		BlockNumber:     r.BlockNumber,
		Success:         r.Success,
		Reason:          r.Reason,
	}
}

type sessionDoc struct {
	Signatory  string         `json:"signatory"`
	Delegate   *accountDoc    `json:"delegate,omitempty"`
	Delegator  *accountDoc    `json:"delegator,omitempty"`
	Delegation *delegationDoc `json:"delegation,omitempty"`
}

func sessionView(s usecase.SessionSnapshot) sessionDoc {
	return sessionDoc{
		Signatory:  string(s.Signatory.Name),
		Delegate:   accountView(s.Delegate),
		Delegator:  accountView(s.Delegator),
		Delegation: delegationView(s.Delegation),
	}
}

func quickstartView(result *usecase.RunQuickstartResult) interface{} {
	return struct {
		sessionDoc
		Deployment *receiptDoc `json:"deployment,omitempty"`
		Redemption *receiptDoc `json:"redemption"`
	}{
		sessionDoc: sessionView(result.Session),
		Deployment: receiptView(usecase.ActionDeploy, result.DeployReceipt),
		Redemption: receiptView(usecase.ActionRedeem, result.Receipt),
	}
}

type stepDoc struct {
	Action   string      `json:"action"`
	Disabled *bool       `json:"disabled,omitempty"`
	Receipt  *receiptDoc `json:"receipt,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func toggleView(result *usecase.RunToggleExampleResult) interface{} {
	return struct {
		sessionDoc
		Steps []stepDoc `json:"steps"`
	}{
		sessionDoc: sessionView(result.Session),
		Steps: lo.Map(result.Steps, func(step usecase.ToggleStep, _ int) stepDoc {
			doc := stepDoc{Action: step.Action, Receipt: receiptView("", step.Receipt)}
			if step.Status != nil {
				doc.Disabled = lo.ToPtr(step.Status.Disabled)
			}
			if step.Err != nil {
				doc.Error = step.Err.Error()
			}
			return doc
		}),
	}
}

var _ Renderer[*usecase.RunQuickstartResult] = (*SessionRenderer)(nil)
