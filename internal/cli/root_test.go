package cli

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkipsAppInit(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"version", true},
		{"help", true},
		{"completion", true},
		{"examples", true},
		{"quickstart", false},
		{"signers", false},
		{"console", false},
		{"config", false},
		{"networks", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, skipsAppInit(tt.name))
		})
	}
}

func TestBindGlobalFlags(t *testing.T) {
	root := NewRootCmd()
	login, _, err := root.Find([]string{"signers", "login"})
	require.NoError(t, err)
	require.NoError(t, login.ParseFlags([]string{"--non-interactive", "-n", "local", "--deploy"}))

	v := viper.New()
	bindGlobalFlags(v, login)

	assert.True(t, v.GetBool("non_interactive"))
	assert.Equal(t, "local", v.GetString("network"))
	assert.False(t, v.IsSet("signatory"))
	assert.False(t, v.IsSet("deploy"))
}

func TestExecutionFlagsParse(t *testing.T) {
	t.Run("no flags means default execution", func(t *testing.T) {
		execution, err := (&executionFlags{}).parse()
		require.NoError(t, err)
		assert.Nil(t, execution)
	})

	t.Run("all flags", func(t *testing.T) {
		flags := &executionFlags{
			target: "0x1111111111111111111111111111111111111111",
			value:  "1000",
			data:   "0xdeadbeef",
		}
		execution, err := flags.parse()
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), execution.Target)
		assert.Equal(t, big.NewInt(1000), execution.Value)
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, execution.CallData)
	})

	t.Run("target only keeps zero value and empty data", func(t *testing.T) {
		execution, err := (&executionFlags{target: "0x2222222222222222222222222222222222222222"}).parse()
		require.NoError(t, err)
		assert.Equal(t, 0, execution.Value.Sign())
		assert.Empty(t, execution.CallData)
	})

	errorCases := []struct {
		name  string
		flags executionFlags
	}{
		{"bad target", executionFlags{target: "0x1234"}},
		{"negative value", executionFlags{value: "-1"}},
		{"non numeric value", executionFlags{value: "ten"}},
		{"bad data", executionFlags{data: "deadbeef"}},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.flags.parse()
			assert.Error(t, err)
		})
	}
}

func TestParseCaveats(t *testing.T) {
	specs, err := parseCaveats([]string{
		"allowedTargets=0x1111111111111111111111111111111111111111",
		"allowedMethods=transfer(address,uint256),0xa9059cbb",
		"limitedCalls=3",
	})
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "allowedTargets", specs[0].Type)
	assert.Equal(t, []any{"transfer(address,uint256)", "0xa9059cbb"}, specs[1].Params)
	assert.Equal(t, []any{"3"}, specs[2].Params)

	_, err = parseCaveats([]string{"bogus=1"})
	assert.ErrorIs(t, err, domain.ErrUnknownCaveat)
}

type stubProvider struct{}

func (stubProvider) Login(context.Context) (*models.Identity, error) { return nil, nil }
func (stubProvider) CanLogout() bool                                 { return false }
func (stubProvider) Logout(context.Context) error                    { return nil }

func TestActionEnabled(t *testing.T) {
	active := usecase.Signatory{Name: domain.SignatoryBurner, Status: usecase.SignatoryActive, Provider: stubProvider{}}
	unavailable := usecase.Signatory{Name: domain.SignatoryHosted, Status: usecase.SignatoryUnavailable, Reason: "no auth client id"}
	counterfactual := &models.SmartAccount{State: domain.DeploymentStateCounterfactual}
	deployed := &models.SmartAccount{State: domain.DeploymentStateDeployed}
	unsigned := &models.Delegation{}
	signed := &models.Delegation{Signature: append(bytes.Repeat([]byte{0xab}, 64), 0x1b)}
	placeholder := &models.Delegation{Signature: models.EmptySignature}
	identity := &models.Identity{Signatory: domain.SignatoryBurner}

	tests := []struct {
		name      string
		action    consoleAction
		snapshot  usecase.SessionSnapshot
		canLogout bool
		expected  bool
	}{
		{"switch is always allowed", actionSwitchSignatory, usecase.SessionSnapshot{}, false, true},
		{"nothing runs while busy", actionSwitchSignatory, usecase.SessionSnapshot{Busy: true}, false, false},
		{"login with available signatory", actionLogin, usecase.SessionSnapshot{Signatory: active}, false, true},
		{"login with unavailable signatory", actionLogin, usecase.SessionSnapshot{Signatory: unavailable}, false, false},
		{"login twice", actionLogin, usecase.SessionSnapshot{Signatory: active, Identity: identity}, false, false},
		{"logout unsupported", actionLogout, usecase.SessionSnapshot{Signatory: active, Identity: identity}, false, false},
		{"logout supported", actionLogout, usecase.SessionSnapshot{Signatory: active, Identity: identity}, true, true},
		{"deploy counterfactual delegator", actionDeployDelegator, usecase.SessionSnapshot{Delegator: counterfactual}, false, true},
		{"deploy deployed delegator", actionDeployDelegator, usecase.SessionSnapshot{Delegator: deployed}, false, false},
		{"create delegation without delegate", actionCreateDelegation, usecase.SessionSnapshot{Delegator: deployed}, false, false},
		{"create delegation with both accounts", actionCreateDelegation, usecase.SessionSnapshot{Delegate: deployed, Delegator: deployed}, false, true},
		{"sign unsigned delegation", actionSignDelegation, usecase.SessionSnapshot{Delegation: unsigned}, false, true},
		{"sign signed delegation", actionSignDelegation, usecase.SessionSnapshot{Delegation: signed}, false, false},
		{"redeem unsigned delegation", actionRedeem, usecase.SessionSnapshot{Delegation: unsigned}, false, false},
		{"redeem signed delegation", actionRedeem, usecase.SessionSnapshot{Delegation: signed}, false, true},
		{"redeem placeholder signature", actionRedeem, usecase.SessionSnapshot{Delegation: placeholder}, false, false},
		{"sign placeholder signature", actionSignDelegation, usecase.SessionSnapshot{Delegation: placeholder}, false, true},
		{"disable signed delegation", actionDisable, usecase.SessionSnapshot{Delegation: signed}, false, true},
		{"status without delegation", actionStatus, usecase.SessionSnapshot{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, actionEnabled(tt.action, tt.snapshot, tt.canLogout))
		})
	}
}

// fakeSession records calls made by the console model
type fakeSession struct {
	consoleSession
	snapshot    usecase.SessionSnapshot
	signatories []usecase.Signatory
	selected    []domain.SignatoryName
	logins      int
}

func (f *fakeSession) Snapshot() usecase.SessionSnapshot { return f.snapshot }
func (f *fakeSession) Signatories() []usecase.Signatory  { return f.signatories }
func (f *fakeSession) CanLogout() bool                   { return false }
func (f *fakeSession) Login(context.Context) (*models.Identity, error) {
	f.logins++
	return &models.Identity{Owner: common.HexToAddress("0x01")}, nil
}

func (f *fakeSession) SelectSignatory(name domain.SignatoryName) (usecase.Signatory, error) {
	f.selected = append(f.selected, name)
	for _, s := range f.signatories {
		if s.Name == name {
			f.snapshot = usecase.SessionSnapshot{Signatory: s}
			return s, nil
		}
	}
	return usecase.Signatory{}, domain.ErrUnknownSignatory
}

func TestConsoleModel(t *testing.T) {
	burner := usecase.Signatory{Name: domain.SignatoryBurner, Status: usecase.SignatoryActive, Provider: stubProvider{}}
	hosted := usecase.Signatory{Name: domain.SignatoryHosted, Status: usecase.SignatoryUnavailable, Reason: "not configured"}
	enter := tea.KeyMsg{Type: tea.KeyEnter}
	down := tea.KeyMsg{Type: tea.KeyDown}

	t.Run("switch signatory cycles and resets", func(t *testing.T) {
		session := &fakeSession{signatories: []usecase.Signatory{burner, hosted}, snapshot: usecase.SessionSnapshot{Signatory: burner}}
		m := newConsoleModel(context.Background(), session, nil)

		next, cmd := m.Update(enter)
		assert.Nil(t, cmd)
		assert.Equal(t, []domain.SignatoryName{domain.SignatoryHosted}, session.selected)
		assert.Equal(t, domain.SignatoryHosted, next.(consoleModel).snapshot.Signatory.Name)
		assert.Contains(t, next.(consoleModel).message, "unavailable")
	})

	t.Run("actions run as commands and are ignored while running", func(t *testing.T) {
		session := &fakeSession{signatories: []usecase.Signatory{burner}, snapshot: usecase.SessionSnapshot{Signatory: burner}}
		var model tea.Model = newConsoleModel(context.Background(), session, nil)

		model, _ = model.Update(down)
		model, cmd := model.Update(enter)
		require.NotNil(t, cmd)
		assert.True(t, model.(consoleModel).running)

		_, second := model.Update(enter)
		assert.Nil(t, second)

		msg := cmd()
		assert.Equal(t, 1, session.logins)

		model, _ = model.Update(msg)
		assert.False(t, model.(consoleModel).running)
		assert.NoError(t, model.(consoleModel).err)
		assert.Contains(t, model.(consoleModel).message, "Logged in as")
	})

	t.Run("disabled action does nothing", func(t *testing.T) {
		session := &fakeSession{signatories: []usecase.Signatory{hosted}, snapshot: usecase.SessionSnapshot{Signatory: hosted}}
		var model tea.Model = newConsoleModel(context.Background(), session, nil)

		model, _ = model.Update(down)
		_, cmd := model.Update(enter)
		assert.Nil(t, cmd)
		assert.Zero(t, session.logins)
	})
}

func TestDelegationLine(t *testing.T) {
	delegation := &models.Delegation{
		Delegator: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Delegate:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Caveats:   []models.Caveat{{}, {}},
	}

	line := delegationLine(delegation)
	assert.Contains(t, line, "0x1111…1111 → 0x2222…2222")
	assert.Contains(t, line, "unsigned, 2 caveats")

	delegation.Signature = append(bytes.Repeat([]byte{0xab}, 64), 0x1b)
	assert.Contains(t, delegationLine(delegation), "signed, 2 caveats")
	assert.NotContains(t, delegationLine(delegation), "unsigned")
	assert.Contains(t, delegationLine(nil), "not created")
}

func TestAfterRun(t *testing.T) {
	t.Run("cleanup runs when the command fails", func(t *testing.T) {
		cleaned := 0
		cmd := &cobra.Command{RunE: func(*cobra.Command, []string) error { return assert.AnError }}
		afterRun(cmd, func() { cleaned++ })
		assert.Zero(t, cleaned)

		assert.ErrorIs(t, cmd.RunE(cmd, nil), assert.AnError)
		assert.Equal(t, 1, cleaned)
	})

	t.Run("cleanup runs after Run", func(t *testing.T) {
		var order []string
		cmd := &cobra.Command{Run: func(*cobra.Command, []string) { order = append(order, "run") }}
		afterRun(cmd, func() { order = append(order, "cleanup") })

		cmd.Run(cmd, nil)
		assert.Equal(t, []string{"run", "cleanup"}, order)
	})

	t.Run("commands without a run function clean up at once", func(t *testing.T) {
		cleaned := false
		afterRun(&cobra.Command{}, func() { cleaned = true })
		assert.True(t, cleaned)
	})
}
