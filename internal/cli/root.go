package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gatorkit/gator-cli/internal/adapters/progress"
	"github.com/gatorkit/gator-cli/internal/app"
	"github.com/gatorkit/gator-cli/internal/config"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gator",
		Short: "Delegation toolkit examples for smart accounts",
		Long: `gator creates counterfactual smart accounts, signs delegations between them
and redeems or toggles those delegations through an ERC-4337 bundler.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsAppInit(cmd.Name()) {
				return nil
			}

			workDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve working directory: %w", err)
			}

			// Set up viper
			v := config.SetupViper(workDir)

			// Bind global flags that have been set
			bindGlobalFlags(v, cmd)

			sink := newProgressSink(v, cmd.Name())

			// Initialize app with DI
			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			// Store app in context
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cancel := context.CancelFunc(func() {})

			// Add timeout if configured
			if appInstance.Config.Timeout > 0 && cmd.Name() != "console" {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}

			cmd.SetContext(ctx)
			afterRun(cmd, func() {
				cancel()
				appInstance.Close()
			})

			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., sepolia, base-sepolia)")
	rootCmd.PersistentFlags().String("signatory", "", "Signatory to use (burner, injected, hosted)")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "examples",
		Title: "Examples",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, cmd := range []*cobra.Command{
		NewQuickstartCmd(),
		NewSignersCmd(),
		NewToggleCmd(),
		NewConsoleCmd(),
		NewExamplesCmd(),
	} {
		cmd.GroupID = "examples"
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{
		NewConfigCmd(),
		NewNetworksCmd(),
	} {
		cmd.GroupID = "management"
		rootCmd.AddCommand(cmd)
	}

	// Version command
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// skipsAppInit reports whether a command runs without configuration
func skipsAppInit(name string) bool {
	switch name {
	case "version", "help", "completion", "examples":
		return true
	}
	return false
}

// newProgressSink picks a progress sink for the output mode
func newProgressSink(v *viper.Viper, command string) usecase.ProgressSink {
	switch {
	case v.GetBool("json") || command == "console":
		return progress.NewNopSink()
	case v.GetBool("non_interactive"):
		return progress.NewLineSink(os.Stderr)
	default:
		return progress.NewSpinnerSink()
	}
}

// bindGlobalFlags binds the global flags that have been set to viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	global := cmd.Root().PersistentFlags()
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if global.Lookup(f.Name) == nil {
			return
		}
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})
}

// afterRun wraps the command's RunE so cleanup runs whether or not it fails
func afterRun(cmd *cobra.Command, cleanup func()) {
	switch {
	case cmd.RunE != nil:
		run := cmd.RunE
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			defer cleanup()
			return run(cmd, args)
		}
	case cmd.Run != nil:
		run := cmd.Run
		cmd.Run = func(cmd *cobra.Command, args []string) {
			defer cleanup()
			run(cmd, args)
		}
	default:
		cleanup()
	}
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

// resolveSignatory returns the --signatory flag, or prompts when the session is interactive
func resolveSignatory(cmd *cobra.Command, a *app.App) (domain.SignatoryName, error) {
	if f := cmd.Flag("signatory"); (f != nil && f.Changed) || a.Config.NonInteractive || a.Config.JSON {
		return a.Config.Signatory, nil
	}
	return a.Selector.SelectSignatory(cmd.Context(), a.Session.Signatories())
}
