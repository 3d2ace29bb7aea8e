package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectSignatory asks the user to pick one of the available signatories
func (s *SelectorAdapter) SelectSignatory(ctx context.Context, signatories []usecase.Signatory) (domain.SignatoryName, error) {
	available := make([]usecase.Signatory, 0, len(signatories))
	for _, sig := range signatories {
		if sig.Available() {
			available = append(available, sig)
		}
	}
	if len(available) == 0 {
		return "", domain.ErrSignatoryUnavailable
	}

	// If only one is usable, return it directly
	if len(available) == 1 {
		return available[0].Name, nil
	}

	// In non-interactive mode, we can't select
	if s.config.NonInteractive {
		return "", fmt.Errorf("interactive selection not available in non-interactive mode, use --signatory")
	}

	options := formatSignatoryOptions(available)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:     "Select a signatory",
		Items:     options,
		Templates: templates,
		Size:      10,
		Searcher:  createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}

	return available[index].Name, nil
}

// formatSignatoryOptions creates display strings like "burner (Burner key generated in memory)"
func formatSignatoryOptions(signatories []usecase.Signatory) []string {
	options := make([]string, len(signatories))
	for i, sig := range signatories {
		name := color.New(color.FgWhite, color.Bold).Sprint(sig.Name)
		options[i] = fmt.Sprintf("%s (%s)", name, color.New(color.FgBlue).Sprint(sig.Name.Description()))
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

var _ usecase.SignatorySelector = (*SelectorAdapter)(nil)
