package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewExamplesCmd lists the runnable examples
func NewExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List the example flows",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.Style().Options.DrawBorder = false
			t.Style().Options.SeparateColumns = false
			t.AppendHeader(table.Row{"Example", "Command", "Description"})
			for _, example := range domain.Examples {
				t.AppendRow(table.Row{
					color.New(color.Bold).Sprint(example.Name),
					color.New(color.FgCyan).Sprint("gator " + example.Command),
					example.Description,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		},
	}
}
