package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
)

// SignatoriesRenderer renders the list of signing strategies
type SignatoriesRenderer struct {
	out  io.Writer
	json bool
}

// NewSignatoriesRenderer creates a new signatories renderer
func NewSignatoriesRenderer(out io.Writer, asJSON bool) *SignatoriesRenderer {
	return &SignatoriesRenderer{out: out, json: asJSON}
}

type signatoryDoc struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Selected    bool   `json:"selected"`
}

// Render renders the signatories
func (r *SignatoriesRenderer) Render(result *usecase.ListSignatoriesResult) error {
	docs := lo.Map(result.Signatories, func(s usecase.Signatory, _ int) signatoryDoc {
		return signatoryDoc{
			Name:        string(s.Name),
			Description: s.Name.Description(),
			Status:      s.Status.String(),
			Reason:      s.Reason,
			Selected:    s.Name == result.Selected,
		}
	})

	if r.json {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(r.out, string(data))
		return nil
	}

	fmt.Fprintln(r.out, "🔑 Signatories:")
	fmt.Fprintln(r.out)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"", "Name", "Status", "Description"})
	for _, doc := range docs {
		marker := " "
		if doc.Selected {
			marker = color.New(color.FgGreen).Sprint("▸")
		}
		status := color.New(color.FgGreen).Sprint(doc.Status)
		if doc.Status != usecase.SignatoryActive.String() {
			status = color.New(color.FgYellow).Sprint(doc.Status)
		}
		description := doc.Description
		if doc.Reason != "" {
			description += color.New(color.Faint).Sprintf(" (%s)", doc.Reason)
		}
		t.AppendRow(table.Row{marker, title(doc.Name), status, description})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

var _ Renderer[*usecase.ListSignatoriesResult] = (*SignatoriesRenderer)(nil)
