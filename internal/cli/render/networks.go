package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
)

// NetworksRenderer renders the available networks
type NetworksRenderer struct {
	out  io.Writer
	json bool
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer, asJSON bool) *NetworksRenderer {
	return &NetworksRenderer{out: out, json: asJSON}
}

type networkRow struct {
	Name        string `json:"name"`
	ChainID     uint64 `json:"chainId,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
	HasRPC      bool   `json:"hasRpc"`
	Ready       bool   `json:"ready"`
	Missing     string `json:"missing,omitempty"`
	Current     bool   `json:"current"`
}

// Render renders the networks
func (r *NetworksRenderer) Render(result *usecase.ListNetworksResult) error {
	docs := lo.Map(result.Networks, func(n usecase.NetworkStatus, _ int) networkRow {
		return networkRow{
			Name:        n.Name,
			ChainID:     n.ChainID,
			ExplorerURL: n.ExplorerURL,
			HasRPC:      n.HasRPC,
			Ready:       n.Ready,
			Missing:     missingKey(n.Error),
			Current:     n.Name == result.Current,
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

	fmt.Fprintln(r.out, "🌐 Networks:")
	fmt.Fprintln(r.out)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	faint := color.New(color.Faint)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"", "Name", "Chain ID", "RPC", "Contracts"})
	for _, doc := range docs {
		marker := " "
		if doc.Current {
			marker = green.Sprint("▸")
		}
		chainID := faint.Sprint("-")
		if doc.ChainID != 0 {
			chainID = fmt.Sprint(doc.ChainID)
		}
		rpc := yellow.Sprint("missing")
		if doc.HasRPC {
			rpc = green.Sprint("set")
		}
		contracts := green.Sprint("ready")
		if !doc.Ready {
			contracts = yellow.Sprint("incomplete")
			if doc.Missing != "" {
				contracts += faint.Sprintf(" (%s)", doc.Missing)
			}
		}
		t.AppendRow(table.Row{marker, doc.Name, chainID, rpc, contracts})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

func missingKey(err error) string {
	if err == nil {
		return ""
	}
	if cfgErr, ok := lo.ErrorsAs[*domain.ConfigurationError](err); ok {
		return cfgErr.Key
	}
	return err.Error()
}

var _ Renderer[*usecase.ListNetworksResult] = (*NetworksRenderer)(nil)
