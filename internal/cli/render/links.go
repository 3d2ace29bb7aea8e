package render

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gatorkit/gator-cli/internal/domain/config"
)

// UserOperationExplorer is the user operation explorer used for every network
const UserOperationExplorer = "https://jiffyscan.xyz"

// AddressLink returns the block explorer page of an address, or "" when the network has no explorer
func AddressLink(network *config.Network, addr common.Address) string {
	if network == nil || network.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", strings.TrimRight(network.ExplorerURL, "/"), addr.Hex())
}

// TransactionLink returns the block explorer page of a transaction
func TransactionLink(network *config.Network, hash common.Hash) string {
	if network == nil || network.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", strings.TrimRight(network.ExplorerURL, "/"), hash.Hex())
}

// UserOperationLink returns the jiffyscan page of a user operation
func UserOperationLink(network *config.Network, hash common.Hash) string {
	if network == nil {
		return ""
	}
	link := fmt.Sprintf("%s/userOpHash/%s", UserOperationExplorer, hash.Hex())
	if network.Name != "" {
		link += "?network=" + network.Name
	}
	return link
}
