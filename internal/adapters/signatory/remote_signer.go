package signatory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// rpcClient is the subset of *rpc.Client used by wallet-backed signatories
type rpcClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

type dialFunc func(ctx context.Context, url string, options ...rpc.ClientOption) (rpcClient, error)

func dialRPC(ctx context.Context, url string, options ...rpc.ClientOption) (rpcClient, error) {
	return rpc.DialOptions(ctx, url, options...)
}

// RemoteSigner asks a wallet to sign typed data over JSON-RPC
type RemoteSigner struct {
	client  rpcClient
	address common.Address
	service string
}

// Address returns the wallet account
func (s *RemoteSigner) Address() common.Address {
	return s.address
}

// SignTypedData calls eth_signTypedData_v4
func (s *RemoteSigner) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	var signature hexutil.Bytes
	if err := s.client.CallContext(ctx, &signature, "eth_signTypedData_v4", s.address, string(payload)); err != nil {
		if isTransportError(err) {
			return nil, &domain.NetworkError{Service: s.service, Err: err}
		}
		return nil, err
	}
	return signature, nil
}

// requestAccounts returns the first account exposed by the wallet
func requestAccounts(ctx context.Context, client rpcClient, methods ...string) (common.Address, error) {
	for _, method := range methods {
		var accounts []common.Address
		if err := client.CallContext(ctx, &accounts, method); err != nil {
			return common.Address{}, err
		}
		if len(accounts) > 0 {
			return accounts[0], nil
		}
	}
	return common.Address{}, fmt.Errorf("wallet did not expose any account")
}

// isTransportError reports whether err did not come from the remote JSON-RPC handler
func isTransportError(err error) bool {
	var rpcErr rpc.Error
	return !errors.As(err, &rpcErr)
}

var _ models.Signer = (*RemoteSigner)(nil)
