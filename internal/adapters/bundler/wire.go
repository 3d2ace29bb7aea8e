package bundler

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gatorkit/gator-cli/internal/domain/models"
)

// RPCUserOperation is the JSON-RPC form of an EntryPoint v0.7 user operation
type RPCUserOperation struct {
	Sender                        common.Address  `json:"sender"`
	Nonce                         *hexutil.Big    `json:"nonce"`
	Factory                       *common.Address `json:"factory,omitempty"`
	FactoryData                   hexutil.Bytes   `json:"factoryData,omitempty"`
	CallData                      hexutil.Bytes   `json:"callData"`
	CallGasLimit                  *hexutil.Big    `json:"callGasLimit"`
	VerificationGasLimit          *hexutil.Big    `json:"verificationGasLimit"`
	PreVerificationGas            *hexutil.Big    `json:"preVerificationGas"`
	MaxFeePerGas                  *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas          *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Paymaster                     *common.Address `json:"paymaster,omitempty"`
	PaymasterVerificationGasLimit *hexutil.Big    `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *hexutil.Big    `json:"paymasterPostOpGasLimit,omitempty"`
	PaymasterData                 hexutil.Bytes   `json:"paymasterData,omitempty"`
	Signature                     hexutil.Bytes   `json:"signature"`
}

// NewRPCUserOperation converts the model, filling unset required quantities with zero
func NewRPCUserOperation(op *models.UserOperation) RPCUserOperation {
	out := RPCUserOperation{
		Sender:               op.Sender,
		Nonce:                quantity(op.Nonce),
		Factory:              op.Factory,
		FactoryData:          op.FactoryData,
		CallData:             hexutil.Bytes(nonNil(op.CallData)),
		CallGasLimit:         quantity(op.CallGasLimit),
		VerificationGasLimit: quantity(op.VerificationGasLimit),
		PreVerificationGas:   quantity(op.PreVerificationGas),
		MaxFeePerGas:         quantity(op.MaxFeePerGas),
		MaxPriorityFeePerGas: quantity(op.MaxPriorityFeePerGas),
		Signature:            hexutil.Bytes(nonNil(op.Signature)),
	}
	if op.IsSponsored() {
		out.Paymaster = op.Paymaster
		out.PaymasterVerificationGasLimit = quantity(op.PaymasterVerificationGasLimit)
		out.PaymasterPostOpGasLimit = quantity(op.PaymasterPostOpGasLimit)
		out.PaymasterData = hexutil.Bytes(nonNil(op.PaymasterData))
	}
	return out
}

func quantity(v *big.Int) *hexutil.Big {
	if v == nil {
		return (*hexutil.Big)(new(big.Int))
	}
	return (*hexutil.Big)(v)
}

// Int unwraps an optional quantity
func Int(v *hexutil.Big) *big.Int {
	if v == nil {
		return nil
	}
	return v.ToInt()
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

type gasPrice struct {
	MaxFeePerGas         *hexutil.Big `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big `json:"maxPriorityFeePerGas"`
}

// gasPriceTiers is the result of pimlico_getUserOperationGasPrice
type gasPriceTiers struct {
	Slow     gasPrice `json:"slow"`
	Standard gasPrice `json:"standard"`
	Fast     gasPrice `json:"fast"`
}

type gasEstimate struct {
	PreVerificationGas            *hexutil.Big `json:"preVerificationGas"`
	VerificationGasLimit          *hexutil.Big `json:"verificationGasLimit"`
	CallGasLimit                  *hexutil.Big `json:"callGasLimit"`
	PaymasterVerificationGasLimit *hexutil.Big `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *hexutil.Big `json:"paymasterPostOpGasLimit,omitempty"`
}

type transactionReceipt struct {
	TransactionHash common.Hash  `json:"transactionHash"`
	BlockNumber     *hexutil.Big `json:"blockNumber"`
}

// operationReceipt is the result of eth_getUserOperationReceipt
type operationReceipt struct {
	UserOpHash    common.Hash        `json:"userOpHash"`
	Sender        common.Address     `json:"sender"`
	ActualGasCost *hexutil.Big       `json:"actualGasCost"`
	ActualGasUsed *hexutil.Big       `json:"actualGasUsed"`
	Success       bool               `json:"success"`
	Reason        string             `json:"reason,omitempty"`
	Receipt       transactionReceipt `json:"receipt"`
}
