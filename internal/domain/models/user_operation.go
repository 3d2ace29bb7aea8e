package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is a single call executed by a smart account
type Call struct {
	To    common.Address `json:"to"`
	Value *big.Int       `json:"value,omitempty"`
	Data  []byte         `json:"data"`
}

// Execution is the action a delegate executes on behalf of a delegator
type Execution struct {
	Target   common.Address `json:"target"`
	Value    *big.Int       `json:"value"`
	CallData []byte         `json:"callData"`
}

// FeeParameters are the EIP-1559 fee fields of a user operation
type FeeParameters struct {
	MaxFeePerGas         *big.Int `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *big.Int `json:"maxPriorityFeePerGas"`
}

// GasEstimate holds the gas limits returned by the bundler
type GasEstimate struct {
	PreVerificationGas            *big.Int `json:"preVerificationGas"`
	VerificationGasLimit          *big.Int `json:"verificationGasLimit"`
	CallGasLimit                  *big.Int `json:"callGasLimit"`
	PaymasterVerificationGasLimit *big.Int `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *big.Int `json:"paymasterPostOpGasLimit,omitempty"`
}

// Sponsorship holds paymaster fields to merge into a user operation
type Sponsorship struct {
	Paymaster                     common.Address `json:"paymaster"`
	PaymasterData                 []byte         `json:"paymasterData"`
	PaymasterVerificationGasLimit *big.Int       `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *big.Int       `json:"paymasterPostOpGasLimit,omitempty"`
	IsFinal                       bool           `json:"isFinal,omitempty"`
}

// UserOperation is an EntryPoint v0.7 user operation in its unpacked form
type UserOperation struct {
	Sender                        common.Address  `json:"sender"`
	Nonce                         *big.Int        `json:"nonce"`
	Factory                       *common.Address `json:"factory,omitempty"`
	FactoryData                   []byte          `json:"factoryData,omitempty"`
	CallData                      []byte          `json:"callData"`
	CallGasLimit                  *big.Int        `json:"callGasLimit"`
	VerificationGasLimit          *big.Int        `json:"verificationGasLimit"`
	PreVerificationGas            *big.Int        `json:"preVerificationGas"`
	MaxFeePerGas                  *big.Int        `json:"maxFeePerGas"`
	MaxPriorityFeePerGas          *big.Int        `json:"maxPriorityFeePerGas"`
	Paymaster                     *common.Address `json:"paymaster,omitempty"`
	PaymasterVerificationGasLimit *big.Int        `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *big.Int        `json:"paymasterPostOpGasLimit,omitempty"`
	PaymasterData                 []byte          `json:"paymasterData,omitempty"`
	Signature                     []byte          `json:"signature"`

	Calls []Call `json:"-"`
}

// ApplyFees sets the fee fields
func (op *UserOperation) ApplyFees(fees *FeeParameters) {
	op.MaxFeePerGas = fees.MaxFeePerGas
	op.MaxPriorityFeePerGas = fees.MaxPriorityFeePerGas
}

// ApplyGas sets the gas limits returned by the bundler
func (op *UserOperation) ApplyGas(gas *GasEstimate) {
	op.PreVerificationGas = gas.PreVerificationGas
	op.VerificationGasLimit = gas.VerificationGasLimit
	op.CallGasLimit = gas.CallGasLimit
	if op.Paymaster != nil {
		if gas.PaymasterVerificationGasLimit != nil {
			op.PaymasterVerificationGasLimit = gas.PaymasterVerificationGasLimit
		}
		if gas.PaymasterPostOpGasLimit != nil {
			op.PaymasterPostOpGasLimit = gas.PaymasterPostOpGasLimit
		}
	}
}

// ApplySponsorship merges paymaster fields into the operation
func (op *UserOperation) ApplySponsorship(s *Sponsorship) {
	paymaster := s.Paymaster
	op.Paymaster = &paymaster
	op.PaymasterData = common.CopyBytes(s.PaymasterData)
	if s.PaymasterVerificationGasLimit != nil {
		op.PaymasterVerificationGasLimit = s.PaymasterVerificationGasLimit
	}
	if s.PaymasterPostOpGasLimit != nil {
		op.PaymasterPostOpGasLimit = s.PaymasterPostOpGasLimit
	}
}

// IsSponsored reports whether a paymaster pays for the operation
func (op *UserOperation) IsSponsored() bool {
	return op.Paymaster != nil && *op.Paymaster != (common.Address{})
}

// UserOperationReceipt is the bundler's report of a settled user operation
type UserOperationReceipt struct {
	UserOpHash      common.Hash    `json:"userOpHash"`
	Sender          common.Address `json:"sender"`
	TransactionHash common.Hash    `json:"transactionHash"`
	BlockNumber     uint64         `json:"blockNumber"`
	Success         bool           `json:"success"`
	Reason          string         `json:"reason,omitempty"`
	ActualGasCost   *big.Int       `json:"actualGasCost,omitempty"`
	ActualGasUsed   *big.Int       `json:"actualGasUsed,omitempty"`
}
