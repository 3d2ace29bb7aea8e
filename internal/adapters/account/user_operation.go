package account

import (
	"bytes"
	"fmt"
	"math/big"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gatorkit/gator-cli/internal/adapters/abi"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
	"github.com/holiman/uint256"
)

var userOperationTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"PackedUserOperation": {
		{Name: "sender", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "initCode", Type: "bytes"},
		{Name: "callData", Type: "bytes"},
		{Name: "accountGasLimits", Type: "bytes32"},
		{Name: "preVerificationGas", Type: "uint256"},
		{Name: "gasFees", Type: "bytes32"},
		{Name: "paymasterAndData", Type: "bytes"},
		{Name: "entryPoint", Type: "address"},
	},
}

// stubSignature is a well-formed 65-byte signature used while estimating gas
var stubSignature = append(bytes.Repeat([]byte{0xff}, 64), 0x1c)

var (
	packedOperationArgs = mustArguments("address", "uint256", "bytes32", "bytes32", "bytes32", "uint256", "bytes32", "bytes32")
	operationHashArgs   = mustArguments("bytes32", "address", "uint256")
)

// OperationCodec encodes calls and signing payloads for Hybrid DeleGator user operations
type OperationCodec struct {
	cfg *config.RuntimeConfig
}

// NewOperationCodec creates a new user operation codec
func NewOperationCodec(cfg *config.RuntimeConfig) *OperationCodec {
	return &OperationCodec{cfg: cfg}
}

// EncodeCalls encodes ERC-7579 execute calldata, batching when there is more than one call
func (c *OperationCodec) EncodeCalls(calls []models.Call) ([]byte, error) {
	switch len(calls) {
	case 0:
		return nil, fmt.Errorf("no calls to encode")
	case 1:
		return abi.DeleGator.Pack("execute", [32]byte(abi.SingleDefaultMode), abi.EncodeSingleExecution(toExecution(calls[0])))
	}

	executions := make([]abi.Execution, 0, len(calls))
	for _, call := range calls {
		executions = append(executions, toExecution(call))
	}
	batch, err := abi.EncodeExecutions(executions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode executions: %w", err)
	}
	return abi.DeleGator.Pack("execute", [32]byte(abi.BatchDefaultMode), batch)
}

func toExecution(call models.Call) abi.Execution {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	data := call.Data
	if data == nil {
		data = []byte{}
	}
	return abi.Execution{Target: call.To, Value: value, CallData: data}
}

// StubSignature returns the placeholder signature for gas estimation
func (c *OperationCodec) StubSignature() []byte {
	return common.CopyBytes(stubSignature)
}

// TypedData builds the EIP-712 payload the account owner signs for a user operation
func (c *OperationCodec) TypedData(op *models.UserOperation) (apitypes.TypedData, error) {
	network, err := c.cfg.RequireNetwork()
	if err != nil {
		return apitypes.TypedData{}, err
	}
	env, err := c.cfg.RequireEnvironment()
	if err != nil {
		return apitypes.TypedData{}, err
	}

	packed := Pack(op)
	return apitypes.TypedData{
		Types:       userOperationTypes,
		PrimaryType: "PackedUserOperation",
		Domain: apitypes.TypedDataDomain{
			Name:              "HybridDeleGator",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(int64(network.ChainID)),
			VerifyingContract: op.Sender.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"sender":             op.Sender.Hex(),
			"nonce":              packed.Nonce.String(),
			"initCode":           hexutil.Encode(packed.InitCode),
			"callData":           hexutil.Encode(packed.CallData),
			"accountGasLimits":   hexutil.Encode(packed.AccountGasLimits[:]),
			"preVerificationGas": packed.PreVerificationGas.String(),
			"gasFees":            hexutil.Encode(packed.GasFees[:]),
			"paymasterAndData":   hexutil.Encode(packed.PaymasterAndData),
			"entryPoint":         env.EntryPoint.Hex(),
		},
	}, nil
}

// Hash computes the EntryPoint v0.7 user operation hash
func (c *OperationCodec) Hash(op *models.UserOperation) (common.Hash, error) {
	network, err := c.cfg.RequireNetwork()
	if err != nil {
		return common.Hash{}, err
	}
	env, err := c.cfg.RequireEnvironment()
	if err != nil {
		return common.Hash{}, err
	}
	return OperationHash(op, env.EntryPoint, network.ChainID)
}

// OperationHash computes keccak(abi.encode(keccak(pack(op)), entryPoint, chainId))
func OperationHash(op *models.UserOperation, entryPoint common.Address, chainID uint64) (common.Hash, error) {
	packed := Pack(op)
	encoded, err := packedOperationArgs.Pack(
		op.Sender,
		packed.Nonce,
		crypto.Keccak256Hash(packed.InitCode),
		crypto.Keccak256Hash(packed.CallData),
		packed.AccountGasLimits,
		packed.PreVerificationGas,
		packed.GasFees,
		crypto.Keccak256Hash(packed.PaymasterAndData),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack user operation: %w", err)
	}

	outer, err := operationHashArgs.Pack(crypto.Keccak256Hash(encoded), entryPoint, new(big.Int).SetUint64(chainID))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack user operation hash: %w", err)
	}
	return crypto.Keccak256Hash(outer), nil
}

// PackedOperation is the on-chain representation of a v0.7 user operation
type PackedOperation struct {
	Nonce              *big.Int
	InitCode           []byte
	CallData           []byte
	AccountGasLimits   [32]byte
	PreVerificationGas *big.Int
	GasFees            [32]byte
	PaymasterAndData   []byte
}

// Pack folds the unpacked user operation fields into their packed form
func Pack(op *models.UserOperation) PackedOperation {
	packed := PackedOperation{
		Nonce:              orZero(op.Nonce),
		CallData:           nonNil(op.CallData),
		AccountGasLimits:   packUint128Pair(op.VerificationGasLimit, op.CallGasLimit),
		PreVerificationGas: orZero(op.PreVerificationGas),
		GasFees:            packUint128Pair(op.MaxPriorityFeePerGas, op.MaxFeePerGas),
		InitCode:           []byte{},
		PaymasterAndData:   []byte{},
	}

	if op.Factory != nil {
		packed.InitCode = append(op.Factory.Bytes(), op.FactoryData...)
	}
	if op.Paymaster != nil {
		pm := make([]byte, 0, 20+32+len(op.PaymasterData))
		pm = append(pm, op.Paymaster.Bytes()...)
		gasLimits := packUint128Pair(op.PaymasterVerificationGasLimit, op.PaymasterPostOpGasLimit)
		pm = append(pm, gasLimits[:]...)
		pm = append(pm, op.PaymasterData...)
		packed.PaymasterAndData = pm
	}
	return packed
}

// packUint128Pair packs two uint128 values into one word, high half first.
// Values wider than 128 bits keep their low 128 bits.
func packUint128Pair(high, low *big.Int) [32]byte {
	var out [32]byte
	hi, _ := uint256.FromBig(orZero(high))
	lo, _ := uint256.FromBig(orZero(low))
	hiWord, loWord := hi.Bytes32(), lo.Bytes32()
	copy(out[:16], hiWord[16:])
	copy(out[16:], loWord[16:])
	return out
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func mustArguments(types ...string) gethabi.Arguments {
	args := make(gethabi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := gethabi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("invalid ABI type %s: %v", t, err))
		}
		args = append(args, gethabi.Argument{Type: typ})
	}
	return args
}

var _ usecase.UserOperationCodec = (*OperationCodec)(nil)
