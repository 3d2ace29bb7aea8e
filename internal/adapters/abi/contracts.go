package abi

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const delegationTuple = `{"name":"_delegation","type":"tuple","internalType":"struct Delegation","components":[
	{"name":"delegate","type":"address"},
	{"name":"delegator","type":"address"},
	{"name":"authority","type":"bytes32"},
	{"name":"caveats","type":"tuple[]","internalType":"struct Caveat[]","components":[
		{"name":"enforcer","type":"address"},
		{"name":"terms","type":"bytes"},
		{"name":"args","type":"bytes"}
	]},
	{"name":"salt","type":"uint256"},
	{"name":"signature","type":"bytes"}
]}`

// DeleGatorJSON covers the HybridDeleGator functions used by gator
const DeleGatorJSON = `[
	{"type":"function","name":"initialize","stateMutability":"nonpayable","inputs":[
		{"name":"_owner","type":"address"},
		{"name":"_keyIds","type":"string[]"},
		{"name":"_xValues","type":"uint256[]"},
		{"name":"_yValues","type":"uint256[]"}
	],"outputs":[]},
	{"type":"function","name":"execute","stateMutability":"payable","inputs":[
		{"name":"_mode","type":"bytes32"},
		{"name":"_executionCalldata","type":"bytes"}
	],"outputs":[]},
	{"type":"function","name":"redeemDelegations","stateMutability":"nonpayable","inputs":[
		{"name":"_permissionContexts","type":"bytes[]"},
		{"name":"_modes","type":"bytes32[]"},
		{"name":"_executionCallDatas","type":"bytes[]"}
	],"outputs":[]},
	{"type":"function","name":"disableDelegation","stateMutability":"nonpayable","inputs":[` + delegationTuple + `],"outputs":[]},
	{"type":"function","name":"enableDelegation","stateMutability":"nonpayable","inputs":[` + delegationTuple + `],"outputs":[]}
]`

// DelegationManagerJSON covers the DelegationManager views used by gator
const DelegationManagerJSON = `[
	{"type":"function","name":"disabledDelegations","stateMutability":"view","inputs":[
		{"name":"_delegationHash","type":"bytes32"}
	],"outputs":[{"name":"isDisabled_","type":"bool"}]}
]`

// SimpleFactoryJSON covers the CREATE2 factory used to deploy accounts
const SimpleFactoryJSON = `[
	{"type":"function","name":"deploy","stateMutability":"nonpayable","inputs":[
		{"name":"_bytecode","type":"bytes"},
		{"name":"_salt","type":"bytes32"}
	],"outputs":[{"name":"addr_","type":"address"}]}
]`

// EntryPointJSON covers the EntryPoint v0.7 nonce view
const EntryPointJSON = `[
	{"type":"function","name":"getNonce","stateMutability":"view","inputs":[
		{"name":"sender","type":"address"},
		{"name":"key","type":"uint192"}
	],"outputs":[{"name":"nonce","type":"uint256"}]}
]`

// Parsed contract ABIs
var (
	DeleGator         = mustParse("DeleGator", DeleGatorJSON)
	DelegationManager = mustParse("DelegationManager", DelegationManagerJSON)
	SimpleFactory     = mustParse("SimpleFactory", SimpleFactoryJSON)
	EntryPoint        = mustParse("EntryPoint", EntryPointJSON)
)

// ERC-7579 execution modes
var (
	SingleDefaultMode = common.Hash{}
	BatchDefaultMode  = common.Hash{0x01}
)

// Caveat is the ABI shape of a delegation caveat
type Caveat struct {
	Enforcer common.Address
	Terms    []byte
	Args     []byte
}

// Delegation is the ABI shape of a delegation
type Delegation struct {
	Delegate  common.Address
	Delegator common.Address
	Authority [32]byte
	Caveats   []Caveat
	Salt      *big.Int
	Signature []byte
}

// Execution is the ABI shape of an ERC-7579 execution
type Execution struct {
	Target   common.Address
	Value    *big.Int
	CallData []byte
}

var (
	delegationsArgs abi.Arguments
	executionsArgs  abi.Arguments
	proxyArgs       abi.Arguments
)

func init() {
	delegationType := mustType("tuple[]", []abi.ArgumentMarshaling{
		{Name: "delegate", Type: "address"},
		{Name: "delegator", Type: "address"},
		{Name: "authority", Type: "bytes32"},
		{Name: "caveats", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "enforcer", Type: "address"},
			{Name: "terms", Type: "bytes"},
			{Name: "args", Type: "bytes"},
		}},
		{Name: "salt", Type: "uint256"},
		{Name: "signature", Type: "bytes"},
	})
	delegationsArgs = abi.Arguments{{Type: delegationType}}

	executionType := mustType("tuple[]", []abi.ArgumentMarshaling{
		{Name: "target", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "callData", Type: "bytes"},
	})
	executionsArgs = abi.Arguments{{Type: executionType}}

	proxyArgs = abi.Arguments{
		{Name: "implementation", Type: mustType("address", nil)},
		{Name: "_data", Type: mustType("bytes", nil)},
	}
}

// EncodeDelegations ABI-encodes a delegation chain as a permission context
func EncodeDelegations(delegations []Delegation) ([]byte, error) {
	return delegationsArgs.Pack(delegations)
}

// EncodeExecutions ABI-encodes a batch of executions
func EncodeExecutions(executions []Execution) ([]byte, error) {
	return executionsArgs.Pack(executions)
}

// EncodeSingleExecution packs a single execution as target ‖ value ‖ callData
func EncodeSingleExecution(execution Execution) []byte {
	value := execution.Value
	if value == nil {
		value = new(big.Int)
	}
	out := make([]byte, 0, 20+32+len(execution.CallData))
	out = append(out, execution.Target.Bytes()...)
	out = append(out, common.LeftPadBytes(value.Bytes(), 32)...)
	out = append(out, execution.CallData...)
	return out
}

// EncodeProxyConstructor ABI-encodes the ERC-1967 proxy constructor arguments
func EncodeProxyConstructor(implementation common.Address, initData []byte) ([]byte, error) {
	return proxyArgs.Pack(implementation, initData)
}

func mustParse(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid %s ABI: %v", name, err))
	}
	return parsed
}

func mustType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(fmt.Sprintf("invalid ABI type %s: %v", t, err))
	}
	return typ
}
