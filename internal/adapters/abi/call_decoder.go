package abi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// CallDecoder turns account calls into human-readable descriptions
type CallDecoder struct {
	log    *slog.Logger
	labels map[common.Address]string
	abis   map[common.Address]*abi.ABI
}

// NewCallDecoder creates a decoder labelling the contracts of the configured environment
func NewCallDecoder(cfg *config.RuntimeConfig, log *slog.Logger) *CallDecoder {
	decoder := &CallDecoder{
		log:    log.With("component", "CallDecoder"),
		labels: make(map[common.Address]string),
		abis:   make(map[common.Address]*abi.ABI),
	}

	if env := cfg.Environment; env != nil {
		decoder.register(env.SimpleFactory, "SimpleFactory", &SimpleFactory)
		decoder.register(env.DelegationManager, "DelegationManager", &DelegationManager)
		decoder.register(env.EntryPoint, "EntryPoint", &EntryPoint)
		for name, enforcer := range env.CaveatEnforcers {
			decoder.register(enforcer, name+"Enforcer", nil)
		}
	}

	return decoder
}

func (d *CallDecoder) register(address common.Address, label string, contract *abi.ABI) {
	if address == (common.Address{}) {
		return
	}
	d.labels[address] = label
	if contract != nil {
		d.abis[address] = contract
	}
}

// DecodedCall represents a human-readable account call
type DecodedCall struct {
	To     common.Address
	Label  string
	Method string
	Inputs []DecodedInput
	Value  *big.Int
}

// DecodedInput represents a decoded function input
type DecodedInput struct {
	Name  string
	Type  string
	Value any
}

// DescribeCalls implements usecase.CallDecoder
func (d *CallDecoder) DescribeCalls(sender common.Address, calls []models.Call) []string {
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		out = append(out, d.Decode(sender, call).FormatCompact())
	}
	return out
}

// Decode decodes a call using the known ABIs. Calls to the sender itself use the DeleGator ABI.
func (d *CallDecoder) Decode(sender common.Address, call models.Call) *DecodedCall {
	decoded := &DecodedCall{
		To:     call.To,
		Label:  d.labels[call.To],
		Value:  call.Value,
		Method: "unknown",
	}

	contract := d.abis[call.To]
	if call.To == sender {
		decoded.Label = "self"
		contract = &DeleGator
	}
	if call.To == (common.Address{}) && len(call.Data) == 0 {
		decoded.Label = "zero address"
		decoded.Method = ""
		return decoded
	}
	if contract == nil || len(call.Data) < 4 {
		return decoded
	}

	method, err := contract.MethodById(call.Data[:4])
	if err != nil {
		d.log.Debug("unknown selector", "to", call.To, "selector", hexutil.Encode(call.Data[:4]))
		return decoded
	}
	decoded.Method = method.RawName

	inputs, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		d.log.Debug("unable to unpack inputs", "method", method.RawName, "err", err)
		return decoded
	}
	for i, input := range method.Inputs {
		if i < len(inputs) {
			decoded.Inputs = append(decoded.Inputs, DecodedInput{
				Name:  input.Name,
				Type:  input.Type.String(),
				Value: inputs[i],
			})
		}
	}

	return decoded
}

// FormatValue formats a decoded value for human display
func FormatValue(value any) string {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case *big.Int:
		return v.String()
	case []byte:
		if len(v) == 0 {
			return "0x"
		}
		if len(v) <= 32 {
			return hexutil.Encode(v)
		}
		return fmt.Sprintf("%s...(%d bytes)", hexutil.Encode(v[:16]), len(v))
	case [32]byte:
		return hexutil.Encode(v[:])
	case string:
		return fmt.Sprintf(`"%s"`, v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		if jsonBytes, err := json.Marshal(v); err == nil {
			jsonStr := string(jsonBytes)
			if len(jsonStr) > 100 {
				return fmt.Sprintf("%.100s...(%d chars)", jsonStr, len(jsonStr))
			}
			return jsonStr
		}
		return fmt.Sprintf("%v", v)
	}
}

// FormatCompact formats a decoded call as Label.method(args)
func (dc *DecodedCall) FormatCompact() string {
	target := dc.Label
	if target == "" {
		target = dc.To.Hex()
	}
	if dc.Method == "" {
		return target + withValue(dc.Value)
	}

	args := make([]string, 0, len(dc.Inputs))
	for _, input := range dc.Inputs {
		val := FormatValue(input.Value)
		if len(val) > 40 {
			val = val[:37] + "..."
		}
		args = append(args, val)
	}

	return fmt.Sprintf("%s.%s(%s)%s", target, dc.Method, strings.Join(args, ", "), withValue(dc.Value))
}

func withValue(value *big.Int) string {
	if value == nil || value.Sign() == 0 {
		return ""
	}
	eth := new(big.Float).Quo(new(big.Float).SetInt(value), big.NewFloat(1e18))
	return fmt.Sprintf(" {value: %s ETH}", eth.Text('f', 6))
}

var _ usecase.CallDecoder = (*CallDecoder)(nil)
