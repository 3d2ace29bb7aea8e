package delegation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// Supported caveat types
const (
	CaveatAllowedTargets            = "allowedTargets"
	CaveatAllowedMethods            = "allowedMethods"
	CaveatValueLte                  = "valueLte"
	CaveatLimitedCalls              = "limitedCalls"
	CaveatTimestamp                 = "timestamp"
	CaveatNativeTokenTransferAmount = "nativeTokenTransferAmount"
)

type termsEncoder func(params []any) ([]byte, error)

var encoders = map[string]termsEncoder{
	CaveatAllowedTargets:            encodeAllowedTargets,
	CaveatAllowedMethods:            encodeAllowedMethods,
	CaveatValueLte:                  encodeUint256Param,
	CaveatLimitedCalls:              encodeLimitedCalls,
	CaveatTimestamp:                 encodeTimestamp,
	CaveatNativeTokenTransferAmount: encodeUint256Param,
}

// CaveatTypes lists the caveat types the builder understands
func CaveatTypes() []string {
	return []string{
		CaveatAllowedTargets,
		CaveatAllowedMethods,
		CaveatValueLte,
		CaveatLimitedCalls,
		CaveatTimestamp,
		CaveatNativeTokenTransferAmount,
	}
}

// CaveatBuilder encodes caveats against the enforcers of the configured environment
type CaveatBuilder struct {
	cfg *config.RuntimeConfig
}

// NewCaveatBuilder creates a new caveat builder
func NewCaveatBuilder(cfg *config.RuntimeConfig) *CaveatBuilder {
	return &CaveatBuilder{cfg: cfg}
}

// Build encodes the specs in order
func (b *CaveatBuilder) Build(specs []models.CaveatSpec) ([]models.Caveat, error) {
	caveats := make([]models.Caveat, 0, len(specs))
	for i, spec := range specs {
		encode, ok := encoders[spec.Type]
		if !ok {
			return nil, fmt.Errorf("caveat %d %q: %w", i, spec.Type, domain.ErrUnknownCaveat)
		}

		enforcer, err := b.enforcer(spec.Type)
		if err != nil {
			return nil, err
		}

		terms, err := encode(spec.Params)
		if err != nil {
			return nil, fmt.Errorf("caveat %d %q: %w: %v", i, spec.Type, domain.ErrInvalidCaveat, err)
		}

		caveats = append(caveats, models.Caveat{
			Type:     spec.Type,
			Enforcer: enforcer,
			Terms:    terms,
			Args:     []byte{},
		})
	}
	return caveats, nil
}

func (b *CaveatBuilder) enforcer(caveatType string) (common.Address, error) {
	key := "environment.caveat_enforcers." + caveatType
	if b.cfg.Environment == nil {
		return common.Address{}, &domain.ConfigurationError{Key: key}
	}
	enforcer, ok := b.cfg.Environment.CaveatEnforcers[caveatType]
	if !ok || enforcer == (common.Address{}) {
		return common.Address{}, &domain.ConfigurationError{Key: key}
	}
	return enforcer, nil
}

// allowedTargets terms are the packed 20-byte target addresses
func encodeAllowedTargets(params []any) ([]byte, error) {
	targets, err := addressesParam(params)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one target is required")
	}
	terms := make([]byte, 0, len(targets)*common.AddressLength)
	for _, target := range targets {
		terms = append(terms, target.Bytes()...)
	}
	return terms, nil
}

// allowedMethods terms are the packed 4-byte selectors
func encodeAllowedMethods(params []any) ([]byte, error) {
	var methods []string
	for _, p := range params {
		switch v := p.(type) {
		case string:
			methods = append(methods, v)
		case []string:
			methods = append(methods, v...)
		default:
			return nil, fmt.Errorf("unsupported method parameter %T", p)
		}
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("at least one method is required")
	}

	terms := make([]byte, 0, len(methods)*4)
	for _, method := range methods {
		selector, err := parseSelector(method)
		if err != nil {
			return nil, err
		}
		terms = append(terms, selector...)
	}
	return terms, nil
}

// parseSelector accepts a 4-byte hex selector or a function signature
func parseSelector(method string) ([]byte, error) {
	method = strings.TrimSpace(method)
	if strings.HasPrefix(method, "0x") {
		selector, err := hexutil.Decode(method)
		if err != nil || len(selector) != 4 {
			return nil, fmt.Errorf("invalid selector %q", method)
		}
		return selector, nil
	}
	if !strings.Contains(method, "(") || !strings.HasSuffix(method, ")") {
		return nil, fmt.Errorf("invalid function signature %q", method)
	}
	return crypto.Keccak256([]byte(method))[:4], nil
}

func encodeUint256Param(params []any) ([]byte, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("expected 1 parameter, got %d", len(params))
	}
	value, err := bigParam(params[0])
	if err != nil {
		return nil, err
	}
	return uint256Bytes(value)
}

func encodeLimitedCalls(params []any) ([]byte, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("expected 1 parameter, got %d", len(params))
	}
	limit, err := bigParam(params[0])
	if err != nil {
		return nil, err
	}
	if limit.Sign() <= 0 {
		return nil, fmt.Errorf("call limit must be positive")
	}
	return uint256Bytes(limit)
}

// timestamp terms are uint128 afterThreshold ‖ uint128 beforeThreshold, zero meaning unbounded
func encodeTimestamp(params []any) ([]byte, error) {
	if len(params) != 2 {
		return nil, fmt.Errorf("expected after and before thresholds, got %d parameters", len(params))
	}
	after, err := bigParam(params[0])
	if err != nil {
		return nil, err
	}
	before, err := bigParam(params[1])
	if err != nil {
		return nil, err
	}
	if after.BitLen() > 128 || before.BitLen() > 128 {
		return nil, fmt.Errorf("thresholds must fit in 128 bits")
	}
	if before.Sign() != 0 && after.Cmp(before) >= 0 {
		return nil, fmt.Errorf("after threshold must be lower than before threshold")
	}
	terms := make([]byte, 0, 32)
	terms = append(terms, common.LeftPadBytes(after.Bytes(), 16)...)
	terms = append(terms, common.LeftPadBytes(before.Bytes(), 16)...)
	return terms, nil
}

func uint256Bytes(value *big.Int) ([]byte, error) {
	if value.Sign() < 0 || value.BitLen() > 256 {
		return nil, fmt.Errorf("value %s out of uint256 range", value)
	}
	return common.LeftPadBytes(value.Bytes(), 32), nil
}

func addressesParam(params []any) ([]common.Address, error) {
	var out []common.Address
	for _, p := range params {
		switch v := p.(type) {
		case common.Address:
			out = append(out, v)
		case []common.Address:
			out = append(out, v...)
		case string:
			if !common.IsHexAddress(v) {
				return nil, fmt.Errorf("invalid address %q", v)
			}
			out = append(out, common.HexToAddress(v))
		case []string:
			for _, s := range v {
				if !common.IsHexAddress(s) {
					return nil, fmt.Errorf("invalid address %q", s)
				}
				out = append(out, common.HexToAddress(s))
			}
		default:
			return nil, fmt.Errorf("unsupported address parameter %T", p)
		}
	}
	return out, nil
}

func bigParam(p any) (*big.Int, error) {
	switch v := p.(type) {
	case *big.Int:
		if v == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case string:
		if n, ok := new(big.Int).SetString(v, 10); ok {
			return n, nil
		}
		n, err := hexutil.DecodeBig(v)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported integer parameter %T", p)
	}
}

var _ usecase.CaveatBuilder = (*CaveatBuilder)(nil)

// ParseCaveatSpec parses a command line caveat of the form type=param,param.
// Commas inside parentheses belong to function signatures and do not split.
func ParseCaveatSpec(raw string) (models.CaveatSpec, error) {
	caveatType, rawParams, _ := strings.Cut(strings.TrimSpace(raw), "=")
	if _, ok := encoders[caveatType]; !ok {
		return models.CaveatSpec{}, fmt.Errorf("%q: %w", caveatType, domain.ErrUnknownCaveat)
	}

	spec := models.CaveatSpec{Type: caveatType}
	depth, start := 0, 0
	for i, r := range rawParams {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				spec.Params = appendParam(spec.Params, rawParams[start:i])
				start = i + 1
			}
		}
	}
	spec.Params = appendParam(spec.Params, rawParams[start:])
	return spec, nil
}

func appendParam(params []any, raw string) []any {
	if raw = strings.TrimSpace(raw); raw != "" {
		params = append(params, raw)
	}
	return params
}
