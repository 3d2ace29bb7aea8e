package delegation

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gatorkit/gator-cli/internal/adapters/abi"
	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/gatorkit/gator-cli/internal/domain/models"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

const (
	domainName    = "DelegationManager"
	domainVersion = "1"
)

var delegationTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Delegation": {
		{Name: "delegate", Type: "address"},
		{Name: "delegator", Type: "address"},
		{Name: "authority", Type: "bytes32"},
		{Name: "caveats", Type: "Caveat[]"},
		{Name: "salt", Type: "uint256"},
	},
	"Caveat": {
		{Name: "enforcer", Type: "address"},
		{Name: "terms", Type: "bytes"},
	},
}

// Codec implements usecase.DelegationCodec for the DelegationManager deployment of the configured chain
type Codec struct {
	cfg *config.RuntimeConfig
}

// NewCodec creates a new delegation codec
func NewCodec(cfg *config.RuntimeConfig) *Codec {
	return &Codec{cfg: cfg}
}

// TypedData builds the EIP-712 payload signed by the delegator
func (c *Codec) TypedData(d *models.Delegation) (apitypes.TypedData, error) {
	network, err := c.cfg.RequireNetwork()
	if err != nil {
		return apitypes.TypedData{}, err
	}
	env, err := c.cfg.RequireEnvironment()
	if err != nil {
		return apitypes.TypedData{}, err
	}
	if d.Salt == nil {
		return apitypes.TypedData{}, errors.New("delegation salt is not set")
	}

	caveats := make([]interface{}, 0, len(d.Caveats))
	for _, caveat := range d.Caveats {
		caveats = append(caveats, map[string]interface{}{
			"enforcer": caveat.Enforcer.Hex(),
			"terms":    hexutil.Encode(caveat.Terms),
		})
	}

	return apitypes.TypedData{
		Types:       delegationTypes,
		PrimaryType: "Delegation",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(network.ChainID)),
			VerifyingContract: env.DelegationManager.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"delegate":  d.Delegate.Hex(),
			"delegator": d.Delegator.Hex(),
			"authority": d.Authority.Hex(),
			"caveats":   caveats,
			"salt":      d.Salt.String(),
		},
	}, nil
}

// Hash returns the EIP-712 struct hash used by the DelegationManager to key delegations
func (c *Codec) Hash(d *models.Delegation) (common.Hash, error) {
	typedData, err := c.TypedData(d)
	if err != nil {
		return common.Hash{}, err
	}
	hash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash delegation: %w", err)
	}
	return common.BytesToHash(hash), nil
}

// RecoverSigner recovers the address that signed the delegation
func (c *Codec) RecoverSigner(d *models.Delegation) (common.Address, error) {
	if !d.IsSigned() {
		return common.Address{}, errors.New("delegation has no signature")
	}
	typedData, err := c.TypedData(d)
	if err != nil {
		return common.Address{}, err
	}
	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return RecoverAddress(digest, d.Signature)
}

// RecoverAddress recovers the signer of a digest from a 65-byte signature with v in {0,1,27,28}
func RecoverAddress(digest []byte, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(signature))
	}
	sig := common.CopyBytes(signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// EncodeRedeemDelegations encodes redeemDelegations for a single delegation chain and execution
func (c *Codec) EncodeRedeemDelegations(chain []*models.Delegation, execution models.Execution) ([]byte, error) {
	delegations := make([]abi.Delegation, 0, len(chain))
	for _, d := range chain {
		delegations = append(delegations, toABI(d))
	}

	permissionContext, err := abi.EncodeDelegations(delegations)
	if err != nil {
		return nil, fmt.Errorf("failed to encode permission context: %w", err)
	}

	executionData := abi.EncodeSingleExecution(abi.Execution{
		Target:   execution.Target,
		Value:    execution.Value,
		CallData: execution.CallData,
	})

	return abi.DeleGator.Pack("redeemDelegations",
		[][]byte{permissionContext},
		[][32]byte{abi.SingleDefaultMode},
		[][]byte{executionData},
	)
}

// EncodeDisableDelegation encodes disableDelegation(delegation)
func (c *Codec) EncodeDisableDelegation(d *models.Delegation) ([]byte, error) {
	return abi.DeleGator.Pack("disableDelegation", toABI(d))
}

// EncodeEnableDelegation encodes enableDelegation(delegation)
func (c *Codec) EncodeEnableDelegation(d *models.Delegation) ([]byte, error) {
	return abi.DeleGator.Pack("enableDelegation", toABI(d))
}

func toABI(d *models.Delegation) abi.Delegation {
	caveats := make([]abi.Caveat, 0, len(d.Caveats))
	for _, caveat := range d.Caveats {
		caveats = append(caveats, abi.Caveat{
			Enforcer: caveat.Enforcer,
			Terms:    nonNil(caveat.Terms),
			Args:     nonNil(caveat.Args),
		})
	}
	salt := d.Salt
	if salt == nil {
		salt = new(big.Int)
	}
	return abi.Delegation{
		Delegate:  d.Delegate,
		Delegator: d.Delegator,
		Authority: d.Authority,
		Caveats:   caveats,
		Salt:      salt,
		Signature: nonNil(d.Signature),
	}
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

var _ usecase.DelegationCodec = (*Codec)(nil)
