package models

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RootAuthority is the authority of a delegation that is not derived from another delegation
var RootAuthority = common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

// EmptySignature is the placeholder some wallets return instead of refusing to sign
var EmptySignature = make([]byte, 65)

// CaveatSpec is an unencoded caveat as requested by a caller
type CaveatSpec struct {
	Type   string `json:"type"`
	Params []any  `json:"params"`
}

// Caveat is an encoded restriction attached to a delegation
type Caveat struct {
	Type     string         `json:"type,omitempty"`
	Enforcer common.Address `json:"enforcer"`
	Terms    []byte         `json:"terms"`
	Args     []byte         `json:"args"`
}

// Delegation grants the delegate the authority to act on behalf of the delegator
type Delegation struct {
	Delegate  common.Address `json:"delegate"`
	Delegator common.Address `json:"delegator"`
	Authority common.Hash    `json:"authority"`
	Caveats   []Caveat       `json:"caveats"`
	Salt      *big.Int       `json:"salt"`
	Signature []byte         `json:"signature,omitempty"`
}

// IsSigned reports whether the delegation carries a usable signature
func (d *Delegation) IsSigned() bool {
	if d == nil || len(d.Signature) == 0 {
		return false
	}
	return !bytes.Equal(d.Signature, EmptySignature)
}

// WithSignature returns a copy of the delegation with the signature attached
func (d *Delegation) WithSignature(signature []byte) *Delegation {
	signed := *d
	signed.Caveats = append([]Caveat(nil), d.Caveats...)
	signed.Salt = new(big.Int).Set(d.Salt)
	signed.Signature = common.CopyBytes(signature)
	return &signed
}

// IsRoot reports whether the delegation is a root delegation
func (d *Delegation) IsRoot() bool {
	return d.Authority == RootAuthority
}
