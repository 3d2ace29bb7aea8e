package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Sentinel errors for domain operations
var (
	// ErrUnsignedDelegation is returned when an unsigned delegation is about to be redeemed
	ErrUnsignedDelegation = errors.New("delegation is not signed")

	// ErrSignatoryUnavailable is returned when logging in with a signatory that is not configured
	ErrSignatoryUnavailable = errors.New("signatory not configured")

	// ErrUnknownSignatory is returned when selecting a signatory that doesn't exist
	ErrUnknownSignatory = errors.New("unknown signatory")

	// ErrNotLoggedIn is returned when an action requires a signatory login first
	ErrNotLoggedIn = errors.New("signatory is not logged in")

	// ErrLogoutUnsupported is returned when the selected signatory cannot log out
	ErrLogoutUnsupported = errors.New("signatory does not support logout")

	// ErrNoAccount is returned when an action requires an account that hasn't been created
	ErrNoAccount = errors.New("account not created")

	// ErrNoDelegation is returned when an action requires a delegation that hasn't been created
	ErrNoDelegation = errors.New("delegation not created")

	// ErrUnknownCaveat is returned when the caveat builder doesn't know a caveat type
	ErrUnknownCaveat = errors.New("unknown caveat type")

	// ErrInvalidCaveat is returned when caveat parameters can't be encoded
	ErrInvalidCaveat = errors.New("invalid caveat parameters")

	// ErrReceiptTimeout is returned when the bundler never reports a receipt
	ErrReceiptTimeout = errors.New("timed out waiting for user operation receipt")
)

// ConfigurationError is returned when a required configuration value is missing
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s is required", e.Key)
}

// AuthenticationError is returned when a signatory provider rejects the login
type AuthenticationError struct {
	Signatory SignatoryName
	Err       error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("failed to log in with %s signatory: %v", e.Signatory, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// MismatchError is returned when the redeemer is not the delegate of the delegation
type MismatchError struct {
	Redeemer common.Address
	Delegate common.Address
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("redeemer account address not equal to delegate. Redeemer: %s, delegate: %s",
		e.Redeemer.Hex(), e.Delegate.Hex())
}

// SigningError is returned when a signatory can't produce a signature
type SigningError struct {
	Signer common.Address
	Err    error
}

func (e *SigningError) Error() string {
	if e.Signer == (common.Address{}) {
		return fmt.Sprintf("signing failed: %v", e.Err)
	}
	return fmt.Sprintf("signing with %s failed: %v", e.Signer.Hex(), e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// RedemptionFailure is returned when the bundler reports an unsuccessful settlement
type RedemptionFailure struct {
	UserOpHash common.Hash
	Reason     string
}

func (e *RedemptionFailure) Error() string {
	if e.UserOpHash == (common.Hash{}) {
		return fmt.Sprintf("user operation rejected: %s", e.Reason)
	}
	return fmt.Sprintf("user operation %s failed: %s", e.UserOpHash.Hex(), e.Reason)
}

// NetworkError wraps transport failures talking to the bundler, paymaster or RPC node
type NetworkError struct {
	Service string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BusyError is returned when a redemption is already in flight for the account
type BusyError struct {
	Account common.Address
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("a user operation is already in flight for %s", e.Account.Hex())
}
