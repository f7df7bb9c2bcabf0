package order

import "errors"

// Validation failures. All are raised before anything is signed or sent.
var (
	ErrInvalidSide          = errors.New("invalid side")
	ErrInvalidOrderType     = errors.New("invalid order type")
	ErrInvalidSignatureType = errors.New("invalid signature type")
	ErrInvalidTokenID       = errors.New("invalid token id")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrInvalidSize          = errors.New("invalid size")
	ErrInvalidTickSize      = errors.New("invalid tick size")
	ErrInvalidExpiration    = errors.New("invalid expiration")
	ErrFeeRateMismatch      = errors.New("fee rate does not match market fee rate")
	ErrSignerMismatch       = errors.New("order signer does not match signing key")
	ErrFunderRequired       = errors.New("funder address required for signature type")
	ErrInvalidSignature     = errors.New("invalid signature")
)

// Market-price failures.
var (
	ErrNoMatch   = errors.New("no match")
	ErrEmptyBook = errors.New("order book side is empty")
)
