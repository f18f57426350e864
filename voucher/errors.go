package voucher

import "errors"

var (
	// ErrInvalidFormat indicates a voucher URI is missing its scheme,
	// path segments, or required query parameters.
	ErrInvalidFormat = errors.New("voucher: invalid voucher format")

	// ErrInsufficientFunds indicates the voucher cannot cover the fee
	// plus a positive payout.
	ErrInsufficientFunds = errors.New("voucher: insufficient voucher funds")

	// ErrNotFound indicates the voucher file does not exist.
	ErrNotFound = errors.New("voucher: voucher file not found")
)
