package txbuild

import "errors"

var (
	// ErrInvalidKey indicates a private or public key is malformed or
	// not usable on the curve.
	ErrInvalidKey = errors.New("txbuild: invalid key")

	// ErrInsufficientFunds indicates the input cannot cover the outputs.
	ErrInsufficientFunds = errors.New("txbuild: insufficient funds")

	// ErrBuildFailed indicates transaction construction failed.
	ErrBuildFailed = errors.New("txbuild: build failed")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("txbuild: signing failed")
)
