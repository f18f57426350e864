package keychain

import "errors"

var (
	// ErrInvalidSecretKey indicates key material is not 64 hex characters.
	ErrInvalidSecretKey = errors.New("keychain: invalid secret key")

	// ErrKeyOutOfRange indicates a derived scalar fell outside [1, N-1]
	// or exceeded 32 bytes after padding.
	ErrKeyOutOfRange = errors.New("keychain: derived key out of range")

	// ErrChainMismatch indicates a ledger record's pubkey does not match
	// the key derived from the base secret and the commit history.
	ErrChainMismatch = errors.New("keychain: ledger custody mismatch")

	// ErrSealFailed indicates base key encryption failed.
	ErrSealFailed = errors.New("keychain: seal failed")

	// ErrOpenFailed indicates base key decryption failed (wrong passphrase
	// or corrupt blob).
	ErrOpenFailed = errors.New("keychain: open failed")
)
