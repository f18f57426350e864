// Copyright (c) 2025 The gitmark developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package hexmath implements the unsigned big-integer hex arithmetic that
// drives gitmark key evolution.
//
// All values are hex strings treated as unsigned integers of arbitrary
// width. Results are lowercase, unpadded, and carry no 0x prefix.
package hexmath

import (
	"fmt"
	"math/big"
	"strings"
)

// SecretKeyHexLen is the hex-encoded length of a 32-byte key.
const SecretKeyHexLen = 64

// Add returns the unsigned sum of one or more hex values. Each value may
// carry an optional 0x prefix. The result is lowercase with no padding.
func Add(values ...string) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("%w: no values", ErrInvalidHex)
	}

	sum := new(big.Int)
	for _, v := range values {
		n, err := parseHex(v)
		if err != nil {
			return "", err
		}
		sum.Add(sum, n)
	}
	return sum.Text(16), nil
}

// PadTo32Bytes left-pads a hex string with zeros to 64 characters.
// Inputs already at or beyond 64 characters are returned unchanged:
// padding never truncates, so an oversized value stays oversized and
// the caller owns that correctness boundary.
func PadTo32Bytes(s string) string {
	if len(s) >= SecretKeyHexLen {
		return s
	}
	return strings.Repeat("0", SecretKeyHexLen-len(s)) + s
}

// AddAndPad combines two hex values and pads the sum to 64 characters.
// This is the key-combination primitive: it performs no reduction modulo
// the secp256k1 order, so the result may not be a valid secret key.
func AddAndPad(a, b string) (string, error) {
	sum, err := Add(a, b)
	if err != nil {
		return "", err
	}
	return PadTo32Bytes(sum), nil
}

// parseHex parses a hex string (optionally 0x-prefixed) into a big.Int.
func parseHex(s string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidHex)
	}
	n, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %q", ErrInvalidHex, s)
	}
	return n, nil
}
