// Copyright (c) 2025 The gitmark developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hexmath

import "errors"

var (
	// ErrInvalidHex indicates an argument is not parseable as unsigned hex.
	ErrInvalidHex = errors.New("hexmath: invalid hex input")
)
