package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrTxNotFound indicates the requested transaction or output does not exist.
	ErrTxNotFound = errors.New("network: transaction not found")

	// ErrBroadcastRejected indicates the node rejected the broadcast transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrUnknownChain indicates the chain identifier has no RPC preset and
	// no explicit configuration was supplied.
	ErrUnknownChain = errors.New("network: unknown chain")
)
