// Package network provides blockchain access for gitmark: UTXO lookup,
// transaction broadcast, and confirmation status over a node's JSON-RPC
// interface.
package network

import "context"

// BlockchainService is the chain-facing collaborator the orchestrator
// depends on. Every call performs network I/O and honors ctx; none is
// retried internally — a broadcast may already have been relayed, so
// retrying is the one thing this layer must never do on its own.
type BlockchainService interface {
	// GetUTXO returns a specific unspent output by txid and index.
	// Spent or unknown outputs yield ErrTxNotFound.
	GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error)

	// ListUnspent returns all unspent outputs for the given address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// BroadcastTx submits a raw transaction hex and returns the
	// network-confirmed txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// GetTxStatus returns the confirmation status of a transaction.
	GetTxStatus(ctx context.Context, txid string) (*TxStatus, error)
}

// UTXO represents an unspent transaction output as reported by the node.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"` // satoshis
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// TxStatus represents the confirmation status of a transaction.
type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHash   string `json:"block_hash"`
	BlockHeight uint64 `json:"block_height"`
}
