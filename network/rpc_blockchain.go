package network

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Compile-time interface check.
var _ BlockchainService = (*RPCClient)(nil)

// rpcCodeNoSuchTx is the node's RPC_INVALID_ADDRESS_OR_KEY code, returned
// by getrawtransaction for a txid unknown to both mempool and chain.
const rpcCodeNoSuchTx = -5

// btcToSat converts a BTC float64 amount (as returned by the RPC node)
// to satoshis, rounding to avoid floating-point truncation.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

// gettxoutResult maps the JSON fields returned by gettxout. The pointer
// type at the call site distinguishes JSON null (spent) from a result.
type gettxoutResult struct {
	Value         float64 `json:"value"`
	Confirmations int64   `json:"confirmations"`
	ScriptPubKey  struct {
		Hex       string   `json:"hex"`
		Addresses []string `json:"addresses"`
	} `json:"scriptPubKey"`
}

// GetUTXO returns a specific unspent output via `gettxout "txid" vout`.
// A spent output returns JSON null, surfaced as ErrTxNotFound.
func (c *RPCClient) GetUTXO(ctx context.Context, txid string, vout uint32) (*UTXO, error) {
	params := []interface{}{txid, vout}
	var result *gettxoutResult
	if err := c.Call(ctx, "gettxout", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: output %s:%d is spent", ErrTxNotFound, txid, vout)
	}

	utxo := &UTXO{
		TxID:          txid,
		Vout:          vout,
		Amount:        btcToSat(result.Value),
		ScriptPubKey:  result.ScriptPubKey.Hex,
		Confirmations: result.Confirmations,
	}
	if len(result.ScriptPubKey.Addresses) > 0 {
		utxo.Address = result.ScriptPubKey.Addresses[0]
	}
	return utxo, nil
}

// listUnspentResult maps the JSON fields returned by listunspent.
type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent returns unspent outputs for an address via
// `listunspent 0 9999999 ["address"]`.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	params := []interface{}{0, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	utxos := make([]*UTXO, len(results))
	for i, r := range results {
		utxos[i] = &UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Amount:        btcToSat(r.Amount),
			ScriptPubKey:  r.ScriptPubKey,
			Address:       r.Address,
			Confirmations: r.Confirmations,
		}
	}
	return utxos, nil
}

// BroadcastTx submits a raw transaction via `sendrawtransaction "hex"`.
// RPC errors are wrapped with ErrBroadcastRejected.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	params := []interface{}{rawTxHex}
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", params, &txid); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBroadcastRejected, err)
	}
	return txid, nil
}

// verboseTxResult maps the JSON fields from getrawtransaction verbose=true.
type verboseTxResult struct {
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"blockhash"`
	BlockHeight   uint64 `json:"blockheight"`
}

// GetTxStatus returns confirmation status via `getrawtransaction "txid" true`.
// A txid the node has never seen answers RPC error -5, surfaced as
// ErrTxNotFound so callers can tell "unknown" from a transport failure.
func (c *RPCClient) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	params := []interface{}{txid, true}
	var result verboseTxResult
	if err := c.Call(ctx, "getrawtransaction", params, &result); err != nil {
		var rerr *rpcError
		if errors.As(err, &rerr) && rerr.Code == rpcCodeNoSuchTx {
			return nil, fmt.Errorf("%w: transaction %s unknown to the node", ErrTxNotFound, txid)
		}
		return nil, err
	}
	return &TxStatus{
		Confirmed:   result.Confirmations > 0,
		BlockHash:   result.BlockHash,
		BlockHeight: result.BlockHeight,
	}, nil
}
