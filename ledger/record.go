// Package ledger implements the append-only chain of transaction outputs
// that records gitmark's commit-by-commit custody evolution.
//
// The ledger lives at .well-known/txo/txo.json as a JSON array of TXO
// record URIs:
//
//	txo:<chain>:<txid>:<vout>?amount=<sats>&pubkey=<hex>[&commit=<hex>]
//
// Insertion order is chronological order is spend order. Only the last
// record is spendable; earlier records contribute their commit hashes to
// key evolution.
package ledger

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme is the URI scheme for TXO records.
const Scheme = "txo"

// hexLen64 is the hex-encoded length of a 32-byte identifier.
const hexLen64 = 64

// OutputRecord is one ledger entry: a spendable transaction output and,
// optionally, the commit hash that produced it.
type OutputRecord struct {
	Chain      string // network identifier, e.g. "bsv", "tbsv"
	TxID       string // 64 hex chars
	Vout       uint32
	Amount     uint64 // satoshis, > 0
	PubKey     string // 64 hex chars, x-only
	CommitHash string // 64 hex chars, empty for the bootstrap record
}

// ParseRecord parses a TXO record URI into an OutputRecord.
func ParseRecord(uri string) (*OutputRecord, error) {
	if !strings.HasPrefix(uri, Scheme+":") {
		return nil, fmt.Errorf("%w: scheme must be %q in %q", ErrInvalidRecord, Scheme, uri)
	}

	rest := uri[len(Scheme)+1:]
	query := ""
	if idx := strings.Index(rest, "?"); idx >= 0 {
		query = rest[idx+1:]
		rest = rest[:idx]
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: want chain:txid:vout, got %q", ErrInvalidRecord, rest)
	}
	chain, txid, voutStr := parts[0], parts[1], parts[2]
	if chain == "" {
		return nil, fmt.Errorf("%w: empty chain", ErrInvalidRecord)
	}
	if !isHex(txid, hexLen64) {
		return nil, fmt.Errorf("%w: txid must be %d hex chars", ErrInvalidRecord, hexLen64)
	}
	vout, err := strconv.ParseUint(voutStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid vout %q", ErrInvalidRecord, voutStr)
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid query: %v", ErrInvalidRecord, err)
	}

	amountStr := params.Get("amount")
	if amountStr == "" {
		return nil, fmt.Errorf("%w: missing amount", ErrInvalidRecord)
	}
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil || amount == 0 {
		return nil, fmt.Errorf("%w: amount must be a positive integer, got %q", ErrInvalidRecord, amountStr)
	}

	pubKey := strings.ToLower(params.Get("pubkey"))
	if !isHex(pubKey, hexLen64) {
		return nil, fmt.Errorf("%w: pubkey must be %d hex chars", ErrInvalidRecord, hexLen64)
	}

	commit := strings.ToLower(params.Get("commit"))
	if commit != "" && !isHex(commit, hexLen64) {
		return nil, fmt.Errorf("%w: commit must be %d hex chars", ErrInvalidRecord, hexLen64)
	}

	return &OutputRecord{
		Chain:      chain,
		TxID:       strings.ToLower(txid),
		Vout:       uint32(vout),
		Amount:     amount,
		PubKey:     pubKey,
		CommitHash: commit,
	}, nil
}

// URI serializes the record to its canonical TXO URI form.
// Parameter order is fixed: amount, pubkey, then commit if present.
func (r *OutputRecord) URI() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s:%s:%d?amount=%d&pubkey=%s",
		Scheme, r.Chain, r.TxID, r.Vout, r.Amount, r.PubKey)
	if r.CommitHash != "" {
		fmt.Fprintf(&b, "&commit=%s", r.CommitHash)
	}
	return b.String()
}

// Validate checks the record invariants.
func (r *OutputRecord) Validate() error {
	if r.Chain == "" {
		return fmt.Errorf("%w: empty chain", ErrInvalidRecord)
	}
	if !isHex(r.TxID, hexLen64) {
		return fmt.Errorf("%w: txid must be %d hex chars", ErrInvalidRecord, hexLen64)
	}
	if r.Amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidRecord)
	}
	if !isHex(r.PubKey, hexLen64) {
		return fmt.Errorf("%w: pubkey must be %d hex chars", ErrInvalidRecord, hexLen64)
	}
	if r.CommitHash != "" && !isHex(r.CommitHash, hexLen64) {
		return fmt.Errorf("%w: commit must be %d hex chars", ErrInvalidRecord, hexLen64)
	}
	return nil
}

// isHex reports whether s is exactly n lowercase-insensitive hex characters.
func isHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
