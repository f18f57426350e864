// Package voucher implements the bearer funding credential that
// bootstraps a gitmark chain.
//
// A voucher describes one unspent transaction output together with the
// private key that controls it: whoever holds the serialized credential
// holds the funds. Two URI forms are accepted:
//
//	txo:<chain>:<txid>:<vout>?key=<hex64>&amount=<sats>[&pubkey=<hex64>]
//	urn:voucher:txo:<chain>:<txid>:<vout>?key=...&amount=...
//
// Redemption is one-shot: spending the output either exhausts the
// voucher or reissues it over the change output. Enforcing one-shot use
// is the caller's job — overwrite or remove the stored credential before
// reuse is possible.
package voucher

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// Scheme is the short-form URI scheme.
	Scheme = "txo"

	// URNPrefix is the long-form prefix accepted on parse.
	URNPrefix = "urn:voucher:"
)

// hexLen64 is the hex-encoded length of a 32-byte value.
const hexLen64 = 64

// Voucher is a self-describing credential for one unspent output.
type Voucher struct {
	Chain      string
	TxID       string // 64 hex chars
	Vout       uint32
	PrivateKey string // 64 hex chars; controls the output
	Amount     uint64 // satoshis
	PubKey     string // optional, 64 hex chars
}

// Parse parses a voucher URI in short or urn-prefixed long form.
func Parse(uri string) (*Voucher, error) {
	trimmed := strings.TrimPrefix(uri, URNPrefix)
	if !strings.HasPrefix(trimmed, Scheme+":") {
		return nil, fmt.Errorf("%w: scheme must be %q or %q%s in %q",
			ErrInvalidFormat, Scheme, URNPrefix, Scheme, uri)
	}

	rest := trimmed[len(Scheme)+1:]
	query := ""
	if idx := strings.Index(rest, "?"); idx >= 0 {
		query = rest[idx+1:]
		rest = rest[:idx]
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: want chain:txid:vout, got %q", ErrInvalidFormat, rest)
	}
	chain, txid, voutStr := parts[0], parts[1], parts[2]
	if chain == "" {
		return nil, fmt.Errorf("%w: empty chain", ErrInvalidFormat)
	}
	if !isHex(txid, hexLen64) {
		return nil, fmt.Errorf("%w: txid must be %d hex chars", ErrInvalidFormat, hexLen64)
	}
	vout, err := strconv.ParseUint(voutStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: vout must be a non-negative integer, got %q", ErrInvalidFormat, voutStr)
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid query: %v", ErrInvalidFormat, err)
	}

	key := strings.ToLower(params.Get("key"))
	if !isHex(key, hexLen64) {
		return nil, fmt.Errorf("%w: missing or invalid key parameter", ErrInvalidFormat)
	}

	amountStr := params.Get("amount")
	if amountStr == "" {
		return nil, fmt.Errorf("%w: missing amount parameter", ErrInvalidFormat)
	}
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: amount must be a non-negative integer, got %q", ErrInvalidFormat, amountStr)
	}

	pubKey := strings.ToLower(params.Get("pubkey"))
	if pubKey != "" && !isHex(pubKey, hexLen64) {
		return nil, fmt.Errorf("%w: pubkey must be %d hex chars", ErrInvalidFormat, hexLen64)
	}

	return &Voucher{
		Chain:      chain,
		TxID:       strings.ToLower(txid),
		Vout:       uint32(vout),
		PrivateKey: key,
		Amount:     amount,
		PubKey:     pubKey,
	}, nil
}

// URI serializes the voucher in canonical short form. key and amount are
// always present; pubkey only when set.
func (v *Voucher) URI() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s:%s:%d?key=%s&amount=%d",
		Scheme, v.Chain, v.TxID, v.Vout, v.PrivateKey, v.Amount)
	if v.PubKey != "" {
		fmt.Fprintf(&b, "&pubkey=%s", v.PubKey)
	}
	return b.String()
}

// URN serializes the voucher in long urn-prefixed form.
func (v *Voucher) URN() string {
	return URNPrefix + v.URI()
}

// isHex reports whether s is exactly n hex characters.
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
