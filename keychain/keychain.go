// Package keychain derives gitmark signing and destination keys from a
// base secret and the commit history recorded in the ledger.
//
// Key evolution is plain unsigned hex addition: the key controlling
// record N is base + sum(commit hashes of records 1..N). The package is
// stateless; every derivation recomputes the commit sum from the ledger
// so the ledger stays the sole source of truth.
package keychain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/solidpayorg/gitmark-go/hexmath"
	"github.com/solidpayorg/gitmark-go/ledger"
)

// secretKeyPattern matches a 32-byte hex-encoded secret key.
var secretKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// curveOrderHex is the secp256k1 group order N. Derived keys must be
// scalars in [1, N-1]; sums outside that range are rejected rather than
// silently reduced, so a bad chain fails loudly instead of spending from
// an unexpected key.
const curveOrderHex = "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"

var curveOrder, _ = new(big.Int).SetString(curveOrderHex, 16)

// zeroSum is the empty commit sum: 64 zero hex digits.
var zeroSum = strings.Repeat("0", hexmath.SecretKeyHexLen)

// HistoricalCommitSum folds AddAndPad left-to-right over every commit
// hash in the ledger, in ledger order, skipping records without one.
// Returns 64 zero digits when no commit hashes are present. A record
// carrying an explicit all-zero hash is folded like any other; the add
// is a numeric no-op but the record still participates.
func HistoricalCommitSum(l *ledger.Ledger) (string, error) {
	sum := zeroSum
	for _, h := range l.CommitHashes() {
		next, err := hexmath.AddAndPad(sum, h)
		if err != nil {
			return "", err
		}
		sum = next
	}
	return sum, nil
}

// SigningKey derives the secret key controlling the ledger's current
// (last) record: base combined with the commit sum over the whole
// ledger. The current record was created using that same sum at its own
// creation time, so any mismatch means the chain is broken and the
// result would not be spendable.
func SigningKey(base string, l *ledger.Ledger) (string, error) {
	if err := validateSecretKey(base); err != nil {
		return "", err
	}
	sum, err := HistoricalCommitSum(l)
	if err != nil {
		return "", err
	}
	return combine(base, sum)
}

// DestinationKey derives the secret key for the output a new advance is
// about to create: base combined with the historical sum and the commit
// hash that triggered the advance.
func DestinationKey(base string, l *ledger.Ledger, commitHash string) (string, error) {
	if err := validateSecretKey(base); err != nil {
		return "", err
	}
	if !secretKeyPattern.MatchString(commitHash) {
		return "", fmt.Errorf("%w: commit hash must be 64 hex chars", ErrInvalidSecretKey)
	}
	sum, err := HistoricalCommitSum(l)
	if err != nil {
		return "", err
	}
	withHistory, err := combine(base, sum)
	if err != nil {
		return "", err
	}
	return combine(withHistory, commitHash)
}

// PublicKeyOf returns the 64-hex-char x-only public key for a secret
// key. Only the hex format is validated here; curve-level rejection is
// left to the underlying library.
func PublicKeyOf(secretHex string) (string, error) {
	if err := validateSecretKey(secretHex); err != nil {
		return "", err
	}
	raw, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}
	priv, _ := ec.PrivateKeyFromBytes(raw)
	compressed := priv.PubKey().Compressed()
	// Drop the parity byte: x-only form.
	return hex.EncodeToString(compressed[1:]), nil
}

// VerifyChain checks, record by record, that the ledger's custody
// evolution matches the base secret: each record's pubkey must equal the
// public key of base + commit sum over the ledger prefix ending at that
// record. Returns nil for an empty ledger.
func VerifyChain(base string, l *ledger.Ledger) error {
	if err := validateSecretKey(base); err != nil {
		return err
	}

	sum := zeroSum
	for i, r := range l.Records() {
		if r.CommitHash != "" {
			next, err := hexmath.AddAndPad(sum, r.CommitHash)
			if err != nil {
				return err
			}
			sum = next
		}
		secret, err := combine(base, sum)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		pub, err := PublicKeyOf(secret)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if pub != r.PubKey {
			return fmt.Errorf("%w: record %d pubkey %s, derived %s",
				ErrChainMismatch, i, r.PubKey, pub)
		}
	}
	return nil
}

// combine adds two hex values and enforces the scalar range policy:
// the padded sum must stay within 32 bytes and inside [1, N-1].
func combine(a, b string) (string, error) {
	sum, err := hexmath.AddAndPad(a, b)
	if err != nil {
		return "", err
	}
	if len(sum) > hexmath.SecretKeyHexLen {
		return "", fmt.Errorf("%w: sum is %d hex chars", ErrKeyOutOfRange, len(sum))
	}
	n, ok := new(big.Int).SetString(sum, 16)
	if !ok {
		return "", fmt.Errorf("%w: %q", hexmath.ErrInvalidHex, sum)
	}
	if n.Sign() == 0 || n.Cmp(curveOrder) >= 0 {
		return "", fmt.Errorf("%w: scalar outside [1, N-1]", ErrKeyOutOfRange)
	}
	return sum, nil
}

// validateSecretKey checks the 64-hex-char secret key format.
func validateSecretKey(s string) error {
	if !secretKeyPattern.MatchString(s) {
		return fmt.Errorf("%w: want 64 hex chars, got %d", ErrInvalidSecretKey, len(s))
	}
	return nil
}
