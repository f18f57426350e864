// Package txbuild constructs and signs the single-input P2PKH
// transactions that advance a gitmark chain.
//
// Chain outputs are addressed by 32-byte x-only public keys. Locking
// scripts are always built from the even-Y lift of the x-only key
// (0x02 prefix), and signing normalizes the secret to its even-parity
// form so the unlocking pubkey matches the script.
package txbuild

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"
)

// Output is one P2PKH output paying an x-only public key.
type Output struct {
	PubKey string // 64 hex chars, x-only
	Amount uint64 // satoshis
}

// BuildParams describes a one-input spend.
type BuildParams struct {
	PrivateKey  string // 64 hex chars; controls the input
	PublicKey   string // optional x-only pubkey; checked against PrivateKey when set
	TxID        string // funding txid, display order, 64 hex chars
	Vout        uint32
	InputAmount uint64
	Outputs     []Output
}

// BuiltTx is a signed transaction ready for broadcast.
type BuiltTx struct {
	Hex  string // signed raw transaction hex
	TxID string // display-order txid
}

// Builder builds and signs a spend. Production code uses SDKBuilder;
// tests substitute deterministic fakes.
type Builder interface {
	Build(p BuildParams) (*BuiltTx, error)
}

// SDKBuilder builds transactions with go-sdk.
type SDKBuilder struct{}

// Build constructs and signs the transaction described by p. The fee is
// implicit: InputAmount minus the sum of output amounts, which must not
// be negative.
func (SDKBuilder) Build(p BuildParams) (*BuiltTx, error) {
	priv, err := liftedPrivateKey(p.PrivateKey)
	if err != nil {
		return nil, err
	}
	if p.PublicKey != "" {
		derived := hex.EncodeToString(priv.PubKey().Compressed()[1:])
		if derived != p.PublicKey {
			return nil, fmt.Errorf("%w: public key %s does not match private key", ErrInvalidKey, p.PublicKey)
		}
	}
	if len(p.Outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", ErrBuildFailed)
	}

	var outTotal uint64
	for _, o := range p.Outputs {
		outTotal += o.Amount
	}
	if outTotal > p.InputAmount {
		return nil, fmt.Errorf("%w: outputs total %d sat, input is %d sat",
			ErrInsufficientFunds, outTotal, p.InputAmount)
	}

	sourceTxID, err := chainhash.NewHashFromHex(p.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: txid: %v", ErrBuildFailed, err)
	}

	sdkTx := transaction.NewTransaction()
	sdkTx.AddInput(&transaction.TransactionInput{
		SourceTXID:       sourceTxID,
		SourceTxOutIndex: p.Vout,
		SequenceNumber:   transaction.DefaultSequenceNumber,
	})

	for i, o := range p.Outputs {
		lockScript, err := LockingScript(o.PubKey)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		sdkTx.Outputs = append(sdkTx.Outputs, &transaction.TransactionOutput{
			Satoshis:      o.Amount,
			LockingScript: lockScript,
		})
	}

	// Attach source output info and the P2PKH unlocker, then sign.
	sourceLock, err := LockingScript(hex.EncodeToString(priv.PubKey().Compressed()[1:]))
	if err != nil {
		return nil, err
	}
	sdkTx.Inputs[0].SetSourceTxOutput(&transaction.TransactionOutput{
		Satoshis:      p.InputAmount,
		LockingScript: sourceLock,
	})
	unlocker, err := p2pkh.Unlock(priv, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unlocker: %v", ErrSigningFailed, err)
	}
	sdkTx.Inputs[0].UnlockingScriptTemplate = unlocker

	if err := sdkTx.Sign(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return &BuiltTx{
		Hex:  sdkTx.Hex(),
		TxID: sdkTx.TxID().String(),
	}, nil
}

// LockingScript builds the P2PKH locking script for an x-only pubkey,
// addressing the even-Y lift of the key.
func LockingScript(xOnlyHex string) (*script.Script, error) {
	pub, err := LiftXOnly(xOnlyHex)
	if err != nil {
		return nil, err
	}
	addr, err := script.NewAddressFromPublicKey(pub, true)
	if err != nil {
		return nil, fmt.Errorf("%w: address from pubkey: %v", ErrBuildFailed, err)
	}
	lock, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: lock script: %v", ErrBuildFailed, err)
	}
	return lock, nil
}

// LiftXOnly parses a 64-hex-char x-only pubkey as its even-Y point.
func LiftXOnly(xOnlyHex string) (*ec.PublicKey, error) {
	raw, err := hex.DecodeString(xOnlyHex)
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("%w: x-only pubkey must be 32 bytes of hex", ErrInvalidKey)
	}
	compressed := append([]byte{0x02}, raw...)
	pub, err := ec.PublicKeyFromBytes(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: not a curve point: %v", ErrInvalidKey, err)
	}
	return pub, nil
}

// curveOrder is the secp256k1 group order, used for parity normalization.
var curveOrder, _ = new(big.Int).SetString(
	"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// liftedPrivateKey parses a hex secret and normalizes it to the scalar
// whose public key has even Y, matching the scripts LockingScript builds.
func liftedPrivateKey(secretHex string) (*ec.PrivateKey, error) {
	raw, err := hex.DecodeString(secretHex)
	if err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("%w: private key must be 32 bytes of hex", ErrInvalidKey)
	}
	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 || d.Cmp(curveOrder) >= 0 {
		return nil, fmt.Errorf("%w: private key scalar out of range", ErrInvalidKey)
	}

	priv, _ := ec.PrivateKeyFromBytes(raw)
	if priv.PubKey().Compressed()[0] == 0x03 {
		// Odd Y: negate so the pubkey matches the even-Y lift.
		neg := new(big.Int).Sub(curveOrder, d)
		negBytes := make([]byte, 32)
		neg.FillBytes(negBytes)
		priv, _ = ec.PrivateKeyFromBytes(negBytes)
	}
	return priv, nil
}
