package mark

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/solidpayorg/gitmark-go/git"
	"github.com/solidpayorg/gitmark-go/journal"
	"github.com/solidpayorg/gitmark-go/keychain"
	"github.com/solidpayorg/gitmark-go/ledger"
	"github.com/solidpayorg/gitmark-go/txbuild"
	"github.com/solidpayorg/gitmark-go/voucher"
)

// InitOptions configure chain bootstrap.
type InitOptions struct {
	Voucher   string // funding voucher: a URI, or the path of a file holding one
	Amount    uint64 // desired seed amount; capped by what the voucher holds
	Fee       uint64 // 0 = gitmark.fee or DefaultFee
	Force     bool   // replace an existing ledger
	GlobalKey bool   // store a generated base key in global scope
}

// Init bootstraps a repository chain from a funding voucher: it redeems
// the voucher, pays the seed output to the base public key, and writes a
// one-record ledger. Any change is reissued as a successor voucher over
// the same file; an exhausted voucher file is removed. Either way the
// original credential is gone after a successful init, which is what
// makes the voucher one-shot.
func (m *Mark) Init(ctx context.Context, opts InitOptions) (*Result, error) {
	if m.Chain == nil {
		return nil, ErrOffline
	}

	var res *Result
	err := m.withWriteLock(func() error {
		if l, err := ledger.LoadFile(m.LedgerPath()); err == nil && l.Len() > 0 && !opts.Force {
			return fmt.Errorf("%w: %s", ErrAlreadyInitialized, m.LedgerPath())
		}

		// A literal URI is accepted in place of a file path; the
		// successor credential then goes to the default location.
		v, perr := voucher.Parse(opts.Voucher)
		storePath := VoucherPathDefault(m.Dir)
		if perr != nil {
			var err error
			if v, err = voucher.LoadFile(opts.Voucher); err != nil {
				return err
			}
			storePath = opts.Voucher
		}

		base, err := m.ensureBaseKey(ctx, opts.GlobalKey)
		if err != nil {
			return err
		}
		basePub, err := keychain.PublicKeyOf(base)
		if err != nil {
			return err
		}

		fee := m.resolveFee(ctx, opts.Fee)
		desired := opts.Amount
		if desired == 0 {
			desired = v.Amount // take everything the voucher holds
		}

		r, err := voucher.Redeem(v, basePub, desired, fee)
		if err != nil {
			return err
		}

		outputs := []txbuild.Output{{PubKey: basePub, Amount: r.UserAmount}}
		if !r.Exhausted() {
			changePub, err := keychain.PublicKeyOf(v.PrivateKey)
			if err != nil {
				return err
			}
			r.Change.PubKey = changePub
			outputs = append(outputs, txbuild.Output{PubKey: changePub, Amount: r.Remainder})
		}

		built, err := m.Builder.Build(txbuild.BuildParams{
			PrivateKey:  v.PrivateKey,
			TxID:        v.TxID,
			Vout:        v.Vout,
			InputAmount: v.Amount,
			Outputs:     outputs,
		})
		if err != nil {
			return err
		}
		r.BindTxID(built.TxID)

		_, err = m.Chain.BroadcastTx(ctx, built.Hex)
		_ = m.Journal.RecordBroadcast(&journal.BroadcastEntry{
			TxID:     built.TxID,
			Accepted: err == nil,
			Detail:   broadcastDetail(err),
		})
		if err != nil {
			return fmt.Errorf("broadcast %s: %w", built.TxID, err)
		}

		seed := &ledger.OutputRecord{
			Chain:  v.Chain,
			TxID:   built.TxID,
			Vout:   0,
			Amount: r.UserAmount,
			PubKey: basePub,
			// Bootstrap record carries no commit hash.
		}
		if err := seed.Validate(); err != nil {
			return err
		}
		if err := ledger.New().Append(seed).SaveFile(m.LedgerPath()); err != nil {
			return err
		}

		// Replace or retire the spent credential.
		if r.Exhausted() {
			if err := os.Remove(storePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove voucher: %w", err)
			}
		} else if err := r.Change.SaveFile(storePath); err != nil {
			return err
		}

		if err := m.Config.Set(ctx, git.KeyChain, v.Chain, git.ScopeLocal); err != nil {
			return err
		}

		res = &Result{
			TxHex:   built.Hex,
			TxID:    built.TxID,
			Record:  seed,
			Amount:  r.UserAmount,
			Fee:     fee,
			Message: fmt.Sprintf("chain initialized on %s with %d sat in tx %s", v.Chain, r.UserAmount, built.TxID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ensureBaseKey returns the configured base key, generating and storing
// a fresh one when none exists yet.
func (m *Mark) ensureBaseKey(ctx context.Context, global bool) (string, error) {
	base, err := m.baseKey(ctx)
	if err == nil {
		return base, nil
	}
	if !errors.Is(err, ErrNoBaseKey) {
		return "", err
	}

	priv, err := ec.NewPrivateKey()
	if err != nil {
		return "", fmt.Errorf("generate base key: %w", err)
	}
	raw := make([]byte, 32)
	priv.D.FillBytes(raw)
	base = hex.EncodeToString(raw)

	scope := git.ScopeLocal
	if global {
		scope = git.ScopeGlobal
	}
	if err := m.Config.Set(ctx, git.KeyBase, base, scope); err != nil {
		return "", err
	}
	return base, nil
}

// VoucherPathDefault returns the conventional voucher location for a
// repository.
func VoucherPathDefault(dir string) string {
	return filepath.Join(dir, ".gitmark-voucher")
}
