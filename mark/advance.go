package mark

import (
	"context"
	"errors"
	"fmt"

	"github.com/solidpayorg/gitmark-go/journal"
	"github.com/solidpayorg/gitmark-go/keychain"
	"github.com/solidpayorg/gitmark-go/ledger"
	"github.com/solidpayorg/gitmark-go/network"
	"github.com/solidpayorg/gitmark-go/txbuild"
)

// AdvanceOptions configure one advance.
type AdvanceOptions struct {
	Message string // commit message; "gitmark" when empty
	Fee     uint64 // satoshis; 0 = gitmark.fee or DefaultFee
}

// Advance commits the working tree and moves the chain forward one
// output:
//
//  1. refuse if a previous advance is still pending
//  2. commit, obtaining the new hash
//  3. derive the signing key for the current output and the destination
//     key for the next one
//  4. build and sign the spend
//  5. write the pending marker, broadcast, append to the ledger, clear
//     the marker
//
// A broadcast failure leaves the marker in place: the transaction may
// have been relayed anyway, so the next run must reconcile rather than
// rebuild a conflicting spend.
func (m *Mark) Advance(ctx context.Context, opts AdvanceOptions) (*Result, error) {
	if m.Chain == nil {
		return nil, ErrOffline
	}

	var res *Result
	err := m.withWriteLock(func() error {
		if _, err := m.Journal.Pending(); err == nil {
			return ErrAdvancePending
		} else if !errors.Is(err, journal.ErrNoPending) {
			// An unreadable journal is not "nothing pending".
			return err
		}

		l, err := ledger.LoadFile(m.LedgerPath())
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return ErrNotInitialized
			}
			return err
		}
		current, err := l.Current()
		if err != nil {
			return ErrNotInitialized
		}

		base, err := m.baseKey(ctx)
		if err != nil {
			return err
		}

		// Prove the derived key actually controls the current output
		// before committing anything.
		signing, err := keychain.SigningKey(base, l)
		if err != nil {
			return err
		}
		signingPub, err := keychain.PublicKeyOf(signing)
		if err != nil {
			return err
		}
		if signingPub != current.PubKey {
			return fmt.Errorf("%w: current output pays %s, derived %s",
				keychain.ErrChainMismatch, current.PubKey, signingPub)
		}

		fee := m.resolveFee(ctx, opts.Fee)
		if current.Amount <= fee {
			return fmt.Errorf("%w: output holds %d sat, fee is %d",
				txbuild.ErrInsufficientFunds, current.Amount, fee)
		}
		amount := current.Amount - fee

		commitHash, err := m.VCS.CommitAll(ctx, opts.Message)
		if err != nil {
			return err
		}

		destKey, err := keychain.DestinationKey(base, l, commitHash)
		if err != nil {
			return err
		}
		destPub, err := keychain.PublicKeyOf(destKey)
		if err != nil {
			return err
		}

		built, err := m.Builder.Build(txbuild.BuildParams{
			PrivateKey:  signing,
			PublicKey:   current.PubKey,
			TxID:        current.TxID,
			Vout:        current.Vout,
			InputAmount: current.Amount,
			Outputs:     []txbuild.Output{{PubKey: destPub, Amount: amount}},
		})
		if err != nil {
			return err
		}

		next := &ledger.OutputRecord{
			Chain:      current.Chain,
			TxID:       built.TxID,
			Vout:       0,
			Amount:     amount,
			PubKey:     destPub,
			CommitHash: commitHash,
		}
		if err := next.Validate(); err != nil {
			return err
		}

		// Marker goes down before the network sees the transaction.
		if err := m.Journal.PutPending(&journal.PendingAdvance{
			CommitHash: commitHash,
			TxHex:      built.Hex,
			TxID:       built.TxID,
			RecordURI:  next.URI(),
		}); err != nil {
			return err
		}

		_, err = m.Chain.BroadcastTx(ctx, built.Hex)
		_ = m.Journal.RecordBroadcast(&journal.BroadcastEntry{
			TxID:       built.TxID,
			CommitHash: commitHash,
			Accepted:   err == nil,
			Detail:     broadcastDetail(err),
		})
		if err != nil {
			return fmt.Errorf("broadcast %s: %w", built.TxID, err)
		}

		if err := l.Append(next).SaveFile(m.LedgerPath()); err != nil {
			return err
		}
		if _, err := m.Journal.TakePending(); err != nil {
			return err
		}

		res = &Result{
			CommitHash: commitHash,
			TxHex:      built.Hex,
			TxID:       built.TxID,
			Record:     next,
			Amount:     amount,
			Fee:        fee,
			Message:    fmt.Sprintf("marked commit %s in tx %s (%d sat carried)", commitHash, built.TxID, amount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Reconcile resolves a pending-advance marker left by an interrupted
// run. If the network knows the transaction, the ledger record is
// appended and the marker cleared; if it does not, the marker is dropped
// so the commit can be re-marked by a fresh advance.
func (m *Mark) Reconcile(ctx context.Context) (*Result, error) {
	if m.Chain == nil {
		return nil, ErrOffline
	}

	var res *Result
	err := m.withWriteLock(func() error {
		p, err := m.Journal.Pending()
		if err != nil {
			return err
		}

		record, err := ledger.ParseRecord(p.RecordURI)
		if err != nil {
			return err
		}

		_, statusErr := m.Chain.GetTxStatus(ctx, p.TxID)
		if statusErr != nil && !errors.Is(statusErr, network.ErrTxNotFound) {
			// Transient network failure. Keep the marker.
			return statusErr
		}

		if statusErr == nil {
			// Broadcast did land. Finish the interrupted append.
			l, err := ledger.LoadFile(m.LedgerPath())
			if err != nil {
				return err
			}
			if err := l.Append(record).SaveFile(m.LedgerPath()); err != nil {
				return err
			}
			if _, err := m.Journal.TakePending(); err != nil {
				return err
			}
			res = &Result{
				CommitHash: p.CommitHash,
				TxHex:      p.TxHex,
				TxID:       p.TxID,
				Record:     record,
				Amount:     record.Amount,
				Message:    fmt.Sprintf("recovered pending advance %s", p.TxID),
			}
			return nil
		}

		// Never made it to the network. Drop the marker; the commit
		// exists in git and can be marked again.
		if _, err := m.Journal.TakePending(); err != nil {
			return err
		}
		res = &Result{
			CommitHash: p.CommitHash,
			TxID:       p.TxID,
			Message:    fmt.Sprintf("dropped unbroadcast advance %s, re-run 'gitmark mark'", p.TxID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func broadcastDetail(err error) string {
	if err == nil {
		return "accepted"
	}
	return err.Error()
}
