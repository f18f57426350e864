package voucher

import (
	"fmt"
)

// ChangeVout is the output index reserved for voucher change in a
// redemption transaction (output 0 pays the recipient).
const ChangeVout = 1

// Redemption is the outcome of planning a voucher spend. The recipient
// output and the optional change output describe the transaction the
// caller must build; Change is the successor voucher over the
// not-yet-existing change output, nil when the voucher is exhausted.
type Redemption struct {
	UserAmount uint64 // paid to the recipient at vout 0
	Remainder  uint64 // returned as change at vout 1, 0 when exhausted
	Fee        uint64
	Change     *Voucher // nil when Remainder == 0
}

// Exhausted reports whether the redemption consumes the voucher fully.
func (r *Redemption) Exhausted() bool { return r.Change == nil }

// Redeem plans a one-shot spend of the voucher.
//
//	userAmount = min(desiredAmount, v.Amount - fee)
//
// ErrInsufficientFunds if no positive payout is possible. When a positive
// remainder is left, the successor voucher reuses the original private
// key over vout 1 of the (not yet broadcast) spending transaction — a
// voucher never participates in commit-chain key evolution. The
// successor's TxID is unset until the caller has built the transaction;
// see (*Redemption).BindTxID.
func Redeem(v *Voucher, recipientPubKey string, desiredAmount, fee uint64) (*Redemption, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil voucher", ErrInvalidFormat)
	}
	if !isHex(recipientPubKey, hexLen64) {
		return nil, fmt.Errorf("%w: recipient pubkey must be %d hex chars", ErrInvalidFormat, hexLen64)
	}
	if v.Amount <= fee {
		return nil, fmt.Errorf("%w: voucher holds %d sats, fee is %d",
			ErrInsufficientFunds, v.Amount, fee)
	}

	available := v.Amount - fee
	userAmount := desiredAmount
	if userAmount > available {
		userAmount = available
	}
	if userAmount == 0 {
		return nil, fmt.Errorf("%w: voucher holds %d sats, fee is %d, requested %d",
			ErrInsufficientFunds, v.Amount, fee, desiredAmount)
	}

	r := &Redemption{
		UserAmount: userAmount,
		Remainder:  v.Amount - userAmount - fee,
		Fee:        fee,
	}
	if r.Remainder > 0 {
		r.Change = &Voucher{
			Chain:      v.Chain,
			Vout:       ChangeVout,
			PrivateKey: v.PrivateKey,
			Amount:     r.Remainder,
			PubKey:     v.PubKey,
		}
	}
	return r, nil
}

// BindTxID stamps the successor voucher with the transaction ID of the
// built redemption transaction. No-op when the voucher was exhausted.
func (r *Redemption) BindTxID(txid string) {
	if r.Change != nil {
		r.Change.TxID = txid
	}
}
