package mark

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solidpayorg/gitmark-go/git"
	"github.com/solidpayorg/gitmark-go/keychain"
	"github.com/solidpayorg/gitmark-go/ledger"
	"github.com/solidpayorg/gitmark-go/network"
	"github.com/solidpayorg/gitmark-go/voucher"
)

// testBase is the scalar 1; its x-only pubkey is the generator X.
var testBase = strings.Repeat("0", 63) + "1"

var testCommit = strings.Repeat("ab", 32)

type harness struct {
	mark   *Mark
	cfg    *git.MemConfigStore
	vcs    *git.MemProvider
	chain  *network.MockBlockchainService
	ctx    context.Context
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := git.NewMemConfigStore()
	vcs := &git.MemProvider{Hashes: []string{testCommit}}
	chain := &network.MockBlockchainService{
		BroadcastTxFn: func(_ context.Context, _ string) (string, error) {
			return "", nil // overwritten per test when the txid matters
		},
	}

	m, err := New(dir, cfg, vcs, chain)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return &harness{mark: m, cfg: cfg, vcs: vcs, chain: chain, ctx: context.Background(), dir: dir}
}

// seedLedger writes a one-record ledger whose output is controlled by
// testBase (empty commit history, so signing key == base).
func (h *harness) seedLedger(t *testing.T, amount uint64) *ledger.OutputRecord {
	t.Helper()
	pub, err := keychain.PublicKeyOf(testBase)
	require.NoError(t, err)

	seed := &ledger.OutputRecord{
		Chain:  "regtest",
		TxID:   strings.Repeat("11", 32),
		Vout:   0,
		Amount: amount,
		PubKey: pub,
	}
	require.NoError(t, ledger.New().Append(seed).SaveFile(h.mark.LedgerPath()))
	require.NoError(t, h.cfg.Set(h.ctx, git.KeyBase, testBase, git.ScopeLocal))
	return seed
}

func (h *harness) acceptBroadcasts() {
	h.chain.BroadcastTxFn = func(_ context.Context, _ string) (string, error) {
		return "", nil
	}
}

func TestAdvance(t *testing.T) {
	h := newHarness(t)
	h.seedLedger(t, 5000)

	var broadcasted string
	h.chain.BroadcastTxFn = func(_ context.Context, rawTxHex string) (string, error) {
		broadcasted = rawTxHex
		return "", nil
	}

	res, err := h.mark.Advance(h.ctx, AdvanceOptions{Message: "work"})
	require.NoError(t, err)

	assert.Equal(t, testCommit, res.CommitHash)
	assert.Equal(t, uint64(4000), res.Amount)
	assert.Equal(t, uint64(1000), res.Fee)
	assert.NotEmpty(t, broadcasted)
	assert.Equal(t, res.TxHex, broadcasted)

	// Ledger gained the new record, keyed by base + commit.
	l, err := ledger.LoadFile(h.mark.LedgerPath())
	require.NoError(t, err)
	require.Equal(t, 2, l.Len())

	cur, err := l.Current()
	require.NoError(t, err)
	assert.Equal(t, testCommit, cur.CommitHash)
	assert.Equal(t, uint64(4000), cur.Amount)

	destKey, err := keychain.DestinationKey(testBase, ledger.New().Append(h.seedRecord(t)), testCommit)
	require.NoError(t, err)
	destPub, err := keychain.PublicKeyOf(destKey)
	require.NoError(t, err)
	assert.Equal(t, destPub, cur.PubKey)

	// Marker cleared, broadcast logged.
	_, err = h.mark.Journal.Pending()
	assert.Error(t, err)
	entries, err := h.mark.Journal.Broadcasts()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Accepted)

	// Full custody chain still verifies.
	assert.NoError(t, keychain.VerifyChain(testBase, l))
}

func (h *harness) seedRecord(t *testing.T) *ledger.OutputRecord {
	t.Helper()
	pub, err := keychain.PublicKeyOf(testBase)
	require.NoError(t, err)
	return &ledger.OutputRecord{
		Chain: "regtest", TxID: strings.Repeat("11", 32), Amount: 5000, PubKey: pub,
	}
}

func TestAdvance_NotInitialized(t *testing.T) {
	h := newHarness(t)

	_, err := h.mark.Advance(h.ctx, AdvanceOptions{})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestAdvance_Offline(t *testing.T) {
	h := newHarness(t)
	h.mark.Chain = nil

	_, err := h.mark.Advance(h.ctx, AdvanceOptions{})
	assert.ErrorIs(t, err, ErrOffline)
}

func TestAdvance_ChainMismatch(t *testing.T) {
	h := newHarness(t)
	seed := h.seedLedger(t, 5000)

	// Corrupt the recorded pubkey so derivation cannot match.
	seed.PubKey = strings.Repeat("ee", 32)
	require.NoError(t, ledger.New().Append(seed).SaveFile(h.mark.LedgerPath()))

	_, err := h.mark.Advance(h.ctx, AdvanceOptions{})
	assert.ErrorIs(t, err, keychain.ErrChainMismatch)
}

func TestAdvance_BroadcastFailureLeavesMarker(t *testing.T) {
	h := newHarness(t)
	h.seedLedger(t, 5000)

	h.chain.BroadcastTxFn = func(_ context.Context, _ string) (string, error) {
		return "", network.ErrBroadcastRejected
	}

	_, err := h.mark.Advance(h.ctx, AdvanceOptions{})
	assert.ErrorIs(t, err, network.ErrBroadcastRejected)

	// Marker survives; the ledger did not move.
	p, err := h.mark.Journal.Pending()
	require.NoError(t, err)
	assert.Equal(t, testCommit, p.CommitHash)

	l, err := ledger.LoadFile(h.mark.LedgerPath())
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())

	// A fresh advance refuses until reconciled.
	h.acceptBroadcasts()
	_, err = h.mark.Advance(h.ctx, AdvanceOptions{})
	assert.ErrorIs(t, err, ErrAdvancePending)
}

func TestAdvance_JournalUnreadable(t *testing.T) {
	h := newHarness(t)
	h.seedLedger(t, 5000)

	// A journal that cannot be read must surface its error, not pass as
	// "nothing pending" and advance anyway.
	require.NoError(t, h.mark.Journal.Close())

	_, err := h.mark.Advance(h.ctx, AdvanceOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAdvancePending)

	l, err := ledger.LoadFile(h.mark.LedgerPath())
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestReconcile_TxLanded(t *testing.T) {
	h := newHarness(t)
	h.seedLedger(t, 5000)

	h.chain.BroadcastTxFn = func(_ context.Context, _ string) (string, error) {
		return "", network.ErrConnectionFailed
	}
	_, err := h.mark.Advance(h.ctx, AdvanceOptions{})
	require.Error(t, err)

	// The node saw the transaction after all.
	h.chain.GetTxStatusFn = func(_ context.Context, _ string) (*network.TxStatus, error) {
		return &network.TxStatus{Confirmed: true}, nil
	}

	res, err := h.mark.Reconcile(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, testCommit, res.CommitHash)

	l, err := ledger.LoadFile(h.mark.LedgerPath())
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
	assert.NoError(t, keychain.VerifyChain(testBase, l))

	_, err = h.mark.Journal.Pending()
	assert.Error(t, err)
}

func TestReconcile_TxNeverRelayed(t *testing.T) {
	h := newHarness(t)
	h.seedLedger(t, 5000)

	h.chain.BroadcastTxFn = func(_ context.Context, _ string) (string, error) {
		return "", network.ErrConnectionFailed
	}
	_, err := h.mark.Advance(h.ctx, AdvanceOptions{})
	require.Error(t, err)

	h.chain.GetTxStatusFn = func(_ context.Context, _ string) (*network.TxStatus, error) {
		return nil, network.ErrTxNotFound
	}

	res, err := h.mark.Reconcile(h.ctx)
	require.NoError(t, err)
	assert.Contains(t, res.Message, "dropped")

	// Ledger unchanged, marker gone, advance possible again.
	l, err := ledger.LoadFile(h.mark.LedgerPath())
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())

	h.acceptBroadcasts()
	h.vcs.Hashes = append(h.vcs.Hashes, testCommit)
	_, err = h.mark.Advance(h.ctx, AdvanceOptions{})
	assert.NoError(t, err)
}

func TestInit_ExhaustsVoucher(t *testing.T) {
	h := newHarness(t)
	h.acceptBroadcasts()

	v := &voucher.Voucher{
		Chain:      "regtest",
		TxID:       strings.Repeat("22", 32),
		Vout:       0,
		PrivateKey: strings.Repeat("11", 32),
		Amount:     5000,
	}
	vpath := VoucherPathDefault(h.dir)
	require.NoError(t, v.SaveFile(vpath))

	res, err := h.mark.Init(h.ctx, InitOptions{Voucher: vpath})
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), res.Amount)

	// One-record ledger paying the base pubkey, no commit hash.
	l, err := ledger.LoadFile(h.mark.LedgerPath())
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
	cur, err := l.Current()
	require.NoError(t, err)
	assert.Empty(t, cur.CommitHash)
	assert.Equal(t, uint64(4000), cur.Amount)

	base, err := h.cfg.Get(h.ctx, git.KeyBase, git.ScopeLocal)
	require.NoError(t, err)
	basePub, err := keychain.PublicKeyOf(base)
	require.NoError(t, err)
	assert.Equal(t, basePub, cur.PubKey)

	// Fully consumed credential is removed.
	_, err = os.Stat(vpath)
	assert.True(t, os.IsNotExist(err))

	chain, err := h.cfg.Get(h.ctx, git.KeyChain, git.ScopeLocal)
	require.NoError(t, err)
	assert.Equal(t, "regtest", chain)
}

func TestInit_ReissuesChangeVoucher(t *testing.T) {
	h := newHarness(t)
	h.acceptBroadcasts()

	v := &voucher.Voucher{
		Chain:      "regtest",
		TxID:       strings.Repeat("22", 32),
		PrivateKey: strings.Repeat("11", 32),
		Amount:     10000,
	}
	vpath := VoucherPathDefault(h.dir)
	require.NoError(t, v.SaveFile(vpath))

	res, err := h.mark.Init(h.ctx, InitOptions{Voucher: vpath, Amount: 4000})
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), res.Amount)

	// 10000 - 4000 - 1000 fee = 5000 change at vout 1 of the new tx.
	successor, err := voucher.LoadFile(vpath)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), successor.Amount)
	assert.Equal(t, uint32(voucher.ChangeVout), successor.Vout)
	assert.Equal(t, res.TxID, successor.TxID)
	assert.Equal(t, v.PrivateKey, successor.PrivateKey)
}

func TestInit_RefusesSecondRun(t *testing.T) {
	h := newHarness(t)
	h.seedLedger(t, 5000)

	v := &voucher.Voucher{
		Chain: "regtest", TxID: strings.Repeat("22", 32),
		PrivateKey: strings.Repeat("11", 32), Amount: 5000,
	}
	vpath := VoucherPathDefault(h.dir)
	require.NoError(t, v.SaveFile(vpath))

	_, err := h.mark.Init(h.ctx, InitOptions{Voucher: vpath})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInit_VoucherURI(t *testing.T) {
	h := newHarness(t)
	h.acceptBroadcasts()

	v := &voucher.Voucher{
		Chain:      "regtest",
		TxID:       strings.Repeat("22", 32),
		PrivateKey: strings.Repeat("11", 32),
		Amount:     10000,
	}

	// A literal URI works in place of a file; the change voucher lands
	// at the default location.
	res, err := h.mark.Init(h.ctx, InitOptions{Voucher: v.URN(), Amount: 4000, GlobalKey: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(4000), res.Amount)

	successor, err := voucher.LoadFile(VoucherPathDefault(h.dir))
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), successor.Amount)

	// Generated base key stored globally, not locally.
	_, err = h.cfg.Get(h.ctx, git.KeyBase, git.ScopeLocal)
	assert.ErrorIs(t, err, git.ErrKeyNotFound)
	base, err := h.cfg.Get(h.ctx, git.KeyBase, git.ScopeGlobal)
	require.NoError(t, err)
	assert.Len(t, base, 64)
}

func TestVerify(t *testing.T) {
	h := newHarness(t)
	seed := h.seedLedger(t, 5000)

	h.chain.GetUTXOFn = func(_ context.Context, txid string, vout uint32) (*network.UTXO, error) {
		if txid == seed.TxID && vout == seed.Vout {
			return &network.UTXO{TxID: txid, Vout: vout, Amount: seed.Amount}, nil
		}
		return nil, network.ErrTxNotFound
	}

	rep, err := h.mark.Verify(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Records)
	assert.Equal(t, 0, rep.Commits)
	assert.True(t, rep.Unspent)
}

func TestVerify_NoBaseKey(t *testing.T) {
	h := newHarness(t)
	pub := strings.Repeat("ab", 32)
	seed := &ledger.OutputRecord{
		Chain: "regtest", TxID: strings.Repeat("11", 32), Amount: 5000, PubKey: pub,
	}
	require.NoError(t, ledger.New().Append(seed).SaveFile(h.mark.LedgerPath()))

	_, err := h.mark.Verify(h.ctx)
	assert.ErrorIs(t, err, ErrNoBaseKey)
}

func TestResolveFee(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, uint64(DefaultFee), h.mark.resolveFee(h.ctx, 0))
	assert.Equal(t, uint64(250), h.mark.resolveFee(h.ctx, 250))

	require.NoError(t, h.cfg.Set(h.ctx, git.KeyFee, "500", git.ScopeLocal))
	assert.Equal(t, uint64(500), h.mark.resolveFee(h.ctx, 0))
	assert.Equal(t, uint64(250), h.mark.resolveFee(h.ctx, 250))
}
