package mark

import (
	"context"
	"fmt"

	"github.com/solidpayorg/gitmark-go/discover"
	"github.com/solidpayorg/gitmark-go/keychain"
	"github.com/solidpayorg/gitmark-go/ledger"
)

// VerifyReport summarizes a ledger verification.
type VerifyReport struct {
	Records   int
	Commits   int
	Current   *ledger.OutputRecord
	Unspent   bool // current output confirmed unspent; only meaningful with a chain service
	LedgerURL string // set for remote verification
}

// Verify checks the local ledger: structural validity, custody evolution
// against the configured base key, and (when a chain service is
// configured) that the current output is still unspent.
func (m *Mark) Verify(ctx context.Context) (*VerifyReport, error) {
	l, err := ledger.LoadFile(m.LedgerPath())
	if err != nil {
		return nil, err
	}

	base, err := m.baseKey(ctx)
	if err != nil {
		return nil, err
	}
	if err := keychain.VerifyChain(base, l); err != nil {
		return nil, err
	}

	return m.report(ctx, l, "")
}

// VerifyRemote fetches another repository's published ledger by domain
// and checks its structure and current output. Custody evolution cannot
// be checked without that repository's base key.
func (m *Mark) VerifyRemote(ctx context.Context, domain string) (*VerifyReport, error) {
	l, url, err := discover.ResolveAndFetch(domain, nil, nil)
	if err != nil {
		return nil, err
	}
	for i, r := range l.Records() {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return m.report(ctx, l, url)
}

func (m *Mark) report(ctx context.Context, l *ledger.Ledger, url string) (*VerifyReport, error) {
	current, err := l.Current()
	if err != nil {
		return nil, err
	}

	rep := &VerifyReport{
		Records:   l.Len(),
		Commits:   len(l.CommitHashes()),
		Current:   current,
		LedgerURL: url,
	}
	if m.Chain != nil {
		if _, err := m.Chain.GetUTXO(ctx, current.TxID, current.Vout); err == nil {
			rep.Unspent = true
		}
	}
	return rep, nil
}
