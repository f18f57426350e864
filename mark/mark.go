// Package mark is the gitmark orchestrator: it sequences git commits,
// key derivation, transaction building, broadcast, and ledger persistence
// into the init/advance/verify operations the CLI exposes.
package mark

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/solidpayorg/gitmark-go/git"
	"github.com/solidpayorg/gitmark-go/journal"
	"github.com/solidpayorg/gitmark-go/ledger"
	"github.com/solidpayorg/gitmark-go/network"
	"github.com/solidpayorg/gitmark-go/txbuild"
)

// DefaultFee is the miner fee in satoshis when neither the operation
// options nor gitmark.fee configure one.
const DefaultFee = 1000

// Mark is the shared business logic layer. CLI commands call Mark
// methods to perform chain operations against one repository.
type Mark struct {
	Config  git.ConfigStore
	VCS     git.Provider
	Chain   network.BlockchainService // nil = offline; build-only operations still work
	Builder txbuild.Builder
	Journal *journal.Store
	Dir     string // repository root
}

// Result holds the output of a mark operation.
type Result struct {
	CommitHash string // 64 hex chars, empty for init
	TxHex      string // signed transaction hex
	TxID       string
	Record     *ledger.OutputRecord // the record appended to the ledger
	Amount     uint64               // satoshis carried forward
	Fee        uint64
	Message    string // human-readable summary
}

// New creates a Mark rooted at dir, opening the journal under
// .git/gitmark/. The caller owns Close.
func New(dir string, cfg git.ConfigStore, vcs git.Provider, chain network.BlockchainService) (*Mark, error) {
	j, err := journal.Open(filepath.Join(dir, journal.DefaultPath))
	if err != nil {
		return nil, err
	}
	return &Mark{
		Config:  cfg,
		VCS:     vcs,
		Chain:   chain,
		Builder: txbuild.SDKBuilder{},
		Journal: j,
		Dir:     dir,
	}, nil
}

// Close releases the journal.
func (m *Mark) Close() error {
	if m.Journal != nil {
		return m.Journal.Close()
	}
	return nil
}

// LedgerPath returns the repository's ledger file location.
func (m *Mark) LedgerPath() string {
	return filepath.Join(m.Dir, filepath.FromSlash(ledger.DefaultPath))
}

func (m *Mark) lockPath() string {
	return filepath.Join(m.Dir, ".git", "gitmark", "mark.lock")
}

// withWriteLock executes fn while holding an exclusive repository lock,
// so two concurrent advances cannot race the same output.
func (m *Mark) withWriteLock(fn func() error) error {
	fl, err := acquireLock(m.lockPath())
	if err != nil {
		return fmt.Errorf("mark lock: %w", err)
	}
	defer releaseLock(fl)
	return fn()
}

// baseKey reads gitmark.key, preferring the repository-local value over
// the global one.
func (m *Mark) baseKey(ctx context.Context) (string, error) {
	v, err := m.Config.Get(ctx, git.KeyBase, git.ScopeLocal)
	if err == nil {
		return v, nil
	}
	v, err = m.Config.Get(ctx, git.KeyBase, git.ScopeGlobal)
	if err != nil {
		return "", fmt.Errorf("%w: set %s", ErrNoBaseKey, git.KeyBase)
	}
	return v, nil
}

// resolveFee picks the fee: explicit option, then gitmark.fee, then
// DefaultFee.
func (m *Mark) resolveFee(ctx context.Context, explicit uint64) uint64 {
	if explicit > 0 {
		return explicit
	}
	if v, err := m.Config.Get(ctx, git.KeyFee, git.ScopeLocal); err == nil {
		if fee, perr := strconv.ParseUint(v, 10, 64); perr == nil && fee > 0 {
			return fee
		}
	}
	return DefaultFee
}
