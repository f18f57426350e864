package journal

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gitmark", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPendingLifecycle(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Pending()
	assert.ErrorIs(t, err, ErrNoPending)

	p := &PendingAdvance{
		CommitHash: strings.Repeat("ab", 32),
		TxHex:      "0100beef",
		TxID:       strings.Repeat("cd", 32),
		RecordURI:  "txo:regtest:" + strings.Repeat("cd", 32) + ":0?amount=4000&pubkey=ff",
	}
	require.NoError(t, s.PutPending(p))
	assert.False(t, p.CreatedAt.IsZero())

	got, err := s.Pending()
	require.NoError(t, err)
	assert.Equal(t, p.CommitHash, got.CommitHash)
	assert.Equal(t, p.RecordURI, got.RecordURI)

	// A second marker is refused while one is in flight.
	err = s.PutPending(&PendingAdvance{CommitHash: "other"})
	assert.ErrorIs(t, err, ErrPendingExists)

	taken, err := s.TakePending()
	require.NoError(t, err)
	assert.Equal(t, p.TxID, taken.TxID)

	_, err = s.TakePending()
	assert.ErrorIs(t, err, ErrNoPending)

	// Slot is free again after take.
	require.NoError(t, s.PutPending(&PendingAdvance{CommitHash: "next"}))
}

func TestBroadcastLog_Order(t *testing.T) {
	s := openTestStore(t)

	for i, txid := range []string{"aa", "bb", "cc"} {
		require.NoError(t, s.RecordBroadcast(&BroadcastEntry{
			TxID:     txid,
			Accepted: i != 1,
			Detail:   "attempt",
		}))
	}

	entries, err := s.Broadcasts()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "aa", entries[0].TxID)
	assert.Equal(t, "bb", entries[1].TxID)
	assert.False(t, entries[1].Accepted)
	assert.Equal(t, "cc", entries[2].TxID)
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
